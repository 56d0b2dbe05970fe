package engine

import (
	"context"
	"image"
)

// BuildSpec describes one full pipeline construction. Everything here is
// baked into the built instance; changing any of it requires a rebuild.
type BuildSpec struct {
	Variant      Variant
	Quantize8Bit bool
	CPUOffload   bool
	Device       int

	BaseModelPath    string
	VariantPath      string
	FaceAnalysisPath string
}

// ResolvedAddOn is an add-on module resolved to its weight file.
type ResolvedAddOn struct {
	ID     AddOnID
	Path   string
	Weight float64
}

// Handle is a live, accelerator-resident pipeline instance. Implementations
// are not safe for concurrent use; the engine only ever touches a Handle
// from inside the serialized lane.
type Handle interface {
	// Generate runs one generation. params.Seed is always nonzero here.
	Generate(ctx context.Context, params CallParams) (image.Image, error)
	// LoadAddOns attaches add-on modules in place.
	LoadAddOns(addons []ResolvedAddOn) error
	// DeleteAddOns detaches add-on modules in place. Unknown ids are ignored.
	DeleteAddOns(ids []AddOnID) error
	// Close releases the instance and reclaims accelerator memory. It must
	// return only once the memory is actually reclaimed: the cache relies on
	// destroy completing before the next construction starts.
	Close() error
}

// Backend constructs pipeline instances. It is the boundary to the actual
// numerical pipeline, which is an external collaborator.
type Backend interface {
	Construct(ctx context.Context, spec BuildSpec) (Handle, error)
}
