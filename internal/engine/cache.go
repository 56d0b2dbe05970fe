package engine

import (
	"context"

	"github.com/rs/zerolog"

	"imaged/internal/weights"
)

// Resident is the single loaded, accelerator-resident pipeline, tagged with
// the construction-time fields it was built with plus the live add-on set.
// Owned exclusively by the cache; callers never retain one across work items.
type Resident struct {
	handle Handle

	variant      Variant
	quantize8Bit bool
	cpuOffload   bool
	addons       map[AddOnID]float64
}

// Config returns the normalized fingerprint the resident currently satisfies.
func (r *Resident) Config() PipelineConfig {
	cfg := PipelineConfig{
		Variant:      r.variant,
		Quantize8Bit: r.quantize8Bit,
		CPUOffload:   r.cpuOffload,
	}
	for id, w := range r.addons {
		cfg.AddOns = append(cfg.AddOns, AddOnSpec{ID: id, Weight: w})
	}
	cfg, _ = cfg.Normalize()
	return cfg
}

// prepareOutcome reports what work Prepare actually performed.
type prepareOutcome struct {
	Destroyed bool
	Rebuilt   bool
	Swapped   bool
}

// Cache owns at most one resident pipeline instance and decides, per
// requested fingerprint, between a no-op, an in-place add-on swap, and a full
// destroy-then-reconstruct.
//
// Prepare is invoked only from the scheduler's lane, never concurrently with
// itself, so the cache carries no lock. The resident handle and the
// bookkeeping around it are mutated exclusively here.
type Cache struct {
	backend Backend
	store   *weights.Store
	device  int
	pub     EventPublisher
	log     zerolog.Logger

	resident *Resident
}

func newCache(backend Backend, store *weights.Store, device int, pub EventPublisher, log zerolog.Logger) *Cache {
	return &Cache{backend: backend, store: store, device: device, pub: pub, log: log}
}

// Resident returns the current resident, or nil. Lane-only, like Prepare.
func (c *Cache) Resident() *Resident { return c.resident }

// Prepare returns a resident pipeline satisfying cfg, performing the minimum
// necessary work. cfg must be normalized.
//
// Decision table:
//  1. nothing resident                        -> full construction
//  2. variant differs                         -> destroy, then full construction
//  3. quantize/offload differ                 -> same as 2 (baked into the build)
//  4. same base                               -> diff add-ons in place, same handle
//
// A destroyed instance's memory is reclaimed before the new construction
// starts: both cannot fit in accelerator memory simultaneously. On any build
// failure the cache is left with nothing resident, so the next Prepare
// retries from scratch.
func (c *Cache) Prepare(ctx context.Context, cfg PipelineConfig) (*Resident, prepareOutcome, error) {
	var out prepareOutcome
	c.pub.Publish(Event{Name: EvPrepareStart, Fields: map[string]any{
		"variant": string(cfg.Variant), "quantize_8bit": cfg.Quantize8Bit, "cpu_offload": cfg.CPUOffload,
	}})

	if r := c.resident; r != nil {
		if cfg.sameBase(PipelineConfig{Variant: r.variant, Quantize8Bit: r.quantize8Bit, CPUOffload: r.cpuOffload}) {
			swapped, err := c.syncAddOns(r, cfg)
			out.Swapped = swapped
			return r, out, err
		}
		// Base fields differ: the old instance must go first.
		c.destroy(r)
		out.Destroyed = true
	}

	r, err := c.construct(ctx, cfg)
	if err != nil {
		return nil, out, err
	}
	out.Rebuilt = true
	swapped, err := c.syncAddOns(r, cfg)
	if err != nil {
		// A freshly built instance with a wrong add-on set is not a valid
		// resident; tear it down and stay empty.
		c.destroy(r)
		return nil, out, err
	}
	out.Swapped = swapped
	c.resident = r
	return r, out, nil
}

// construct builds a new instance for cfg. The result is not yet resident;
// the caller commits it after add-ons are applied.
func (c *Cache) construct(ctx context.Context, cfg PipelineConfig) (*Resident, error) {
	basePath, err := c.store.BaseModelPath()
	if err != nil {
		return nil, mapWeightsErr(err)
	}
	variantPath, err := c.store.VariantPath(string(cfg.Variant))
	if err != nil {
		return nil, mapWeightsErr(err)
	}
	spec := BuildSpec{
		Variant:          cfg.Variant,
		Quantize8Bit:     cfg.Quantize8Bit,
		CPUOffload:       cfg.CPUOffload,
		Device:           c.device,
		BaseModelPath:    basePath,
		VariantPath:      variantPath,
		FaceAnalysisPath: c.store.FaceAnalysisPath(),
	}
	c.log.Info().Str("variant", string(cfg.Variant)).Str("path", variantPath).Msg("constructing pipeline")
	h, err := c.backend.Construct(ctx, spec)
	if err != nil {
		return nil, ErrConstructionFailed(cfg.Variant, err)
	}
	constructionsTotal.Inc()
	c.pub.Publish(Event{Name: EvPipelineConstruct, Fields: map[string]any{"variant": string(cfg.Variant)}})
	return &Resident{
		handle:       h,
		variant:      cfg.Variant,
		quantize8Bit: cfg.Quantize8Bit,
		cpuOffload:   cfg.CPUOffload,
		addons:       make(map[AddOnID]float64),
	}, nil
}

// destroy releases r and reclaims its accelerator memory synchronously.
// The cache is empty when destroy returns, whatever Close reported.
func (c *Cache) destroy(r *Resident) {
	c.pub.Publish(Event{Name: EvPipelineDestroy, Fields: map[string]any{"variant": string(r.variant)}})
	if err := r.handle.Close(); err != nil {
		c.log.Warn().Err(err).Str("variant", string(r.variant)).Msg("pipeline close reported error")
	}
	destroysTotal.Inc()
	if c.resident == r {
		c.resident = nil
	}
}

// Close destroys the resident pipeline, if any. Lane must be drained first.
func (c *Cache) Close() {
	if r := c.resident; r != nil {
		c.destroy(r)
	}
}

// mapWeightsErr converts store lookups into the engine's error taxonomy.
func mapWeightsErr(err error) error {
	if weights.IsMissing(err) {
		return ErrResourceUnavailable("weight data missing", err)
	}
	return ErrResourceUnavailable("weight store", err)
}
