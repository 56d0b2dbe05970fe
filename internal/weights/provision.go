package weights

import "context"

// Provisioner materializes named weight archives into the store root.
// Fetching from a remote registry is an external concern; the in-tree
// implementation only verifies local presence.
type Provisioner interface {
	// EnsureLocal makes sure every archive needed by variant (plus the base
	// model) is present under the store root. It returns a MissingError when
	// an archive is absent and cannot be materialized.
	EnsureLocal(ctx context.Context, variant string) error
}

// LocalProvisioner verifies presence without fetching anything.
type LocalProvisioner struct {
	Store *Store
}

func (p LocalProvisioner) EnsureLocal(_ context.Context, variant string) error {
	if _, err := p.Store.BaseModelPath(); err != nil {
		return err
	}
	_, err := p.Store.VariantPath(variant)
	return err
}
