package engine

import (
	"errors"

	"github.com/rs/zerolog"

	"imaged/internal/weights"
)

// defaultResultsDir is used when Config.ResultsDir is unset.
const defaultResultsDir = "results"

// Config encapsulates all tunables for Engine construction.
type Config struct {
	// Backend constructs pipeline instances. Required.
	Backend Backend
	// Store resolves weight archives on disk. Required.
	Store *weights.Store
	// ResultsDir is where artifacts are saved. Defaults to "results".
	ResultsDir string
	// DefaultVariant is used when requests leave the variant empty.
	// Defaults to the package default.
	DefaultVariant Variant
	// Device is the accelerator device index threaded into build specs.
	Device int
	// Publisher receives lifecycle events. Defaults to a no-op.
	Publisher EventPublisher
	// Logger is used for engine logs. Defaults to a disabled logger.
	Logger *zerolog.Logger
}

// NewWithConfig constructs an Engine from Config and starts its lane.
func NewWithConfig(cfg Config) (*Engine, error) {
	if cfg.Backend == nil {
		return nil, errors.New("engine: Backend is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("engine: Store is required")
	}
	if cfg.ResultsDir == "" {
		cfg.ResultsDir = defaultResultsDir
	}
	if cfg.DefaultVariant == "" {
		cfg.DefaultVariant = DefaultVariant
	}
	if cfg.Publisher == nil {
		cfg.Publisher = noopPublisher{}
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	return newEngine(cfg, log), nil
}
