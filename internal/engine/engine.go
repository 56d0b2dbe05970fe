package engine

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"imaged/pkg/types"
)

// Engine owns the residency cache, the serialized lane, the invoker and the
// output persister. Exactly one Engine exists for the lifetime of the
// process; it is created empty (nothing resident) and torn down with Close.
type Engine struct {
	cfg   Config
	cache *Cache
	sched *scheduler
	inv   *invoker
	out   *persister
	pub   EventPublisher

	mu        sync.RWMutex
	state     State
	lastErr   string
	resident  *types.ResidentStatus
	startTime time.Time
	closed    bool

	constructions uint64
	destroys      uint64
	addonSwaps    uint64
	generations   uint64
	failures      uint64
}

func newEngine(cfg Config, log zerolog.Logger) *Engine {
	e := &Engine{
		cfg:       cfg,
		cache:     newCache(cfg.Backend, cfg.Store, cfg.Device, cfg.Publisher, log),
		sched:     newScheduler(log),
		inv:       newInvoker(),
		out:       newPersister(cfg.ResultsDir),
		pub:       cfg.Publisher,
		state:     StateIdle,
		startTime: time.Now(),
	}
	return e
}

// GenerateResult is the outcome of one successful generation.
type GenerateResult struct {
	// Path of the saved artifact.
	Path string
	// Seed actually used; nonzero even when the request asked for random.
	Seed int64
	// The produced artifact.
	Image image.Image
	// Output geometry.
	Width, Height int
	// Wall-clock duration of the work item.
	Duration time.Duration
}

// NormalizeConfig validates and normalizes a pipeline configuration,
// applying the engine's default variant. Rejection happens here, before the
// request ever reaches the lane or the cache.
func (e *Engine) NormalizeConfig(cfg PipelineConfig) (PipelineConfig, error) {
	if cfg.Variant == "" {
		cfg.Variant = e.cfg.DefaultVariant
	}
	return cfg.Normalize()
}

// Generate schedules one generation as a single work item: prepare the
// resident pipeline for cfg, run the call, persist the artifact. The caller
// blocks until its item completes (or until ctx ends, in which case the item
// still runs and its result is discarded).
//
// On an inference failure the returned GenerateResult still carries the seed
// that was used, so the caller can retry deterministically.
func (e *Engine) Generate(ctx context.Context, cfg PipelineConfig, params CallParams) (GenerateResult, error) {
	cfg, err := e.NormalizeConfig(cfg)
	if err != nil {
		return GenerateResult{}, err
	}
	params = params.withDefaults()
	if params.Prompt == "" {
		return GenerateResult{}, ErrConfigRejected("prompt is required")
	}
	if params.IDImage == nil {
		return GenerateResult{}, ErrConfigRejected("identity image is required")
	}

	// The closure writes out; the caller reads it only when submit returned
	// nil, which happens strictly after the item completed. An abandoning
	// caller gets a zero result: the item still runs, its outputs are
	// discarded.
	var out struct {
		res GenerateResult
		err error
	}
	if err := e.sched.submit(ctx, workGenerate, func() {
		out.res, out.err = e.runGenerate(cfg, params)
	}); err != nil {
		return GenerateResult{}, err
	}
	return out.res, out.err
}

// runGenerate executes one generation inside the lane: prepare, run, persist.
// On an inference failure the result still carries the seed that was used.
func (e *Engine) runGenerate(cfg PipelineConfig, params CallParams) (GenerateResult, error) {
	var res GenerateResult
	start := time.Now()
	e.pub.Publish(Event{Name: EvGenerateStart, Fields: map[string]any{"variant": string(cfg.Variant), "seed": params.Seed}})

	r, err := e.prepareLocked(cfg)
	if err != nil {
		return res, err
	}

	// Work items run detached from the submitting caller: once dequeued
	// there is no cancellation, so the lane context is Background.
	img, seed, err := e.inv.Run(context.Background(), r, params)
	res.Seed = seed
	if err != nil {
		e.recordFailure(err)
		e.pub.Publish(Event{Name: EvGenerateError, Fields: map[string]any{"seed": seed, "error": err.Error()}})
		return res, err
	}

	path, err := e.out.Save(img, params.Prompt, seed)
	if err != nil {
		e.recordFailure(err)
		return res, err
	}
	e.pub.Publish(Event{Name: EvArtifactSaved, Fields: map[string]any{"path": path, "seed": seed}})

	res.Path = path
	res.Image = img
	res.Width = params.Width
	res.Height = params.Height
	res.Duration = time.Since(start)

	e.mu.Lock()
	e.generations++
	e.mu.Unlock()
	generationsTotal.Inc()
	generateDuration.Observe(res.Duration.Seconds())
	e.pub.Publish(Event{Name: EvGenerateDone, Fields: map[string]any{"seed": seed, "path": path}})
	return res, nil
}

// Warmup schedules a prepare-only work item so a configuration can be made
// resident ahead of its first generation.
func (e *Engine) Warmup(ctx context.Context, cfg PipelineConfig) error {
	cfg, err := e.NormalizeConfig(cfg)
	if err != nil {
		return err
	}
	var runErr error
	if err := e.sched.submit(ctx, workPrepare, func() {
		_, runErr = e.prepareLocked(cfg)
	}); err != nil {
		return err
	}
	return runErr
}

// prepareLocked runs the cache decision table inside the lane and keeps the
// engine's state and counters in step with what the cache did.
func (e *Engine) prepareLocked(cfg PipelineConfig) (*Resident, error) {
	needsBuild := true
	if r := e.cache.Resident(); r != nil {
		needsBuild = !cfg.sameBase(PipelineConfig{Variant: r.variant, Quantize8Bit: r.quantize8Bit, CPUOffload: r.cpuOffload})
	}
	if needsBuild {
		e.setState(StateLoading, "")
	}

	r, out, err := e.cache.Prepare(context.Background(), cfg)
	e.refreshResident()

	e.mu.Lock()
	if out.Destroyed {
		e.destroys++
	}
	if out.Rebuilt {
		e.constructions++
	}
	if out.Swapped {
		e.addonSwaps++
	}
	e.mu.Unlock()

	if err != nil {
		if out.Rebuilt {
			// built then torn down again while applying add-ons
			e.mu.Lock()
			e.destroys++
			e.mu.Unlock()
		}
		e.recordFailure(err)
		e.setState(StateError, err.Error())
		return nil, err
	}
	e.setState(StateReady, "")
	return r, nil
}

func (e *Engine) setState(s State, errMsg string) {
	e.mu.Lock()
	e.state = s
	e.lastErr = errMsg
	e.mu.Unlock()
}

func (e *Engine) recordFailure(err error) {
	e.mu.Lock()
	e.failures++
	e.mu.Unlock()
	failuresTotal.WithLabelValues(failureKind(err)).Inc()
}

// Ready reports whether the engine is accepting work.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.closed
}

// Close drains the lane, destroys the resident pipeline and reclaims its
// accelerator memory. Safe to call once at shutdown.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.pub.Publish(Event{Name: EvShutdown})
	e.sched.close()
	// Lane is drained: cache access is exclusive now.
	destroyed := e.cache.Resident() != nil
	e.cache.Close()
	e.refreshResident()
	e.mu.Lock()
	if destroyed {
		e.destroys++
	}
	e.state = StateIdle
	e.mu.Unlock()
}
