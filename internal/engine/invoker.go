package engine

import (
	"context"
	"image"
	"math/rand"
	"sync"
	"time"
)

// invoker executes one generation on a resident pipeline and owns the
// process-wide seed source.
type invoker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newInvoker() *invoker {
	return &invoker{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// deriveSeed returns the seed to use for one call. The sentinel 0 means
// "draw a fresh seed"; the drawn value is masked to 32 bits (matching what
// callers can feed back in) and never 0, so a reported seed always
// reproduces the call exactly.
func (iv *invoker) deriveSeed(requested int64) int64 {
	if requested != 0 {
		return requested
	}
	iv.mu.Lock()
	defer iv.mu.Unlock()
	for {
		if s := iv.rng.Int63() & 0xFFFFFFFF; s != 0 {
			return s
		}
	}
}

// Run executes one generation. It always reports the seed actually used,
// success or failure, and never mutates cache state: a failure is attributed
// to this call's parameters, not to the resident pipeline.
func (iv *invoker) Run(ctx context.Context, r *Resident, params CallParams) (image.Image, int64, error) {
	seed := iv.deriveSeed(params.Seed)
	params.Seed = seed
	img, err := r.handle.Generate(ctx, params)
	if err != nil {
		return nil, seed, ErrInferenceFailed(seed, err)
	}
	return img, seed, nil
}
