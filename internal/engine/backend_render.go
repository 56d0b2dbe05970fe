package engine

import (
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"math"
	"math/rand"
	"sort"

	"github.com/fogleman/gg"
)

// RenderBackend is the built-in pipeline backend. It draws a deterministic
// abstraction of (prompt, seed, geometry, add-on set) with no accelerator at
// all, which makes it usable on any machine and makes seed reproducibility
// directly observable. The real diffusion pipeline is an external
// collaborator implementing the same Backend contract.
type RenderBackend struct{}

func NewRenderBackend() *RenderBackend { return &RenderBackend{} }

func (b *RenderBackend) Construct(_ context.Context, spec BuildSpec) (Handle, error) {
	if spec.BaseModelPath == "" || spec.VariantPath == "" {
		return nil, fmt.Errorf("incomplete build spec for %s", spec.Variant)
	}
	return &renderHandle{spec: spec, addons: make(map[AddOnID]float64)}, nil
}

// renderHandle is a live render "pipeline". Like any Handle it is only ever
// touched from the serialized lane, so the add-on map needs no lock.
type renderHandle struct {
	spec   BuildSpec
	addons map[AddOnID]float64
	closed bool
}

func (h *renderHandle) LoadAddOns(addons []ResolvedAddOn) error {
	if h.closed {
		return fmt.Errorf("pipeline closed")
	}
	for _, a := range addons {
		h.addons[a.ID] = a.Weight
	}
	return nil
}

func (h *renderHandle) DeleteAddOns(ids []AddOnID) error {
	if h.closed {
		return fmt.Errorf("pipeline closed")
	}
	for _, id := range ids {
		delete(h.addons, id)
	}
	return nil
}

func (h *renderHandle) Close() error {
	h.closed = true
	return nil
}

// Generate renders params.NumSteps translucent strokes from an RNG seeded
// with (seed, prompt, variant, add-ons). Identical inputs yield identical
// pixels, which is exactly the determinism contract tests rely on.
func (h *renderHandle) Generate(_ context.Context, params CallParams) (image.Image, error) {
	if h.closed {
		return nil, fmt.Errorf("pipeline closed")
	}
	if params.Width <= 0 || params.Height <= 0 {
		return nil, fmt.Errorf("invalid geometry %dx%d", params.Width, params.Height)
	}

	rng := rand.New(rand.NewSource(h.drawSeed(params)))
	dc := gg.NewContext(params.Width, params.Height)

	// background tone keyed to the variant
	if h.spec.Variant == VariantSimStage1 {
		dc.SetRGB(0.10, 0.12, 0.18)
	} else {
		dc.SetRGB(0.16, 0.10, 0.14)
	}
	dc.Clear()

	w := float64(params.Width)
	ht := float64(params.Height)
	for i := 0; i < params.NumSteps; i++ {
		x := rng.Float64() * w
		y := rng.Float64() * ht
		radius := (0.02 + rng.Float64()*0.10) * math.Min(w, ht)
		hue := rng.Float64()
		alpha := 0.15 + 0.5*rng.Float64()/params.GuidanceScale
		dc.SetRGBA(hue, 0.4+0.4*rng.Float64(), 1-hue, alpha)
		dc.DrawCircle(x, y, radius*params.ConditioningScale)
		dc.Fill()
	}
	return dc.Image(), nil
}

// drawSeed folds every generation-relevant input into one RNG seed.
func (h *renderHandle) drawSeed(params CallParams) int64 {
	hsh := fnv.New64a()
	fmt.Fprintf(hsh, "%d|%s|%s|%t|%t", params.Seed, params.Prompt, h.spec.Variant, h.spec.Quantize8Bit, h.spec.CPUOffload)
	ids := make([]AddOnID, 0, len(h.addons))
	for id := range h.addons {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fmt.Fprintf(hsh, "|%s=%g", id, h.addons[id])
	}
	if params.IDImage != nil {
		b := params.IDImage.Bounds()
		fmt.Fprintf(hsh, "|id=%dx%d", b.Dx(), b.Dy())
	}
	if params.ControlImage != nil {
		b := params.ControlImage.Bounds()
		fmt.Fprintf(hsh, "|ctl=%dx%d", b.Dx(), b.Dy())
	}
	return int64(hsh.Sum64() & math.MaxInt64)
}
