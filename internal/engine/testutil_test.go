package engine

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"imaged/internal/weights"
)

// traceRecorder collects resource-mutation operations in order, so tests can
// assert on the trace (e.g. a destroy strictly before the next construct).
type traceRecorder struct {
	mu  sync.Mutex
	ops []string
}

func (tr *traceRecorder) record(op string) {
	tr.mu.Lock()
	tr.ops = append(tr.ops, op)
	tr.mu.Unlock()
}

func (tr *traceRecorder) Ops() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]string, len(tr.ops))
	copy(out, tr.ops)
	return out
}

func (tr *traceRecorder) indexOf(t *testing.T, op string) int {
	t.Helper()
	for i, o := range tr.Ops() {
		if o == op {
			return i
		}
	}
	t.Fatalf("operation %q not found in trace %v", op, tr.Ops())
	return -1
}

// fakeBackend is a controllable Backend recording every mutation.
type fakeBackend struct {
	tr *traceRecorder

	mu           sync.Mutex
	constructs   int
	constructErr error
	generateErr  error
	generateHook func()
}

func newFakeBackend() *fakeBackend { return &fakeBackend{tr: &traceRecorder{}} }

func (b *fakeBackend) setConstructErr(err error) {
	b.mu.Lock()
	b.constructErr = err
	b.mu.Unlock()
}

func (b *fakeBackend) setGenerateErr(err error) {
	b.mu.Lock()
	b.generateErr = err
	b.mu.Unlock()
}

// setGenerateHook installs a function run at the start of every Generate,
// letting tests hold the lane at a known point.
func (b *fakeBackend) setGenerateHook(fn func()) {
	b.mu.Lock()
	b.generateHook = fn
	b.mu.Unlock()
}

func (b *fakeBackend) constructCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.constructs
}

func (b *fakeBackend) Construct(_ context.Context, spec BuildSpec) (Handle, error) {
	b.mu.Lock()
	err := b.constructErr
	if err == nil {
		b.constructs++
	}
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}
	b.tr.record("construct:" + string(spec.Variant))
	return &fakeHandle{b: b, spec: spec, addons: make(map[AddOnID]float64)}, nil
}

type fakeHandle struct {
	b      *fakeBackend
	spec   BuildSpec
	addons map[AddOnID]float64
}

func (h *fakeHandle) Generate(_ context.Context, params CallParams) (image.Image, error) {
	h.b.mu.Lock()
	err := h.b.generateErr
	hook := h.b.generateHook
	h.b.mu.Unlock()
	if hook != nil {
		hook()
	}
	h.b.tr.record("generate")
	if err != nil {
		return nil, err
	}
	// one pixel deterministically derived from the seed, enough for
	// artifact equality checks
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: uint8(params.Seed), G: uint8(params.Seed >> 8), B: uint8(params.Seed >> 16), A: 255})
	return img, nil
}

func (h *fakeHandle) LoadAddOns(addons []ResolvedAddOn) error {
	for _, a := range addons {
		h.addons[a.ID] = a.Weight
		h.b.tr.record("attach:" + string(a.ID))
	}
	return nil
}

func (h *fakeHandle) DeleteAddOns(ids []AddOnID) error {
	for _, id := range ids {
		delete(h.addons, id)
		h.b.tr.record("detach:" + string(id))
	}
	return nil
}

func (h *fakeHandle) Close() error {
	h.b.tr.record("close:" + string(h.spec.Variant))
	return nil
}

// seedWeightLayout builds a full weight layout (both variants, realism and
// anti_blur add-ons) under a temp root and returns an opened store.
func seedWeightLayout(t *testing.T) *weights.Store {
	t.Helper()
	root := t.TempDir()
	for _, d := range []string{
		"FLUX.1-dev",
		"InfiniteYou/infu_flux_v1.0/sim_stage1",
		"InfiniteYou/infu_flux_v1.0/aes_stage2",
		"InfiniteYou/supports/optional_loras",
	} {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	for _, id := range []string{"realism", "anti_blur"} {
		p := filepath.Join(root, "InfiniteYou", "supports", "optional_loras", fmt.Sprintf("flux_%s_lora.safetensors", id))
		if err := os.WriteFile(p, []byte("stub"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	s, err := weights.Open(root)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

// newTestEngine wires an Engine around the given backend with a fresh weight
// layout, temp results dir and a memory publisher.
func newTestEngine(t *testing.T, backend Backend) (*Engine, *MemoryPublisher) {
	t.Helper()
	pub := NewMemoryPublisher()
	e, err := NewWithConfig(Config{
		Backend:    backend,
		Store:      seedWeightLayout(t),
		ResultsDir: filepath.Join(t.TempDir(), "results"),
		Publisher:  pub,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(e.Close)
	return e, pub
}

// testIDImage returns a small identity image for call params.
func testIDImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 8, 8))
}
