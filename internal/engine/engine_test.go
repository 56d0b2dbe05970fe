package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"
)

func TestGenerateEndToEnd(t *testing.T) {
	b := newFakeBackend()
	e, pub := newTestEngine(t, b)

	cfg := PipelineConfig{Variant: VariantAesStage2, Quantize8Bit: true, CPUOffload: true}
	params := CallParams{Prompt: "Portrait, cinematic", IDImage: testIDImage(), Seed: 42}

	res, err := e.Generate(context.Background(), cfg, params)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Seed != 42 {
		t.Fatalf("expected seed 42, got %d", res.Seed)
	}
	if res.Width != DefaultWidth || res.Height != DefaultHeight {
		t.Fatalf("expected default geometry, got %dx%d", res.Width, res.Height)
	}
	if _, err := os.Stat(res.Path); err != nil {
		t.Fatalf("artifact not on disk: %v", err)
	}

	names := pub.Names()
	var sawConstruct, sawSaved, sawDone bool
	for _, n := range names {
		switch n {
		case EvPipelineConstruct:
			sawConstruct = true
		case EvArtifactSaved:
			sawSaved = true
		case EvGenerateDone:
			sawDone = true
		}
	}
	if !sawConstruct || !sawSaved || !sawDone {
		t.Fatalf("missing lifecycle events in %v", names)
	}
}

func TestGenerateRandomSeedReproducible(t *testing.T) {
	e, _ := newTestEngine(t, newFakeBackend())
	ctx := context.Background()
	cfg := PipelineConfig{Variant: VariantAesStage2}
	params := CallParams{Prompt: "reproducible", IDImage: testIDImage()}

	first, err := e.Generate(ctx, cfg, params)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first.Seed == 0 {
		t.Fatalf("random seed must be reported nonzero")
	}

	params.Seed = first.Seed
	second, err := e.Generate(ctx, cfg, params)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if second.Seed != first.Seed {
		t.Fatalf("replay used seed %d, want %d", second.Seed, first.Seed)
	}

	a, err := os.ReadFile(first.Path)
	if err != nil {
		t.Fatalf("read first: %v", err)
	}
	b, err := os.ReadFile(second.Path)
	if err != nil {
		t.Fatalf("read second: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("replay with reported seed produced a different artifact")
	}
}

func TestGenerateValidation(t *testing.T) {
	e, _ := newTestEngine(t, newFakeBackend())
	ctx := context.Background()

	if _, err := e.Generate(ctx, PipelineConfig{}, CallParams{IDImage: testIDImage()}); err == nil || !IsConfigRejected(err) {
		t.Fatalf("expected rejection for missing prompt, got %v", err)
	}
	if _, err := e.Generate(ctx, PipelineConfig{}, CallParams{Prompt: "x"}); err == nil || !IsConfigRejected(err) {
		t.Fatalf("expected rejection for missing identity image, got %v", err)
	}
	if _, err := e.Generate(ctx, PipelineConfig{Variant: "bogus"}, CallParams{Prompt: "x", IDImage: testIDImage()}); err == nil || !IsConfigRejected(err) {
		t.Fatalf("expected rejection for unknown variant, got %v", err)
	}
}

func TestInferenceFailureIsolation(t *testing.T) {
	b := newFakeBackend()
	e, _ := newTestEngine(t, b)
	ctx := context.Background()

	cfg := PipelineConfig{Variant: VariantAesStage2, Quantize8Bit: true}
	params := CallParams{Prompt: "r1", IDImage: testIDImage(), Seed: 7}
	if _, err := e.Generate(ctx, cfg, params); err != nil {
		t.Fatalf("seed generation: %v", err)
	}
	resident := e.cache.Resident()

	// R1 fails during inference
	b.setGenerateErr(errors.New("numerical instability"))
	res, err := e.Generate(ctx, cfg, CallParams{Prompt: "r1 retry", IDImage: testIDImage(), Seed: 7})
	if err == nil || !IsInferenceFailed(err) {
		t.Fatalf("expected inference failure, got %v", err)
	}
	if res.Seed != 7 {
		t.Fatalf("failed generation must still report its seed, got %d", res.Seed)
	}

	// the failure is attributed to the call, not the resource: the resident
	// pipeline and its config survive untouched
	if e.cache.Resident() != resident {
		t.Fatalf("resident pipeline changed after an inference failure")
	}

	// R2 with the cached config gets a hit, not a reconstruction
	b.setGenerateErr(nil)
	if _, err := e.Generate(ctx, cfg, CallParams{Prompt: "r2", IDImage: testIDImage(), Seed: 8}); err != nil {
		t.Fatalf("r2: %v", err)
	}
	if n := b.constructCount(); n != 1 {
		t.Fatalf("expected a single construction across the failure, got %d", n)
	}
}

func TestGenerateAbandonedCallerGetsNoResult(t *testing.T) {
	b := newFakeBackend()
	e, pub := newTestEngine(t, b)

	started := make(chan struct{})
	gate := make(chan struct{})
	var once sync.Once
	release := func() { once.Do(func() { close(gate) }) }
	defer release()
	b.setGenerateHook(func() { close(started); <-gate })

	type outcome struct {
		res GenerateResult
		err error
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := make(chan outcome, 1)
	go func() {
		res, err := e.Generate(ctx, PipelineConfig{Variant: VariantAesStage2}, CallParams{Prompt: "x", IDImage: testIDImage(), Seed: 5})
		ch <- outcome{res, err}
	}()

	// abandon the caller while its item is mid-inference
	<-started
	cancel()
	got := <-ch
	if got.err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", got.err)
	}
	// the abandoned item's outputs are discarded, never half-written
	if got.res.Path != "" || got.res.Seed != 0 || got.res.Image != nil || got.res.Width != 0 {
		t.Fatalf("abandoned caller must get a zero result, got %+v", got.res)
	}

	// the item itself still runs to completion
	release()
	deadline := time.After(2 * time.Second)
	for {
		done := false
		for _, n := range pub.Names() {
			if n == EvGenerateDone {
				done = true
			}
		}
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("abandoned generation never completed; events: %v", pub.Names())
		case <-time.After(time.Millisecond):
		}
	}
}

func TestStatusConcurrentWithAddOnSwaps(t *testing.T) {
	e, _ := newTestEngine(t, newFakeBackend())
	ctx := context.Background()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_ = e.Status()
			}
		}
	}()

	cfgs := []PipelineConfig{
		{Variant: VariantAesStage2, AddOns: []AddOnSpec{{ID: AddOnRealism}}},
		{Variant: VariantAesStage2, AddOns: []AddOnSpec{{ID: AddOnAntiBlur}}},
	}
	for i := 0; i < 20; i++ {
		if err := e.Warmup(ctx, cfgs[i%2]); err != nil {
			t.Fatalf("warmup %d: %v", i, err)
		}
	}
	close(stop)
	wg.Wait()

	st := e.Status()
	if st.Resident == nil || len(st.Resident.AddOns) != 1 || st.Resident.AddOns[0].ID != "anti_blur" {
		t.Fatalf("unexpected resident snapshot: %+v", st.Resident)
	}
}

func TestStatusReportsResidentAndCounters(t *testing.T) {
	b := newFakeBackend()
	e, _ := newTestEngine(t, b)
	ctx := context.Background()

	st := e.Status()
	if st.State != string(StateIdle) || st.Resident != nil {
		t.Fatalf("unexpected initial status: %+v", st)
	}

	cfg := PipelineConfig{Variant: VariantSimStage1, AddOns: []AddOnSpec{{ID: AddOnRealism}}}
	if _, err := e.Generate(ctx, cfg, CallParams{Prompt: "x", IDImage: testIDImage(), Seed: 1}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	st = e.Status()
	if st.State != string(StateReady) {
		t.Fatalf("expected ready, got %s", st.State)
	}
	if st.Resident == nil || st.Resident.Variant != "sim_stage1" || len(st.Resident.AddOns) != 1 {
		t.Fatalf("unexpected resident status: %+v", st.Resident)
	}
	if st.ConstructionsTotal != 1 || st.GenerationsTotal != 1 || st.AddOnSwapsTotal != 1 {
		t.Fatalf("unexpected counters: %+v", st)
	}

	// a cache hit on the same config must not count another swap
	if err := e.Warmup(ctx, cfg); err != nil {
		t.Fatalf("warmup same config: %v", err)
	}
	if st := e.Status(); st.AddOnSwapsTotal != 1 {
		t.Fatalf("no-op warmup counted a swap: %+v", st)
	}

	// changing the add-on set in place counts exactly one more
	cfg.AddOns = []AddOnSpec{{ID: AddOnAntiBlur}}
	if err := e.Warmup(ctx, cfg); err != nil {
		t.Fatalf("warmup new add-on: %v", err)
	}
	st = e.Status()
	if st.AddOnSwapsTotal != 2 || st.ConstructionsTotal != 1 {
		t.Fatalf("unexpected counters after swap: %+v", st)
	}
}

func TestCloseDestroysResidentAndRejectsWork(t *testing.T) {
	b := newFakeBackend()
	e, pub := newTestEngine(t, b)
	ctx := context.Background()

	if err := e.Warmup(ctx, PipelineConfig{Variant: VariantAesStage2}); err != nil {
		t.Fatalf("warmup: %v", err)
	}
	e.Close()

	if e.cache.Resident() != nil {
		t.Fatalf("expected resident destroyed at shutdown")
	}
	if st := e.Status(); st.Resident != nil {
		t.Fatalf("status still reports a resident after shutdown: %+v", st.Resident)
	}
	b.tr.indexOf(t, "close:aes_stage2")
	if e.Ready() {
		t.Fatalf("expected not ready after close")
	}
	if _, err := e.Generate(ctx, PipelineConfig{}, CallParams{Prompt: "x", IDImage: testIDImage()}); err == nil || !IsResourceUnavailable(err) {
		t.Fatalf("expected rejection after close, got %v", err)
	}

	var sawShutdown bool
	for _, n := range pub.Names() {
		if n == EvShutdown {
			sawShutdown = true
		}
	}
	if !sawShutdown {
		t.Fatalf("expected shutdown event")
	}
}
