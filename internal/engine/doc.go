// Package engine coordinates residency and serialized access for the single
// accelerator-bound image generation pipeline. It is structured into small
// files by concern:
//
//   - engine.go: core Engine type, constructor, Generate/Warmup entry points.
//   - config.go: Config and package defaults; NewWithConfig applies defaults.
//   - types.go: domain types (Variant, PipelineConfig, AddOnSpec, CallParams).
//   - errors.go: error types and helpers (IsConfigRejected, IsInferenceFailed, ...).
//   - cache.go: residency cache (at most one resident pipeline; hit / add-on
//     swap / destroy-then-rebuild decision table).
//   - addons.go: add-on set diffing and in-place attach/detach.
//   - scheduler.go: the single serialized lane all accelerator work goes through.
//   - invoker.go: one generation call, seed derivation, failure mapping.
//   - persist.go: collision-free artifact filenames in the results area.
//   - backend.go: the Backend/Handle contract a pipeline runtime implements.
//   - backend_render.go: deterministic local backend used in dev and tests.
//   - events.go: lifecycle events and the EventPublisher contract.
//   - status.go: Status reporting.
//
// The accelerator has no safe concurrent-execution contract, so construction,
// add-on loading, inference, and artifact persistence all execute inside the
// scheduler's lane, one work item at a time, in strict arrival order. The
// cache's bookkeeping is mutated only from lane code and therefore needs no
// lock of its own.
//
// External packages should treat this package as the orchestration layer and
// use public methods only (NewWithConfig, Generate, Warmup, Status, Ready,
// Close). Internal types are subject to change.
package engine
