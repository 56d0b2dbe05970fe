package engine

// Event represents an engine lifecycle event.
// Minimal and stable: name plus optional fields via key/values.
type Event struct {
	Name   string
	Fields map[string]any
}

// Event names published by the engine. Tests assert on the order of these to
// verify the resource-mutation trace (e.g. destroy strictly before construct).
const (
	EvPrepareStart      = "prepare_start"
	EvPipelineDestroy   = "pipeline_destroy"
	EvPipelineConstruct = "pipeline_construct"
	EvAddOnsDetach      = "addons_detach"
	EvAddOnsAttach      = "addons_attach"
	EvGenerateStart     = "generate_start"
	EvGenerateDone      = "generate_done"
	EvGenerateError     = "generate_error"
	EvArtifactSaved     = "artifact_saved"
	EvShutdown          = "shutdown"
)

// EventPublisher receives events from the engine. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
