package types

// AddOn identifies an optional pipeline add-on module and its blend weight.
type AddOn struct {
	// Add-on identifier (e.g. realism, anti_blur).
	// example: realism
	ID string `json:"id" example:"realism"`
	// Blend weight. 0 or omitted means the default weight of 1.0.
	// example: 1.0
	Weight float64 `json:"weight,omitempty" example:"1.0"`
}

// PipelineRequest selects the pipeline configuration to make resident.
type PipelineRequest struct {
	// Pipeline variant. If empty, the server default is used.
	// example: aes_stage2
	Variant string `json:"variant,omitempty" example:"aes_stage2"`
	// Enable 8-bit quantization. Omitted means the server default.
	// example: true
	Quantize8Bit *bool `json:"quantize_8bit,omitempty" example:"true"`
	// Enable CPU offloading. Omitted means the server default.
	// example: true
	CPUOffload *bool `json:"cpu_offload,omitempty" example:"true"`
	// Optional add-on modules to attach.
	AddOns []AddOn `json:"addons,omitempty"`
}

// GenerateRequest is the payload for POST /generate. Pipeline fields select
// the resident configuration; the remaining fields parameterize one call.
type GenerateRequest struct {
	PipelineRequest

	// Required prompt text.
	// example: Portrait, 4K, high quality, cinematic
	Prompt string `json:"prompt" example:"Portrait, 4K, high quality, cinematic"`
	// Required identity image, base64-encoded PNG or JPEG.
	IDImage string `json:"id_image"`
	// Optional control image, base64-encoded PNG or JPEG.
	ControlImage string `json:"control_image,omitempty"`
	// Random seed for reproducibility; 0 or omitted draws a fresh seed.
	// example: 42
	Seed int64 `json:"seed,omitempty" example:"42"`
	// Output width in pixels. 0 means the default (864).
	// example: 864
	Width int `json:"width,omitempty" example:"864"`
	// Output height in pixels. 0 means the default (1152).
	// example: 1152
	Height int `json:"height,omitempty" example:"1152"`
	// Guidance scale. 0 means the default (3.5).
	// example: 3.5
	GuidanceScale float64 `json:"guidance_scale,omitempty" example:"3.5"`
	// Number of diffusion steps. 0 means the default (30).
	// example: 30
	NumSteps int `json:"num_steps,omitempty" example:"30"`
	// Conditioning scale in [0,1]. Omitted means the default (1.0).
	// example: 1.0
	ConditioningScale *float64 `json:"conditioning_scale,omitempty" example:"1.0"`
	// Conditioning schedule start in [0,1]. Omitted means 0.0.
	// example: 0.0
	GuidanceStart *float64 `json:"guidance_start,omitempty" example:"0.0"`
	// Conditioning schedule end in [0,1]. Omitted means 1.0.
	// example: 1.0
	GuidanceEnd *float64 `json:"guidance_end,omitempty" example:"1.0"`
}

// GenerateResponse is returned by POST /generate on success.
type GenerateResponse struct {
	// Path of the saved artifact inside the results area.
	// example: results/00000_Portrait_4K_seed42.png
	Path string `json:"path" example:"results/00000_Portrait_4K_seed42.png"`
	// Seed actually used for this generation. Nonzero even when the request
	// asked for a random seed, so the call can be reproduced.
	// example: 42
	SeedUsed int64 `json:"seed_used" example:"42"`
	// Output width in pixels.
	// example: 864
	Width int `json:"width" example:"864"`
	// Output height in pixels.
	// example: 1152
	Height int `json:"height" example:"1152"`
	// Wall-clock duration of the scheduled work item in milliseconds.
	// example: 5300
	DurationMS int64 `json:"duration_ms" example:"5300"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
	// Seed used by a failed generation, when known, so retries can be exact.
	// example: 42
	SeedUsed int64 `json:"seed_used,omitempty" example:"42"`
}

// ResidentStatus describes the currently resident pipeline for /status.
type ResidentStatus struct {
	// Variant the resident pipeline was built with.
	// example: aes_stage2
	Variant string `json:"variant" example:"aes_stage2"`
	// Whether the resident pipeline was built with 8-bit quantization.
	// example: true
	Quantize8Bit bool `json:"quantize_8bit" example:"true"`
	// Whether the resident pipeline was built with CPU offloading.
	// example: true
	CPUOffload bool `json:"cpu_offload" example:"true"`
	// Add-on modules currently attached.
	AddOns []AddOn `json:"addons,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Engine state (idle, loading, ready, error).
	// example: ready
	State string `json:"state" example:"ready"`
	// Currently resident pipeline, if any.
	Resident *ResidentStatus `json:"resident,omitempty"`
	// Number of work items waiting in the serialized lane.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// Total full pipeline constructions.
	// example: 2
	ConstructionsTotal uint64 `json:"constructions_total" example:"2"`
	// Total pipeline destructions (accelerator memory reclaims).
	// example: 1
	DestroysTotal uint64 `json:"destroys_total" example:"1"`
	// Total add-on attach/detach swaps performed without reconstruction.
	// example: 3
	AddOnSwapsTotal uint64 `json:"addon_swaps_total" example:"3"`
	// Total successful generations.
	// example: 12
	GenerationsTotal uint64 `json:"generations_total" example:"12"`
	// Total failed work items.
	// example: 1
	FailuresTotal uint64 `json:"failures_total" example:"1"`
	// Last error observed by the engine (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// VariantsResponse is returned by GET /variants.
type VariantsResponse struct {
	// Known pipeline variants.
	// example: ["sim_stage1","aes_stage2"]
	Variants []string `json:"variants" example:"sim_stage1,aes_stage2"`
	// Server default variant.
	// example: aes_stage2
	Default string `json:"default" example:"aes_stage2"`
}
