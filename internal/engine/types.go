package engine

import (
	"image"
	"sort"
)

// State represents lifecycle state of the engine.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Variant selects which pipeline stage weights are resident.
type Variant string

const (
	VariantSimStage1 Variant = "sim_stage1"
	VariantAesStage2 Variant = "aes_stage2"

	DefaultVariant = VariantAesStage2
)

// Variants returns the known pipeline variants.
func Variants() []Variant {
	return []Variant{VariantSimStage1, VariantAesStage2}
}

// ParseVariant maps a wire string to a Variant. Empty means the default;
// anything else unknown is rejected.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case "":
		return DefaultVariant, nil
	case VariantSimStage1:
		return VariantSimStage1, nil
	case VariantAesStage2:
		return VariantAesStage2, nil
	default:
		return "", ErrConfigRejected("unknown variant: " + s)
	}
}

// AddOnID identifies an optional add-on module.
type AddOnID string

const (
	AddOnRealism  AddOnID = "realism"
	AddOnAntiBlur AddOnID = "anti_blur"
)

// defaultAddOnWeight is applied when a spec omits the blend weight.
const defaultAddOnWeight = 1.0

// AddOnSpec is an add-on module plus its blend weight.
type AddOnSpec struct {
	ID     AddOnID
	Weight float64
}

// PipelineConfig is the fingerprint of the pipeline that must be resident:
// every field that affects construction or attachment. Compared structurally
// to decide cache hits. Treat as immutable once normalized.
type PipelineConfig struct {
	Variant      Variant
	Quantize8Bit bool
	CPUOffload   bool
	AddOns       []AddOnSpec
}

// Normalize returns a copy with add-ons deduplicated (last wins), default
// weights applied, and sorted by id so equality is order-independent.
func (c PipelineConfig) Normalize() (PipelineConfig, error) {
	if c.Variant == "" {
		c.Variant = DefaultVariant
	}
	if _, err := ParseVariant(string(c.Variant)); err != nil {
		return c, err
	}
	byID := make(map[AddOnID]float64, len(c.AddOns))
	for _, a := range c.AddOns {
		if a.ID == "" {
			return c, ErrConfigRejected("add-on id must not be empty")
		}
		w := a.Weight
		if w == 0 {
			w = defaultAddOnWeight
		}
		if w < 0 {
			return c, ErrConfigRejected("add-on weight must not be negative")
		}
		byID[a.ID] = w
	}
	addons := make([]AddOnSpec, 0, len(byID))
	for id, w := range byID {
		addons = append(addons, AddOnSpec{ID: id, Weight: w})
	}
	sort.Slice(addons, func(i, j int) bool { return addons[i].ID < addons[j].ID })
	c.AddOns = addons
	return c, nil
}

// sameBase reports whether two configs agree on every field baked into
// construction. Add-ons are deliberately excluded: they swap in place.
func (c PipelineConfig) sameBase(o PipelineConfig) bool {
	return c.Variant == o.Variant &&
		c.Quantize8Bit == o.Quantize8Bit &&
		c.CPUOffload == o.CPUOffload
}

// addOnMap returns the add-on set as id -> weight.
func (c PipelineConfig) addOnMap() map[AddOnID]float64 {
	m := make(map[AddOnID]float64, len(c.AddOns))
	for _, a := range c.AddOns {
		m[a.ID] = a.Weight
	}
	return m
}

// Equal reports structural equality of two normalized configs.
func (c PipelineConfig) Equal(o PipelineConfig) bool {
	if !c.sameBase(o) || len(c.AddOns) != len(o.AddOns) {
		return false
	}
	for i := range c.AddOns {
		if c.AddOns[i] != o.AddOns[i] {
			return false
		}
	}
	return true
}

// Call parameter defaults, matching the serving defaults of the original
// pipeline frontend.
const (
	DefaultWidth             = 864
	DefaultHeight            = 1152
	DefaultGuidanceScale     = 3.5
	DefaultNumSteps          = 30
	DefaultConditioningScale = 1.0
	DefaultGuidanceStart     = 0.0
	DefaultGuidanceEnd       = 1.0
)

// CallParams are the per-request generation inputs. Immutable per call.
// Seed 0 means "assign a fresh pseudo-random seed at execution time".
type CallParams struct {
	Prompt       string
	IDImage      image.Image
	ControlImage image.Image // optional
	Seed         int64
	Width        int
	Height       int

	GuidanceScale     float64
	NumSteps          int
	ConditioningScale float64
	GuidanceStart     float64
	GuidanceEnd       float64

	// set by withDefaults; distinguishes "0.0 requested" from "omitted"
	condScaleSet, guidanceEndSet bool
}

// WithConditioningScale records an explicit conditioning scale.
func (p CallParams) WithConditioningScale(v float64) CallParams {
	p.ConditioningScale = v
	p.condScaleSet = true
	return p
}

// WithGuidanceEnd records an explicit conditioning schedule end.
func (p CallParams) WithGuidanceEnd(v float64) CallParams {
	p.GuidanceEnd = v
	p.guidanceEndSet = true
	return p
}

// withDefaults fills unset fields with the serving defaults.
func (p CallParams) withDefaults() CallParams {
	if p.Width <= 0 {
		p.Width = DefaultWidth
	}
	if p.Height <= 0 {
		p.Height = DefaultHeight
	}
	if p.GuidanceScale <= 0 {
		p.GuidanceScale = DefaultGuidanceScale
	}
	if p.NumSteps <= 0 {
		p.NumSteps = DefaultNumSteps
	}
	if !p.condScaleSet && p.ConditioningScale == 0 {
		p.ConditioningScale = DefaultConditioningScale
	}
	if !p.guidanceEndSet && p.GuidanceEnd == 0 {
		p.GuidanceEnd = DefaultGuidanceEnd
	}
	return p
}
