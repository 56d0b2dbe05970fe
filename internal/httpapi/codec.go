package httpapi

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"imaged/internal/engine"
	"imaged/pkg/types"
)

// pipelineConfig translates the wire pipeline selection into the engine's
// fingerprint. Validation happens in the engine, not here.
func pipelineConfig(req types.PipelineRequest) engine.PipelineConfig {
	cfg := engine.PipelineConfig{Variant: engine.Variant(req.Variant)}
	if req.Quantize8Bit != nil {
		cfg.Quantize8Bit = *req.Quantize8Bit
	}
	if req.CPUOffload != nil {
		cfg.CPUOffload = *req.CPUOffload
	}
	for _, a := range req.AddOns {
		cfg.AddOns = append(cfg.AddOns, engine.AddOnSpec{ID: engine.AddOnID(a.ID), Weight: a.Weight})
	}
	return cfg
}

// callParams translates the wire generation fields into engine call
// parameters. Images are decoded here so a malformed upload is a 400, not an
// engine failure.
func callParams(req types.GenerateRequest) (engine.CallParams, error) {
	p := engine.CallParams{
		Prompt:        req.Prompt,
		Seed:          req.Seed,
		Width:         req.Width,
		Height:        req.Height,
		GuidanceScale: req.GuidanceScale,
		NumSteps:      req.NumSteps,
	}
	if req.IDImage != "" {
		img, err := decodeImage(req.IDImage)
		if err != nil {
			return p, errors.New("id_image: " + err.Error())
		}
		p.IDImage = img
	}
	if req.ControlImage != "" {
		img, err := decodeImage(req.ControlImage)
		if err != nil {
			return p, errors.New("control_image: " + err.Error())
		}
		p.ControlImage = img
	}
	if req.ConditioningScale != nil {
		p = p.WithConditioningScale(*req.ConditioningScale)
	}
	if req.GuidanceStart != nil {
		p.GuidanceStart = *req.GuidanceStart
	}
	if req.GuidanceEnd != nil {
		p = p.WithGuidanceEnd(*req.GuidanceEnd)
	}
	return p, nil
}

// decodeImage decodes a base64 PNG or JPEG, tolerating a data-URI prefix.
func decodeImage(s string) (image.Image, error) {
	if strings.HasPrefix(s, "data:") {
		if i := strings.IndexByte(s, ','); i >= 0 {
			s = s[i+1:]
		}
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.New("invalid base64 payload")
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.New("unsupported or corrupt image data")
	}
	return img, nil
}
