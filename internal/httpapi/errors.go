package httpapi

import (
	"encoding/json"
	"net/http"

	"imaged/internal/engine"
	"imaged/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// writeEngineError maps the engine's error taxonomy onto HTTP status codes.
// A failed generation's seed, when known, is included so the caller can retry
// the exact same call.
func writeEngineError(w http.ResponseWriter, err error) int {
	status := http.StatusInternalServerError
	switch {
	case engine.IsConfigRejected(err):
		status = http.StatusBadRequest
	case engine.IsResourceUnavailable(err):
		status = http.StatusServiceUnavailable
	default:
		if he, ok := err.(HTTPError); ok {
			status = he.StatusCode()
		}
	}
	resp := types.ErrorResponse{Error: err.Error(), Code: status}
	if seed, ok := engine.SeedOf(err); ok {
		resp.SeedUsed = seed
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
	return status
}
