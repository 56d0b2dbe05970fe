package engine

import (
	"errors"
	"fmt"
)

// configRejectedError signals a malformed or unknown pipeline configuration,
// rejected before reaching the cache (400 mapping).
type configRejectedError struct{ msg string }

func (e configRejectedError) Error() string { return "config rejected: " + e.msg }

// ErrConfigRejected constructs a configRejectedError.
func ErrConfigRejected(msg string) error { return configRejectedError{msg: msg} }

// IsConfigRejected reports whether err indicates a rejected configuration.
func IsConfigRejected(err error) bool {
	var e configRejectedError
	return errors.As(err, &e)
}

// resourceUnavailableError signals missing or inaccessible weight data
// (503 mapping). The cache stays empty; the request is retryable.
type resourceUnavailableError struct {
	msg string
	err error
}

func (e resourceUnavailableError) Error() string {
	if e.err != nil {
		return "resource unavailable: " + e.msg + ": " + e.err.Error()
	}
	return "resource unavailable: " + e.msg
}

func (e resourceUnavailableError) Unwrap() error { return e.err }

// ErrResourceUnavailable constructs a resourceUnavailableError wrapping cause.
func ErrResourceUnavailable(msg string, cause error) error {
	return resourceUnavailableError{msg: msg, err: cause}
}

// IsResourceUnavailable reports whether err indicates absent weight data.
func IsResourceUnavailable(err error) bool {
	var e resourceUnavailableError
	return errors.As(err, &e)
}

// constructionFailedError signals that a full pipeline reconstruction raised
// during build. The cache stays empty; the request is retryable.
type constructionFailedError struct {
	variant Variant
	err     error
}

func (e constructionFailedError) Error() string {
	return fmt.Sprintf("construction failed for %s: %v", e.variant, e.err)
}

func (e constructionFailedError) Unwrap() error { return e.err }

// ErrConstructionFailed constructs a constructionFailedError.
func ErrConstructionFailed(variant Variant, cause error) error {
	return constructionFailedError{variant: variant, err: cause}
}

// IsConstructionFailed reports whether err indicates a failed reconstruction.
func IsConstructionFailed(err error) bool {
	var e constructionFailedError
	return errors.As(err, &e)
}

// inferenceFailedError signals that the resident pipeline raised during one
// generation. The pipeline remains resident; the error carries the seed that
// was used so the caller can retry deterministically.
type inferenceFailedError struct {
	seed int64
	err  error
}

func (e inferenceFailedError) Error() string {
	return fmt.Sprintf("inference failed (seed %d): %v", e.seed, e.err)
}

func (e inferenceFailedError) Unwrap() error { return e.err }

// ErrInferenceFailed constructs an inferenceFailedError.
func ErrInferenceFailed(seed int64, cause error) error {
	return inferenceFailedError{seed: seed, err: cause}
}

// IsInferenceFailed reports whether err indicates a failed generation.
func IsInferenceFailed(err error) bool {
	var e inferenceFailedError
	return errors.As(err, &e)
}

// SeedOf extracts the seed recorded in an inference failure.
func SeedOf(err error) (int64, bool) {
	var e inferenceFailedError
	if errors.As(err, &e) {
		return e.seed, true
	}
	return 0, false
}

// errClosed is returned for work submitted after shutdown began.
var errClosed = ErrResourceUnavailable("engine shutting down", nil)
