package nekoai

import (
	"errors"
	"fmt"
)

// Error kinds for the library. Callers branch with errors.Is.
var (
	// ErrValidation marks a malformed or incompatible request. The
	// request is never sent; correct the input and retry.
	ErrValidation = errors.New("invalid generation request")

	// ErrAPI is a backend failure surfaced as-is. The library never
	// retries on the caller's behalf.
	ErrAPI = errors.New("novelai api error")

	// ErrAuth covers rejected tokens and missing subscriptions.
	ErrAuth = errors.New("authentication failed")

	// ErrConcurrent is returned when the backend rate limit is hit.
	ErrConcurrent = errors.New("too many concurrent requests")

	// ErrStreamFraming marks a malformed chunk in a streaming response.
	// Fatal to the stream session, no resynchronization is attempted.
	ErrStreamFraming = errors.New("malformed stream frame")

	// ErrImageInput marks an unreadable or unsupported input image.
	ErrImageInput = errors.New("invalid input image")
)

// ValidationError identifies the first offending request field. It wraps
// ErrValidation so callers can match the kind without inspecting fields.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalidField(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
