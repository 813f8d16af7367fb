package gateway

import (
	"errors"
	"fmt"
)

// Sentinel errors for terminal request outcomes. CacheStoreError and
// SessionDecodeError are absorbed where they occur (cache and sessions
// packages) and never surface here.
var (
	// ErrAdmissionDenied is returned when the rate limiter rejects a
	// client. Mapped to 429.
	ErrAdmissionDenied = errors.New("admission denied by rate limiter")

	// ErrNoBackendConfigured is returned when the registry is empty.
	// Mapped to 503.
	ErrNoBackendConfigured = errors.New("no backend configured")
)

// ForwardError describes a failed forward attempt against a backend.
// Mapped to 502.
type ForwardError struct {
	// Backend is the URL of the backend the forward was attempted against.
	Backend string

	// Timeout is true when the failure was a deadline, false for other
	// network errors.
	Timeout bool

	// Err is the underlying transport error.
	Err error
}

// Error returns the error message.
func (e *ForwardError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("forward to %s timed out: %v", e.Backend, e.Err)
	}
	return fmt.Sprintf("forward to %s failed: %v", e.Backend, e.Err)
}

// Unwrap returns the underlying error.
func (e *ForwardError) Unwrap() error {
	return e.Err
}
