package domain

import (
	"errors"
	"fmt"
)

// Error kinds of the extraction pipeline. Only ErrPersistenceFailed
// ever leaves the pipeline; the others are absorbed by the orchestrator.
var (
	ErrBackendUnavailable   = errors.New("backend unavailable")
	ErrBackendRequestFailed = errors.New("backend request failed")
	ErrBackendTimeout       = errors.New("backend timed out")
	ErrNoMeaningfulData     = errors.New("no meaningful data extracted")
	ErrPersistenceFailed    = errors.New("persisting extraction result failed")
)

// BackendError describes a failed backend attempt
type BackendError struct {
	Backend string
	Kind    error
	Err     error
}

// NewBackendError creates a BackendError of the given kind
func NewBackendError(backend string, kind, err error) *BackendError {
	return &BackendError{Backend: backend, Kind: kind, Err: err}
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Backend, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Backend, e.Kind)
}

// Unwrap returns the underlying cause
func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is matches the error kind so callers can use errors.Is(err, ErrBackendTimeout)
func (e *BackendError) Is(target error) bool {
	return target == e.Kind
}
