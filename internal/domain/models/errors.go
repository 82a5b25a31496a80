package models

import (
	"errors"
	"fmt"
)

var (
	// ErrJobExists is returned by a job store create when the primary key
	// is already taken.
	ErrJobExists = errors.New("job already exists")

	// ErrJobNotFound is returned for lookups of unknown job ids.
	ErrJobNotFound = errors.New("job not found")

	// ErrUnknownIndicator is returned when a submission names an indicator
	// that is not registered.
	ErrUnknownIndicator = errors.New("unknown indicator")
)

// ValidationError rejects a malformed submission before any record is
// created. The caller fixes the request and resubmits.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// CreationError means a job could neither be created nor matched to an
// active duplicate after exhausting retries. It is transient; the caller
// may safely resubmit.
type CreationError struct {
	Attempts int
	Err      error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("job creation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

// IllegalTransitionError reports an event sent to a job whose current
// state does not accept it. It indicates an orchestration bug, not an
// expected runtime condition.
type IllegalTransitionError struct {
	From  JobStatus
	Event JobEvent
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition: event %s not accepted in state %s", e.Event, e.From)
}
