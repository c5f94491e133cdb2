package errs

import (
	"errors"
	"fmt"
)

var ErrConflict = errors.New("conflict")

// ConflictError reports an operation blocked by the current state of a resource,
// such as an unexpected row still referencing the one being removed.
type ConflictError struct {
	Resource string
	ID       any
	Reason   string
	Cause    error
}

func NewConflictError(resource string, id any, reason string) *ConflictError {
	return &ConflictError{
		Resource: resource,
		ID:       id,
		Reason:   reason,
	}
}

func NewConflictErrorWithCause(resource string, id any, reason string, cause error) *ConflictError {
	return &ConflictError{
		Resource: resource,
		ID:       id,
		Reason:   reason,
		Cause:    cause,
	}
}

func (e *ConflictError) Error() string {
	msg := fmt.Sprintf("%s: %s %v: %s", ErrConflict, e.Resource, e.ID, e.Reason)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (cause: %s)", msg, e.Cause)
	}
	return sanitize(msg)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}
