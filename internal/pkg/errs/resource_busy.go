package errs

import (
	"errors"
	"fmt"
)

var ErrResourceBusy = errors.New("resource is busy")

// ResourceBusyError reports row-lock contention. Callers may retry later.
type ResourceBusyError struct {
	Resource string
	ID       any
	Cause    error
}

func NewResourceBusyError(resource string, id any, cause error) *ResourceBusyError {
	return &ResourceBusyError{
		Resource: resource,
		ID:       id,
		Cause:    cause,
	}
}

func (e *ResourceBusyError) Error() string {
	msg := fmt.Sprintf("%s: %s %v", ErrResourceBusy, e.Resource, e.ID)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (cause: %s)", msg, e.Cause)
	}
	return sanitize(msg)
}

func (e *ResourceBusyError) Unwrap() error {
	return ErrResourceBusy
}
