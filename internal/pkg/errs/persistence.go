package errs

import (
	"errors"
	"fmt"
)

var ErrPersistence = errors.New("persistence failure")

// PersistenceError wraps an unclassified storage failure. The SQLSTATE is kept
// for logs; callers only ever see a generic message.
type PersistenceError struct {
	Operation string
	SQLState  string
	Cause     error
}

func NewPersistenceError(operation, sqlState string, cause error) *PersistenceError {
	return &PersistenceError{
		Operation: operation,
		SQLState:  sqlState,
		Cause:     cause,
	}
}

func (e *PersistenceError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrPersistence, e.Operation)
	if e.SQLState != "" {
		msg = fmt.Sprintf("%s, sqlstate %s", msg, e.SQLState)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (cause: %s)", msg, e.Cause)
	}
	return sanitize(msg)
}

func (e *PersistenceError) Unwrap() error {
	return ErrPersistence
}

// SQLState extracts the vendor diagnostic code from a classified storage error.
// Returns an empty string when err carries none.
func SQLState(err error) string {
	var cv *ConstraintViolationError
	if errors.As(err, &cv) {
		return cv.SQLState
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe.SQLState
	}
	return ""
}
