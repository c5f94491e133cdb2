package errs

import (
	"errors"
	"fmt"
)

var ErrConstraintViolation = errors.New("constraint violation")

// ConstraintKind classifies storage-level integrity violations.
type ConstraintKind int

const (
	UnknownConstraint ConstraintKind = iota
	UniqueConstraint
	ForeignKeyConstraint
	CheckConstraint
	NotNullConstraint
)

func (k ConstraintKind) String() string {
	switch k {
	case UniqueConstraint:
		return "unique"
	case ForeignKeyConstraint:
		return "foreign key"
	case CheckConstraint:
		return "check"
	case NotNullConstraint:
		return "not null"
	default:
		return "unknown"
	}
}

// ConstraintViolationError carries the vendor diagnostic code (SQLSTATE)
// of a rejected write so operators can trace it.
type ConstraintViolationError struct {
	Kind       ConstraintKind
	Constraint string
	SQLState   string
	Cause      error
}

func NewConstraintViolationError(kind ConstraintKind, constraint, sqlState string, cause error) *ConstraintViolationError {
	return &ConstraintViolationError{
		Kind:       kind,
		Constraint: constraint,
		SQLState:   sqlState,
		Cause:      cause,
	}
}

func (e *ConstraintViolationError) Error() string {
	msg := fmt.Sprintf("%s: %s constraint %q, sqlstate %s", ErrConstraintViolation, e.Kind, e.Constraint, e.SQLState)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (cause: %s)", msg, e.Cause)
	}
	return sanitize(msg)
}

func (e *ConstraintViolationError) Unwrap() error {
	return ErrConstraintViolation
}

// IsConstraintViolation reports whether err is a violation of the given kind.
func IsConstraintViolation(err error, kind ConstraintKind) bool {
	var cv *ConstraintViolationError
	return errors.As(err, &cv) && cv.Kind == kind
}
