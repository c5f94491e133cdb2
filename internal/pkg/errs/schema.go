package errs

import (
	"errors"
	"fmt"
)

var ErrSchemaIsInvalid = errors.New("schema is invalid")

// SchemaError is a non-recoverable deployment configuration error.
type SchemaError struct {
	Table  string
	Reason string
}

func NewSchemaError(table, reason string) *SchemaError {
	return &SchemaError{
		Table:  table,
		Reason: reason,
	}
}

func (e *SchemaError) Error() string {
	return sanitize(fmt.Sprintf("%s: table %s: %s", ErrSchemaIsInvalid, e.Table, e.Reason))
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaIsInvalid
}
