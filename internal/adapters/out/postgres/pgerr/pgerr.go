// Package pgerr classifies PostgreSQL driver errors into the errs taxonomy
// while keeping the SQLSTATE for operators.
package pgerr

import (
	"errors"

	"parcels/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the lifecycle reacts to.
const (
	UniqueViolation     = "23505"
	ForeignKeyViolation = "23503"
	CheckViolation      = "23514"
	NotNullViolation    = "23502"
	LockNotAvailable    = "55P03"
)

// Classify converts err into a typed error. Errors that do not come from
// PostgreSQL are returned unchanged.
//
//   - integrity violations become errs.ConstraintViolationError
//   - lock contention (NOWAIT) becomes errs.ResourceBusyError
//   - anything else from the server becomes errs.PersistenceError
func Classify(err error, operation, resource string, id any) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case UniqueViolation:
		return errs.NewConstraintViolationError(errs.UniqueConstraint, pgErr.ConstraintName, pgErr.Code, err)
	case ForeignKeyViolation:
		return errs.NewConstraintViolationError(errs.ForeignKeyConstraint, pgErr.ConstraintName, pgErr.Code, err)
	case CheckViolation:
		return errs.NewConstraintViolationError(errs.CheckConstraint, pgErr.ConstraintName, pgErr.Code, err)
	case NotNullViolation:
		return errs.NewConstraintViolationError(errs.NotNullConstraint, pgErr.ColumnName, pgErr.Code, err)
	case LockNotAvailable:
		return errs.NewResourceBusyError(resource, id, err)
	default:
		return errs.NewPersistenceError(operation, pgErr.Code, err)
	}
}
