// Package errs holds the error vocabulary shared by the parcel service.
//
// Every kind has a sentinel (ErrValueIsRequired, ErrConflict, ...) and a
// struct carrying the details, built through NewXxxError or
// NewXxxErrorWithCause. The structs unwrap to their sentinel, so callers
// classify with errors.Is and read details with errors.As.
//
// Input problems (required, invalid, out of range, stale version) surface
// as 400 at the HTTP boundary. ObjectNotFoundError maps to 404,
// PermissionDeniedError to 403, ConflictError to 409 and ResourceBusyError
// to 423. ConstraintViolationError and PersistenceError keep the SQLSTATE
// reported by the database so operators can see it in the 500 payload.
// SchemaError is fatal at startup.
package errs
