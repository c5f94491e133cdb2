package http

import (
	"errors"
	"net/http"

	"parcels/internal/generated/servers"
	"parcels/internal/pkg/errs"
	"parcels/internal/pkg/logging"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const internalErrorMessage = "Internal server error"

// statusCode maps domain errors onto HTTP statuses. Anything unknown is a 500.
func statusCode(err error) int {
	var httpErr *echo.HTTPError
	switch {
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange),
		errors.Is(err, errs.ErrVersionIsInvalid):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrResourceBusy):
		return http.StatusLocked
	case errors.As(err, &httpErr) && httpErr.Code < http.StatusInternalServerError:
		return httpErr.Code
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error body. Client errors carry the error text; server
// errors carry a generic message, a trace id and the SQLSTATE when known.
func (s *Server) fail(ctx echo.Context, err error) error {
	reqCtx := ctx.Request().Context()
	logger := logging.FromContext(reqCtx, s.logger)
	code := statusCode(err)

	if code < http.StatusInternalServerError {
		logger.DebugContext(reqCtx, "request rejected",
			"path", ctx.Path(), "status", code, "error", err)
		return ctx.JSON(code, servers.Error{Code: code, Message: err.Error()})
	}

	traceID := traceID(ctx)
	body := servers.Error{Code: code, Message: internalErrorMessage, TraceId: &traceID}
	if state := errs.SQLState(err); state != "" {
		body.SqlState = &state
	}
	logger.ErrorContext(reqCtx, "request failed",
		"path", ctx.Path(), "trace_id", traceID, "sql_state", errs.SQLState(err), "error", err)
	return ctx.JSON(code, body)
}

func (s *Server) badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, servers.Error{Code: http.StatusBadRequest, Message: message})
}

func traceID(ctx echo.Context) string {
	if id := logging.RequestID(ctx.Request().Context()); id != "" {
		return id
	}
	if id := ctx.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return uuid.NewString()
}
