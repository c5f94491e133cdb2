package errs

import (
	"errors"
	"fmt"
)

var ErrPermissionDenied = errors.New("permission denied")

// PermissionDeniedError reports a caller whose role does not allow the action.
type PermissionDeniedError struct {
	Action string
	Role   string
}

func NewPermissionDeniedError(action, role string) *PermissionDeniedError {
	return &PermissionDeniedError{
		Action: action,
		Role:   role,
	}
}

func (e *PermissionDeniedError) Error() string {
	role := e.Role
	if role == "" {
		role = "anonymous"
	}
	return sanitize(fmt.Sprintf("%s: role %s cannot %s", ErrPermissionDenied, role, e.Action))
}

func (e *PermissionDeniedError) Unwrap() error {
	return ErrPermissionDenied
}
