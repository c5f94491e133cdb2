package commands

import (
	"errors"
	"slices"
	"strings"

	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/pkg/errs"
	"parcels/internal/pkg/guard"
)

var ErrDeleteParcelCommandIsNotConstructed = errors.New(
	"DeleteParcelCommand must be created via NewDeleteParcelCommand constructor",
)

// DefaultAdminRoles are the caller roles allowed to delete parcels.
var DefaultAdminRoles = []string{"ADMIN", "ADMINISTRATOR"}

// Caller is the identity forwarded by the authenticating proxy.
type Caller struct {
	UserID string
	Role   string
}

// HasRole reports whether the caller's role is one of roles, ignoring case.
func (c Caller) HasRole(roles []string) bool {
	role := strings.TrimSpace(c.Role)
	return role != "" && slices.ContainsFunc(roles, func(r string) bool {
		return strings.EqualFold(r, role)
	})
}

// DeleteParcelCommand removes a parcel and neutralises every reference to it.
type DeleteParcelCommand struct { //nolint:recvcheck //using for validation
	parcelID kernel.ID
	caller   Caller

	guard guard.ConstructorGuard
}

func NewDeleteParcelCommand(parcelID kernel.ID, caller Caller) (DeleteParcelCommand, error) {
	if err := parcelID.Validate(); err != nil {
		return DeleteParcelCommand{}, errs.NewValueIsInvalidErrorWithCause("parcel id", err)
	}
	return DeleteParcelCommand{
		parcelID: parcelID,
		caller:   caller,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c DeleteParcelCommand) Validate() error {
	return c.guard.Validate(ErrDeleteParcelCommandIsNotConstructed)
}

func (c DeleteParcelCommand) ParcelID() kernel.ID { return c.parcelID }
func (c DeleteParcelCommand) Caller() Caller { return c.caller }
