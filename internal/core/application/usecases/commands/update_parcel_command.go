package commands

import (
	"errors"
	"strings"

	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"
	"parcels/internal/pkg/errs"
	"parcels/internal/pkg/guard"
)

var ErrUpdateParcelCommandIsNotConstructed = errors.New(
	"UpdateParcelCommand must be created via NewUpdateParcelCommand constructor",
)

// UpdateParcelCommand is a partial update. Nil patch fields are left unchanged.
type UpdateParcelCommand struct { //nolint:recvcheck //using for validation
	parcelID kernel.ID
	patch    parcel.Patch

	guard guard.ConstructorGuard
}

func NewUpdateParcelCommand(parcelID kernel.ID, patch parcel.Patch) (UpdateParcelCommand, error) {
	if err := parcelID.Validate(); err != nil {
		return UpdateParcelCommand{}, errs.NewValueIsInvalidErrorWithCause("parcel id", err)
	}
	if patch.IsEmpty() {
		return UpdateParcelCommand{}, errs.NewValueIsRequiredError("changes")
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if err := validateDescription(description); err != nil {
			return UpdateParcelCommand{}, err
		}
		patch.Description = &description
	}
	if patch.Status != nil {
		if err := patch.Status.Validate(); err != nil {
			return UpdateParcelCommand{}, err
		}
	}
	if err := errors.Join(
		validateOptionalID("origin sector", patch.OriginSectorID),
		validateOptionalID("destination sector", patch.DestinationSectorID),
	); err != nil {
		return UpdateParcelCommand{}, err
	}

	return UpdateParcelCommand{
		parcelID: parcelID,
		patch:    patch,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c UpdateParcelCommand) Validate() error {
	return c.guard.Validate(ErrUpdateParcelCommandIsNotConstructed)
}

func (c UpdateParcelCommand) ParcelID() kernel.ID { return c.parcelID }
func (c UpdateParcelCommand) Patch() parcel.Patch { return c.patch }
