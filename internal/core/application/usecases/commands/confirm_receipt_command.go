package commands

import (
	"errors"

	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/pkg/errs"
	"parcels/internal/pkg/guard"
)

var ErrConfirmReceiptCommandIsNotConstructed = errors.New(
	"ConfirmReceiptCommand must be created via NewConfirmReceiptCommand constructor",
)

// ConfirmReceiptCommand marks a parcel as delivered by its recipient.
type ConfirmReceiptCommand struct { //nolint:recvcheck //using for validation
	parcelID kernel.ID

	guard guard.ConstructorGuard
}

func NewConfirmReceiptCommand(parcelID kernel.ID) (ConfirmReceiptCommand, error) {
	if err := parcelID.Validate(); err != nil {
		return ConfirmReceiptCommand{}, errs.NewValueIsInvalidErrorWithCause("parcel id", err)
	}
	return ConfirmReceiptCommand{
		parcelID: parcelID,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c ConfirmReceiptCommand) Validate() error {
	return c.guard.Validate(ErrConfirmReceiptCommandIsNotConstructed)
}

func (c ConfirmReceiptCommand) ParcelID() kernel.ID { return c.parcelID }
