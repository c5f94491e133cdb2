package commands

import (
	"errors"
	"strings"

	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"
	"parcels/internal/pkg/errs"
	"parcels/internal/pkg/guard"
)

var ErrCreateParcelCommandIsNotConstructed = errors.New(
	"CreateParcelCommand must be created via NewCreateParcelCommand constructor",
)

// ParticipantRef points at a sending or receiving side. At least one of the
// identifiers is required; a person without a sector acts from their home sector.
type ParticipantRef struct {
	SectorID *kernel.ID
	PersonID *kernel.ID
}

func (r ParticipantRef) validate(param string) error {
	if r.SectorID == nil && r.PersonID == nil {
		return errs.NewValueIsRequiredError(param)
	}
	var err error
	if r.SectorID != nil {
		err = errors.Join(err, r.SectorID.Validate())
	}
	if r.PersonID != nil {
		err = errors.Join(err, r.PersonID.Validate())
	}
	if err != nil {
		return errs.NewValueIsInvalidErrorWithCause(param, err)
	}
	return nil
}

// CreateParcelParams carries the raw input of a parcel creation.
type CreateParcelParams struct {
	Origin        ParticipantRef
	Destination   ParticipantRef
	Description   string
	Status        parcel.Status
	BagID         *kernel.ID
	SealID        *kernel.ID
	ParentID      *kernel.ID
	Urgent        bool
	ReceiptNumber string
}

// CreateParcelCommand requests a new parcel, optionally closed by a seal and
// travelling in a bag.
//
// Example:
//
//	origin := kernel.ID(5)
//	destination := kernel.ID(12)
//	cmd, err := NewCreateParcelCommand(CreateParcelParams{
//	    Origin:      ParticipantRef{SectorID: &origin},
//	    Destination: ParticipantRef{SectorID: &destination},
//	    Description: "signed contracts",
//	})
//	if err != nil {
//	    return fmt.Errorf("invalid parcel data: %w", err)
//	}
//	result, err := handler.Handle(ctx, cmd)
type CreateParcelCommand struct { //nolint:recvcheck //using for validation
	params CreateParcelParams

	guard guard.ConstructorGuard
}

// NewCreateParcelCommand validates the input shape. Status defaults to Pending.
// Directory lookups and aggregate rules are checked by the handler.
func NewCreateParcelCommand(params CreateParcelParams) (CreateParcelCommand, error) {
	params.Description = strings.TrimSpace(params.Description)
	params.ReceiptNumber = strings.TrimSpace(params.ReceiptNumber)
	if params.Status == parcel.Unknown {
		params.Status = parcel.Pending
	}

	if err := errors.Join(
		params.Origin.validate("origin"),
		params.Destination.validate("destination"),
		validateDescription(params.Description),
		params.Status.ValidateInitial(),
		validateOptionalID("bag", params.BagID),
		validateOptionalID("seal", params.SealID),
		validateOptionalID("parent parcel", params.ParentID),
	); err != nil {
		return CreateParcelCommand{}, err
	}

	return CreateParcelCommand{
		params: params,
		guard:  guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateParcelCommand) Validate() error {
	return c.guard.Validate(ErrCreateParcelCommandIsNotConstructed)
}

func (c CreateParcelCommand) Origin() ParticipantRef { return c.params.Origin }
func (c CreateParcelCommand) Destination() ParticipantRef { return c.params.Destination }
func (c CreateParcelCommand) Description() string { return c.params.Description }
func (c CreateParcelCommand) Status() parcel.Status { return c.params.Status }
func (c CreateParcelCommand) BagID() *kernel.ID { return c.params.BagID }
func (c CreateParcelCommand) SealID() *kernel.ID { return c.params.SealID }
func (c CreateParcelCommand) ParentID() *kernel.ID { return c.params.ParentID }
func (c CreateParcelCommand) Urgent() bool { return c.params.Urgent }
func (c CreateParcelCommand) ReceiptNumber() string { return c.params.ReceiptNumber }

func validateDescription(description string) error {
	if description == "" {
		return errs.NewValueIsRequiredError("description")
	}
	return nil
}

func validateOptionalID(param string, id *kernel.ID) error {
	if id == nil {
		return nil
	}
	if err := id.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause(param, err)
	}
	return nil
}
