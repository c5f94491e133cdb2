package commands

import (
	"errors"
	"strings"

	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"
	"parcels/internal/pkg/errs"
	"parcels/internal/pkg/guard"
)

var ErrCreateParcelFromWizardCommandIsNotConstructed = errors.New(
	"CreateParcelFromWizardCommand must be created via NewCreateParcelFromWizardCommand constructor",
)

// WizardParticipant identifies a side by id or, failing that, by name.
// Ids win over names; a person name wins over a sector name.
type WizardParticipant struct {
	PersonID   *kernel.ID
	SectorID   *kernel.ID
	PersonName string
	SectorName string
}

func (w WizardParticipant) validate(param string) error {
	if w.PersonID == nil && w.SectorID == nil && w.PersonName == "" && w.SectorName == "" {
		return errs.NewValueIsRequiredError(param)
	}
	if err := errors.Join(
		validateOptionalID(param+" person", w.PersonID),
		validateOptionalID(param+" sector", w.SectorID),
	); err != nil {
		return err
	}
	return nil
}

func (w WizardParticipant) trimmed() WizardParticipant {
	w.PersonName = strings.TrimSpace(w.PersonName)
	w.SectorName = strings.TrimSpace(w.SectorName)
	return w
}

// CreateParcelFromWizardParams is the guided-form variant of CreateParcelParams.
type CreateParcelFromWizardParams struct {
	Origin        WizardParticipant
	Destination   WizardParticipant
	Description   string
	Status        parcel.Status
	BagID         *kernel.ID
	SealID        *kernel.ID
	ParentID      *kernel.ID
	Urgent        bool
	ReceiptNumber string
}

// CreateParcelFromWizardCommand requests a parcel from the guided form.
type CreateParcelFromWizardCommand struct { //nolint:recvcheck //using for validation
	params CreateParcelFromWizardParams

	guard guard.ConstructorGuard
}

func NewCreateParcelFromWizardCommand(params CreateParcelFromWizardParams) (CreateParcelFromWizardCommand, error) {
	params.Origin = params.Origin.trimmed()
	params.Destination = params.Destination.trimmed()
	params.Description = strings.TrimSpace(params.Description)
	if params.Status == parcel.Unknown {
		params.Status = parcel.Pending
	}

	if err := errors.Join(
		params.Origin.validate("origin"),
		params.Destination.validate("destination"),
		validateDescription(params.Description),
		params.Status.ValidateInitial(),
	); err != nil {
		return CreateParcelFromWizardCommand{}, err
	}

	return CreateParcelFromWizardCommand{
		params: params,
		guard:  guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateParcelFromWizardCommand) Validate() error {
	return c.guard.Validate(ErrCreateParcelFromWizardCommandIsNotConstructed)
}

func (c CreateParcelFromWizardCommand) Params() CreateParcelFromWizardParams { return c.params }
