package commands

import (
	"context"
	"errors"
	"fmt"

	"parcels/internal/core/ports"
	"parcels/internal/pkg/errs"
)

// CreateParcelFromWizardCommandHandler resolves the wizard's names to
// directory identifiers and then creates the parcel like the direct path.
type CreateParcelFromWizardCommandHandler struct {
	create *CreateParcelCommandHandler
}

func NewCreateParcelFromWizardCommandHandler(create *CreateParcelCommandHandler) CreateParcelFromWizardCommandHandler {
	return CreateParcelFromWizardCommandHandler{create: create}
}

func (h *CreateParcelFromWizardCommandHandler) Handle(
	ctx context.Context,
	cmd CreateParcelFromWizardCommand,
) (CreateParcelResult, error) {
	if err := cmd.Validate(); err != nil {
		return CreateParcelResult{}, err
	}

	params := cmd.Params()
	return h.create.create(ctx, func(ctx context.Context, dir ports.DirectoryRepository) (CreateParcelCommand, error) {
		origin, err := resolveWizardParticipant(ctx, dir, params.Origin)
		if err != nil {
			return CreateParcelCommand{}, fmt.Errorf("origin: %w", err)
		}
		destination, err := resolveWizardParticipant(ctx, dir, params.Destination)
		if err != nil {
			return CreateParcelCommand{}, fmt.Errorf("destination: %w", err)
		}

		return NewCreateParcelCommand(CreateParcelParams{
			Origin:        origin,
			Destination:   destination,
			Description:   params.Description,
			Status:        params.Status,
			BagID:         params.BagID,
			SealID:        params.SealID,
			ParentID:      params.ParentID,
			Urgent:        params.Urgent,
			ReceiptNumber: params.ReceiptNumber,
		})
	})
}

// resolveWizardParticipant looks up the person by id, then by name, and the
// sector by id, then by name. An unknown person name falls back to the named
// sector when there is one. A person without a sector acts from their home sector.
func resolveWizardParticipant(
	ctx context.Context,
	dir ports.DirectoryRepository,
	w WizardParticipant,
) (ParticipantRef, error) {
	ref := ParticipantRef{PersonID: w.PersonID, SectorID: w.SectorID}

	if ref.PersonID == nil && w.PersonName != "" {
		person, err := dir.FindPersonByName(ctx, w.PersonName)
		switch {
		case err == nil:
			ref.PersonID = &person.ID
		case errors.Is(err, errs.ErrObjectNotFound) && (ref.SectorID != nil || w.SectorName != ""):
		default:
			return ParticipantRef{}, err
		}
	}

	if ref.SectorID == nil && w.SectorName != "" {
		sector, err := dir.FindSectorByName(ctx, w.SectorName)
		if err != nil {
			return ParticipantRef{}, err
		}
		ref.SectorID = &sector.ID
	}

	if ref.PersonID == nil && ref.SectorID == nil {
		return ParticipantRef{}, errs.NewObjectNotFoundError("participant", w.PersonName)
	}
	return ref, nil
}
