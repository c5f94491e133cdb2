package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"
	"parcels/internal/core/domain/services"
	"parcels/internal/core/ports"
)

// UpdateParcelCommandHandler applies partial updates. Delivering a parcel
// through an update releases its bags and seals in the same transaction.
// Moving either sector re-checks the linked seal and recomputes hub routing.
type UpdateParcelCommandHandler struct {
	uowFactory  UoWFactory
	hub         ports.HubSectorProvider
	broadcaster ports.ChangeBroadcaster
	clock       services.Clock
	logger      *slog.Logger
}

func NewUpdateParcelCommandHandler(
	uowFactory UoWFactory,
	hub ports.HubSectorProvider,
	broadcaster ports.ChangeBroadcaster,
	clock services.Clock,
	logger *slog.Logger,
) UpdateParcelCommandHandler {
	if clock == nil {
		clock = time.Now
	}
	return UpdateParcelCommandHandler{
		uowFactory:  uowFactory,
		hub:         hub,
		broadcaster: broadcaster,
		clock:       clock,
		logger:      logger.With("component", "update_parcel"),
	}
}

func (h *UpdateParcelCommandHandler) Handle(ctx context.Context, cmd UpdateParcelCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	p, err := uow.ParcelRepository().GetForUpdate(ctx, cmd.ParcelID())
	if err != nil {
		return err
	}

	patch := cmd.Patch()
	if patch.OriginSectorID != nil {
		if _, err = activeSector(ctx, uow.DirectoryRepository(), *patch.OriginSectorID); err != nil {
			return fmt.Errorf("origin: %w", err)
		}
		if err = h.validateSealOrigin(ctx, uow, p, *patch.OriginSectorID); err != nil {
			return err
		}
	}
	if patch.DestinationSectorID != nil {
		if _, err = activeSector(ctx, uow.DirectoryRepository(), *patch.DestinationSectorID); err != nil {
			return fmt.Errorf("destination: %w", err)
		}
	}

	wasDelivered := p.Status() == parcel.Delivered
	now := h.clock()
	if err = p.Apply(patch, now); err != nil {
		return err
	}
	if patch.OriginSectorID != nil || patch.DestinationSectorID != nil {
		if hubID, ok := lookupHub(ctx, h.hub, h.logger); ok {
			p.ApplyHubRouting(services.RequiresHub(p.OriginSectorID(), p.DestinationSectorID(), hubID), hubID)
		}
	}

	if err = uow.ParcelRepository().Update(ctx, p); err != nil {
		return err
	}

	delivered := !wasDelivered && p.Status() == parcel.Delivered
	if delivered {
		if err = releaseAttachments(ctx, uow, p, now); err != nil {
			return err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "Parcel updated", "parcel_id", p.ID(), "status", p.Status(), "delivered", delivered)
	publishEvents(ctx, h.broadcaster, h.logger, p)
	return nil
}

// validateSealOrigin keeps the linked seal owned by the origin sector.
func (h *UpdateParcelCommandHandler) validateSealOrigin(
	ctx context.Context,
	uow UoW,
	p *parcel.Parcel,
	origin kernel.ID,
) error {
	if p.SealID() == nil || origin == p.OriginSectorID() {
		return nil
	}
	s, err := uow.SealRepository().Get(ctx, *p.SealID())
	if err != nil {
		return fmt.Errorf("seal: %w", err)
	}
	return s.ValidateOrigin(origin)
}
