package commands

import (
	"context"
	"log/slog"
	"time"

	"parcels/internal/core/domain/services"
	"parcels/internal/core/ports"
)

type ConfirmReceiptCommandHandler struct {
	uowFactory  UoWFactory
	broadcaster ports.ChangeBroadcaster
	clock       services.Clock
	logger      *slog.Logger
}

func NewConfirmReceiptCommandHandler(
	uowFactory UoWFactory,
	broadcaster ports.ChangeBroadcaster,
	clock services.Clock,
	logger *slog.Logger,
) ConfirmReceiptCommandHandler {
	if clock == nil {
		clock = time.Now
	}
	return ConfirmReceiptCommandHandler{
		uowFactory:  uowFactory,
		broadcaster: broadcaster,
		clock:       clock,
		logger:      logger.With("component", "confirm_receipt"),
	}
}

// Handle delivers the parcel and releases its bags and seals. Already
// delivered or returned parcels are rejected.
func (h *ConfirmReceiptCommandHandler) Handle(ctx context.Context, cmd ConfirmReceiptCommand) error {
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

	now := h.clock()
	if err = p.ConfirmReceipt(now); err != nil {
		return err
	}
	if err = uow.ParcelRepository().Update(ctx, p); err != nil {
		return err
	}
	if err = releaseAttachments(ctx, uow, p, now); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "Parcel receipt confirmed", "parcel_id", p.ID())
	publishEvents(ctx, h.broadcaster, h.logger, p)
	return nil
}
