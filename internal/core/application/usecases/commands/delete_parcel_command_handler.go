package commands

import (
	"context"
	"fmt"
	"log/slog"

	"parcels/internal/core/ports"
	"parcels/internal/pkg/errs"
)

// DeleteParcelCommandHandler runs the delete cascade in one transaction:
//
//  1. clear the parcel's own bag and seal references
//  2. delete seals owned by the parcel
//  3. unlink bags pointing to the parcel
//  4. delete auxiliary history rows, when the deployment has them
//  5. delete the parcel row
//
// The row is locked without waiting first; a concurrent writer makes the
// delete fail with errs.ResourceBusyError instead of queueing behind it.
type DeleteParcelCommandHandler struct {
	uowFactory  UoWFactory
	broadcaster ports.ChangeBroadcaster
	adminRoles  []string
	logger      *slog.Logger
}

func NewDeleteParcelCommandHandler(
	uowFactory UoWFactory,
	broadcaster ports.ChangeBroadcaster,
	adminRoles []string,
	logger *slog.Logger,
) DeleteParcelCommandHandler {
	if len(adminRoles) == 0 {
		adminRoles = DefaultAdminRoles
	}
	return DeleteParcelCommandHandler{
		uowFactory:  uowFactory,
		broadcaster: broadcaster,
		adminRoles:  adminRoles,
		logger:      logger.With("component", "delete_parcel"),
	}
}

func (h *DeleteParcelCommandHandler) Handle(ctx context.Context, cmd DeleteParcelCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if !cmd.Caller().HasRole(h.adminRoles) {
		return errs.NewPermissionDeniedError("delete parcel", cmd.Caller().Role)
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	parcels := uow.ParcelRepository()
	id := cmd.ParcelID()

	p, err := parcels.GetForUpdate(ctx, id)
	if err != nil {
		return err
	}

	if err = parcels.ClearReferences(ctx, id); err != nil {
		return fmt.Errorf("clear references of parcel %d: %w", id, err)
	}
	removedSeals, err := uow.SealRepository().DeleteByParcel(ctx, id)
	if err != nil {
		return fmt.Errorf("delete seals of parcel %d: %w", id, err)
	}
	if err = uow.BagRepository().UnlinkByParcel(ctx, id); err != nil {
		return fmt.Errorf("unlink bags of parcel %d: %w", id, err)
	}
	if err = parcels.DeleteEvents(ctx, id); err != nil {
		return fmt.Errorf("delete history of parcel %d: %w", id, err)
	}
	if err = parcels.Delete(ctx, id); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "Parcel deleted",
		"parcel_id", id, "seals_removed", removedSeals, "user_id", cmd.Caller().UserID)
	p.MarkDeleted()
	publishEvents(ctx, h.broadcaster, h.logger, p)
	return nil
}
