package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"parcels/internal/core/domain/model/bag"
	"parcels/internal/core/domain/model/directory"
	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"
	"parcels/internal/core/domain/model/seal"
	"parcels/internal/core/ports"
	"parcels/internal/pkg/errs"
)

// publishEvents announces the parcel's committed changes. Delivery is best
// effort: a failed broadcast is logged and never fails the operation.
func publishEvents(ctx context.Context, broadcaster ports.ChangeBroadcaster, logger *slog.Logger, p *parcel.Parcel) {
	for _, event := range p.DomainEvents() {
		if err := broadcaster.Broadcast(ctx, string(event.Action), event); err != nil {
			logger.WarnContext(ctx, "Failed to broadcast parcel change",
				"event", event.Action, "parcel_id", event.ParcelID, "error", err)
		}
	}
	p.ClearDomainEvents()
}

// releaseAttachments unlinks every bag and seal still linked to the parcel.
// Bags become available at the parcel's destination sector; seals stay used.
func releaseAttachments(ctx context.Context, uow UoW, p *parcel.Parcel, now time.Time) error {
	bags, err := uow.BagRepository().GetByParcel(ctx, p.ID())
	if err != nil {
		return fmt.Errorf("load bags of parcel %d: %w", p.ID(), err)
	}
	destination := p.DestinationSectorID()
	for _, b := range bags {
		b.Release(&destination, now)
		if err := uow.BagRepository().Update(ctx, b); err != nil {
			return fmt.Errorf("release bag %s: %w", b.Number(), err)
		}
	}

	seals, err := uow.SealRepository().GetByParcel(ctx, p.ID())
	if err != nil {
		return fmt.Errorf("load seals of parcel %d: %w", p.ID(), err)
	}
	for _, s := range seals {
		s.Release(now)
		if err := uow.SealRepository().Update(ctx, s); err != nil {
			return fmt.Errorf("release seal %s: %w", s.Code(), err)
		}
	}
	return nil
}

// lookupHub returns the configured hub sector. ok is false when the provider
// failed; the failure is logged and callers route without the hub.
func lookupHub(ctx context.Context, provider ports.HubSectorProvider, logger *slog.Logger) (*kernel.ID, bool) {
	hubID, err := provider.HubSectorID(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Hub sector unavailable, routing without hub", "error", err)
		return nil, false
	}
	return hubID, true
}

// resolvedParticipant is a participant plus the names echoed in the routing payload.
type resolvedParticipant struct {
	participant kernel.Participant
	sectorName  string
	personName  string
}

// resolveParticipant turns a reference into a participant. A person acts from
// the given sector, or from their home sector when none is given. The sector
// must exist and be active.
func resolveParticipant(ctx context.Context, dir ports.DirectoryRepository, ref ParticipantRef) (resolvedParticipant, error) {
	var person *directory.Person
	sectorID := ref.SectorID
	if ref.PersonID != nil {
		found, err := dir.GetPerson(ctx, *ref.PersonID)
		if err != nil {
			return resolvedParticipant{}, err
		}
		person = &found
		if sectorID == nil {
			home := found.SectorID
			sectorID = &home
		}
	}
	if sectorID == nil {
		return resolvedParticipant{}, errs.NewValueIsRequiredError("sector or person")
	}

	sector, err := activeSector(ctx, dir, *sectorID)
	if err != nil {
		return resolvedParticipant{}, err
	}

	if person == nil {
		participant, err := kernel.NewSectorParticipant(sector.ID)
		return resolvedParticipant{participant: participant, sectorName: sector.Name}, err
	}
	participant, err := kernel.NewPersonParticipant(sector.ID, person.ID, person.SectorID)
	return resolvedParticipant{participant: participant, sectorName: sector.Name, personName: person.Name}, err
}

func activeSector(ctx context.Context, dir ports.DirectoryRepository, id kernel.ID) (directory.Sector, error) {
	sector, err := dir.GetSector(ctx, id)
	if err != nil {
		return directory.Sector{}, err
	}
	if !sector.Active {
		return directory.Sector{}, errs.NewValueIsInvalidErrorWithCause("sector",
			fmt.Errorf("sector %s (%d) is inactive", sector.Name, sector.ID))
	}
	return sector, nil
}

// attachments are the bag and seal a new parcel is created with.
type attachments struct {
	bag  *bag.Bag
	seal *seal.Seal
}

// link binds the attachments to the stored parcel in the current transaction:
// the seal becomes used and linked (to the bag as well, when there is one),
// the bag becomes linked.
func (a attachments) link(ctx context.Context, uow UoW, parcelID kernel.ID, now time.Time) error {
	if a.seal != nil {
		var bagID *kernel.ID
		if a.bag != nil {
			id := a.bag.ID()
			bagID = &id
		}
		if err := a.seal.Attach(parcelID, bagID, now); err != nil {
			return err
		}
		if err := uow.SealRepository().Update(ctx, a.seal); err != nil {
			return fmt.Errorf("link seal %s: %w", a.seal.Code(), err)
		}
	}
	if a.bag != nil {
		if err := a.bag.Link(parcelID, now); err != nil {
			return err
		}
		if err := uow.BagRepository().Update(ctx, a.bag); err != nil {
			return fmt.Errorf("link bag %s: %w", a.bag.Number(), err)
		}
	}
	return nil
}
