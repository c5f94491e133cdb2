package parcel

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/pkg/errs"
)

var (
	// ErrParcelIsNotConstructed is returned when a Parcel instance was not created through
	// NewParcel or RestoreParcel.
	ErrParcelIsNotConstructed = errors.New("Parcel must be created via NewParcel constructor")

	// ErrTrackingCodeTaken is reported by storage when the generated tracking code
	// is already used by another parcel.
	ErrTrackingCodeTaken = errors.New("tracking code is already taken")
)

// Parcel is the aggregate root of a physical item moving between two sectors.
//
// Parcel follows these invariants:
//   - Origin and destination sectors differ
//   - When both participants are persons they are different persons with different home sectors
//   - Status transitions follow the rules of Status
//   - The delivery timestamp is set only on transition to Delivered
//
// Bag and seal are referenced by identity only. Linking and releasing them is
// coordinated by the lifecycle commands.
type Parcel struct {
	id             kernel.ID
	trackingCode   string
	barcode        string
	routingPayload string
	description    string
	status         Status

	origin      kernel.Participant
	destination kernel.Participant

	bagID    *kernel.ID
	sealID   *kernel.ID
	parentID *kernel.ID

	urgent        bool
	receiptNumber string

	hubRequired bool
	hubSectorID *kernel.ID

	createdAt   time.Time
	updatedAt   time.Time
	deliveredAt *time.Time

	events []ChangeEvent

	isConstructed bool
}

// NewParcel creates a parcel that has not been stored yet. The identity and the
// tracking code are assigned later by the lifecycle coordinator.
//
// Example:
//
//	origin, _ := kernel.NewPersonParticipant(5, 17, 5)
//	destination, _ := kernel.NewSectorParticipant(12)
//	p, err := parcel.NewParcel(origin, destination, "contract copies", parcel.InTransit, time.Now())
//	if err != nil {
//	    // same sector, same person or unsupported initial status
//	}
func NewParcel(
	origin, destination kernel.Participant,
	description string,
	status Status,
	now time.Time,
) (*Parcel, error) {
	p := &Parcel{
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}

	if err := errors.Join(
		validateRoute(origin, destination),
		status.ValidateInitial(),
		p.setDescription(description),
	); err != nil {
		return nil, err
	}

	p.origin = origin
	p.destination = destination
	p.status = status
	return p, nil
}

// RestoreParams carries the persisted state of a parcel.
type RestoreParams struct {
	ID             kernel.ID
	TrackingCode   string
	Barcode        string
	RoutingPayload string
	Description    string
	Status         Status
	Origin         kernel.Participant
	Destination    kernel.Participant
	BagID          *kernel.ID
	SealID         *kernel.ID
	ParentID       *kernel.ID
	Urgent         bool
	ReceiptNumber  string
	HubRequired    bool
	HubSectorID    *kernel.ID
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeliveredAt    *time.Time
}

// RestoreParcel rebuilds a parcel from storage. Only structural checks are made:
// rows written before a rule existed are still loadable.
func RestoreParcel(params RestoreParams) (*Parcel, error) {
	if err := errors.Join(
		params.ID.Validate(),
		params.Status.Validate(),
		params.Origin.Validate(),
		params.Destination.Validate(),
	); err != nil {
		return nil, err
	}

	return &Parcel{
		id:             params.ID,
		trackingCode:   params.TrackingCode,
		barcode:        params.Barcode,
		routingPayload: params.RoutingPayload,
		description:    params.Description,
		status:         params.Status,
		origin:         params.Origin,
		destination:    params.Destination,
		bagID:          params.BagID,
		sealID:         params.SealID,
		parentID:       params.ParentID,
		urgent:         params.Urgent,
		receiptNumber:  params.ReceiptNumber,
		hubRequired:    params.HubRequired,
		hubSectorID:    params.HubSectorID,
		createdAt:      params.CreatedAt,
		updatedAt:      params.UpdatedAt,
		deliveredAt:    params.DeliveredAt,
		isConstructed:  true,
	}, nil
}

// Validate ensures the Parcel instance was built through a constructor.
func (p *Parcel) Validate() error {
	if p == nil || !p.isConstructed {
		return ErrParcelIsNotConstructed
	}
	return nil
}

func (p *Parcel) ID() kernel.ID { return p.id }
func (p *Parcel) TrackingCode() string { return p.trackingCode }
func (p *Parcel) Barcode() string { return p.barcode }
func (p *Parcel) RoutingPayload() string { return p.routingPayload }
func (p *Parcel) Description() string { return p.description }
func (p *Parcel) Status() Status { return p.status }
func (p *Parcel) Origin() kernel.Participant { return p.origin }
func (p *Parcel) Destination() kernel.Participant { return p.destination }
func (p *Parcel) BagID() *kernel.ID { return p.bagID }
func (p *Parcel) SealID() *kernel.ID { return p.sealID }
func (p *Parcel) ParentID() *kernel.ID { return p.parentID }
func (p *Parcel) Urgent() bool { return p.urgent }
func (p *Parcel) ReceiptNumber() string { return p.receiptNumber }
func (p *Parcel) HubRequired() bool { return p.hubRequired }
func (p *Parcel) HubSectorID() *kernel.ID { return p.hubSectorID }
func (p *Parcel) CreatedAt() time.Time { return p.createdAt }
func (p *Parcel) UpdatedAt() time.Time { return p.updatedAt }
func (p *Parcel) DeliveredAt() *time.Time { return p.deliveredAt }

// OriginSectorID is a shortcut for Origin().SectorID().
func (p *Parcel) OriginSectorID() kernel.ID { return p.origin.SectorID() }

// DestinationSectorID is a shortcut for Destination().SectorID().
func (p *Parcel) DestinationSectorID() kernel.ID { return p.destination.SectorID() }

// IsStored reports whether the parcel already has a database identity.
func (p *Parcel) IsStored() bool { return p.id != 0 }

// AttachBag records the bag the parcel travels in. Only allowed before storage.
func (p *Parcel) AttachBag(bagID kernel.ID) error {
	if err := p.ensureNotStored("bag"); err != nil {
		return err
	}
	if err := bagID.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("bag", err)
	}
	p.bagID = &bagID
	return nil
}

// AttachSeal records the seal closing the parcel. Only allowed before storage.
// The seal's own rules (owning sector, availability) are checked by the seal.
func (p *Parcel) AttachSeal(sealID kernel.ID) error {
	if err := p.ensureNotStored("seal"); err != nil {
		return err
	}
	if err := sealID.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("seal", err)
	}
	p.sealID = &sealID
	return nil
}

// SetParent marks the parcel as part of a split shipment.
func (p *Parcel) SetParent(parentID kernel.ID) error {
	if err := parentID.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("parent parcel", err)
	}
	if p.id != 0 && p.id == parentID {
		return errs.NewValueIsInvalidErrorWithCause("parent parcel", fmt.Errorf("parcel %d cannot be its own parent", p.id))
	}
	p.parentID = &parentID
	return nil
}

func (p *Parcel) SetUrgent(urgent bool) {
	p.urgent = urgent
}

func (p *Parcel) SetReceiptNumber(number string) {
	p.receiptNumber = strings.TrimSpace(number)
}

// AssignTrackingCode sets the tracking code. The barcode always mirrors it.
func (p *Parcel) AssignTrackingCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return errs.NewValueIsRequiredError("tracking code")
	}
	p.trackingCode = code
	p.barcode = code
	return nil
}

// SetRoutingPayload stores the scannable routing document of the parcel.
func (p *Parcel) SetRoutingPayload(payload string) {
	p.routingPayload = payload
}

// ApplyHubRouting records whether the parcel must pass through the hub sector.
// The hub is only kept when routing is required.
func (p *Parcel) ApplyHubRouting(required bool, hubSectorID *kernel.ID) {
	p.hubRequired = required && hubSectorID != nil
	if p.hubRequired {
		hub := *hubSectorID
		p.hubSectorID = &hub
		return
	}
	p.hubSectorID = nil
}

// AssignIdentity records the identity given by storage and raises EventCreated.
func (p *Parcel) AssignIdentity(id kernel.ID) error {
	if p.id != 0 {
		return errs.NewValueIsInvalidErrorWithCause("id", fmt.Errorf("parcel already has identity %d", p.id))
	}
	if err := id.Validate(); err != nil {
		return err
	}
	p.id = id
	p.raise(EventCreated)
	return nil
}

// Patch is a partial update of a stored parcel. Nil fields are left unchanged.
type Patch struct {
	Description         *string
	Status              *Status
	Urgent              *bool
	ReceiptNumber       *string
	OriginSectorID      *kernel.ID
	DestinationSectorID *kernel.ID
}

// IsEmpty reports whether the patch changes nothing.
func (pt Patch) IsEmpty() bool {
	return pt.Description == nil && pt.Status == nil && pt.Urgent == nil &&
		pt.ReceiptNumber == nil && pt.OriginSectorID == nil && pt.DestinationSectorID == nil
}

// Apply merges the patch and re-validates every invariant before mutating
// anything. Raises EventUpdated, plus EventDelivered when the patch delivers
// the parcel.
func (p *Parcel) Apply(patch Patch, now time.Time) error {
	origin, destination := p.origin, p.destination

	var err error
	if patch.OriginSectorID != nil {
		if origin, err = origin.WithSector(*patch.OriginSectorID); err != nil {
			return err
		}
	}
	if patch.DestinationSectorID != nil {
		if destination, err = destination.WithSector(*patch.DestinationSectorID); err != nil {
			return err
		}
	}

	status := p.status
	if patch.Status != nil {
		if status, err = p.status.TransitionTo(*patch.Status); err != nil {
			return err
		}
	}

	if err = validateRoute(origin, destination); err != nil {
		return err
	}
	if patch.Description != nil {
		if err = p.setDescription(*patch.Description); err != nil {
			return err
		}
	}

	delivered := status == Delivered && p.status != Delivered

	p.origin = origin
	p.destination = destination
	p.status = status
	if patch.Urgent != nil {
		p.urgent = *patch.Urgent
	}
	if patch.ReceiptNumber != nil {
		p.SetReceiptNumber(*patch.ReceiptNumber)
	}
	p.updatedAt = now

	p.raise(EventUpdated)
	if delivered {
		p.markDelivered(now)
	}
	return nil
}

// ConfirmReceipt delivers the parcel. Fails when it is already delivered or returned.
func (p *Parcel) ConfirmReceipt(now time.Time) error {
	status, err := p.status.Deliver()
	if err != nil {
		return err
	}
	p.status = status
	p.updatedAt = now
	p.markDelivered(now)
	return nil
}

// MarkDeleted raises EventDeleted. Storage removal is done by the repository.
func (p *Parcel) MarkDeleted() {
	p.raise(EventDeleted)
}

func (p *Parcel) markDelivered(now time.Time) {
	at := now
	p.deliveredAt = &at
	p.raise(EventDelivered)
}

func (p *Parcel) ensureNotStored(what string) error {
	if p.id != 0 {
		return errs.NewValueIsInvalidErrorWithCause(what, fmt.Errorf("parcel %d is already stored", p.id))
	}
	return nil
}

func (p *Parcel) setDescription(description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return errs.NewValueIsRequiredError("description")
	}
	p.description = description
	return nil
}

func validateRoute(origin, destination kernel.Participant) error {
	if err := errors.Join(origin.Validate(), destination.Validate()); err != nil {
		return err
	}

	if origin.SectorID() == destination.SectorID() {
		return errs.NewValueIsInvalidErrorWithCause(
			"destination sector",
			fmt.Errorf("origin and destination are both sector %d", origin.SectorID()),
		)
	}

	if origin.IsPerson() && destination.IsPerson() {
		if *origin.PersonID() == *destination.PersonID() {
			return errs.NewValueIsInvalidErrorWithCause(
				"destination person",
				fmt.Errorf("person %d cannot send a parcel to themselves", *origin.PersonID()),
			)
		}
		if *origin.HomeSectorID() == *destination.HomeSectorID() {
			return errs.NewValueIsInvalidErrorWithCause(
				"destination person",
				fmt.Errorf("sender and recipient both belong to sector %d", *origin.HomeSectorID()),
			)
		}
	}

	return nil
}
