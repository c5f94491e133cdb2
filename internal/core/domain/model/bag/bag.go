// Package bag provides the Bag entity: a reusable transport container that
// carries at most one parcel at a time.
package bag

import (
	"errors"
	"fmt"
	"time"

	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/pkg/errs"
)

var ErrBagIsNotConstructed = errors.New("Bag must be created via RestoreBag constructor")

// Status is derived from the parcel link and never stored.
type Status int

const (
	Available Status = iota
	Linked
)

func (s Status) String() string {
	if s == Linked {
		return "Linked"
	}
	return "Available"
}

// Bag is loaded from storage; bags are registered by inventory, not by this service.
type Bag struct {
	id                  kernel.ID
	number              string
	parcelID            *kernel.ID
	originSectorID      *kernel.ID
	destinationSectorID *kernel.ID
	updatedAt           time.Time

	isConstructed bool
}

// RestoreBag rebuilds a bag from its stored row.
func RestoreBag(
	id kernel.ID,
	number string,
	parcelID, originSectorID, destinationSectorID *kernel.ID,
	updatedAt time.Time,
) (*Bag, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return &Bag{
		id:                  id,
		number:              number,
		parcelID:            parcelID,
		originSectorID:      originSectorID,
		destinationSectorID: destinationSectorID,
		updatedAt:           updatedAt,
		isConstructed:       true,
	}, nil
}

func (b *Bag) Validate() error {
	if b == nil || !b.isConstructed {
		return ErrBagIsNotConstructed
	}
	return nil
}

func (b *Bag) ID() kernel.ID { return b.id }
func (b *Bag) Number() string { return b.number }
func (b *Bag) ParcelID() *kernel.ID { return b.parcelID }
func (b *Bag) OriginSectorID() *kernel.ID { return b.originSectorID }
func (b *Bag) DestinationSectorID() *kernel.ID { return b.destinationSectorID }
func (b *Bag) UpdatedAt() time.Time { return b.updatedAt }

func (b *Bag) Status() Status {
	if b.parcelID != nil {
		return Linked
	}
	return Available
}

// ValidateLink checks that the bag is free to carry a new parcel.
func (b *Bag) ValidateLink() error {
	if b.parcelID != nil {
		return errs.NewValueIsInvalidErrorWithCause(
			"bag",
			fmt.Errorf("bag %s is still linked to parcel %d", b.number, *b.parcelID),
		)
	}
	return nil
}

// Link binds the bag to a stored parcel.
func (b *Bag) Link(parcelID kernel.ID, now time.Time) error {
	if err := parcelID.Validate(); err != nil {
		return err
	}
	if err := b.ValidateLink(); err != nil {
		return err
	}
	b.parcelID = &parcelID
	b.updatedAt = now
	return nil
}

// Release unbinds the bag. When destinationSectorID is set the bag is
// recorded as sitting in that sector.
func (b *Bag) Release(destinationSectorID *kernel.ID, now time.Time) {
	b.parcelID = nil
	if destinationSectorID != nil {
		d := *destinationSectorID
		b.destinationSectorID = &d
	}
	b.updatedAt = now
}
