package ports

import (
	"context"

	"parcels/internal/core/domain/model/bag"
	"parcels/internal/core/domain/model/kernel"
)

// BagRepository defines the persistence contract for transport bags.
type BagRepository interface {
	Get(ctx context.Context, id kernel.ID) (*bag.Bag, error)

	// GetForUpdate retrieves the bag and locks its row without waiting.
	// Returns errs.ResourceBusyError when another transaction holds the lock.
	GetForUpdate(ctx context.Context, id kernel.ID) (*bag.Bag, error)

	// GetByParcel returns every bag currently linked to the parcel.
	GetByParcel(ctx context.Context, parcelID kernel.ID) ([]*bag.Bag, error)

	Update(ctx context.Context, aggregate *bag.Bag) error

	// UnlinkByParcel clears the parcel link of every bag pointing to it.
	UnlinkByParcel(ctx context.Context, parcelID kernel.ID) error
}
