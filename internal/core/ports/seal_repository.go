package ports

import (
	"context"

	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/seal"
)

// SealRepository defines the persistence contract for security seals.
type SealRepository interface {
	Get(ctx context.Context, id kernel.ID) (*seal.Seal, error)

	// GetForUpdate retrieves the seal and locks its row without waiting.
	// Returns errs.ResourceBusyError when another transaction holds the lock.
	GetForUpdate(ctx context.Context, id kernel.ID) (*seal.Seal, error)

	// GetByParcel returns every seal currently linked to the parcel.
	GetByParcel(ctx context.Context, parcelID kernel.ID) ([]*seal.Seal, error)

	Update(ctx context.Context, aggregate *seal.Seal) error

	// DeleteByParcel removes seals owned by the parcel. Storage does not allow
	// reassigning a seal's owner, so deletion is the only way to free the parcel.
	DeleteByParcel(ctx context.Context, parcelID kernel.ID) (int64, error)
}
