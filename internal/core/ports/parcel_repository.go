// Package ports defines the contracts between the parcel lifecycle and its
// infrastructure: repositories, schema capabilities, hub configuration and
// the change broadcaster.
package ports

import (
	"context"

	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"
)

// ParcelRepository defines the persistence contract for parcel aggregates.
// Writes are restricted to the columns present in the deployment schema.
type ParcelRepository interface {
	// Add inserts a new parcel and assigns its identity.
	// Returns an error wrapping parcel.ErrTrackingCodeTaken when the tracking code
	// collides with an existing one; the surrounding transaction stays usable.
	Add(ctx context.Context, aggregate *parcel.Parcel) error

	// Update persists the mutable fields of a stored parcel.
	Update(ctx context.Context, aggregate *parcel.Parcel) error

	// Get retrieves a parcel by identity.
	Get(ctx context.Context, id kernel.ID) (*parcel.Parcel, error)

	// GetForUpdate retrieves a parcel and locks its row without waiting.
	// Returns errs.ResourceBusyError when another transaction holds the lock.
	GetForUpdate(ctx context.Context, id kernel.ID) (*parcel.Parcel, error)

	// ClearReferences nulls the parcel's own bag and seal references.
	ClearReferences(ctx context.Context, id kernel.ID) error

	// DeleteEvents removes auxiliary history rows of the parcel, if the
	// deployment has a history table.
	DeleteEvents(ctx context.Context, id kernel.ID) error

	// Delete removes the parcel row. A remaining dependent row is reported as
	// errs.ConflictError.
	Delete(ctx context.Context, id kernel.ID) error
}
