// Package commands contains the parcel lifecycle operations that modify state.
// Every command follows the same pattern: validation at construction, one
// transaction per invocation, change events published after commit.
package commands

import (
	"context"

	"parcels/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// A whole lifecycle cascade (parcel, bag and seal writes) runs inside one
// unit of work and commits or rolls back as a whole.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// ParcelRepoFactory provides access to the parcel repository within a transaction.
	ParcelRepoFactory interface {
		ParcelRepository() ports.ParcelRepository
	}

	// BagRepoFactory provides access to the bag repository within a transaction.
	BagRepoFactory interface {
		BagRepository() ports.BagRepository
	}

	// SealRepoFactory provides access to the seal repository within a transaction.
	SealRepoFactory interface {
		SealRepository() ports.SealRepository
	}

	// DirectoryRepoFactory provides access to people and sectors within a transaction.
	DirectoryRepoFactory interface {
		DirectoryRepository() ports.DirectoryRepository
	}

	// UoW spans the whole Parcel/Bag/Seal aggregate.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   p, err := uow.ParcelRepository().GetForUpdate(ctx, id)
	//   bags, err := uow.BagRepository().GetByParcel(ctx, id)
	//   // ... perform operations
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		ParcelRepoFactory
		BagRepoFactory
		SealRepoFactory
		DirectoryRepoFactory
	}

	// UoWFactory creates new unit of work instances.
	UoWFactory interface {
		Create() UoW
	}
)
