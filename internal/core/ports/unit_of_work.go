package ports

import "context"

// UnitOfWorkFactory hands out a fresh UnitOfWork per command invocation.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is one transaction over the Parcel/Bag/Seal aggregate.
// Repositories taken before Begin read outside the transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	// Commit fails when no transaction is active.
	Commit(ctx context.Context) error
	// Rollback after Commit returns an error; deferred rollbacks ignore it.
	Rollback(ctx context.Context) error

	ParcelRepository() ParcelRepository
	BagRepository() BagRepository
	SealRepository() SealRepository
	DirectoryRepository() DirectoryRepository
}
