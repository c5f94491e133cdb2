// Package postgres provides the GORM-based Unit of Work for the parcel
// lifecycle. One unit of work spans a single lifecycle operation: every
// repository it hands out shares the same transaction once Begin was called,
// so a cascade either commits as a whole or not at all.
//
// Usage:
//
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() { _ = uow.Rollback(ctx) }()
//
//	if err := uow.ParcelRepository().Add(ctx, p); err != nil {
//	    return err
//	}
//	if err := uow.SealRepository().Update(ctx, s); err != nil {
//	    return err
//	}
//
//	return uow.Commit(ctx)
//
// Each UnitOfWork captures the schema snapshot current at Create, so a reload
// in the middle of an operation does not change the columns it writes.
package postgres

import (
	"context"

	"parcels/internal/adapters/out/postgres/bagrepo"
	"parcels/internal/adapters/out/postgres/directoryrepo"
	"parcels/internal/adapters/out/postgres/parcelrepo"
	"parcels/internal/adapters/out/postgres/schema"
	"parcels/internal/adapters/out/postgres/sealrepo"
	"parcels/internal/core/ports"

	"gorm.io/gorm"
)

// SnapshotSource supplies the current schema snapshot.
type SnapshotSource interface {
	Snapshot() *schema.Snapshot
}

var _ ports.UnitOfWorkFactory = &GormUnitOfWorkFactory{}

// GormUnitOfWorkFactory creates UnitOfWork instances using GORM database connections.
type GormUnitOfWorkFactory struct {
	db       *gorm.DB
	schema   SnapshotSource
	literals parcelrepo.StatusLiterals
}

// NewGormUnitOfWorkFactory creates a factory for GORM-based unit of work instances.
//
// Example:
//
//	cache := schema.NewCache(schema.NewIntrospector(db, "", ""), logger)
//	if _, err := cache.Reload(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	factory := NewGormUnitOfWorkFactory(db, cache, parcelrepo.DefaultStatusLiterals())
func NewGormUnitOfWorkFactory(db *gorm.DB, source SnapshotSource, literals parcelrepo.StatusLiterals) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{
		db:       db,
		schema:   source,
		literals: literals,
	}
}

// Create produces a new UnitOfWork instance with its own transaction state.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:       f.db,
		schema:   f.schema.Snapshot(),
		literals: f.literals,
	}
}

// GormUnitOfWork coordinates one database transaction across the parcel,
// bag, seal and directory repositories.
type GormUnitOfWork struct {
	db       *gorm.DB
	tx       *gorm.DB
	schema   *schema.Snapshot
	literals parcelrepo.StatusLiterals
}

// Begin starts the transaction. Calling it again while a transaction is
// active is a no-op.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return err
	}

	return nil
}

// Commit finalizes the transaction. Returns gorm.ErrInvalidTransaction when
// none is active.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	return err
}

// Rollback discards the transaction. Returns gorm.ErrInvalidTransaction when
// none is active, which makes a deferred Rollback after Commit harmless.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	return err
}

func (uow *GormUnitOfWork) ParcelRepository() ports.ParcelRepository {
	return parcelrepo.NewGormParcelRepository(uow.conn(), uow.schema, uow.literals)
}

func (uow *GormUnitOfWork) BagRepository() ports.BagRepository {
	return bagrepo.NewGormBagRepository(uow.conn())
}

func (uow *GormUnitOfWork) SealRepository() ports.SealRepository {
	return sealrepo.NewGormSealRepository(uow.conn())
}

func (uow *GormUnitOfWork) DirectoryRepository() ports.DirectoryRepository {
	return directoryrepo.NewGormDirectoryRepository(uow.conn())
}

// conn is the active transaction, or the main connection outside of one.
func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}
