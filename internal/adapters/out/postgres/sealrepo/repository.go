package sealrepo

import (
	"context"
	"errors"

	"parcels/internal/adapters/out/postgres/pgerr"
	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/seal"
	"parcels/internal/core/ports"
	"parcels/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ ports.SealRepository = &GormSealRepository{}

// GormSealRepository implements ports.SealRepository using GORM.
type GormSealRepository struct {
	db *gorm.DB
}

func NewGormSealRepository(db *gorm.DB) *GormSealRepository {
	return &GormSealRepository{db: db}
}

func (r *GormSealRepository) Get(ctx context.Context, id kernel.ID) (*seal.Seal, error) {
	return r.get(r.db.WithContext(ctx), id)
}

// GetForUpdate locks the seal row with NOWAIT so two creations cannot link
// the same seal. A held lock is reported as errs.ResourceBusyError.
func (r *GormSealRepository) GetForUpdate(ctx context.Context, id kernel.ID) (*seal.Seal, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}), id)
}

func (r *GormSealRepository) get(db *gorm.DB, id kernel.ID) (*seal.Seal, error) {
	var dto SealDTO
	if err := db.First(&dto, "id = ?", id.Int64()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("seal", id)
		}
		return nil, pgerr.Classify(err, "get seal", "seal", id)
	}
	return toDomain(dto)
}

func (r *GormSealRepository) GetByParcel(ctx context.Context, parcelID kernel.ID) ([]*seal.Seal, error) {
	var dtos []SealDTO
	if err := r.db.WithContext(ctx).Order("id").Find(&dtos, "parcel_id = ?", parcelID.Int64()).Error; err != nil {
		return nil, pgerr.Classify(err, "get seals of parcel", "parcel", parcelID)
	}

	seals := make([]*seal.Seal, 0, len(dtos))
	for _, dto := range dtos {
		s, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		seals = append(seals, s)
	}
	return seals, nil
}

func (r *GormSealRepository) Update(ctx context.Context, aggregate *seal.Seal) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&SealDTO{}).
		Where("id = ?", aggregate.ID().Int64()).
		Updates(stateColumns(aggregate))
	if result.Error != nil {
		return pgerr.Classify(result.Error, "update seal", "seal", aggregate.ID())
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("seal", aggregate.ID())
	}
	return nil
}

// DeleteByParcel removes the seals still owned by the parcel and reports how
// many were removed.
func (r *GormSealRepository) DeleteByParcel(ctx context.Context, parcelID kernel.ID) (int64, error) {
	result := r.db.WithContext(ctx).Where("parcel_id = ?", parcelID.Int64()).Delete(&SealDTO{})
	if result.Error != nil {
		return 0, pgerr.Classify(result.Error, "delete seals of parcel", "parcel", parcelID)
	}
	return result.RowsAffected, nil
}
