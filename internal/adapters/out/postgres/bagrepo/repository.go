package bagrepo

import (
	"context"
	"errors"

	"parcels/internal/adapters/out/postgres/pgerr"
	"parcels/internal/core/domain/model/bag"
	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/ports"
	"parcels/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ ports.BagRepository = &GormBagRepository{}

// GormBagRepository implements ports.BagRepository using GORM.
type GormBagRepository struct {
	db *gorm.DB
}

func NewGormBagRepository(db *gorm.DB) *GormBagRepository {
	return &GormBagRepository{db: db}
}

func (r *GormBagRepository) Get(ctx context.Context, id kernel.ID) (*bag.Bag, error) {
	return r.get(r.db.WithContext(ctx), id)
}

// GetForUpdate locks the bag row with NOWAIT so two creations cannot link
// the same bag. A held lock is reported as errs.ResourceBusyError.
func (r *GormBagRepository) GetForUpdate(ctx context.Context, id kernel.ID) (*bag.Bag, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}), id)
}

func (r *GormBagRepository) get(db *gorm.DB, id kernel.ID) (*bag.Bag, error) {
	var dto BagDTO
	if err := db.First(&dto, "id = ?", id.Int64()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("bag", id)
		}
		return nil, pgerr.Classify(err, "get bag", "bag", id)
	}
	return toDomain(dto)
}

// GetByParcel returns the bags linked to the parcel, ordered by id.
func (r *GormBagRepository) GetByParcel(ctx context.Context, parcelID kernel.ID) ([]*bag.Bag, error) {
	var dtos []BagDTO
	if err := r.db.WithContext(ctx).Order("id").Find(&dtos, "parcel_id = ?", parcelID.Int64()).Error; err != nil {
		return nil, pgerr.Classify(err, "get bags of parcel", "parcel", parcelID)
	}

	bags := make([]*bag.Bag, 0, len(dtos))
	for _, dto := range dtos {
		b, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		bags = append(bags, b)
	}
	return bags, nil
}

// Update writes the link state of the bag, including cleared links.
func (r *GormBagRepository) Update(ctx context.Context, aggregate *bag.Bag) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&BagDTO{}).
		Where("id = ?", aggregate.ID().Int64()).
		Updates(linkColumns(aggregate))
	if result.Error != nil {
		return pgerr.Classify(result.Error, "update bag", "bag", aggregate.ID())
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("bag", aggregate.ID())
	}
	return nil
}

// UnlinkByParcel clears the parcel link of every bag still pointing to it.
func (r *GormBagRepository) UnlinkByParcel(ctx context.Context, parcelID kernel.ID) error {
	err := r.db.WithContext(ctx).
		Model(&BagDTO{}).
		Where("parcel_id = ?", parcelID.Int64()).
		Update("parcel_id", nil).Error
	return pgerr.Classify(err, "unlink bags", "parcel", parcelID)
}
