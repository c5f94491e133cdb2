// Package bagrepo persists transport bags.
package bagrepo

import (
	"time"

	"parcels/internal/adapters/out/postgres/schema"
	"parcels/internal/core/domain/model/bag"
	"parcels/internal/core/domain/model/kernel"
)

// BagDTO is the stored row of a bag. The parcel link is the only state the
// lifecycle writes; the rest belongs to inventory.
type BagDTO struct {
	ID                  int64  `gorm:"primaryKey"`
	Number              string `gorm:"size:30;not null"`
	ParcelID            *int64 `gorm:"index"`
	OriginSectorID      *int64
	DestinationSectorID *int64
	UpdatedAt           *time.Time `gorm:"autoUpdateTime:false"`
}

func (BagDTO) TableName() string {
	return schema.BagsTable
}

func toDomain(dto BagDTO) (*bag.Bag, error) {
	var updatedAt time.Time
	if dto.UpdatedAt != nil {
		updatedAt = *dto.UpdatedAt
	}
	return bag.RestoreBag(
		kernel.ID(dto.ID),
		dto.Number,
		toID(dto.ParcelID),
		toID(dto.OriginSectorID),
		toID(dto.DestinationSectorID),
		updatedAt,
	)
}

// linkColumns are the columns written on link and release.
func linkColumns(b *bag.Bag) map[string]any {
	return map[string]any{
		"parcel_id":             fromID(b.ParcelID()),
		"destination_sector_id": fromID(b.DestinationSectorID()),
		"updated_at":            b.UpdatedAt(),
	}
}

func toID(v *int64) *kernel.ID {
	if v == nil {
		return nil
	}
	id := kernel.ID(*v)
	return &id
}

func fromID(id *kernel.ID) any {
	if id == nil {
		return nil
	}
	return id.Int64()
}
