// Package sealrepo persists security seals.
package sealrepo

import (
	"time"

	"parcels/internal/adapters/out/postgres/schema"
	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/seal"
)

// SealDTO is the stored row of a seal.
type SealDTO struct {
	ID        int64  `gorm:"primaryKey"`
	Code      string `gorm:"size:30;not null"`
	SectorID  int64  `gorm:"not null"`
	Status    string `gorm:"size:20;not null"`
	ParcelID  *int64 `gorm:"index"`
	BagID     *int64
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false"`
}

func (SealDTO) TableName() string {
	return schema.SealsTable
}

func toDomain(dto SealDTO) (*seal.Seal, error) {
	status, err := seal.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	var updatedAt time.Time
	if dto.UpdatedAt != nil {
		updatedAt = *dto.UpdatedAt
	}
	return seal.RestoreSeal(
		kernel.ID(dto.ID),
		dto.Code,
		kernel.ID(dto.SectorID),
		status,
		toID(dto.ParcelID),
		toID(dto.BagID),
		updatedAt,
	)
}

func stateColumns(s *seal.Seal) map[string]any {
	return map[string]any{
		"status":     s.Status().Code(),
		"parcel_id":  fromID(s.ParcelID()),
		"bag_id":     fromID(s.BagID()),
		"updated_at": s.UpdatedAt(),
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
