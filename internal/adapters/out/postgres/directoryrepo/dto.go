// Package directoryrepo reads people and sectors parcels are addressed to.
package directoryrepo

import (
	"parcels/internal/adapters/out/postgres/schema"
	"parcels/internal/core/domain/model/directory"
	"parcels/internal/core/domain/model/kernel"
)

type PersonDTO struct {
	ID       int64  `gorm:"primaryKey"`
	Name     string `gorm:"size:120;not null"`
	SectorID int64  `gorm:"not null"`
}

func (PersonDTO) TableName() string {
	return schema.PeopleTable
}

func (dto PersonDTO) toDomain() directory.Person {
	return directory.Person{
		ID:       kernel.ID(dto.ID),
		Name:     dto.Name,
		SectorID: kernel.ID(dto.SectorID),
	}
}

type SectorDTO struct {
	ID     int64  `gorm:"primaryKey"`
	Name   string `gorm:"size:120;not null"`
	Active bool   `gorm:"not null;default:true"`
}

func (SectorDTO) TableName() string {
	return schema.SectorsTable
}

func (dto SectorDTO) toDomain() directory.Sector {
	return directory.Sector{
		ID:     kernel.ID(dto.ID),
		Name:   dto.Name,
		Active: dto.Active,
	}
}
