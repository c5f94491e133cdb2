package directoryrepo

import (
	"context"
	"errors"
	"strings"

	"parcels/internal/adapters/out/postgres/pgerr"
	"parcels/internal/core/domain/model/directory"
	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/ports"
	"parcels/internal/pkg/errs"

	"gorm.io/gorm"
)

var _ ports.DirectoryRepository = &GormDirectoryRepository{}

// GormDirectoryRepository implements ports.DirectoryRepository using GORM.
type GormDirectoryRepository struct {
	db *gorm.DB
}

func NewGormDirectoryRepository(db *gorm.DB) *GormDirectoryRepository {
	return &GormDirectoryRepository{db: db}
}

func (r *GormDirectoryRepository) GetPerson(ctx context.Context, id kernel.ID) (directory.Person, error) {
	var dto PersonDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Int64()).Error; err != nil {
		return directory.Person{}, notFound(err, "person", id)
	}
	return dto.toDomain(), nil
}

func (r *GormDirectoryRepository) GetSector(ctx context.Context, id kernel.ID) (directory.Sector, error) {
	var dto SectorDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Int64()).Error; err != nil {
		return directory.Sector{}, notFound(err, "sector", id)
	}
	return dto.toDomain(), nil
}

// FindPersonByName matches the trimmed name case-insensitively. The lowest
// id wins when names are shared.
func (r *GormDirectoryRepository) FindPersonByName(ctx context.Context, name string) (directory.Person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return directory.Person{}, errs.NewValueIsRequiredError("person name")
	}

	var dto PersonDTO
	err := r.db.WithContext(ctx).
		Where("LOWER(TRIM(name)) = LOWER(?)", name).
		Order("id").
		First(&dto).Error
	if err != nil {
		return directory.Person{}, notFound(err, "person", name)
	}
	return dto.toDomain(), nil
}

// FindSectorByName matches the trimmed sector name case-insensitively.
func (r *GormDirectoryRepository) FindSectorByName(ctx context.Context, name string) (directory.Sector, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return directory.Sector{}, errs.NewValueIsRequiredError("sector name")
	}

	var dto SectorDTO
	err := r.db.WithContext(ctx).
		Where("LOWER(TRIM(name)) = LOWER(?)", name).
		Order("id").
		First(&dto).Error
	if err != nil {
		return directory.Sector{}, notFound(err, "sector", name)
	}
	return dto.toDomain(), nil
}

func notFound(err error, param string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NewObjectNotFoundError(param, id)
	}
	return pgerr.Classify(err, "get "+param, param, id)
}
