package ports

import (
	"context"

	"parcels/internal/core/domain/model/directory"
	"parcels/internal/core/domain/model/kernel"
)

// DirectoryRepository resolves people and sectors. All lookups return
// errs.ObjectNotFoundError when nothing matches.
type DirectoryRepository interface {
	GetPerson(ctx context.Context, id kernel.ID) (directory.Person, error)
	GetSector(ctx context.Context, id kernel.ID) (directory.Sector, error)

	// FindPersonByName matches the full name case-insensitively.
	FindPersonByName(ctx context.Context, name string) (directory.Person, error)

	// FindSectorByName matches the sector name case-insensitively.
	FindSectorByName(ctx context.Context, name string) (directory.Sector, error)
}
