package ports

import (
	"context"

	"parcels/internal/core/domain/model/kernel"
)

// HubSectorProvider returns the configured hub sector, or nil when none is set.
type HubSectorProvider interface {
	HubSectorID(ctx context.Context) (*kernel.ID, error)
}
