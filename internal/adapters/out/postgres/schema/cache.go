package schema

import (
	"context"
	"log/slog"
	"sync"

	"parcels/internal/core/ports"
)

// Loader builds a snapshot for the given version.
type Loader interface {
	Load(ctx context.Context, version uint64) (*Snapshot, error)
}

// Cache holds the current snapshot. Readers never block on a reload in
// progress; a failed reload keeps the previous snapshot.
type Cache struct {
	loader Loader
	logger *slog.Logger

	reloadMu sync.Mutex
	mu       sync.RWMutex
	current  *Snapshot
}

// NewCache creates an empty cache. Call Reload once before serving requests.
func NewCache(loader Loader, logger *slog.Logger) *Cache {
	return &Cache{
		loader: loader,
		logger: logger.With("component", "schema_cache"),
	}
}

// Reload introspects the schema again and swaps in the new snapshot.
func (c *Cache) Reload(ctx context.Context) (*Snapshot, error) {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	next, err := c.loader.Load(ctx, c.Snapshot().Version()+1)
	if err != nil {
		c.logger.ErrorContext(ctx, "Schema reload failed, keeping previous snapshot",
			"error", err, "version", c.Snapshot().Version())
		return nil, err
	}

	c.mu.Lock()
	previous := c.current
	c.current = next
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "Schema snapshot loaded",
		"version", next.Version(),
		"description_column", next.DescriptionColumn(),
		"optional_columns", next.OptionalColumns(),
		"events_table", next.HasEventsTable(),
		"changed", !sameColumns(previous, next),
	)
	return next, nil
}

// Snapshot returns the current snapshot, or nil before the first load.
func (c *Cache) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Capabilities implements ports.SchemaProvider.
func (c *Cache) Capabilities() ports.SchemaCapabilities {
	return c.Snapshot()
}

func sameColumns(a, b *Snapshot) bool {
	if a == nil || b == nil {
		return a == b
	}
	an, bn := a.ColumnNames(), b.ColumnNames()
	if len(an) != len(bn) {
		return false
	}
	for i := range an {
		if an[i] != bn[i] || a.columns[an[i]] != b.columns[bn[i]] {
			return false
		}
	}
	return a.hasEvents == b.hasEvents
}
