// Package directory holds the read-only reference entities the lifecycle
// resolves participants against. People and sectors are owned elsewhere.
package directory

import "parcels/internal/core/domain/model/kernel"

// Sector is an organizational unit parcels travel between.
type Sector struct {
	ID     kernel.ID
	Name   string
	Active bool
}

// Person is someone who sends or receives parcels from their home sector.
type Person struct {
	ID       kernel.ID
	Name     string
	SectorID kernel.ID
}
