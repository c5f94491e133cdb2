package services

import "parcels/internal/core/domain/model/kernel"

// RequiresHub decides whether a parcel must transit through the hub sector.
//
// It is true exactly when a hub is configured and neither the origin nor the
// destination is the hub itself:
//
//	hub := kernel.ID(3)
//	RequiresHub(5, 12, &hub) // true
//	RequiresHub(3, 12, &hub) // false
//	RequiresHub(12, 3, &hub) // false
//	RequiresHub(5, 12, nil)  // false, hub not configured
func RequiresHub(originSectorID, destinationSectorID kernel.ID, hubSectorID *kernel.ID) bool {
	if hubSectorID == nil {
		return false
	}
	return originSectorID != *hubSectorID && destinationSectorID != *hubSectorID
}
