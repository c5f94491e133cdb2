// Package schema discovers which optional parcel columns a deployment has and
// how values must be shaped before they are written to them.
//
// The result is an immutable, versioned Snapshot loaded once at startup and
// replaced only through Cache.Reload.
package schema

const (
	ParcelsTable  = "parcels"
	EventsTable   = "parcel_events"
	BagsTable     = "bags"
	SealsTable    = "seals"
	PeopleTable   = "people"
	SectorsTable  = "sectors"
	SettingsTable = "settings"
)

// Mandatory columns of the parcels table.
const (
	ColumnID                  = "id"
	ColumnTrackingCode        = "tracking_code"
	ColumnStatus              = "status"
	ColumnOriginSectorID      = "origin_sector_id"
	ColumnDestinationSectorID = "destination_sector_id"
	ColumnOriginPersonID      = "origin_person_id"
	ColumnDestinationPersonID = "destination_person_id"
	ColumnCreatedAt           = "created_at"
	ColumnUpdatedAt           = "updated_at"
	ColumnDeliveredAt         = "delivered_at"
)

// Optional columns; present only in some deployments.
const (
	ColumnRoutingCode   = "routing_code"
	ColumnBarcode       = "barcode"
	ColumnUrgent        = "urgent"
	ColumnSealID        = "seal_id"
	ColumnBagID         = "bag_id"
	ColumnReceiptNumber = "receipt_number"
	ColumnHubFlag       = "hub_flag"
	ColumnHubSectorID   = "hub_sector_id"
	ColumnParentID      = "parent_parcel_id"
)

// MandatoryColumns lists the columns every deployment must have.
func MandatoryColumns() []string {
	return []string{
		ColumnID,
		ColumnTrackingCode,
		ColumnStatus,
		ColumnOriginSectorID,
		ColumnDestinationSectorID,
		ColumnOriginPersonID,
		ColumnDestinationPersonID,
		ColumnCreatedAt,
		ColumnUpdatedAt,
		ColumnDeliveredAt,
	}
}

// CandidateColumns lists the optional columns looked for during introspection.
func CandidateColumns() []string {
	return []string{
		ColumnRoutingCode,
		ColumnBarcode,
		ColumnUrgent,
		ColumnSealID,
		ColumnBagID,
		ColumnReceiptNumber,
		ColumnHubFlag,
		ColumnHubSectorID,
		ColumnParentID,
	}
}

// DescriptionAliases lists accepted names of the free-text description column,
// in order of preference.
func DescriptionAliases() []string {
	return []string{"description", "notes"}
}
