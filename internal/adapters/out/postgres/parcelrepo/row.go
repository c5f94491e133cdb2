package parcelrepo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"parcels/internal/adapters/out/postgres/schema"
	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"
)

// Aliases of the home sectors read alongside the parcel row.
const (
	originHomeSector      = "origin_home_sector_id"
	destinationHomeSector = "destination_home_sector_id"
)

// row is one parcel as read from storage. Column types vary by deployment,
// so values are converted by name rather than scanned into a struct.
type row map[string]any

func (r row) toDomain(snapshot *schema.Snapshot, literals StatusLiterals) (*parcel.Parcel, error) {
	status, err := literals.Status(r.string(schema.ColumnStatus))
	if err != nil {
		return nil, err
	}

	origin, err := r.participant(schema.ColumnOriginSectorID, schema.ColumnOriginPersonID, originHomeSector)
	if err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	destination, err := r.participant(schema.ColumnDestinationSectorID, schema.ColumnDestinationPersonID, destinationHomeSector)
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}

	return parcel.RestoreParcel(parcel.RestoreParams{
		ID:             kernel.ID(r.int64(schema.ColumnID)),
		TrackingCode:   r.string(schema.ColumnTrackingCode),
		Barcode:        r.string(schema.ColumnBarcode),
		RoutingPayload: r.string(schema.ColumnRoutingCode),
		Description:    r.string(snapshot.DescriptionColumn()),
		Status:         status,
		Origin:         origin,
		Destination:    destination,
		BagID:          r.optionalID(schema.ColumnBagID),
		SealID:         r.optionalID(schema.ColumnSealID),
		ParentID:       r.optionalID(schema.ColumnParentID),
		Urgent:         r.bool(schema.ColumnUrgent),
		ReceiptNumber:  r.string(schema.ColumnReceiptNumber),
		HubRequired:    r.bool(schema.ColumnHubFlag),
		HubSectorID:    r.optionalID(schema.ColumnHubSectorID),
		CreatedAt:      r.time(schema.ColumnCreatedAt),
		UpdatedAt:      r.time(schema.ColumnUpdatedAt),
		DeliveredAt:    r.optionalTime(schema.ColumnDeliveredAt),
	})
}

func (r row) participant(sectorColumn, personColumn, homeColumn string) (kernel.Participant, error) {
	sectorID := kernel.ID(r.int64(sectorColumn))
	personID := r.optionalID(personColumn)
	if personID == nil {
		return kernel.NewSectorParticipant(sectorID)
	}
	// A person missing from the directory keeps the parcel's sector as home.
	homeSectorID := sectorID
	if home := r.optionalID(homeColumn); home != nil {
		homeSectorID = *home
	}
	return kernel.NewPersonParticipant(sectorID, *personID, homeSectorID)
}

func (r row) optionalID(column string) *kernel.ID {
	v, ok := toInt64(r[column])
	if !ok {
		return nil
	}
	id := kernel.ID(v)
	return &id
}

func (r row) int64(column string) int64 {
	v, _ := toInt64(r[column])
	return v
}

func (r row) string(column string) string {
	switch v := r[column].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimRight(v, " ")
	case []byte:
		return strings.TrimRight(string(v), " ")
	default:
		return fmt.Sprint(v)
	}
}

func (r row) bool(column string) bool {
	switch v := r[column].(type) {
	case bool:
		return v
	case string, []byte:
		switch strings.ToUpper(strings.TrimSpace(r.string(column))) {
		case "Y", "S", "1", "T", "TRUE", "YES":
			return true
		}
		return false
	default:
		n, ok := toInt64(v)
		return ok && n != 0
	}
}

func (r row) time(column string) time.Time {
	if t := r.optionalTime(column); t != nil {
		return *t
	}
	return time.Time{}
}

func (r row) optionalTime(column string) *time.Time {
	switch v := r[column].(type) {
	case time.Time:
		return &v
	case *time.Time:
		return v
	default:
		return nil
	}
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int:
		return int64(v), true
	case float64:
		return int64(math.Round(v)), true
	case float32:
		return int64(math.Round(float64(v))), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return int64(math.Round(n)), err == nil
	case []byte:
		return toInt64(string(v))
	default:
		return 0, false
	}
}
