package queries

import (
	"context"
	"fmt"
	"strings"

	"parcels/internal/core/domain/model/parcel"
	"parcels/internal/core/ports"

	"gorm.io/gorm"
)

// StatusDecoder maps a stored status literal back to its status.
type StatusDecoder interface {
	Status(literal string) (parcel.Status, error)
}

// GetParcelStatsQueryHandler aggregates parcel counters with one grouped query.
type GetParcelStatsQueryHandler struct {
	db       *gorm.DB
	statuses StatusDecoder
	schema   ports.SchemaProvider
}

func NewGetParcelStatsQueryHandler(db *gorm.DB, statuses StatusDecoder, schema ports.SchemaProvider) GetParcelStatsQueryHandler {
	return GetParcelStatsQueryHandler{db: db, statuses: statuses, schema: schema}
}

// Handle counts parcels per stored status and urgency. Rows whose status
// literal is not recognised only add to the total.
func (h GetParcelStatsQueryHandler) Handle(
	ctx context.Context,
	query GetParcelStatsQuery,
) (GetParcelStatsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetParcelStatsQueryResponse{}, err
	}

	urgent := "NULL::text"
	if h.schema.Capabilities().HasColumn("urgent") {
		urgent = "urgent::text"
	}

	rows, err := h.db.WithContext(ctx).Raw(fmt.Sprintf(`
		SELECT
			status,
			%s AS urgent,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE delivered_at >= ?) AS delivered_today
		FROM parcels
		GROUP BY 1, 2
	`, urgent), query.DayStart()).Rows()
	if err != nil {
		return GetParcelStatsQueryResponse{}, fmt.Errorf("count parcels: %w", err)
	}
	defer rows.Close()

	var stats GetParcelStatsQueryResponse
	for rows.Next() {
		var (
			literal        string
			urgentFlag     *string
			total          int64
			deliveredToday int64
		)
		if err = rows.Scan(&literal, &urgentFlag, &total, &deliveredToday); err != nil {
			return GetParcelStatsQueryResponse{}, fmt.Errorf("scan parcel counters: %w", err)
		}

		stats.Total += total
		stats.DeliveredToday += deliveredToday

		status, decodeErr := h.statuses.Status(literal)
		if decodeErr != nil {
			continue
		}
		switch status {
		case parcel.Pending:
			stats.Pending += total
		case parcel.InTransit:
			stats.InTransit += total
		case parcel.Delivered:
			stats.Delivered += total
		case parcel.Returned:
			stats.Returned += total
		case parcel.Unknown:
		}
		if !status.IsTerminal() && isUrgent(urgentFlag) {
			stats.Urgent += total
		}
	}
	if err = rows.Err(); err != nil {
		return GetParcelStatsQueryResponse{}, fmt.Errorf("read parcel counters: %w", err)
	}

	return stats, nil
}

func isUrgent(flag *string) bool {
	if flag == nil {
		return false
	}
	switch strings.ToUpper(strings.TrimSpace(*flag)) {
	case "Y", "S", "1", "T", "TRUE":
		return true
	default:
		return false
	}
}
