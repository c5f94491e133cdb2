package queries

import (
	"context"
	"fmt"
	"time"

	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/ports"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// GetRecipientNotificationsQueryHandler reads the notification feed of a
// recipient. Delivered and returned parcels are left out.
type GetRecipientNotificationsQueryHandler struct {
	db       *gorm.DB
	statuses StatusDecoder
	schema   ports.SchemaProvider
}

func NewGetRecipientNotificationsQueryHandler(
	db *gorm.DB,
	statuses StatusDecoder,
	schema ports.SchemaProvider,
) GetRecipientNotificationsQueryHandler {
	return GetRecipientNotificationsQueryHandler{db: db, statuses: statuses, schema: schema}
}

func (h GetRecipientNotificationsQueryHandler) Handle(
	ctx context.Context,
	query GetRecipientNotificationsQuery,
) (GetRecipientNotificationsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetRecipientNotificationsQueryResponse{}, err
	}

	capabilities := h.schema.Capabilities()
	urgent := "NULL::text"
	if capabilities.HasColumn("urgent") {
		urgent = "p.urgent::text"
	}
	description := "p." + pq.QuoteIdentifier(capabilities.DescriptionColumn())

	rows, err := h.db.WithContext(ctx).Raw(fmt.Sprintf(`
		SELECT
			p.id,
			p.tracking_code,
			COALESCE(%s, '') AS description,
			p.status,
			p.created_at,
			%s AS urgent,
			COALESCE(sender.name, '') AS sender_name,
			COALESCE(sender.registration, '') AS sender_registration,
			COALESCE(origin.name, '') AS origin_sector_name
		FROM parcels p
		LEFT JOIN people sender ON sender.id = p.origin_person_id
		LEFT JOIN sectors origin ON origin.id = p.origin_sector_id
		WHERE p.destination_person_id = ?
		ORDER BY p.created_at DESC, p.id DESC
	`, description, urgent), query.PersonID().Int64()).Rows()
	if err != nil {
		return GetRecipientNotificationsQueryResponse{}, fmt.Errorf("list recipient parcels: %w", err)
	}
	defer rows.Close()

	response := GetRecipientNotificationsQueryResponse{Notifications: []RecipientNotification{}}
	for rows.Next() {
		var (
			id         int64
			literal    string
			createdAt  time.Time
			urgentFlag *string
			n          RecipientNotification
		)
		if err = rows.Scan(&id, &n.TrackingCode, &n.Description, &literal, &createdAt, &urgentFlag,
			&n.SenderName, &n.SenderRegistration, &n.OriginSectorName); err != nil {
			return GetRecipientNotificationsQueryResponse{}, fmt.Errorf("scan recipient parcel: %w", err)
		}

		// Unrecognised literals stay in the feed; only known terminal states leave it.
		status, decodeErr := h.statuses.Status(literal)
		if decodeErr == nil && status.IsTerminal() {
			continue
		}

		n.ID = kernel.ID(id)
		n.Status = status
		n.StatusLiteral = literal
		n.CreatedAt = createdAt
		n.Urgent = isUrgent(urgentFlag)
		response.Notifications = append(response.Notifications, n)
	}
	if err = rows.Err(); err != nil {
		return GetRecipientNotificationsQueryResponse{}, fmt.Errorf("read recipient parcels: %w", err)
	}

	response.Count = len(response.Notifications)
	return response, nil
}
