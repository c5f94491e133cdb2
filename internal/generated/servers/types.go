// Package servers holds the HTTP bindings of the API described by openapi.json:
// request and response types, the ServerInterface implemented by the HTTP
// adapter and the echo route registration.
package servers

import "time"

// Defines values for ParcelStatus.
const (
	ParcelStatusDelivered ParcelStatus = "delivered"
	ParcelStatusInTransit ParcelStatus = "in_transit"
	ParcelStatusPending   ParcelStatus = "pending"
	ParcelStatusReturned  ParcelStatus = "returned"
)

// CreatedParcel defines model for CreatedParcel.
type CreatedParcel struct {
	Barcode        string       `json:"barcode"`
	HubRequired    bool         `json:"hubRequired"`
	HubSectorId    *Id          `json:"hubSectorId,omitempty"`
	Id             Id           `json:"id"`
	RoutingPayload string       `json:"routingPayload"`
	Status         ParcelStatus `json:"status"`
	TrackingCode   string       `json:"trackingCode"`
}

// DeletedParcel defines model for DeletedParcel.
type DeletedParcel struct {
	Deleted bool `json:"deleted"`
	Id      Id   `json:"id"`
}

// Error defines model for Error.
type Error struct {
	Code     int     `json:"code"`
	Message  string  `json:"message"`
	SqlState *string `json:"sqlState,omitempty"`
	TraceId  *string `json:"traceId,omitempty"`
}

// Id defines model for Id.
type Id = int64

// NewParcel defines model for NewParcel.
type NewParcel struct {
	BagId         *Id            `json:"bagId,omitempty"`
	Description   string         `json:"description"`
	Destination   ParticipantRef `json:"destination"`
	Origin        ParticipantRef `json:"origin"`
	ParentId      *Id            `json:"parentId,omitempty"`
	ReceiptNumber *string        `json:"receiptNumber,omitempty"`
	SealId        *Id            `json:"sealId,omitempty"`
	Status        *ParcelStatus  `json:"status,omitempty"`
	Urgent        *bool          `json:"urgent,omitempty"`
}

// NewWizardParcel defines model for NewWizardParcel.
type NewWizardParcel struct {
	BagId         *Id               `json:"bagId,omitempty"`
	Description   string            `json:"description"`
	Destination   WizardParticipant `json:"destination"`
	Origin        WizardParticipant `json:"origin"`
	ParentId      *Id               `json:"parentId,omitempty"`
	ReceiptNumber *string           `json:"receiptNumber,omitempty"`
	SealId        *Id               `json:"sealId,omitempty"`
	Status        *ParcelStatus     `json:"status,omitempty"`
	Urgent        *bool             `json:"urgent,omitempty"`
}

// Parcel defines model for Parcel.
type Parcel struct {
	BagId          *Id          `json:"bagId,omitempty"`
	BagNumber      *string      `json:"bagNumber,omitempty"`
	Barcode        *string      `json:"barcode,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	DeliveredAt    *time.Time   `json:"deliveredAt,omitempty"`
	Description    string       `json:"description"`
	Destination    Participant  `json:"destination"`
	HubRequired    bool         `json:"hubRequired"`
	HubSectorId    *Id          `json:"hubSectorId,omitempty"`
	Id             Id           `json:"id"`
	Origin         Participant  `json:"origin"`
	ParentId       *Id          `json:"parentId,omitempty"`
	ReceiptNumber  *string      `json:"receiptNumber,omitempty"`
	RoutingPayload *string      `json:"routingPayload,omitempty"`
	SealCode       *string      `json:"sealCode,omitempty"`
	SealId         *Id          `json:"sealId,omitempty"`
	Status         ParcelStatus `json:"status"`
	TrackingCode   string       `json:"trackingCode"`
	UpdatedAt      time.Time    `json:"updatedAt"`
	Urgent         bool         `json:"urgent"`
}

// ParcelPatch defines model for ParcelPatch.
type ParcelPatch struct {
	Description         *string       `json:"description,omitempty"`
	DestinationSectorId *Id           `json:"destinationSectorId,omitempty"`
	OriginSectorId      *Id           `json:"originSectorId,omitempty"`
	ReceiptNumber       *string       `json:"receiptNumber,omitempty"`
	Status              *ParcelStatus `json:"status,omitempty"`
	Urgent              *bool         `json:"urgent,omitempty"`
}

// ParcelStats defines model for ParcelStats.
type ParcelStats struct {
	Delivered      int64 `json:"delivered"`
	DeliveredToday int64 `json:"deliveredToday"`
	InTransit      int64 `json:"inTransit"`
	Pending        int64 `json:"pending"`
	Returned       int64 `json:"returned"`
	Total          int64 `json:"total"`

	// Urgent Open parcels flagged urgent
	Urgent int64 `json:"urgent"`
}

// ParcelStatus defines model for ParcelStatus.
type ParcelStatus string

// Participant defines model for Participant.
type Participant struct {
	PersonId   *Id     `json:"personId,omitempty"`
	PersonName *string `json:"personName,omitempty"`
	SectorId   Id      `json:"sectorId"`
	SectorName string  `json:"sectorName"`
}

// ParticipantRef defines model for ParticipantRef.
type ParticipantRef struct {
	PersonId *Id `json:"personId,omitempty"`
	SectorId *Id `json:"sectorId,omitempty"`
}

// RecipientNotification defines model for RecipientNotification.
type RecipientNotification struct {
	CreatedAt          time.Time `json:"createdAt"`
	Description        string    `json:"description"`
	Id                 Id        `json:"id"`
	OriginSectorName   string    `json:"originSectorName"`
	SenderName         *string   `json:"senderName,omitempty"`
	SenderRegistration *string   `json:"senderRegistration,omitempty"`

	// Status Canonical status code, or the stored literal when it is not mapped
	Status       string `json:"status"`
	TrackingCode string `json:"trackingCode"`
	Urgent       bool   `json:"urgent"`
}

// RecipientNotifications defines model for RecipientNotifications.
type RecipientNotifications struct {
	Count int                     `json:"count"`
	Data  []RecipientNotification `json:"data"`
}

// SchemaCapabilities defines model for SchemaCapabilities.
type SchemaCapabilities struct {
	DescriptionColumn     *string    `json:"descriptionColumn,omitempty"`
	HasEventsTable        bool       `json:"hasEventsTable"`
	LoadedAt              *time.Time `json:"loadedAt,omitempty"`
	OptionalColumns       []string   `json:"optionalColumns"`
	Table                 string     `json:"table"`
	TrackingCodeMaxLength int        `json:"trackingCodeMaxLength"`
	Version               int64      `json:"version"`
}

// WizardParticipant defines model for WizardParticipant.
type WizardParticipant struct {
	PersonId   *Id     `json:"personId,omitempty"`
	PersonName *string `json:"personName,omitempty"`
	SectorId   *Id     `json:"sectorId,omitempty"`
	SectorName *string `json:"sectorName,omitempty"`
}

// ParcelId defines model for ParcelId.
type ParcelId = int64

// PersonId defines model for PersonId.
type PersonId = int64

// UserId defines model for UserId.
type UserId = string

// UserRole defines model for UserRole.
type UserRole = string

// DeleteParcelParams defines parameters for DeleteParcel.
type DeleteParcelParams struct {
	XUserId   *UserId   `json:"X-User-Id,omitempty"`
	XUserRole *UserRole `json:"X-User-Role,omitempty"`
}

// ReloadSchemaParams defines parameters for ReloadSchema.
type ReloadSchemaParams struct {
	XUserId   *UserId   `json:"X-User-Id,omitempty"`
	XUserRole *UserRole `json:"X-User-Role,omitempty"`
}

// CreateParcelJSONRequestBody defines body for CreateParcel for application/json ContentType.
type CreateParcelJSONRequestBody = NewParcel

// CreateParcelFromWizardJSONRequestBody defines body for CreateParcelFromWizard for application/json ContentType.
type CreateParcelFromWizardJSONRequestBody = NewWizardParcel

// UpdateParcelJSONRequestBody defines body for UpdateParcel for application/json ContentType.
type UpdateParcelJSONRequestBody = ParcelPatch
