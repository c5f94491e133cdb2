// Package queries contains read operations for retrieving system state.
// Queries return read models shaped for the API rather than aggregates.
package queries

import (
	"errors"
	"time"

	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"
	"parcels/internal/pkg/errs"
	"parcels/internal/pkg/guard"
)

var ErrGetParcelQueryIsNotConstructed = errors.New(
	"GetParcelQuery must be created via NewGetParcelQuery constructor",
)

// GetParcelQuery retrieves one parcel with the labels of its bag and seal.
//
// Example:
//
//	query, err := NewGetParcelQuery(id)
//	if err != nil {
//	    return err
//	}
//	view, err := handler.Handle(ctx, query)
type GetParcelQuery struct {
	parcelID kernel.ID

	guard guard.ConstructorGuard
}

func NewGetParcelQuery(parcelID kernel.ID) (GetParcelQuery, error) {
	if err := parcelID.Validate(); err != nil {
		return GetParcelQuery{}, errs.NewValueIsInvalidErrorWithCause("parcel id", err)
	}
	return GetParcelQuery{parcelID: parcelID, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetParcelQuery) Validate() error {
	return q.guard.Validate(ErrGetParcelQueryIsNotConstructed)
}

func (q GetParcelQuery) ParcelID() kernel.ID { return q.parcelID }

// ParticipantView is one side of a parcel as shown to users.
type ParticipantView struct {
	SectorID   kernel.ID
	SectorName string
	PersonID   *kernel.ID
	PersonName string
}

// GetParcelQueryResponse is the read model of a parcel.
type GetParcelQueryResponse struct {
	ID             kernel.ID
	TrackingCode   string
	Barcode        string
	RoutingPayload string
	Description    string
	Status         parcel.Status
	Origin         ParticipantView
	Destination    ParticipantView
	BagID          *kernel.ID
	BagNumber      string
	SealID         *kernel.ID
	SealCode       string
	ParentID       *kernel.ID
	Urgent         bool
	ReceiptNumber  string
	HubRequired    bool
	HubSectorID    *kernel.ID
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeliveredAt    *time.Time
}
