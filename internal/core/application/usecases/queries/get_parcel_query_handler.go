package queries

import (
	"context"
	"errors"

	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"

	"gorm.io/gorm"
)

// ParcelReader loads a parcel aggregate against the current schema.
type ParcelReader interface {
	Get(ctx context.Context, id kernel.ID) (*parcel.Parcel, error)
}

// ParcelReaderFunc adapts a function to ParcelReader.
type ParcelReaderFunc func(ctx context.Context, id kernel.ID) (*parcel.Parcel, error)

func (f ParcelReaderFunc) Get(ctx context.Context, id kernel.ID) (*parcel.Parcel, error) {
	return f(ctx, id)
}

// GetParcelQueryHandler reads the aggregate through the repository, which
// knows the deployment's optional columns, and decorates it with directory
// names and attachment labels read directly.
type GetParcelQueryHandler struct {
	db      *gorm.DB
	parcels ParcelReader
}

func NewGetParcelQueryHandler(db *gorm.DB, parcels ParcelReader) GetParcelQueryHandler {
	return GetParcelQueryHandler{db: db, parcels: parcels}
}

func (h GetParcelQueryHandler) Handle(ctx context.Context, query GetParcelQuery) (GetParcelQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetParcelQueryResponse{}, err
	}

	p, err := h.parcels.Get(ctx, query.ParcelID())
	if err != nil {
		return GetParcelQueryResponse{}, err
	}

	response := GetParcelQueryResponse{
		ID:             p.ID(),
		TrackingCode:   p.TrackingCode(),
		Barcode:        p.Barcode(),
		RoutingPayload: p.RoutingPayload(),
		Description:    p.Description(),
		Status:         p.Status(),
		BagID:          p.BagID(),
		SealID:         p.SealID(),
		ParentID:       p.ParentID(),
		Urgent:         p.Urgent(),
		ReceiptNumber:  p.ReceiptNumber(),
		HubRequired:    p.HubRequired(),
		HubSectorID:    p.HubSectorID(),
		CreatedAt:      p.CreatedAt(),
		UpdatedAt:      p.UpdatedAt(),
		DeliveredAt:    p.DeliveredAt(),
	}

	db := h.db.WithContext(ctx)
	if response.Origin, err = participantView(db, p.Origin()); err != nil {
		return GetParcelQueryResponse{}, err
	}
	if response.Destination, err = participantView(db, p.Destination()); err != nil {
		return GetParcelQueryResponse{}, err
	}

	if response.BagNumber, err = label(db,
		`SELECT number FROM bags WHERE id = ? OR parcel_id = ? ORDER BY (id = ?) DESC, id LIMIT 1`,
		idArg(p.BagID()), p.ID().Int64(), idArg(p.BagID()),
	); err != nil {
		return GetParcelQueryResponse{}, err
	}
	if response.SealCode, err = label(db,
		`SELECT code FROM seals WHERE id = ? OR parcel_id = ? ORDER BY (id = ?) DESC, id LIMIT 1`,
		idArg(p.SealID()), p.ID().Int64(), idArg(p.SealID()),
	); err != nil {
		return GetParcelQueryResponse{}, err
	}

	return response, nil
}

func participantView(db *gorm.DB, participant kernel.Participant) (ParticipantView, error) {
	view := ParticipantView{
		SectorID: participant.SectorID(),
		PersonID: participant.PersonID(),
	}

	var err error
	if view.SectorName, err = label(db, `SELECT name FROM sectors WHERE id = ?`, view.SectorID.Int64()); err != nil {
		return ParticipantView{}, err
	}
	if view.PersonID != nil {
		if view.PersonName, err = label(db, `SELECT name FROM people WHERE id = ?`, view.PersonID.Int64()); err != nil {
			return ParticipantView{}, err
		}
	}
	return view, nil
}

// label returns the first column of the first row, or "" when nothing matches.
func label(db *gorm.DB, query string, args ...any) (string, error) {
	var values []string
	if err := db.Raw(query, args...).Scan(&values).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	if len(values) == 0 {
		return "", nil
	}
	return values[0], nil
}

func idArg(id *kernel.ID) any {
	if id == nil {
		return nil
	}
	return id.Int64()
}
