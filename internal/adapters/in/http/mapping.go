package http

import (
	"parcels/internal/core/application/usecases/commands"
	"parcels/internal/core/application/usecases/queries"
	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"
	"parcels/internal/generated/servers"
)

func statusOf(status *servers.ParcelStatus) (parcel.Status, error) {
	if status == nil {
		return parcel.Unknown, nil
	}
	return parcel.ParseStatus(string(*status))
}

func participantRef(ref servers.ParticipantRef) commands.ParticipantRef {
	return commands.ParticipantRef{
		SectorID: optionalID(ref.SectorId),
		PersonID: optionalID(ref.PersonId),
	}
}

func wizardParticipant(w servers.WizardParticipant) commands.WizardParticipant {
	return commands.WizardParticipant{
		PersonID:   optionalID(w.PersonId),
		SectorID:   optionalID(w.SectorId),
		PersonName: deref(w.PersonName),
		SectorName: deref(w.SectorName),
	}
}

func createdParcel(r commands.CreateParcelResult) servers.CreatedParcel {
	return servers.CreatedParcel{
		Id:             r.ID.Int64(),
		TrackingCode:   r.TrackingCode,
		Barcode:        r.Barcode,
		RoutingPayload: r.RoutingPayload,
		Status:         servers.ParcelStatus(r.Status.Code()),
		HubRequired:    r.HubRequired,
		HubSectorId:    apiID(r.HubSectorID),
	}
}

func parcelView(v queries.GetParcelQueryResponse) servers.Parcel {
	return servers.Parcel{
		Id:             v.ID.Int64(),
		TrackingCode:   v.TrackingCode,
		Barcode:        optionalString(v.Barcode),
		RoutingPayload: optionalString(v.RoutingPayload),
		Description:    v.Description,
		Status:         servers.ParcelStatus(v.Status.Code()),
		Origin:         participantView(v.Origin),
		Destination:    participantView(v.Destination),
		BagId:          apiID(v.BagID),
		BagNumber:      optionalString(v.BagNumber),
		SealId:         apiID(v.SealID),
		SealCode:       optionalString(v.SealCode),
		ParentId:       apiID(v.ParentID),
		Urgent:         v.Urgent,
		ReceiptNumber:  optionalString(v.ReceiptNumber),
		HubRequired:    v.HubRequired,
		HubSectorId:    apiID(v.HubSectorID),
		CreatedAt:      v.CreatedAt,
		UpdatedAt:      v.UpdatedAt,
		DeliveredAt:    v.DeliveredAt,
	}
}

func participantView(p queries.ParticipantView) servers.Participant {
	return servers.Participant{
		SectorId:   p.SectorID.Int64(),
		SectorName: p.SectorName,
		PersonId:   apiID(p.PersonID),
		PersonName: optionalString(p.PersonName),
	}
}

func recipientNotifications(r queries.GetRecipientNotificationsQueryResponse) servers.RecipientNotifications {
	data := make([]servers.RecipientNotification, 0, len(r.Notifications))
	for _, n := range r.Notifications {
		status := n.Status.Code()
		if n.Status == parcel.Unknown {
			status = n.StatusLiteral
		}
		data = append(data, servers.RecipientNotification{
			Id:                 n.ID.Int64(),
			TrackingCode:       n.TrackingCode,
			Description:        n.Description,
			Status:             status,
			CreatedAt:          n.CreatedAt,
			Urgent:             n.Urgent,
			SenderName:         optionalString(n.SenderName),
			SenderRegistration: optionalString(n.SenderRegistration),
			OriginSectorName:   n.OriginSectorName,
		})
	}
	return servers.RecipientNotifications{Data: data, Count: r.Count}
}

func optionalID(id *servers.Id) *kernel.ID {
	if id == nil {
		return nil
	}
	v := kernel.ID(*id)
	return &v
}

func apiID(id *kernel.ID) *servers.Id {
	if id == nil {
		return nil
	}
	v := id.Int64()
	return &v
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
