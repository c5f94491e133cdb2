package parcel

import "parcels/internal/core/domain/model/kernel"

// EventName is the name under which a change is announced to live subscribers.
type EventName string

const (
	EventCreated   EventName = "created"
	EventUpdated   EventName = "updated"
	EventDelivered EventName = "delivered"
	EventDeleted   EventName = "deleted"
)

// ChangeEvent is the minimal payload broadcast after a lifecycle change commits.
type ChangeEvent struct {
	Action       EventName `json:"action"`
	ParcelID     kernel.ID `json:"id"`
	TrackingCode string    `json:"trackingCode"`
	Status       string    `json:"status"`
}

func (p *Parcel) raise(name EventName) {
	p.events = append(p.events, ChangeEvent{
		Action:       name,
		ParcelID:     p.id,
		TrackingCode: p.trackingCode,
		Status:       p.status.Code(),
	})
}

// DomainEvents returns the events raised since the parcel was loaded or created.
func (p *Parcel) DomainEvents() []ChangeEvent {
	out := make([]ChangeEvent, len(p.events))
	copy(out, p.events)
	return out
}

// ClearDomainEvents drops the raised events once they were published.
func (p *Parcel) ClearDomainEvents() {
	p.events = nil
}
