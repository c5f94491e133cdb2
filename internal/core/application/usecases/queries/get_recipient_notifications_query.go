package queries

import (
	"errors"
	"time"

	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"
	"parcels/internal/pkg/errs"
	"parcels/internal/pkg/guard"
)

var ErrGetRecipientNotificationsQueryIsNotConstructed = errors.New(
	"GetRecipientNotificationsQuery must be created via NewGetRecipientNotificationsQuery constructor",
)

// GetRecipientNotificationsQuery lists the open parcels addressed to a person.
type GetRecipientNotificationsQuery struct {
	personID kernel.ID

	guard guard.ConstructorGuard
}

func NewGetRecipientNotificationsQuery(personID kernel.ID) (GetRecipientNotificationsQuery, error) {
	if err := personID.Validate(); err != nil {
		return GetRecipientNotificationsQuery{}, errs.NewValueIsInvalidErrorWithCause("person id", err)
	}
	return GetRecipientNotificationsQuery{personID: personID, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetRecipientNotificationsQuery) Validate() error {
	return q.guard.Validate(ErrGetRecipientNotificationsQueryIsNotConstructed)
}

func (q GetRecipientNotificationsQuery) PersonID() kernel.ID { return q.personID }

// RecipientNotification is one parcel still on its way to the recipient.
type RecipientNotification struct {
	ID                 kernel.ID
	TrackingCode       string
	Description        string
	Status             parcel.Status
	StatusLiteral      string
	CreatedAt          time.Time
	Urgent             bool
	SenderName         string
	SenderRegistration string
	OriginSectorName   string
}

// GetRecipientNotificationsQueryResponse holds the feed, newest first.
type GetRecipientNotificationsQueryResponse struct {
	Notifications []RecipientNotification
	Count         int
}
