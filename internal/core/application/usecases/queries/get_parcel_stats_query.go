package queries

import (
	"errors"
	"time"

	"parcels/internal/pkg/guard"
)

var ErrGetParcelStatsQueryIsNotConstructed = errors.New(
	"GetParcelStatsQuery must be created via NewGetParcelStatsQuery constructor",
)

// GetParcelStatsQuery counts parcels by status for the dashboard. Deliveries
// are also counted for the calendar day of the given instant.
//
// Example:
//
//	query := NewGetParcelStatsQuery(time.Now())
//	stats, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to count parcels: %w", err)
//	}
type GetParcelStatsQuery struct {
	dayStart time.Time

	guard guard.ConstructorGuard
}

func NewGetParcelStatsQuery(now time.Time) GetParcelStatsQuery {
	y, m, d := now.Date()
	return GetParcelStatsQuery{
		dayStart: time.Date(y, m, d, 0, 0, 0, 0, now.Location()),
		guard:    guard.NewConstructorGuard(),
	}
}

// Validate ensures the query was created through the constructor.
func (q GetParcelStatsQuery) Validate() error {
	return q.guard.Validate(ErrGetParcelStatsQueryIsNotConstructed)
}

// DayStart is midnight of the day deliveries are counted for.
func (q GetParcelStatsQuery) DayStart() time.Time { return q.dayStart }

// GetParcelStatsQueryResponse holds the parcel counters. Urgent counts open
// parcels only and stays zero where the deployment has no urgency column.
type GetParcelStatsQueryResponse struct {
	Total          int64
	Pending        int64
	InTransit      int64
	Delivered      int64
	Returned       int64
	DeliveredToday int64
	Urgent         int64
}
