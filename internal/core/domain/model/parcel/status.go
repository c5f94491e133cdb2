package parcel

import (
	"fmt"
	"strings"

	"parcels/internal/pkg/errs"
)

// Status represents the lifecycle state of a parcel.
//
// State transitions:
//
//	Pending ──> InTransit ──┬──> Delivered
//	   │                    │
//	   ├────────────────────┼──> Returned
//	   └──> Delivered       │
//
// Delivered and Returned are terminal.
type Status int

const (
	// Unknown catches uninitialized Status values.
	Unknown Status = iota

	// Pending parcels are registered but have not left the origin sector.
	Pending

	// InTransit parcels have left the origin sector.
	InTransit

	// Delivered parcels were received at the destination. Terminal.
	Delivered

	// Returned parcels were sent back to the origin. Terminal.
	Returned
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "Unknown",
		Pending:   "Pending",
		InTransit: "InTransit",
		Delivered: "Delivered",
		Returned:  "Returned",
	}
}

// getStatusCodes returns the canonical API codes of valid statuses.
func getStatusCodes() map[Status]string {
	//nolint:exhaustive // Unknown has no code
	return map[Status]string{
		Pending:   "pending",
		InTransit: "in_transit",
		Delivered: "delivered",
		Returned:  "returned",
	}
}

// Statuses lists every valid status in lifecycle order.
func Statuses() []Status {
	return []Status{Pending, InTransit, Delivered, Returned}
}

// ParseStatus converts a canonical code ("pending", "in_transit", "delivered",
// "returned") into a Status. Matching ignores case and surrounding spaces.
func ParseStatus(code string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(code))
	for s, c := range getStatusCodes() {
		if c == normalized {
			return s, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a known status", code))
}

// Validate checks that the status is one of the defined lifecycle states.
func (s Status) Validate() error {
	if _, ok := getStatusCodes()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// Code returns the canonical API code, or an empty string for invalid values.
func (s Status) Code() string {
	return getStatusCodes()[s]
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Returned
}

// ValidateInitial checks that a new parcel may start in this status.
// Only Pending and InTransit are accepted.
func (s Status) ValidateInitial() error {
	if s != Pending && s != InTransit {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid initial status", s.String()),
		)
	}
	return nil
}

// TransitionTo returns the target status if the move from s is allowed.
// Staying in the same status is always allowed.
//
// Valid transitions:
//   - Pending -> InTransit
//   - Pending, InTransit -> Delivered
//   - Pending, InTransit -> Returned
func (s Status) TransitionTo(target Status) (Status, error) {
	if err := target.Validate(); err != nil {
		return Unknown, err
	}
	if s == target {
		return target, nil
	}

	allowed := false
	switch target {
	case InTransit:
		allowed = s == Pending
	case Delivered, Returned:
		allowed = s == Pending || s == InTransit
	case Unknown, Pending:
	}

	if !allowed {
		return Unknown, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("cannot move from %s to %s", s.String(), target.String()),
		)
	}
	return target, nil
}

// Deliver transitions a non-terminal status to Delivered.
// Unlike TransitionTo, delivering an already delivered parcel is an error.
func (s Status) Deliver() (Status, error) {
	if s == Delivered {
		return Unknown, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("parcel is already %s", s.String()),
		)
	}
	return s.TransitionTo(Delivered)
}
