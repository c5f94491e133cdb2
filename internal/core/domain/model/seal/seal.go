// Package seal provides the Seal entity: a single-use security seal owned by
// a sector and closing at most one parcel.
package seal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/pkg/errs"
)

var ErrSealIsNotConstructed = errors.New("Seal must be created via RestoreSeal constructor")

// Status of a seal. A used seal is never reassigned without an explicit release.
type Status int

const (
	Unknown Status = iota
	Available
	Used
)

func getStatusCodes() map[Status]string {
	//nolint:exhaustive // Unknown has no code
	return map[Status]string{
		Available: "available",
		Used:      "used",
	}
}

// ParseStatus converts a stored seal status code.
func ParseStatus(code string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(code))
	for s, c := range getStatusCodes() {
		if c == normalized {
			return s, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("seal status", fmt.Errorf("%q is not a known status", code))
}

func (s Status) Code() string {
	return getStatusCodes()[s]
}

func (s Status) String() string {
	switch s {
	case Available:
		return "Available"
	case Used:
		return "Used"
	default:
		return "Unknown"
	}
}

type Seal struct {
	id        kernel.ID
	code      string
	sectorID  kernel.ID
	status    Status
	parcelID  *kernel.ID
	bagID     *kernel.ID
	updatedAt time.Time

	isConstructed bool
}

// RestoreSeal rebuilds a seal from its stored row.
func RestoreSeal(
	id kernel.ID,
	code string,
	sectorID kernel.ID,
	status Status,
	parcelID, bagID *kernel.ID,
	updatedAt time.Time,
) (*Seal, error) {
	if err := errors.Join(id.Validate(), sectorID.Validate()); err != nil {
		return nil, err
	}
	if _, ok := getStatusCodes()[status]; !ok {
		return nil, errs.NewValueIsInvalidErrorWithCause("seal status", fmt.Errorf("%d is not a valid status", status))
	}
	return &Seal{
		id:            id,
		code:          code,
		sectorID:      sectorID,
		status:        status,
		parcelID:      parcelID,
		bagID:         bagID,
		updatedAt:     updatedAt,
		isConstructed: true,
	}, nil
}

func (s *Seal) Validate() error {
	if s == nil || !s.isConstructed {
		return ErrSealIsNotConstructed
	}
	return nil
}

func (s *Seal) ID() kernel.ID { return s.id }
func (s *Seal) Code() string { return s.code }
func (s *Seal) SectorID() kernel.ID { return s.sectorID }
func (s *Seal) Status() Status { return s.status }
func (s *Seal) ParcelID() *kernel.ID { return s.parcelID }
func (s *Seal) BagID() *kernel.ID { return s.bagID }
func (s *Seal) UpdatedAt() time.Time { return s.updatedAt }

// ValidateAttachment checks that the seal may close a parcel leaving originSectorID.
// The seal must belong to the origin sector and must not be used or linked.
func (s *Seal) ValidateAttachment(originSectorID kernel.ID) error {
	if err := s.ValidateOrigin(originSectorID); err != nil {
		return err
	}
	if s.status == Used || s.parcelID != nil {
		return errs.NewValueIsInvalidErrorWithCause(
			"seal",
			fmt.Errorf("seal %s is already used", s.code),
		)
	}
	return nil
}

// ValidateOrigin checks that the seal belongs to the sector the parcel leaves from.
func (s *Seal) ValidateOrigin(originSectorID kernel.ID) error {
	if s.sectorID != originSectorID {
		return errs.NewValueIsInvalidErrorWithCause(
			"seal",
			fmt.Errorf("seal %s belongs to sector %d, parcel leaves sector %d", s.code, s.sectorID, originSectorID),
		)
	}
	return nil
}

// Attach marks the seal used and links it to the parcel and, optionally, its bag.
func (s *Seal) Attach(parcelID kernel.ID, bagID *kernel.ID, now time.Time) error {
	if err := parcelID.Validate(); err != nil {
		return err
	}
	if s.status == Used || s.parcelID != nil {
		return errs.NewValueIsInvalidErrorWithCause("seal", fmt.Errorf("seal %s is already used", s.code))
	}
	s.status = Used
	s.parcelID = &parcelID
	if bagID != nil {
		b := *bagID
		s.bagID = &b
	}
	s.updatedAt = now
	return nil
}

// Release unlinks the seal. It stays Used: a broken seal is never reissued.
func (s *Seal) Release(now time.Time) {
	s.status = Used
	s.parcelID = nil
	s.bagID = nil
	s.updatedAt = now
}
