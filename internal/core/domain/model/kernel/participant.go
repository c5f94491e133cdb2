package kernel

import (
	"errors"

	"parcels/internal/pkg/errs"
	"parcels/internal/pkg/guard"
)

var ErrParticipantIsNotConstructed = errors.New(
	"Participant must be created via NewSectorParticipant or NewPersonParticipant",
)

// Participant is the sending or receiving side of a parcel. It is either a
// person working in a home sector, or a sector acting on its own behalf.
//
// The sector of a participant is the sector the parcel leaves from or
// arrives at. For a person it defaults to the person's home sector but the
// caller may route through another sector.
type Participant struct {
	sectorID     ID
	personID     *ID
	homeSectorID *ID

	guard guard.ConstructorGuard
}

// NewSectorParticipant builds a sector-level participant with no person.
func NewSectorParticipant(sectorID ID) (Participant, error) {
	if err := sectorID.Validate(); err != nil {
		return Participant{}, errs.NewValueIsInvalidErrorWithCause("sector", err)
	}
	return Participant{
		sectorID: sectorID,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// NewPersonParticipant builds a person participant acting from sectorID.
func NewPersonParticipant(sectorID, personID, homeSectorID ID) (Participant, error) {
	if err := errors.Join(
		sectorID.Validate(),
		personID.Validate(),
		homeSectorID.Validate(),
	); err != nil {
		return Participant{}, errs.NewValueIsInvalidErrorWithCause("participant", err)
	}
	return Participant{
		sectorID:     sectorID,
		personID:     &personID,
		homeSectorID: &homeSectorID,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (p Participant) Validate() error {
	return p.guard.Validate(ErrParticipantIsNotConstructed)
}

func (p Participant) SectorID() ID {
	return p.sectorID
}

// PersonID is nil for sector-level participants.
func (p Participant) PersonID() *ID {
	return p.personID
}

// HomeSectorID is nil for sector-level participants.
func (p Participant) HomeSectorID() *ID {
	return p.homeSectorID
}

func (p Participant) IsPerson() bool {
	return p.personID != nil
}

// WithSector returns a copy of the participant acting from another sector.
func (p Participant) WithSector(sectorID ID) (Participant, error) {
	if err := sectorID.Validate(); err != nil {
		return Participant{}, errs.NewValueIsInvalidErrorWithCause("sector", err)
	}
	p.sectorID = sectorID
	return p, nil
}
