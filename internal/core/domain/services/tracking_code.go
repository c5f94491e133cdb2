package services

import (
	"fmt"
	"math/rand/v2"
	"time"

	"parcels/internal/core/domain/model/kernel"
)

const (
	// DefaultTrackingCodePrefix starts every generated tracking code.
	DefaultTrackingCodePrefix = "PRC"

	// DefaultTrackingCodeMaxLength is used when the storage column length is unknown.
	DefaultTrackingCodeMaxLength = 100
)

// Clock returns the current time.
type Clock func() time.Time

// RandomIntN returns a pseudo-random integer in [0, n).
type RandomIntN func(n int) int

// TrackingRef holds the participant references encoded into a tracking code.
// A nil person means the participant is the sector itself.
type TrackingRef struct {
	OriginPersonID      *kernel.ID
	OriginSectorID      kernel.ID
	DestinationPersonID *kernel.ID
	DestinationSectorID kernel.ID
}

// TrackingCodeGenerator builds human-readable tracking codes:
//
//	PRC-YYYYMMDD-RRRSSDDDTT-XXXXXX
//
// RRR and DDD are the origin and destination persons (000 for sector-only
// participants), SS and TT the origin and destination sectors, XXXXXX a random
// suffix. Identifiers wider than their slot are written in full.
type TrackingCodeGenerator struct {
	prefix string
	clock  Clock
	random RandomIntN
}

// NewTrackingCodeGenerator creates a generator. Nil clock or random source fall
// back to time.Now and math/rand/v2.
func NewTrackingCodeGenerator(prefix string, clock Clock, random RandomIntN) TrackingCodeGenerator {
	if prefix == "" {
		prefix = DefaultTrackingCodePrefix
	}
	if clock == nil {
		clock = time.Now
	}
	if random == nil {
		random = rand.IntN
	}
	return TrackingCodeGenerator{
		prefix: prefix,
		clock:  clock,
		random: random,
	}
}

// Generate returns a new tracking code for ref.
func (g TrackingCodeGenerator) Generate(ref TrackingRef) string {
	return fmt.Sprintf("%s-%s-%03d%02d%03d%02d-%06d",
		g.prefix,
		g.clock().Format("20060102"),
		personRef(ref.OriginPersonID),
		ref.OriginSectorID.Int64(),
		personRef(ref.DestinationPersonID),
		ref.DestinationSectorID.Int64(),
		g.random(1_000_000),
	)
}

func personRef(id *kernel.ID) int64 {
	if id == nil {
		return 0
	}
	return id.Int64()
}

// CollisionResolver derives a new tracking code after a uniqueness violation.
type CollisionResolver struct {
	clock Clock
}

// NewCollisionResolver creates a resolver. A nil clock falls back to time.Now.
func NewCollisionResolver(clock Clock) CollisionResolver {
	if clock == nil {
		clock = time.Now
	}
	return CollisionResolver{clock: clock}
}

// Resolve appends "-" and the last six digits of the current unix milliseconds
// to code. When the result exceeds maxLength the code is cut so that the suffix
// always survives. maxLength <= 0 means DefaultTrackingCodeMaxLength.
func (r CollisionResolver) Resolve(code string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultTrackingCodeMaxLength
	}

	suffix := fmt.Sprintf("-%06d", r.clock().UnixMilli()%1_000_000)
	if len(suffix) >= maxLength {
		return suffix[len(suffix)-maxLength:]
	}

	if len(code)+len(suffix) > maxLength {
		code = code[:maxLength-len(suffix)]
	}
	return code + suffix
}
