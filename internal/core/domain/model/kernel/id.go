package kernel

import (
	"math"
	"strconv"

	"parcels/internal/pkg/errs"
)

// ID is a database-assigned identity of an aggregate or reference entity
// (parcel, bag, seal, sector, person). Valid IDs are strictly positive.
type ID int64

// NewID validates v and returns it as an ID.
func NewID(v int64) (ID, error) {
	id := ID(v)
	if err := id.Validate(); err != nil {
		return 0, err
	}
	return id, nil
}

// NewOptionalID converts a nullable raw identifier. A nil input yields a nil ID.
func NewOptionalID(v *int64) (*ID, error) {
	if v == nil {
		return nil, nil
	}
	id, err := NewID(*v)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Validate reports whether the identifier is in range.
func (id ID) Validate() error {
	if id <= 0 {
		return errs.NewValueIsOutOfRangeError("id", int64(id), int64(1), int64(math.MaxInt64))
	}
	return nil
}

func (id ID) Int64() int64 {
	return int64(id)
}

func (id ID) IsEqual(other ID) bool {
	return id == other
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// SameID reports whether two optional identifiers refer to the same entity.
// Two nil values are considered equal.
func SameID(a, b *ID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
