package parcelrepo

import (
	"fmt"
	"strings"

	"parcels/internal/core/domain/model/parcel"
	"parcels/internal/pkg/errs"
)

// StatusLiterals maps parcel statuses to the spelling accepted by the
// deployment's status column. It is configured once and never guessed at
// runtime.
type StatusLiterals struct {
	toStorage   map[parcel.Status]string
	fromStorage map[string]parcel.Status
}

// DefaultStatusLiterals stores statuses under their canonical codes.
func DefaultStatusLiterals() StatusLiterals {
	l, _ := newStatusLiterals(map[parcel.Status]string{})
	return l
}

// ParseStatusLiterals reads a mapping such as
// "pending=PENDENTE,in_transit=EM_TRANSITO". Statuses not mentioned keep
// their canonical code. Literals must be unique.
func ParseStatusLiterals(mapping string) (StatusLiterals, error) {
	overrides := make(map[parcel.Status]string)
	for _, pair := range strings.Split(mapping, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, literal, ok := strings.Cut(pair, "=")
		code, literal = strings.TrimSpace(code), strings.TrimSpace(literal)
		if !ok || literal == "" {
			return StatusLiterals{}, errs.NewValueIsInvalidErrorWithCause("status literals",
				fmt.Errorf("entry %q is not in code=literal form", pair))
		}
		status, err := parcel.ParseStatus(code)
		if err != nil {
			return StatusLiterals{}, errs.NewValueIsInvalidErrorWithCause("status literals", err)
		}
		overrides[status] = literal
	}
	return newStatusLiterals(overrides)
}

func newStatusLiterals(overrides map[parcel.Status]string) (StatusLiterals, error) {
	l := StatusLiterals{
		toStorage:   make(map[parcel.Status]string, len(parcel.Statuses())),
		fromStorage: make(map[string]parcel.Status, len(parcel.Statuses())),
	}
	for _, status := range parcel.Statuses() {
		literal, ok := overrides[status]
		if !ok {
			literal = status.Code()
		}
		key := strings.ToUpper(literal)
		if other, taken := l.fromStorage[key]; taken {
			return StatusLiterals{}, errs.NewValueIsInvalidErrorWithCause("status literals",
				fmt.Errorf("literal %q is used by both %s and %s", literal, other, status))
		}
		l.toStorage[status] = literal
		l.fromStorage[key] = status
	}
	return l, nil
}

// Literal returns the stored spelling of status.
func (l StatusLiterals) Literal(status parcel.Status) string {
	if literal, ok := l.toStorage[status]; ok {
		return literal
	}
	return status.Code()
}

// Status maps a stored literal back to a status. Matching ignores case and
// surrounding blanks.
func (l StatusLiterals) Status(literal string) (parcel.Status, error) {
	status, ok := l.fromStorage[strings.ToUpper(strings.TrimSpace(literal))]
	if !ok {
		return parcel.Unknown, errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("stored literal %q is not mapped", literal))
	}
	return status, nil
}
