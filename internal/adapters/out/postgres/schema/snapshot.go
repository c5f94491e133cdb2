package schema

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"parcels/internal/pkg/errs"
)

// Kind groups PostgreSQL data types by how values are coerced.
type Kind int

const (
	KindOther Kind = iota
	KindNumeric
	KindText
	KindBoolean
)

// Column describes one physical column.
type Column struct {
	Name      string
	DataType  string
	MaxLength int
	Precision int
	Scale     int
}

// Kind classifies the column's data type.
func (c Column) Kind() Kind {
	switch strings.ToLower(c.DataType) {
	case "smallint", "integer", "bigint", "numeric", "decimal", "real", "double precision":
		return KindNumeric
	case "character varying", "character", "varchar", "char", "text":
		return KindText
	case "boolean":
		return KindBoolean
	default:
		return KindOther
	}
}

// Snapshot is the capability map of the parcels table at a point in time.
// It is immutable and safe for concurrent use. A nil *Snapshot reports no
// optional columns.
type Snapshot struct {
	version     uint64
	table       string
	columns     map[string]Column
	description string
	hasEvents   bool
	loadedAt    time.Time
}

// NewSnapshot validates the discovered columns and builds a snapshot.
// A missing mandatory column or description alias is a fatal SchemaError.
func NewSnapshot(version uint64, table string, columns []Column, hasEvents bool, loadedAt time.Time) (*Snapshot, error) {
	byName := make(map[string]Column, len(columns))
	for _, c := range columns {
		byName[strings.ToLower(c.Name)] = c
	}

	if len(byName) == 0 {
		return nil, errs.NewSchemaError(table, "table does not exist or has no columns")
	}

	var missing []string
	for _, name := range MandatoryColumns() {
		if _, ok := byName[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errs.NewSchemaError(table, "missing mandatory columns: "+strings.Join(missing, ", "))
	}

	description := ""
	for _, alias := range DescriptionAliases() {
		if _, ok := byName[alias]; ok {
			description = alias
			break
		}
	}
	if description == "" {
		return nil, errs.NewSchemaError(table, fmt.Sprintf(
			"no description column, expected one of: %s", strings.Join(DescriptionAliases(), ", ")))
	}

	return &Snapshot{
		version:     version,
		table:       table,
		columns:     byName,
		description: description,
		hasEvents:   hasEvents,
		loadedAt:    loadedAt,
	}, nil
}

func (s *Snapshot) Version() uint64 {
	if s == nil {
		return 0
	}
	return s.version
}

func (s *Snapshot) Table() string {
	if s == nil {
		return ParcelsTable
	}
	return s.table
}

func (s *Snapshot) LoadedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.loadedAt
}

// HasColumn reports whether the column exists.
func (s *Snapshot) HasColumn(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.columns[strings.ToLower(name)]
	return ok
}

// Column returns the column description.
func (s *Snapshot) Column(name string) (Column, bool) {
	if s == nil {
		return Column{}, false
	}
	c, ok := s.columns[strings.ToLower(name)]
	return c, ok
}

// DescriptionColumn is the resolved alias of the description column.
func (s *Snapshot) DescriptionColumn() string {
	if s == nil {
		return DescriptionAliases()[0]
	}
	return s.description
}

// HasEventsTable reports whether the auxiliary history table exists.
func (s *Snapshot) HasEventsTable() bool {
	return s != nil && s.hasEvents
}

// OptionalColumns returns the candidate columns present in this deployment.
func (s *Snapshot) OptionalColumns() []string {
	present := make([]string, 0, len(CandidateColumns()))
	for _, name := range CandidateColumns() {
		if s.HasColumn(name) {
			present = append(present, name)
		}
	}
	return present
}

// ColumnNames returns every known column, sorted.
func (s *Snapshot) ColumnNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.columns))
	for name := range s.columns {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// TrackingCodeMaxLength is the width of the tracking code column, or 0 when unbounded.
func (s *Snapshot) TrackingCodeMaxLength() int {
	c, ok := s.Column(ColumnTrackingCode)
	if !ok {
		return 0
	}
	return c.MaxLength
}

// Coerce shapes value for the named column:
//   - numeric columns receive the digits of string input (empty becomes NULL)
//     and 1/0 for booleans
//   - character columns are truncated to their maximum length; booleans become Y/N
//   - boolean columns accept Y/S/1/true style strings and non-zero numbers
//
// Unknown columns and other types are returned unchanged.
func (s *Snapshot) Coerce(name string, value any) any {
	if value == nil {
		return nil
	}
	c, ok := s.Column(name)
	if !ok {
		return value
	}

	switch c.Kind() {
	case KindNumeric:
		return toNumeric(value)
	case KindText:
		return truncate(toText(value), c.MaxLength)
	case KindBoolean:
		return toBoolean(value)
	case KindOther:
	}
	return value
}

type int64Valuer interface {
	Int64() int64
}

func toNumeric(value any) any {
	switch v := value.(type) {
	case string:
		digits := strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) {
				return r
			}
			return -1
		}, v)
		if digits == "" {
			return nil
		}
		if n, err := strconv.ParseInt(digits, 10, 64); err == nil {
			return n
		}
		return digits
	case bool:
		if v {
			return int64(1)
		}
		return int64(0)
	case int64Valuer:
		return v.Int64()
	default:
		return value
	}
}

func toText(value any) any {
	switch v := value.(type) {
	case bool:
		if v {
			return "Y"
		}
		return "N"
	case int64Valuer:
		return strconv.FormatInt(v.Int64(), 10)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return value
	}
}

func toBoolean(value any) any {
	switch v := value.(type) {
	case string:
		switch strings.ToUpper(strings.TrimSpace(v)) {
		case "Y", "S", "1", "TRUE", "YES":
			return true
		default:
			return false
		}
	case int:
		return v != 0
	case int64:
		return v != 0
	default:
		return value
	}
}

func truncate(value any, maxLength int) any {
	s, ok := value.(string)
	if !ok || maxLength <= 0 || utf8.RuneCountInString(s) <= maxLength {
		return value
	}
	runes := []rune(s)
	return string(runes[:maxLength])
}
