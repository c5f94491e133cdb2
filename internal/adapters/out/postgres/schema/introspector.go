package schema

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// columnRow is one row of information_schema.columns.
type columnRow struct {
	ColumnName             string `gorm:"column:column_name"`
	DataType               string `gorm:"column:data_type"`
	CharacterMaximumLength *int   `gorm:"column:character_maximum_length"`
	NumericPrecision       *int   `gorm:"column:numeric_precision"`
	NumericScale           *int   `gorm:"column:numeric_scale"`
}

// Introspector reads the parcel table definition from information_schema.
type Introspector struct {
	db          *gorm.DB
	table       string
	eventsTable string
	clock       func() time.Time
}

// NewIntrospector creates an introspector for table. eventsTable names the
// optional history table whose presence is recorded in the snapshot.
func NewIntrospector(db *gorm.DB, table, eventsTable string) *Introspector {
	if table == "" {
		table = ParcelsTable
	}
	if eventsTable == "" {
		eventsTable = EventsTable
	}
	return &Introspector{
		db:          db,
		table:       table,
		eventsTable: eventsTable,
		clock:       time.Now,
	}
}

// Load queries the current schema and builds a snapshot with the given version.
func (i *Introspector) Load(ctx context.Context, version uint64) (*Snapshot, error) {
	var rows []columnRow
	err := i.db.WithContext(ctx).Raw(`
		SELECT
			column_name::text AS column_name,
			data_type::text AS data_type,
			character_maximum_length::int AS character_maximum_length,
			numeric_precision::int AS numeric_precision,
			numeric_scale::int AS numeric_scale
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ?
		ORDER BY ordinal_position
	`, i.table).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", i.table, err)
	}

	var hasEvents bool
	err = i.db.WithContext(ctx).Raw(`
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = ?
		)
	`, i.eventsTable).Row().Scan(&hasEvents)
	if err != nil {
		return nil, fmt.Errorf("check table %s: %w", i.eventsTable, err)
	}

	columns := make([]Column, 0, len(rows))
	for _, r := range rows {
		columns = append(columns, Column{
			Name:      r.ColumnName,
			DataType:  r.DataType,
			MaxLength: intOrZero(r.CharacterMaximumLength),
			Precision: intOrZero(r.NumericPrecision),
			Scale:     intOrZero(r.NumericScale),
		})
	}

	return NewSnapshot(version, i.table, columns, hasEvents, i.clock())
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
