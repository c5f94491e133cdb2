// Package pgtest starts disposable PostgreSQL containers for integration tests
// and creates the tables the parcel adapters work against.
package pgtest

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Container is a running database with an open connection.
type Container struct {
	Container *postgres.PostgresContainer
	DB        *gorm.DB
	DSN       string
}

// Start runs a PostgreSQL container and connects to it.
func Start(ctx context.Context) (*Container, error) {
	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	db, err := gorm.Open(postgresdriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return &Container{Container: container, DB: db, DSN: dsn}, nil
}

// Terminate stops the container.
func (c *Container) Terminate(ctx context.Context) error {
	if c == nil || c.Container == nil {
		return nil
	}
	return c.Container.Terminate(ctx)
}

// Options selects which optional parts of the schema are created.
type Options struct {
	// Minimal creates the parcels table with mandatory columns only and
	// "notes" as the description column.
	Minimal bool
	// WithoutEvents skips the parcel_events table.
	WithoutEvents bool
	// TrackingCodeLength is the width of the tracking code column. Default 40.
	TrackingCodeLength int
}

// CreateSchema drops and recreates every table used by the adapters.
func CreateSchema(db *gorm.DB, opts Options) error {
	if opts.TrackingCodeLength == 0 {
		opts.TrackingCodeLength = 40
	}

	statements := []string{
		`DROP TABLE IF EXISTS parcel_events, seals, bags, parcels, people, sectors, settings CASCADE`,
		`CREATE TABLE sectors (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(120) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE people (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(120) NOT NULL,
			registration VARCHAR(20),
			sector_id BIGINT NOT NULL REFERENCES sectors(id)
		)`,
		`CREATE TABLE settings (
			key VARCHAR(64) PRIMARY KEY,
			value VARCHAR(255)
		)`,
	}

	if opts.Minimal {
		statements = append(statements, fmt.Sprintf(`CREATE TABLE parcels (
			id BIGSERIAL PRIMARY KEY,
			tracking_code VARCHAR(%d) NOT NULL UNIQUE,
			notes VARCHAR(255) NOT NULL,
			status VARCHAR(20) NOT NULL,
			origin_sector_id BIGINT NOT NULL,
			destination_sector_id BIGINT NOT NULL,
			origin_person_id BIGINT,
			destination_person_id BIGINT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			delivered_at TIMESTAMPTZ
		)`, opts.TrackingCodeLength))
	} else {
		statements = append(statements, fmt.Sprintf(`CREATE TABLE parcels (
			id BIGSERIAL PRIMARY KEY,
			tracking_code VARCHAR(%d) NOT NULL UNIQUE,
			description VARCHAR(255) NOT NULL,
			status VARCHAR(20) NOT NULL,
			origin_sector_id BIGINT NOT NULL,
			destination_sector_id BIGINT NOT NULL,
			origin_person_id BIGINT,
			destination_person_id BIGINT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			delivered_at TIMESTAMPTZ,
			routing_code TEXT,
			barcode VARCHAR(%d),
			urgent CHAR(1),
			seal_id BIGINT,
			bag_id BIGINT,
			receipt_number VARCHAR(20),
			hub_flag CHAR(1),
			hub_sector_id NUMERIC(10, 0),
			parent_parcel_id BIGINT REFERENCES parcels(id)
		)`, opts.TrackingCodeLength, opts.TrackingCodeLength))
	}

	statements = append(statements,
		`CREATE TABLE bags (
			id BIGSERIAL PRIMARY KEY,
			number VARCHAR(30) NOT NULL,
			parcel_id BIGINT REFERENCES parcels(id),
			origin_sector_id BIGINT,
			destination_sector_id BIGINT,
			updated_at TIMESTAMPTZ
		)`,
		`CREATE TABLE seals (
			id BIGSERIAL PRIMARY KEY,
			code VARCHAR(30) NOT NULL,
			sector_id BIGINT NOT NULL,
			status VARCHAR(20) NOT NULL,
			parcel_id BIGINT REFERENCES parcels(id),
			bag_id BIGINT REFERENCES bags(id),
			updated_at TIMESTAMPTZ
		)`,
	)

	if !opts.WithoutEvents {
		statements = append(statements, `CREATE TABLE parcel_events (
			id BIGSERIAL PRIMARY KEY,
			parcel_id BIGINT NOT NULL REFERENCES parcels(id),
			name VARCHAR(30) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	}

	for _, statement := range statements {
		if err := db.Exec(statement).Error; err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// Truncate removes every row and resets sequences.
func Truncate(db *gorm.DB) error {
	return db.Exec(`TRUNCATE TABLE sectors, people, settings, parcels, bags, seals RESTART IDENTITY CASCADE`).Error
}
