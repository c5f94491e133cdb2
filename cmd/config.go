package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/pkg/errs"
)

// Broadcaster backends.
const (
	BroadcastMemory   = "memory"
	BroadcastRedis    = "redis"
	BroadcastPostgres = "postgres"
)

// Config holds the raw environment settings. Accessors parse and default them.
type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	LogLevel  string
	LogFormat string

	HubSectorID           string
	AdminRoles            string
	ParcelStatusLiterals  string
	ParcelMaxCodeRetries  string
	SchemaRefreshSchedule string

	SSEHeartbeatInterval string
	SSEWriteTimeout      string
	SSERetryMS           string

	BroadcastBackend string
	RedisAddr        string
	RedisPassword    string
	BroadcastChannel string
}

// DSN is the key/value connection string understood by pgx and lib/pq.
func (c Config) DSN() string {
	sslMode := c.DBSslMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, sslMode)
}

// HubSectorOverride returns the configured hub sector, or nil to read it from
// the settings table.
func (c Config) HubSectorOverride() (*kernel.ID, error) {
	raw := strings.TrimSpace(c.HubSectorID)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("HUB_SECTOR_ID", err)
	}
	id, err := kernel.NewID(v)
	if err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("HUB_SECTOR_ID", err)
	}
	return &id, nil
}

// AdminRoleList splits ADMIN_ROLES. Empty means the command defaults.
func (c Config) AdminRoleList() []string {
	var roles []string
	for _, role := range strings.Split(c.AdminRoles, ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}

func (c Config) MaxCodeRetries() (int, error) {
	return intOrZero("PARCEL_MAX_CODE_RETRIES", c.ParcelMaxCodeRetries)
}

func (c Config) HeartbeatInterval() (time.Duration, error) {
	return durationOrZero("SSE_HEARTBEAT_INTERVAL", c.SSEHeartbeatInterval)
}

func (c Config) WriteTimeout() (time.Duration, error) {
	return durationOrZero("SSE_WRITE_TIMEOUT", c.SSEWriteTimeout)
}

func (c Config) RetryHint() (time.Duration, error) {
	ms, err := intOrZero("SSE_RETRY_MS", c.SSERetryMS)
	return time.Duration(ms) * time.Millisecond, err
}

// Backend returns the broadcaster backend, memory when unset.
func (c Config) Backend() (string, error) {
	backend := strings.ToLower(strings.TrimSpace(c.BroadcastBackend))
	switch backend {
	case "":
		return BroadcastMemory, nil
	case BroadcastMemory, BroadcastRedis, BroadcastPostgres:
		return backend, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("BROADCAST_BACKEND",
			fmt.Errorf("%q is not one of memory, redis, postgres", c.BroadcastBackend))
	}
}

func intOrZero(name, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	if v < 0 {
		return 0, errs.NewValueIsOutOfRangeError(name, v, 0, nil)
	}
	return v, nil
}

func durationOrZero(name, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	if d < 0 {
		return 0, errs.NewValueIsOutOfRangeError(name, d, 0, nil)
	}
	return d, nil
}
