package jobs

import (
	"context"
	"log/slog"
	"time"

	"parcels/internal/adapters/out/postgres/schema"

	"github.com/robfig/cron/v3"
)

// DefaultSchemaRefreshSchedule re-reads the parcel table every five minutes.
const DefaultSchemaRefreshSchedule = "@every 5m"

const refreshTimeout = 30 * time.Second

// SchemaReloader re-reads the parcel table capabilities.
type SchemaReloader interface {
	Reload(ctx context.Context) (*schema.Snapshot, error)
}

// SchemaRefreshJob keeps the schema snapshot in step with migrations applied
// while the service is running.
type SchemaRefreshJob struct {
	reloader SchemaReloader
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewSchemaRefreshJob(reloader SchemaReloader, schedule string, logger *slog.Logger) *SchemaRefreshJob {
	if schedule == "" {
		schedule = DefaultSchemaRefreshSchedule
	}
	return &SchemaRefreshJob{
		reloader: reloader,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "schema_refresh_job"),
	}
}

// Start registers the refresh on its schedule and starts the scheduler.
func (j *SchemaRefreshJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.Run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Schema refresh job started", "schedule", j.schedule)
	return nil
}

// Run performs one refresh. A failed reload keeps the previous snapshot.
func (j *SchemaRefreshJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	snapshot, err := j.reloader.Reload(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Schema refresh failed, keeping previous snapshot", "error", err)
		return
	}
	j.logger.DebugContext(ctx, "Schema refreshed",
		"version", snapshot.Version(), "optional_columns", snapshot.OptionalColumns())
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (j *SchemaRefreshJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Schema refresh job stopped")
}
