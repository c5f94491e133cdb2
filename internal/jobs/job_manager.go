package jobs

import (
	"fmt"
	"log/slog"
)

// JobManager coordinates the scheduled jobs of the service.
type JobManager struct {
	schemaRefreshJob *SchemaRefreshJob
}

// NewJobManager creates the jobs. An empty schedule uses the default one.
func NewJobManager(reloader SchemaReloader, schemaRefreshSchedule string, logger *slog.Logger) *JobManager {
	return &JobManager{
		schemaRefreshJob: NewSchemaRefreshJob(reloader, schemaRefreshSchedule, logger),
	}
}

// StartAll starts all scheduled jobs.
func (jm *JobManager) StartAll() error {
	if err := jm.schemaRefreshJob.Start(); err != nil {
		return fmt.Errorf("failed to start schema refresh job: %w", err)
	}
	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.schemaRefreshJob.Stop()
}
