// Package jobs provides scheduled background tasks for the parcel service.
//
// Jobs use github.com/robfig/cron/v3 with a seconds field, so schedules accept
// six-field expressions ("0 */5 * * * *") as well as descriptors ("@every 5m").
//
// # Available Jobs
//
// SchemaRefreshJob reloads the parcel table capability snapshot so that columns
// added by migrations are picked up without a restart. A failed reload is
// logged and the previous snapshot stays in use.
//
// # Usage
//
//	jobManager := jobs.NewJobManager(schemaCache, cfg.SchemaRefreshSchedule, logger)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
package jobs
