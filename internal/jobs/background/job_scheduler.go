package background

import (
	"context"
	"log"
	"sync"
	"time"

	"authshield/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler manages periodic maintenance jobs: purging expired
// refresh tokens and archiving old audit entries to object storage.
type JobScheduler struct {
	scheduler  gocron.Scheduler
	tokenSvc   services.TokenService
	archiveSvc services.ArchiveService
	retention  time.Duration
	jobs       map[string]gocron.Job
	mu         sync.RWMutex
}

// NewJobScheduler creates a scheduler with the token purge and audit
// archival jobs registered. retention is how long audit entries stay
// in the database before archival.
func NewJobScheduler(tokenSvc services.TokenService, archiveSvc services.ArchiveService, retention time.Duration) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler:  scheduler,
		tokenSvc:   tokenSvc,
		archiveSvc: archiveSvc,
		retention:  retention,
		jobs:       make(map[string]gocron.Job),
	}
	js.registerJobs()
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	// Expired refresh tokens are unusable once past expiry; the purge
	// only reclaims storage, so hourly is enough.
	purgeJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.purgeExpiredTokens),
		gocron.WithName("expired-token-purge"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create token purge job: %v", err)
	} else {
		js.jobs["token-purge"] = purgeJob
	}

	archiveJob, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.archiveAuditLogs),
		gocron.WithName("audit-log-archival"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create audit archival job: %v", err)
	} else {
		js.jobs["audit-archival"] = archiveJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

func (js *JobScheduler) purgeExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	purged, err := js.tokenSvc.PurgeExpired(ctx)
	if err != nil {
		log.Printf("Token purge failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("Purged %d expired refresh tokens", purged)
	}
}

func (js *JobScheduler) archiveAuditLogs() {
	if js.archiveSvc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-js.retention)
	archived, err := js.archiveSvc.ArchiveBefore(ctx, cutoff)
	if err != nil {
		log.Printf("Audit archival failed: %v", err)
		return
	}
	if archived > 0 {
		log.Printf("Archived %d audit entries older than %s", archived, cutoff.Format(time.RFC3339))
	}
}
