package eventlog

import (
	"context"
	"time"

	"github.com/caseforge/caseforge/internal/logger"
)

// CleanupJob is a job that cleans up old audit entries
type CleanupJob struct {
	service       Service
	retentionDays int
}

// NewCleanupJob creates a new cleanup job
func NewCleanupJob(service Service, retentionDays int) *CleanupJob {
	return &CleanupJob{
		service:       service,
		retentionDays: retentionDays,
	}
}

// Process executes the cleanup job
func (j *CleanupJob) Process(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("Starting audit log cleanup job", "retentionDays", j.retentionDays)

	start := time.Now()
	count, err := j.service.CleanupOldEvents(ctx, j.retentionDays)
	duration := time.Since(start)

	if err != nil {
		log.Error("Audit log cleanup failed", "error", err, "duration", duration)
		return err
	}

	log.Info("Audit log cleanup completed", "deletedCount", count, "duration", duration)
	return nil
}
