package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/screener/backend/internal/s0_snapshot"
	"github.com/wonny/screener/backend/pkg/logger"
)

// CacheCleanupJob removes dated snapshots older than the retention window
type CacheCleanupJob struct {
	janitor   *s0_snapshot.Janitor
	retention time.Duration
	logger    *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(janitor *s0_snapshot.Janitor, retention time.Duration, log *logger.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		janitor:   janitor,
		retention: retention,
		logger:    log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedules returns the cron schedule (nightly, after the close)
func (j *CacheCleanupJob) Schedules() []string {
	return []string{"0 30 20 * * *"}
}

// Run executes the cache cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled cache cleanup")

	result, err := j.janitor.Sweep(ctx, j.retention, false)
	if err != nil {
		return fmt.Errorf("sweep snapshot cache: %w", err)
	}

	if len(result.Deleted) > 0 || len(result.Errors) > 0 {
		j.logger.WithFields(map[string]interface{}{
			"removed": len(result.Deleted),
			"kept":    result.Kept,
			"errors":  len(result.Errors),
		}).Info("Cache cleanup completed")
	}

	return nil
}
