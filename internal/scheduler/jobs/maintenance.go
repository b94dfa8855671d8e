package jobs

import (
	"context"

	"github.com/wonny/thesisrouter/pkg/logger"
	"github.com/wonny/thesisrouter/pkg/redis"
)

// CacheCleanupJob prunes expired in-process search cache entries
type CacheCleanupJob struct {
	caches []*redis.Cache
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(log *logger.Logger, caches ...*redis.Cache) *CacheCleanupJob {
	return &CacheCleanupJob{
		caches: caches,
		logger: log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *CacheCleanupJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run executes the cache cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	removed := 0
	for _, c := range j.caches {
		removed += c.PruneLocal()
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Cache cleanup completed")
	}

	return nil
}
