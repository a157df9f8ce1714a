package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tavolo-pos/tavolo-pos/internal/jobs"
)

// KeyCleaner purges idempotency keys past retention.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// NewIdempotencyCleanupHandler builds the nightly cleanup handler.
func NewIdempotencyCleanupHandler(cleaner KeyCleaner, retention time.Duration, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("idempotency_cleanup")
		if err := cleaner.Cleanup(ctx, retention); err != nil {
			logger.Error("idempotency cleanup", slog.Any("error", err))
			return tracker.End(err)
		}
		logger.Info("idempotency keys cleaned", slog.Duration("retention", retention))
		return tracker.End(nil)
	}
}
