package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tavolo-pos/tavolo-pos/internal/jobs"
)

// SummaryWarmer pre-populates the dashboard summary cache.
type SummaryWarmer interface {
	Warmup(ctx context.Context) error
}

// NewStatsWarmupHandler builds the handler for the early-morning warmup.
func NewStatsWarmupHandler(warmer SummaryWarmer, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("stats_warmup")
		if err := warmer.Warmup(ctx); err != nil {
			logger.Error("stats warmup", slog.Any("error", err))
			return tracker.End(err)
		}
		logger.Info("dashboard cache warmed")
		return tracker.End(nil)
	}
}
