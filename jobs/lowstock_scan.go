package jobs

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tavolo-pos/tavolo-pos/internal/jobs"
	"github.com/tavolo-pos/tavolo-pos/internal/shared"
	"github.com/tavolo-pos/tavolo-pos/internal/stock"
)

// LowStockScanner lists items sitting at or below the low stock cutoff.
type LowStockScanner interface {
	ListItems(ctx context.Context, filter stock.ItemFilter) ([]stock.Item, error)
}

// AuditRecorder persists an audit entry per finding.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// NewLowStockScanHandler builds the handler for the nightly scan.
func NewLowStockScanHandler(scanner LowStockScanner, audit AuditRecorder, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("lowstock_scan")
		items, err := scanner.ListItems(ctx, stock.ItemFilter{LowStock: true})
		if err != nil {
			logger.Error("low stock scan", slog.Any("error", err))
			return tracker.End(err)
		}
		for _, item := range items {
			entry := shared.AuditLog{
				ActorID:  "system",
				Action:   "low_stock_flagged",
				Entity:   "stock_item",
				EntityID: strconv.FormatInt(item.ID, 10),
				Meta: map[string]any{
					"ingredientName":  item.IngredientName,
					"currentQuantity": item.CurrentQuantity,
					"status":          item.Status(),
				},
				At: time.Now().UTC(),
			}
			if err := audit.Record(ctx, entry); err != nil {
				logger.Error("low stock audit", slog.Int64("item", item.ID), slog.Any("error", err))
				return tracker.End(err)
			}
		}
		logger.Info("low stock scan done", slog.Int("flagged", len(items)))
		return tracker.End(nil)
	}
}
