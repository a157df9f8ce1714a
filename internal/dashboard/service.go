package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tavolo-pos/tavolo-pos/internal/billing"
)

// StatsSource supplies the aggregations the summary is built from.
type StatsSource interface {
	DailyStats(ctx context.Context) (billing.DailyStats, error)
	WeeklySales(ctx context.Context) ([]billing.SalesPoint, error)
	MonthlySales(ctx context.Context) ([]billing.SalesPoint, error)
}

// Summary is the cached dashboard payload.
type Summary struct {
	BillCount             int                  `json:"billCount"`
	DailyRevenue          float64              `json:"dailyRevenue"`
	DailyRevenueFormatted string               `json:"dailyRevenueFormatted"`
	TotalUsers            int                  `json:"totalUsers"`
	TotalItems            int                  `json:"totalItems"`
	Categories            int                  `json:"categories"`
	WeeklySales           []billing.SalesPoint `json:"weeklySales"`
	MonthlySales          []billing.SalesPoint `json:"monthlySales"`
}

// Service assembles and caches the dashboard summary.
type Service struct {
	source  StatsSource
	cache   *Cache
	printer *message.Printer
}

// NewService builds a Service instance.
func NewService(source StatsSource, cache *Cache) *Service {
	return &Service{source: source, cache: cache, printer: message.NewPrinter(language.English)}
}

// Summary returns the dashboard payload, served from cache when fresh.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	key, err := s.cache.BuildKey(ctx, keySummary())
	if err != nil {
		return Summary{}, err
	}
	var summary Summary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
		return s.build(ctx)
	})
	if err != nil {
		return Summary{}, err
	}
	return summary, nil
}

// Warmup pre-populates the cache so the first dashboard request of the day
// does not pay for the aggregation queries.
func (s *Service) Warmup(ctx context.Context) error {
	_, err := s.Summary(ctx)
	return err
}

func (s *Service) build(ctx context.Context) (Summary, error) {
	var (
		stats   billing.DailyStats
		weekly  []billing.SalesPoint
		monthly []billing.SalesPoint
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.source.DailyStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		weekly, err = s.source.WeeklySales(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		monthly, err = s.source.MonthlySales(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	return Summary{
		BillCount:             stats.BillCount,
		DailyRevenue:          stats.DailyRevenue,
		DailyRevenueFormatted: s.printer.Sprintf("$%.2f", stats.DailyRevenue),
		TotalUsers:            stats.TotalUsers,
		TotalItems:            stats.TotalItems,
		Categories:            stats.Categories,
		WeeklySales:           weekly,
		MonthlySales:          monthly,
	}, nil
}
