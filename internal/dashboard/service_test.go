package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/tavolo-pos/tavolo-pos/internal/billing"
)

type stubSource struct {
	calls int
	stats billing.DailyStats
}

func (s *stubSource) DailyStats(ctx context.Context) (billing.DailyStats, error) {
	s.calls++
	return s.stats, nil
}

func (s *stubSource) WeeklySales(ctx context.Context) ([]billing.SalesPoint, error) {
	return []billing.SalesPoint{{Label: "Monday", Count: 1, Revenue: 80}}, nil
}

func (s *stubSource) MonthlySales(ctx context.Context) ([]billing.SalesPoint, error) {
	return []billing.SalesPoint{{Label: "1", Count: 1, Revenue: 80}}, nil
}

func newTestService(t *testing.T) (*Service, *stubSource, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	source := &stubSource{stats: billing.DailyStats{BillCount: 2, DailyRevenue: 1234.5, TotalUsers: 3, TotalItems: 20, Categories: 4}}
	return NewService(source, cache), source, cache
}

func TestSummaryCached(t *testing.T) {
	svc, source, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, first.BillCount)
	require.Equal(t, "$1,234.50", first.DailyRevenueFormatted)
	require.Len(t, first.WeeklySales, 1)

	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, source.calls)
}

func TestSummaryRebuiltAfterBump(t *testing.T) {
	svc, source, cache := newTestService(t)
	ctx := context.Background()

	_, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.NoError(t, cache.Bump(ctx))

	source.stats.BillCount = 5
	refreshed, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, refreshed.BillCount)
	require.Equal(t, 2, source.calls)
}
