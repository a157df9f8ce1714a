package cashdrawer

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tavolo-pos/tavolo-pos/internal/shared"
)

type memoryRepo struct {
	days     map[string]Day
	nextID   int64
	afterGet func()
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{days: make(map[string]Day)}
}

func (r *memoryRepo) InsertDay(ctx context.Context, d Day) (Day, error) {
	if _, ok := r.days[d.DayKey]; ok {
		return Day{}, shared.ErrAlreadyExists
	}
	r.nextID++
	d.ID = r.nextID
	d.StartedAt = time.Now()
	r.days[d.DayKey] = d
	return d, nil
}

func (r *memoryRepo) GetDay(ctx context.Context, dayKey string) (Day, error) {
	d, ok := r.days[dayKey]
	if !ok {
		return Day{}, shared.ErrNotFound
	}
	if r.afterGet != nil {
		r.afterGet()
	}
	return d, nil
}

func (r *memoryRepo) CloseDay(ctx context.Context, d Day) (Day, error) {
	stored, ok := r.days[d.DayKey]
	if !ok {
		return Day{}, shared.ErrNotFound
	}
	if stored.DayEnded {
		return Day{}, shared.ErrAlreadyExists
	}
	r.days[d.DayKey] = d
	return d, nil
}

func (r *memoryRepo) ListDays(ctx context.Context) ([]Day, error) {
	out := []Day{}
	for _, d := range r.days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestStartDayTwiceConflicts(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	first, err := svc.StartDay(ctx, "6/1/2023", dec("200"))
	require.NoError(t, err)
	require.True(t, first.DayStarted)
	require.True(t, first.DrawerOpen)

	_, err = svc.StartDay(ctx, "6/1/2023", dec("300"))
	require.ErrorIs(t, err, shared.ErrAlreadyExists)

	unchanged, err := svc.GetDay(ctx, "6/1/2023")
	require.NoError(t, err)
	require.True(t, unchanged.StartingCash.Equal(dec("200")))
}

func TestEndDayBeforeStart(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.EndDay(context.Background(), "6/1/2023", dec("100"), dec("0"))
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestEndDayReconciliation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.StartDay(ctx, "6/1/2023", dec("200"))
	require.NoError(t, err)

	day, err := svc.EndDay(ctx, "6/1/2023", dec("680"), dec("500"))
	require.NoError(t, err)
	require.True(t, day.ExpectedCash.Equal(dec("700")))
	require.True(t, day.Variance.Equal(dec("20")))
	require.True(t, day.DayEnded)
	require.False(t, day.DrawerOpen)
	require.NotNil(t, day.EndedAt)
}

func TestEndDayTwiceConflicts(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.StartDay(ctx, "6/1/2023", dec("200"))
	require.NoError(t, err)
	_, err = svc.EndDay(ctx, "6/1/2023", dec("680"), dec("500"))
	require.NoError(t, err)

	_, err = svc.EndDay(ctx, "6/1/2023", dec("700"), dec("510"))
	require.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestEndDayLosesRaceToConcurrentClose(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.StartDay(ctx, "6/1/2023", dec("200"))
	require.NoError(t, err)

	repo.afterGet = func() {
		stored := repo.days["6/1/2023"]
		stored.DayEnded = true
		stored.DrawerOpen = false
		repo.days["6/1/2023"] = stored
	}

	_, err = svc.EndDay(ctx, "6/1/2023", dec("680"), dec("500"))
	require.ErrorIs(t, err, shared.ErrAlreadyExists)
}

type recordingAudit struct {
	entries []shared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.entries = append(a.entries, log)
	return nil
}

func TestDrawerLifecycleWritesAuditTrail(t *testing.T) {
	audit := &recordingAudit{}
	svc := NewService(newMemoryRepo(), audit)
	ctx := context.Background()

	_, err := svc.StartDay(ctx, "6/1/2023", dec("200"))
	require.NoError(t, err)
	_, err = svc.EndDay(ctx, "6/1/2023", dec("680"), dec("500"))
	require.NoError(t, err)

	require.Len(t, audit.entries, 2)
	require.Equal(t, "cash_day.start", audit.entries[0].Action)
	require.Equal(t, "cash_day.end", audit.entries[1].Action)
	require.Equal(t, "cash_day", audit.entries[0].Entity)
	require.Equal(t, "6/1/2023", audit.entries[1].EntityID)
	require.Equal(t, "20.00", audit.entries[1].Meta["variance"])
}

func TestStartDayNegativeFloat(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.StartDay(context.Background(), "6/1/2023", dec("-5"))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDayKeyFormat(t *testing.T) {
	key := DayKey(time.Date(2023, 6, 1, 15, 0, 0, 0, time.UTC))
	require.Equal(t, "6/1/2023", key)

	key = DayKey(time.Date(2023, 11, 25, 15, 0, 0, 0, time.UTC))
	require.Equal(t, "11/25/2023", key)
}
