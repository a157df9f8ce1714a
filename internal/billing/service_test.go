package billing

import (
	"context"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tavolo-pos/tavolo-pos/internal/shared"
)

type memoryRepo struct {
	bills     map[int64]Bill
	counter   int64
	nextID    int64
	now       func() time.Time
	insertErr error
}

func newMemoryRepo() *memoryRepo {
	// counter starts at 99 to mirror the seeded counter row; the first
	// post-incremented number is 100.
	return &memoryRepo{bills: make(map[int64]Bill), counter: 99, now: time.Now}
}

func (r *memoryRepo) NextBillNumber(ctx context.Context) (int64, error) {
	r.counter++
	return r.counter, nil
}

func (r *memoryRepo) InsertBill(ctx context.Context, b Bill) (Bill, error) {
	if r.insertErr != nil {
		return Bill{}, r.insertErr
	}
	r.nextID++
	b.ID = r.nextID
	b.CreatedAt = r.now()
	r.bills[b.ID] = b
	return b, nil
}

func (r *memoryRepo) GetBill(ctx context.Context, id int64) (Bill, error) {
	b, ok := r.bills[id]
	if !ok {
		return Bill{}, shared.ErrNotFound
	}
	return b, nil
}

func (r *memoryRepo) ListBills(ctx context.Context, limit, offset int) ([]Bill, error) {
	out := []Bill{}
	for _, b := range r.bills {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return []Bill{}, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepo) CountBills(ctx context.Context) (int, error) {
	return len(r.bills), nil
}

func (r *memoryRepo) MarkRefunded(ctx context.Context, id int64) (Bill, error) {
	b, ok := r.bills[id]
	if !ok {
		return Bill{}, shared.ErrNotFound
	}
	b.Refunded = true
	at := r.now()
	b.RefundedAt = &at
	r.bills[id] = b
	return b, nil
}

func (r *memoryRepo) DeleteBill(ctx context.Context, id int64) error {
	if _, ok := r.bills[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.bills, id)
	return nil
}

func (r *memoryRepo) DailyBillStats(ctx context.Context, from, to time.Time) (int, float64, error) {
	count := 0
	revenue := 0.0
	for _, b := range r.bills {
		if b.Refunded || b.CreatedAt.Before(from) || !b.CreatedAt.Before(to) {
			continue
		}
		count++
		revenue += b.TotalBill
	}
	return count, revenue, nil
}

func (r *memoryRepo) SalesBetween(ctx context.Context, from, to time.Time) ([]billSample, error) {
	out := []billSample{}
	for _, b := range r.bills {
		if b.Refunded || b.CreatedAt.Before(from) || !b.CreatedAt.Before(to) {
			continue
		}
		out = append(out, billSample{CreatedAt: b.CreatedAt, Total: b.TotalBill})
	}
	return out, nil
}

type staticCounters struct {
	categories int
	products   int
	users      int
}

func (c staticCounters) Counts(ctx context.Context) (int, int, error) {
	return c.categories, c.products, nil
}

func (c staticCounters) CountUsers(ctx context.Context) (int, error) {
	return c.users, nil
}

func newBillingService(repo *memoryRepo) *Service {
	counters := staticCounters{categories: 4, products: 20, users: 3}
	return NewService(repo, counters, counters, ServiceOptions{})
}

func sampleInput(total float64) BillInput {
	return BillInput{
		SubTotal:   total,
		TotalBill:  total,
		CashAmount: total,
		Cart:       []CartLine{{ID: 1, Name: "Margherita", Price: total, Quantity: 1}},
	}
}

func TestNextBillNumbersStrictlyIncreasing(t *testing.T) {
	repo := newMemoryRepo()
	svc := newBillingService(repo)
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		bill, err := svc.CreateBill(ctx, sampleInput(10))
		require.NoError(t, err)
		no, err := strconv.ParseInt(bill.BillNo, 10, 64)
		require.NoError(t, err)
		if i == 0 {
			require.Equal(t, int64(100), no)
		} else {
			require.Greater(t, no, last)
		}
		last = no
	}
}

func TestCreateBillValidation(t *testing.T) {
	svc := newBillingService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.CreateBill(ctx, BillInput{TotalBill: 10})
	require.ErrorIs(t, err, shared.ErrValidation)

	in := sampleInput(10)
	in.Cart[0].Quantity = 0
	_, err = svc.CreateBill(ctx, in)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRefundBill(t *testing.T) {
	repo := newMemoryRepo()
	svc := newBillingService(repo)
	ctx := context.Background()

	bill, err := svc.CreateBill(ctx, sampleInput(25))
	require.NoError(t, err)

	refunded, err := svc.RefundBill(ctx, bill.ID)
	require.NoError(t, err)
	require.True(t, refunded.Refunded)
	require.NotNil(t, refunded.RefundedAt)

	again, err := svc.RefundBill(ctx, bill.ID)
	require.NoError(t, err)
	require.True(t, again.Refunded)

	require.NoError(t, svc.DeleteBill(ctx, bill.ID))
	_, err = svc.RefundBill(ctx, bill.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDailyStatsExcludesRefunded(t *testing.T) {
	repo := newMemoryRepo()
	svc := newBillingService(repo)
	ctx := context.Background()

	first, err := svc.CreateBill(ctx, sampleInput(100))
	require.NoError(t, err)
	_, err = svc.CreateBill(ctx, sampleInput(50))
	require.NoError(t, err)

	_, err = svc.RefundBill(ctx, first.ID)
	require.NoError(t, err)

	stats, err := svc.DailyStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.BillCount)
	require.Equal(t, float64(50), stats.DailyRevenue)
	require.Equal(t, 3, stats.TotalUsers)
	require.Equal(t, 20, stats.TotalItems)
	require.Equal(t, 4, stats.Categories)
}

func TestWeeklySalesExcludesRefunded(t *testing.T) {
	repo := newMemoryRepo()
	svc := newBillingService(repo)
	ctx := context.Background()

	fixed := time.Date(2023, 6, 7, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	repo.now = svc.now

	_, err := svc.CreateBill(ctx, sampleInput(80))
	require.NoError(t, err)
	dropped, err := svc.CreateBill(ctx, sampleInput(40))
	require.NoError(t, err)
	_, err = svc.RefundBill(ctx, dropped.ID)
	require.NoError(t, err)

	points, err := svc.WeeklySales(ctx)
	require.NoError(t, err)
	require.Len(t, points, 7)
	require.Equal(t, "Monday", points[0].Label)

	var count int
	var revenue float64
	for _, p := range points {
		count += p.Count
		revenue += p.Revenue
	}
	require.Equal(t, 1, count)
	require.Equal(t, float64(80), revenue)

	wednesday := points[2]
	require.Equal(t, 1, wednesday.Count)
	require.Equal(t, float64(80), wednesday.Revenue)
}

func TestMonthlySalesBuckets(t *testing.T) {
	repo := newMemoryRepo()
	svc := newBillingService(repo)
	ctx := context.Background()

	fixed := time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	repo.now = svc.now

	_, err := svc.CreateBill(ctx, sampleInput(30))
	require.NoError(t, err)
	_, err = svc.CreateBill(ctx, sampleInput(70))
	require.NoError(t, err)

	points, err := svc.MonthlySales(ctx)
	require.NoError(t, err)
	require.Len(t, points, 30)
	require.Equal(t, "15", points[14].Label)
	require.Equal(t, 2, points[14].Count)
	require.Equal(t, float64(100), points[14].Revenue)
}

func TestWeeklySalesBucketsAcrossDSTChange(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	repo := newMemoryRepo()
	svc := newBillingService(repo)
	ctx := context.Background()

	// The week of 2023-10-30 ends on Sunday 2023-11-05, when clocks fall
	// back and the calendar day runs 25 hours.
	sale := time.Date(2023, 11, 5, 23, 30, 0, 0, loc)
	repo.now = func() time.Time { return sale }
	svc.now = func() time.Time { return time.Date(2023, 11, 5, 12, 0, 0, 0, loc) }

	_, err = svc.CreateBill(ctx, sampleInput(60))
	require.NoError(t, err)

	points, err := svc.WeeklySales(ctx)
	require.NoError(t, err)
	require.Len(t, points, 7)
	require.Equal(t, "Sunday", points[6].Label)
	require.Equal(t, 1, points[6].Count)
	require.Equal(t, float64(60), points[6].Revenue)
}

func TestListBillsPaginated(t *testing.T) {
	repo := newMemoryRepo()
	svc := newBillingService(repo)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.CreateBill(ctx, sampleInput(float64(10 + i)))
		require.NoError(t, err)
	}

	first, pagination, err := svc.ListBills(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, 5, pagination.Total)
	require.Equal(t, 3, pagination.TotalPages)

	last, pagination, err := svc.ListBills(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, last, 1)
	require.Equal(t, 3, pagination.Page)
	require.NotEqual(t, first[0].ID, last[0].ID)
}

type memoryIdempotency struct {
	keys map[string]bool
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: make(map[string]bool)}
}

func (g *memoryIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	if g.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	g.keys[key] = true
	return nil
}

func (g *memoryIdempotency) Delete(ctx context.Context, key string) error {
	delete(g.keys, key)
	return nil
}

func TestCreateBillIdempotencyKey(t *testing.T) {
	repo := newMemoryRepo()
	guard := newMemoryIdempotency()
	counters := staticCounters{categories: 4, products: 20, users: 3}
	svc := NewService(repo, counters, counters, ServiceOptions{Idempotency: guard})
	ctx := context.Background()

	in := sampleInput(10)
	in.IdempotencyKey = "pos-7f3a"
	first, err := svc.CreateBill(ctx, in)
	require.NoError(t, err)

	_, err = svc.CreateBill(ctx, in)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)

	bills, _, err := svc.ListBills(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	require.Equal(t, first.ID, bills[0].ID)

	// A key without a guard wired is ignored rather than rejected.
	plain := newBillingService(repo)
	again := sampleInput(15)
	again.IdempotencyKey = "pos-7f3a"
	_, err = plain.CreateBill(ctx, again)
	require.NoError(t, err)
}

func TestCreateBillReleasesKeyOnInsertFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.insertErr = shared.ErrStoreUnavailable
	guard := newMemoryIdempotency()
	counters := staticCounters{categories: 4, products: 20, users: 3}
	svc := NewService(repo, counters, counters, ServiceOptions{Idempotency: guard})
	ctx := context.Background()

	in := sampleInput(10)
	in.IdempotencyKey = "pos-9c1d"
	_, err := svc.CreateBill(ctx, in)
	require.ErrorIs(t, err, shared.ErrStoreUnavailable)
	require.Empty(t, guard.keys)

	repo.insertErr = nil
	_, err = svc.CreateBill(ctx, in)
	require.NoError(t, err)
}

type recordingAudit struct {
	entries []shared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.entries = append(a.entries, log)
	return nil
}

func TestBillMutationsWriteAuditTrail(t *testing.T) {
	repo := newMemoryRepo()
	audit := &recordingAudit{}
	counters := staticCounters{categories: 4, products: 20, users: 3}
	svc := NewService(repo, counters, counters, ServiceOptions{Audit: audit})
	ctx := context.Background()

	bill, err := svc.CreateBill(ctx, sampleInput(25))
	require.NoError(t, err)
	_, err = svc.RefundBill(ctx, bill.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteBill(ctx, bill.ID))

	require.Len(t, audit.entries, 3)
	require.Equal(t, "bill.create", audit.entries[0].Action)
	require.Equal(t, "bill.refund", audit.entries[1].Action)
	require.Equal(t, "bill.delete", audit.entries[2].Action)
	require.Equal(t, "bill", audit.entries[0].Entity)
	require.Equal(t, bill.BillNo, audit.entries[0].Meta["billNo"])
}
