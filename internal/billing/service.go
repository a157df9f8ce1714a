package billing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tavolo-pos/tavolo-pos/internal/shared"
)

// RepositoryPort defines bill data access.
type RepositoryPort interface {
	NextBillNumber(ctx context.Context) (int64, error)
	InsertBill(ctx context.Context, b Bill) (Bill, error)
	GetBill(ctx context.Context, id int64) (Bill, error)
	ListBills(ctx context.Context, limit, offset int) ([]Bill, error)
	CountBills(ctx context.Context) (int, error)
	MarkRefunded(ctx context.Context, id int64) (Bill, error)
	DeleteBill(ctx context.Context, id int64) error
	DailyBillStats(ctx context.Context, from, to time.Time) (int, float64, error)
	SalesBetween(ctx context.Context, from, to time.Time) ([]billSample, error)
}

// CatalogCounter reports global catalog totals for the stats payload.
type CatalogCounter interface {
	Counts(ctx context.Context) (categories, products int, err error)
}

// UserCounter reports the global user total for the stats payload.
type UserCounter interface {
	CountUsers(ctx context.Context) (int, error)
}

// StatsCache invalidates cached dashboard summaries after bill mutations.
type StatsCache interface {
	Bump(ctx context.Context) error
}

// BillMetrics counts bill outcomes for the metrics endpoint.
type BillMetrics interface {
	CountBill(outcome string)
}

// AuditRecorder captures the mutation trail.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyGuard reserves client-supplied request keys so a retried
// create is rejected instead of charged twice.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// ServiceOptions carries the optional collaborators. Any field may be nil.
type ServiceOptions struct {
	Cache       StatsCache
	Metrics     BillMetrics
	Audit       AuditRecorder
	Idempotency IdempotencyGuard
}

// Service handles billing business logic.
type Service struct {
	repo    RepositoryPort
	catalog CatalogCounter
	users   UserCounter
	cache   StatsCache
	metrics BillMetrics
	audit   AuditRecorder
	idem    IdempotencyGuard
	now     func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, catalog CatalogCounter, users UserCounter, opts ServiceOptions) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		users:   users,
		cache:   opts.Cache,
		metrics: opts.Metrics,
		audit:   opts.Audit,
		idem:    opts.Idempotency,
		now:     time.Now,
	}
}

const (
	billDateLayout = "1/2/2006"
	billTimeLayout = "3:04:05 PM"
)

// CreateBill assigns the next sequential number and stores the sale.
func (s *Service) CreateBill(ctx context.Context, in BillInput) (Bill, error) {
	if len(in.Cart) == 0 {
		return Bill{}, fmt.Errorf("%w: cart is empty", shared.ErrValidation)
	}
	if in.TotalBill < 0 || in.SubTotal < 0 || in.Discount < 0 {
		return Bill{}, fmt.Errorf("%w: amounts must be >= 0", shared.ErrValidation)
	}
	for _, line := range in.Cart {
		if line.Quantity <= 0 {
			return Bill{}, fmt.Errorf("%w: cart quantities must be positive", shared.ErrValidation)
		}
	}

	reserved := false
	if s.idem != nil && in.IdempotencyKey != "" {
		if err := s.idem.CheckAndInsert(ctx, in.IdempotencyKey, "billing"); err != nil {
			return Bill{}, err
		}
		reserved = true
	}

	number, err := s.repo.NextBillNumber(ctx)
	if err != nil {
		if reserved {
			_ = s.idem.Delete(ctx, in.IdempotencyKey)
		}
		return Bill{}, err
	}
	now := s.now()
	bill, err := s.repo.InsertBill(ctx, Bill{
		BillNo:       strconv.FormatInt(number, 10),
		SubTotal:     in.SubTotal,
		Discount:     in.Discount,
		TotalBill:    in.TotalBill,
		CashAmount:   in.CashAmount,
		ChangeAmount: in.ChangeAmount,
		BillDate:     now.Format(billDateLayout),
		BillTime:     now.Format(billTimeLayout),
		Cart:         in.Cart,
	})
	if err != nil {
		if reserved {
			_ = s.idem.Delete(ctx, in.IdempotencyKey)
		}
		return Bill{}, err
	}
	s.recordAudit(ctx, "bill.create", strconv.FormatInt(bill.ID, 10), map[string]any{"billNo": bill.BillNo, "totalBill": bill.TotalBill})
	s.afterMutation(ctx, "created")
	return bill, nil
}

// GetBill fetches one bill.
func (s *Service) GetBill(ctx context.Context, id int64) (Bill, error) {
	return s.repo.GetBill(ctx, id)
}

// ListBills returns one page of bills, newest first.
func (s *Service) ListBills(ctx context.Context, page, perPage int) ([]Bill, shared.Pagination, error) {
	total, err := s.repo.CountBills(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	p := shared.NewPagination(page, perPage, total)
	out, err := s.repo.ListBills(ctx, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, p, nil
}

// RefundBill flags the bill refunded. Refunding an already refunded bill
// keeps the flag and re-stamps refunded_at.
func (s *Service) RefundBill(ctx context.Context, id int64) (Bill, error) {
	bill, err := s.repo.MarkRefunded(ctx, id)
	if err != nil {
		return Bill{}, err
	}
	s.recordAudit(ctx, "bill.refund", strconv.FormatInt(bill.ID, 10), map[string]any{"billNo": bill.BillNo})
	s.afterMutation(ctx, "refunded")
	return bill, nil
}

// DeleteBill removes a bill.
func (s *Service) DeleteBill(ctx context.Context, id int64) error {
	if err := s.repo.DeleteBill(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, "bill.delete", strconv.FormatInt(id, 10), nil)
	s.afterMutation(ctx, "deleted")
	return nil
}

// DailyStats reports today's trade over [startOfDay, endOfDay) plus global
// master-data counts.
func (s *Service) DailyStats(ctx context.Context) (DailyStats, error) {
	now := s.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, 1)

	count, revenue, err := s.repo.DailyBillStats(ctx, from, to)
	if err != nil {
		return DailyStats{}, err
	}
	categories, products, err := s.catalog.Counts(ctx)
	if err != nil {
		return DailyStats{}, err
	}
	users, err := s.users.CountUsers(ctx)
	if err != nil {
		return DailyStats{}, err
	}
	return DailyStats{
		BillCount:    count,
		DailyRevenue: revenue,
		TotalUsers:   users,
		TotalItems:   products,
		Categories:   categories,
	}, nil
}

// WeeklySales buckets the current week's non-refunded bills by day name,
// Monday first.
func (s *Service) WeeklySales(ctx context.Context) ([]SalesPoint, error) {
	now := s.now()
	start := startOfWeek(now)
	end := start.AddDate(0, 0, 7)

	samples, err := s.repo.SalesBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	points := make([]SalesPoint, 7)
	for i := range points {
		points[i].Label = start.AddDate(0, 0, i).Weekday().String()
	}
	loc := start.Location()
	for _, sample := range samples {
		created := sample.CreatedAt.In(loc)
		day := time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, loc)
		if day.Before(start) {
			continue
		}
		idx := calendarDays(start, day)
		if idx > 6 {
			continue
		}
		points[idx].Count++
		points[idx].Revenue += sample.Total
	}
	return points, nil
}

// MonthlySales buckets the current month's non-refunded bills by calendar day.
func (s *Service) MonthlySales(ctx context.Context) ([]SalesPoint, error) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0)

	samples, err := s.repo.SalesBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	days := end.AddDate(0, 0, -1).Day()
	points := make([]SalesPoint, days)
	for i := range points {
		points[i].Label = strconv.Itoa(i + 1)
	}
	for _, sample := range samples {
		idx := sample.CreatedAt.Day() - 1
		if idx < 0 || idx >= days {
			continue
		}
		points[idx].Count++
		points[idx].Revenue += sample.Total
	}
	return points, nil
}

func (s *Service) afterMutation(ctx context.Context, outcome string) {
	if s.metrics != nil {
		s.metrics.CountBill(outcome)
	}
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
}

func (s *Service) recordAudit(ctx context.Context, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	actor := ""
	if sess := shared.SessionFromContext(ctx); sess != nil {
		actor = sess.User()
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "bill",
		EntityID: entityID,
		Meta:     meta,
		At:       s.now().UTC(),
	})
}

func startOfWeek(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// calendarDays counts whole calendar days between two midnights in the same
// location. Stepping by calendar date keeps day boundaries stable across DST
// transitions, where elapsed hours drift off the 24-hour grid.
func calendarDays(from, to time.Time) int {
	n := 0
	for d := from; d.Before(to) && n < 7; d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}
