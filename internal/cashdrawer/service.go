package cashdrawer

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tavolo-pos/tavolo-pos/internal/shared"
)

// RepositoryPort defines drawer data access.
type RepositoryPort interface {
	InsertDay(ctx context.Context, d Day) (Day, error)
	GetDay(ctx context.Context, dayKey string) (Day, error)
	CloseDay(ctx context.Context, d Day) (Day, error)
	ListDays(ctx context.Context) ([]Day, error)
}

// AuditRecorder captures the mutation trail. May be nil.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service drives the per-day drawer state machine.
type Service struct {
	repo  RepositoryPort
	audit AuditRecorder
	now   func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit AuditRecorder) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// StartDay opens the drawer for the given day with the counted float.
func (s *Service) StartDay(ctx context.Context, dayKey string, startingCash decimal.Decimal) (Day, error) {
	if dayKey == "" {
		dayKey = DayKey(s.now())
	}
	if startingCash.IsNegative() {
		return Day{}, fmt.Errorf("%w: starting cash must be >= 0", shared.ErrValidation)
	}
	day, err := s.repo.InsertDay(ctx, Day{
		DayKey:       dayKey,
		StartingCash: startingCash,
		DayStarted:   true,
		DrawerOpen:   true,
	})
	if err != nil {
		return Day{}, err
	}
	s.recordAudit(ctx, "cash_day.start", day.DayKey, map[string]any{"startingCash": day.StartingCash.StringFixed(2)})
	return day, nil
}

// GetDay returns the drawer record for a day key.
func (s *Service) GetDay(ctx context.Context, dayKey string) (Day, error) {
	if dayKey == "" {
		dayKey = DayKey(s.now())
	}
	return s.repo.GetDay(ctx, dayKey)
}

// EndDay closes the drawer, reconciling the declared count against the
// revenue taken during the day. Expected cash is revenue plus the opening
// float; variance is expected minus declared, so a positive variance means
// cash is missing from the drawer. The close is conditional on the row still
// being open, so two racing EndDay calls cannot both settle the day.
func (s *Service) EndDay(ctx context.Context, dayKey string, declaredCash, dailyRevenue decimal.Decimal) (Day, error) {
	if dayKey == "" {
		dayKey = DayKey(s.now())
	}
	day, err := s.repo.GetDay(ctx, dayKey)
	if err != nil {
		return Day{}, err
	}
	if day.DayEnded {
		return Day{}, fmt.Errorf("%w: day %s already ended", shared.ErrAlreadyExists, dayKey)
	}

	day.DeclaredCash = declaredCash
	day.DailyRevenue = dailyRevenue
	day.ExpectedCash = dailyRevenue.Add(day.StartingCash)
	day.Variance = day.ExpectedCash.Sub(declaredCash)
	day.DayEnded = true
	day.DrawerOpen = false
	endedAt := s.now().UTC()
	day.EndedAt = &endedAt

	closed, err := s.repo.CloseDay(ctx, day)
	if err != nil {
		return Day{}, err
	}
	s.recordAudit(ctx, "cash_day.end", closed.DayKey, map[string]any{
		"declaredCash": closed.DeclaredCash.StringFixed(2),
		"expectedCash": closed.ExpectedCash.StringFixed(2),
		"variance":     closed.Variance.StringFixed(2),
	})
	return closed, nil
}

// ListDays returns every drawer record, newest first.
func (s *Service) ListDays(ctx context.Context) ([]Day, error) {
	return s.repo.ListDays(ctx)
}

func (s *Service) recordAudit(ctx context.Context, action, dayKey string, meta map[string]any) {
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
		Entity:   "cash_day",
		EntityID: dayKey,
		Meta:     meta,
		At:       s.now().UTC(),
	})
}
