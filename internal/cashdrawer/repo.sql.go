package cashdrawer

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tavolo-pos/tavolo-pos/internal/shared"
)

// Repository persists drawer days in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const dayColumns = `id, day_key, starting_cash, declared_cash, daily_revenue, expected_cash, variance, day_started, drawer_open, day_ended, started_at, ended_at`

func scanDay(row pgx.Row) (Day, error) {
	var d Day
	err := row.Scan(&d.ID, &d.DayKey, &d.StartingCash, &d.DeclaredCash, &d.DailyRevenue, &d.ExpectedCash,
		&d.Variance, &d.DayStarted, &d.DrawerOpen, &d.DayEnded, &d.StartedAt, &d.EndedAt)
	return d, err
}

func (r *Repository) InsertDay(ctx context.Context, d Day) (Day, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO cash_days
(day_key, starting_cash, declared_cash, daily_revenue, expected_cash, variance, day_started, drawer_open, day_ended, started_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
RETURNING `+dayColumns,
		d.DayKey, d.StartingCash, d.DeclaredCash, d.DailyRevenue, d.ExpectedCash, d.Variance,
		d.DayStarted, d.DrawerOpen, d.DayEnded)
	inserted, err := scanDay(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Day{}, shared.ErrAlreadyExists
		}
		return Day{}, err
	}
	return inserted, nil
}

func (r *Repository) GetDay(ctx context.Context, dayKey string) (Day, error) {
	d, err := scanDay(r.pool.QueryRow(ctx, `SELECT `+dayColumns+` FROM cash_days WHERE day_key=$1`, dayKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Day{}, shared.ErrNotFound
		}
		return Day{}, err
	}
	return d, nil
}

// CloseDay settles the day. The update only matches a row that is still open,
// so a day that was closed concurrently comes back as zero rows; the caller
// has already read the row, which makes that a conflict rather than a miss.
func (r *Repository) CloseDay(ctx context.Context, d Day) (Day, error) {
	row := r.pool.QueryRow(ctx, `UPDATE cash_days SET
declared_cash=$2, daily_revenue=$3, expected_cash=$4, variance=$5, day_started=$6, drawer_open=$7, day_ended=$8, ended_at=$9
WHERE day_key=$1 AND day_ended = false RETURNING `+dayColumns,
		d.DayKey, d.DeclaredCash, d.DailyRevenue, d.ExpectedCash, d.Variance,
		d.DayStarted, d.DrawerOpen, d.DayEnded, d.EndedAt)
	closed, err := scanDay(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Day{}, shared.ErrAlreadyExists
		}
		return Day{}, err
	}
	return closed, nil
}

func (r *Repository) ListDays(ctx context.Context) ([]Day, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+dayColumns+` FROM cash_days ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Day{}
	for rows.Next() {
		d, err := scanDay(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
