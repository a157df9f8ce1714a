package billing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tavolo-pos/tavolo-pos/internal/shared"
)

// Repository persists bills and the bill counter in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// NextBillNumber advances the singleton counter and returns the new value.
// The single UPDATE makes concurrent callers serialize on the row lock, so
// values are strictly increasing and never reused. The counter row is seeded
// at 99, making 100 the first number this returns.
func (r *Repository) NextBillNumber(ctx context.Context) (int64, error) {
	var value int64
	err := r.pool.QueryRow(ctx, `UPDATE bill_counters SET value = value + 1, updated_at = NOW() WHERE id = 1 RETURNING value`).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrStoreUnavailable
		}
		return 0, err
	}
	return value, nil
}

const billColumns = `id, bill_no, sub_total, discount, total_bill, cash_amount, change_amount, bill_date, bill_time, cart, created_at, refunded, refunded_at`

func scanBill(row pgx.Row) (Bill, error) {
	var b Bill
	var cart []byte
	err := row.Scan(&b.ID, &b.BillNo, &b.SubTotal, &b.Discount, &b.TotalBill, &b.CashAmount, &b.ChangeAmount,
		&b.BillDate, &b.BillTime, &cart, &b.CreatedAt, &b.Refunded, &b.RefundedAt)
	if err != nil {
		return Bill{}, err
	}
	if len(cart) > 0 {
		if err := json.Unmarshal(cart, &b.Cart); err != nil {
			return Bill{}, err
		}
	}
	return b, nil
}

func (r *Repository) InsertBill(ctx context.Context, b Bill) (Bill, error) {
	cart, err := json.Marshal(b.Cart)
	if err != nil {
		return Bill{}, err
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO bills
(bill_no, sub_total, discount, total_bill, cash_amount, change_amount, bill_date, bill_time, cart, created_at, refunded)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),false)
RETURNING `+billColumns,
		b.BillNo, b.SubTotal, b.Discount, b.TotalBill, b.CashAmount, b.ChangeAmount, b.BillDate, b.BillTime, cart)
	return scanBill(row)
}

func (r *Repository) GetBill(ctx context.Context, id int64) (Bill, error) {
	b, err := scanBill(r.pool.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bill{}, shared.ErrNotFound
		}
		return Bill{}, err
	}
	return b, nil
}

func (r *Repository) ListBills(ctx context.Context, limit, offset int) ([]Bill, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+billColumns+` FROM bills ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Bill{}
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) CountBills(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bills`).Scan(&total)
	return total, err
}

// MarkRefunded flags the bill refunded and stamps refunded_at, also when the
// bill was already refunded.
func (r *Repository) MarkRefunded(ctx context.Context, id int64) (Bill, error) {
	row := r.pool.QueryRow(ctx, `UPDATE bills SET refunded = true, refunded_at = NOW() WHERE id=$1 RETURNING `+billColumns, id)
	b, err := scanBill(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bill{}, shared.ErrNotFound
		}
		return Bill{}, err
	}
	return b, nil
}

func (r *Repository) DeleteBill(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bills WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DailyBillStats counts and sums non-refunded bills inside [from, to).
func (r *Repository) DailyBillStats(ctx context.Context, from, to time.Time) (count int, revenue float64, err error) {
	err = r.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(total_bill), 0)
FROM bills WHERE created_at >= $1 AND created_at < $2 AND refunded = false`, from, to).Scan(&count, &revenue)
	return count, revenue, err
}

// SalesBetween returns the non-refunded bills inside [from, to) as slim
// aggregation samples.
func (r *Repository) SalesBetween(ctx context.Context, from, to time.Time) ([]billSample, error) {
	rows, err := r.pool.Query(ctx, `SELECT created_at, total_bill
FROM bills WHERE created_at >= $1 AND created_at < $2 AND refunded = false ORDER BY created_at ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []billSample{}
	for rows.Next() {
		var s billSample
		if err := rows.Scan(&s.CreatedAt, &s.Total); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
