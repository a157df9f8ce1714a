package stock

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tavolo-pos/tavolo-pos/internal/platform/db"
	"github.com/tavolo-pos/tavolo-pos/internal/shared"
)

// Repository persists stock data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used when recording movements.
type TxRepository interface {
	GetItemForUpdate(ctx context.Context, id int64) (Item, error)
	InsertTransaction(ctx context.Context, tx Transaction) (Transaction, error)
	SetItemQuantity(ctx context.Context, id int64, quantity float64) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("stock repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const itemColumns = `id, ingredient_name, category, unit, current_quantity, minimum_stock_level, reorder_level, purchase_price_per_unit, supplier_name, supplier_contact, created_at, last_updated`

func scanItem(row pgx.Row) (Item, error) {
	var i Item
	err := row.Scan(&i.ID, &i.IngredientName, &i.Category, &i.Unit, &i.CurrentQuantity, &i.MinimumStockLevel,
		&i.ReorderLevel, &i.PurchasePricePerUnit, &i.SupplierName, &i.SupplierContact, &i.CreatedAt, &i.LastUpdated)
	return i, err
}

func (r *Repository) InsertItem(ctx context.Context, item Item) (Item, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO stock_items
(ingredient_name, category, unit, current_quantity, minimum_stock_level, reorder_level, purchase_price_per_unit, supplier_name, supplier_contact, created_at, last_updated)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW())
RETURNING `+itemColumns,
		item.IngredientName, item.Category, item.Unit, item.CurrentQuantity, item.MinimumStockLevel,
		item.ReorderLevel, item.PurchasePricePerUnit, item.SupplierName, item.SupplierContact)
	inserted, err := scanItem(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Item{}, shared.ErrAlreadyExists
		}
		return Item{}, err
	}
	return inserted, nil
}

func (r *Repository) GetItem(ctx context.Context, id int64) (Item, error) {
	item, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM stock_items WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, shared.ErrNotFound
		}
		return Item{}, err
	}
	return item, nil
}

func (r *Repository) UpdateItem(ctx context.Context, item Item) (Item, error) {
	row := r.pool.QueryRow(ctx, `UPDATE stock_items SET
ingredient_name=$2, category=$3, unit=$4, current_quantity=$5, minimum_stock_level=$6, reorder_level=$7,
purchase_price_per_unit=$8, supplier_name=$9, supplier_contact=$10, last_updated=NOW()
WHERE id=$1 RETURNING `+itemColumns,
		item.ID, item.IngredientName, item.Category, item.Unit, item.CurrentQuantity, item.MinimumStockLevel,
		item.ReorderLevel, item.PurchasePricePerUnit, item.SupplierName, item.SupplierContact)
	updated, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, shared.ErrNotFound
		}
		if isUniqueViolation(err) {
			return Item{}, shared.ErrAlreadyExists
		}
		return Item{}, err
	}
	return updated, nil
}

func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM stock_items WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *Repository) ListItems(ctx context.Context, filter ItemFilter) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM stock_items
WHERE ($1 = '' OR category = $1)
  AND ($2 = '' OR ingredient_name ILIKE '%' || $2 || '%')
  AND (NOT $3 OR current_quantity <= $4)
ORDER BY ingredient_name ASC`, filter.Category, filter.Search, filter.LowStock, float64(lowStockThreshold))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) ListTransactions(ctx context.Context, limit, offset int) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, stock_item_id, ingredient_name, activity_type, quantity, price, note, occurred_at
FROM stock_transactions ORDER BY occurred_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Transaction{}
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.StockItemID, &t.IngredientName, &t.ActivityType, &t.Quantity, &t.Price, &t.Note, &t.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) CountTransactions(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stock_transactions`).Scan(&total)
	return total, err
}

func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM stock_transactions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) GetItemForUpdate(ctx context.Context, id int64) (Item, error) {
	item, err := scanItem(r.tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM stock_items WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, shared.ErrNotFound
		}
		return Item{}, err
	}
	return item, nil
}

func (r *txRepository) InsertTransaction(ctx context.Context, t Transaction) (Transaction, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_transactions (stock_item_id, ingredient_name, activity_type, quantity, price, note, occurred_at)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		t.StockItemID, t.IngredientName, string(t.ActivityType), t.Quantity, t.Price, t.Note, t.OccurredAt).Scan(&t.ID)
	return t, err
}

func (r *txRepository) SetItemQuantity(ctx context.Context, id int64, quantity float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE stock_items SET current_quantity=$2, last_updated=NOW() WHERE id=$1`, id, quantity)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
