package stock

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tavolo-pos/tavolo-pos/internal/shared"
)

// RepositoryPort defines data access for stock items and the movement ledger.
type RepositoryPort interface {
	InsertItem(ctx context.Context, item Item) (Item, error)
	GetItem(ctx context.Context, id int64) (Item, error)
	UpdateItem(ctx context.Context, item Item) (Item, error)
	DeleteItem(ctx context.Context, id int64) error
	ListItems(ctx context.Context, filter ItemFilter) ([]Item, error)
	ListTransactions(ctx context.Context, limit, offset int) ([]Transaction, error)
	CountTransactions(ctx context.Context) (int, error)
	DeleteTransaction(ctx context.Context, id int64) error
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// AuditRecorder captures the mutation trail. May be nil.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles stock business logic.
type Service struct {
	repo  RepositoryPort
	audit AuditRecorder
	now   func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit AuditRecorder) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// ListItems returns items narrowed by the filter.
func (s *Service) ListItems(ctx context.Context, filter ItemFilter) ([]Item, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	if strings.EqualFold(filter.Category, "all") {
		filter.Category = ""
	}
	return s.repo.ListItems(ctx, filter)
}

// GetItem fetches one item.
func (s *Service) GetItem(ctx context.Context, id int64) (Item, error) {
	return s.repo.GetItem(ctx, id)
}

// CreateItem inserts an ingredient. The initial quantity becomes the current balance.
func (s *Service) CreateItem(ctx context.Context, in ItemInput) (Item, error) {
	if err := validateItemInput(in); err != nil {
		return Item{}, err
	}
	item, err := s.repo.InsertItem(ctx, Item{
		IngredientName:       strings.TrimSpace(in.IngredientName),
		Category:             in.Category,
		Unit:                 in.Unit,
		CurrentQuantity:      in.Quantity,
		MinimumStockLevel:    in.MinimumStockLevel,
		ReorderLevel:         in.ReorderLevel,
		PurchasePricePerUnit: in.PurchasePricePerUnit,
		SupplierName:         strings.TrimSpace(in.SupplierName),
		SupplierContact:      strings.TrimSpace(in.SupplierContact),
	})
	if err != nil {
		return Item{}, err
	}
	s.recordAudit(ctx, "stock_item.create", "stock_item", strconv.FormatInt(item.ID, 10), map[string]any{"ingredientName": item.IngredientName})
	return item, nil
}

// UpdateItem overwrites every writable field, including the current quantity.
func (s *Service) UpdateItem(ctx context.Context, id int64, in ItemInput) (Item, error) {
	if err := validateItemInput(in); err != nil {
		return Item{}, err
	}
	existing, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return Item{}, err
	}
	existing.IngredientName = strings.TrimSpace(in.IngredientName)
	existing.Category = in.Category
	existing.Unit = in.Unit
	existing.CurrentQuantity = in.Quantity
	existing.MinimumStockLevel = in.MinimumStockLevel
	existing.ReorderLevel = in.ReorderLevel
	existing.PurchasePricePerUnit = in.PurchasePricePerUnit
	existing.SupplierName = strings.TrimSpace(in.SupplierName)
	existing.SupplierContact = strings.TrimSpace(in.SupplierContact)
	updated, err := s.repo.UpdateItem(ctx, existing)
	if err != nil {
		return Item{}, err
	}
	s.recordAudit(ctx, "stock_item.update", "stock_item", strconv.FormatInt(updated.ID, 10), map[string]any{"ingredientName": updated.IngredientName})
	return updated, nil
}

// DeleteItem removes an ingredient regardless of its remaining balance.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, "stock_item.delete", "stock_item", strconv.FormatInt(id, 10), nil)
	return nil
}

// RecordTransaction appends a ledger entry and moves the item balance in one
// repeatable-read transaction holding a row lock on the item. Added increases
// the balance, Removed and Used in Sale decrease it. The balance may go
// negative; sales are never blocked on stale counts.
func (s *Service) RecordTransaction(ctx context.Context, in TransactionInput) (Transaction, error) {
	if in.Quantity <= 0 {
		return Transaction{}, fmt.Errorf("%w: quantity must be positive", shared.ErrValidation)
	}
	switch in.ActivityType {
	case ActivityAdded, ActivityRemoved, ActivityUsedInSale:
	default:
		return Transaction{}, fmt.Errorf("%w: %s", ErrUnknownActivity, in.ActivityType)
	}

	var recorded Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, in.StockItemID)
		if err != nil {
			return err
		}
		entry := Transaction{
			StockItemID:    item.ID,
			IngredientName: item.IngredientName,
			ActivityType:   in.ActivityType,
			Quantity:       in.Quantity,
			Price:          in.Price,
			Note:           strings.TrimSpace(in.Note),
			OccurredAt:     s.now().UTC(),
		}
		recorded, err = tx.InsertTransaction(ctx, entry)
		if err != nil {
			return err
		}
		next := item.CurrentQuantity
		if in.ActivityType == ActivityAdded {
			next += in.Quantity
		} else {
			next -= in.Quantity
		}
		return tx.SetItemQuantity(ctx, item.ID, next)
	})
	if err != nil {
		return Transaction{}, err
	}
	s.recordAudit(ctx, "stock_transaction.create", "stock_transaction", strconv.FormatInt(recorded.ID, 10), map[string]any{
		"activityType": string(recorded.ActivityType),
		"quantity":     recorded.Quantity,
	})
	return recorded, nil
}

// ListTransactions returns one page of the ledger, newest first.
func (s *Service) ListTransactions(ctx context.Context, page, perPage int) ([]Transaction, shared.Pagination, error) {
	total, err := s.repo.CountTransactions(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	p := shared.NewPagination(page, perPage, total)
	out, err := s.repo.ListTransactions(ctx, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return out, p, nil
}

// DeleteTransaction removes a ledger row without touching the item balance.
// The cached quantity keeps the effect the deleted movement already applied.
func (s *Service) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, "stock_transaction.delete", "stock_transaction", strconv.FormatInt(id, 10), nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action, entity, entityID string, meta map[string]any) {
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
		Entity:   entity,
		EntityID: entityID,
		Meta:     meta,
		At:       s.now().UTC(),
	})
}

func validateItemInput(in ItemInput) error {
	if strings.TrimSpace(in.IngredientName) == "" {
		return fmt.Errorf("%w: ingredient name required", shared.ErrValidation)
	}
	if !contains(ItemCategories, in.Category) {
		return fmt.Errorf("%w: unknown category %q", shared.ErrValidation, in.Category)
	}
	if !contains(Units, in.Unit) {
		return fmt.Errorf("%w: unknown unit %q", shared.ErrValidation, in.Unit)
	}
	if in.MinimumStockLevel < 0 || in.ReorderLevel < 0 {
		return fmt.Errorf("%w: stock levels must be >= 0", shared.ErrValidation)
	}
	if in.PurchasePricePerUnit < 0 {
		return fmt.Errorf("%w: purchase price must be >= 0", shared.ErrValidation)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
