package stock

import (
	"errors"
	"time"
)

// ActivityType enumerates supported ledger movements.
type ActivityType string

const (
	// ActivityAdded represents stock received into the kitchen.
	ActivityAdded ActivityType = "Added"
	// ActivityRemoved represents stock taken out (spoilage, waste).
	ActivityRemoved ActivityType = "Removed"
	// ActivityUsedInSale represents stock consumed by a sale.
	ActivityUsedInSale ActivityType = "Used in Sale"
)

// Item categories recognised for ingredients.
var ItemCategories = []string{"dairy", "meat", "vegetables", "fruits", "grains", "spices", "other"}

// Units of measurement recognised for ingredients.
var Units = []string{"kg", "l", "pcs", "g", "ml"}

// Item is an ingredient master record carrying its derived balance.
type Item struct {
	ID                   int64
	IngredientName       string
	Category             string
	Unit                 string
	CurrentQuantity      float64
	MinimumStockLevel    float64
	ReorderLevel         float64
	PurchasePricePerUnit float64
	SupplierName         string
	SupplierContact      string
	CreatedAt            time.Time
	LastUpdated          time.Time
}

// Transaction is one append-only ledger entry.
type Transaction struct {
	ID             int64
	StockItemID    int64
	IngredientName string
	ActivityType   ActivityType
	Quantity       float64
	Price          float64
	Note           string
	OccurredAt     time.Time
}

// ItemInput carries the writable fields of an item.
type ItemInput struct {
	IngredientName       string
	Category             string
	Unit                 string
	Quantity             float64
	MinimumStockLevel    float64
	ReorderLevel         float64
	PurchasePricePerUnit float64
	SupplierName         string
	SupplierContact      string
}

// TransactionInput carries a new ledger entry.
type TransactionInput struct {
	StockItemID  int64
	ActivityType ActivityType
	Quantity     float64
	Price        float64
	Note         string
}

// ItemFilter narrows item listings.
type ItemFilter struct {
	Category string
	Search   string
	LowStock bool
}

// lowStockThreshold is the fixed quantity cutoff used by the LowStock filter.
// Intentionally independent of per-item reorder levels.
const lowStockThreshold = 5

// Status classification values for an item's quantity against its own thresholds.
const (
	StatusOK       = "ok"
	StatusReorder  = "reorder"
	StatusCritical = "critical"
)

// Status classifies the item's quantity against its own thresholds.
func (i Item) Status() string {
	switch {
	case i.CurrentQuantity <= i.MinimumStockLevel:
		return StatusCritical
	case i.CurrentQuantity <= i.ReorderLevel:
		return StatusReorder
	default:
		return StatusOK
	}
}

// ErrUnknownActivity indicates an unsupported activity type.
var ErrUnknownActivity = errors.New("stock: unknown activity type")
