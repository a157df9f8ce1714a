package billing

import (
	"time"
)

// CartLine is one sold product inside a bill's cart snapshot.
type CartLine struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Bill is a finalized sale.
type Bill struct {
	ID           int64
	BillNo       string
	SubTotal     float64
	Discount     float64
	TotalBill    float64
	CashAmount   float64
	ChangeAmount float64
	BillDate     string
	BillTime     string
	Cart         []CartLine
	CreatedAt    time.Time
	Refunded     bool
	RefundedAt   *time.Time
}

// BillInput carries the fields of a new bill before numbering.
// IdempotencyKey is the optional client-supplied request key; when set,
// a retried create with the same key is rejected as a conflict.
type BillInput struct {
	SubTotal       float64
	Discount       float64
	TotalBill      float64
	CashAmount     float64
	ChangeAmount   float64
	Cart           []CartLine
	IdempotencyKey string
}

// DailyStats summarises today's trade plus global master-data counts.
type DailyStats struct {
	BillCount    int
	DailyRevenue float64
	TotalUsers   int
	TotalItems   int
	Categories   int
}

// SalesPoint is one bucket of a weekly or monthly aggregation.
type SalesPoint struct {
	Label   string
	Count   int
	Revenue float64
}

// billSample is the slim row aggregations work over.
type billSample struct {
	CreatedAt time.Time
	Total     float64
}
