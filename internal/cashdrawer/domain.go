package cashdrawer

import (
	"time"

	"github.com/shopspring/decimal"
)

// dayKeyLayout renders dates as M/D/YYYY without zero padding.
const dayKeyLayout = "1/2/2006"

// DayKey formats a timestamp as the drawer's calendar-day key.
func DayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}

// Day is the drawer record for one calendar day.
type Day struct {
	ID           int64
	DayKey       string
	StartingCash decimal.Decimal
	DeclaredCash decimal.Decimal
	DailyRevenue decimal.Decimal
	ExpectedCash decimal.Decimal
	Variance     decimal.Decimal
	DayStarted   bool
	DrawerOpen   bool
	DayEnded     bool
	StartedAt    time.Time
	EndedAt      *time.Time
}
