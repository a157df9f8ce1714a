package catalog

import "time"

// Category groups products on the menu.
type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Product is one sellable menu entry.
type Product struct {
	ID         int64
	Name       string
	CategoryID int64
	Price      float64
	ImageURL   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID int64
	Search     string
}
