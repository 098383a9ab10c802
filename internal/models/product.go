package models

import "time"

// ProductVariant is one (reference, size) row in the catalog with its own
// stock counters. Variants sharing a reference belong to the same product
// group for display purposes.
// Fields are tagged for both DB scanning and JSON serialization.
type ProductVariant struct {
	ID             int       `db:"id" json:"id"`
	Reference      string    `db:"reference" json:"reference"`
	Size           string    `db:"size" json:"size"`
	Description    string    `db:"description" json:"description"`
	Brand          string    `db:"brand" json:"brand"`
	Section        string    `db:"section" json:"section"`
	ProductLine    string    `db:"product_line" json:"productLine"`
	BarCode        string    `db:"bar_code" json:"barCode"`
	RetailPrice    float64   `db:"retail_price" json:"retailPrice"`
	WholesalePrice float64   `db:"wholesale_price" json:"wholesalePrice"`
	Stock          int       `db:"stock" json:"stock"`
	ReservedStock  int       `db:"reserved_stock" json:"reservedStock"`
	ImageURL       string    `db:"image_url" json:"imageUrl,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"-"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// AvailableStock returns the stock that can still be promised to a cart.
// Never negative even if the counters drift.
func (v *ProductVariant) AvailableStock() int {
	avail := v.Stock - v.ReservedStock
	if avail < 0 {
		return 0
	}
	return avail
}

// ProductGroup is a read-only projection of all variants sharing a reference.
// Display fields come from the first variant encountered.
type ProductGroup struct {
	Reference   string `json:"reference"`
	Description string `json:"description"`
	Brand       string `json:"brand"`
	Section     string `json:"section"`
	ProductLine string `json:"productLine"`
	ImageURL    string `json:"imageUrl,omitempty"`
	// WholesalePrice is the group display price, taken from the first variant.
	WholesalePrice float64          `json:"wholesalePrice"`
	Variants       []ProductVariant `json:"variants"`
}

// InStock reports whether any variant of the group still has available stock.
func (g *ProductGroup) InStock() bool {
	for i := range g.Variants {
		if g.Variants[i].AvailableStock() > 0 {
			return true
		}
	}
	return false
}
