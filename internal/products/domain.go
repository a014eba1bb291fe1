package products

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Status is the stock status derived from quantity, threshold and active flag.
type Status string

const (
	StatusInStock      Status = "In Stock"
	StatusLowStock     Status = "Low Stock"
	StatusOutOfStock   Status = "Out of Stock"
	StatusDiscontinued Status = "Discontinued"
)

var (
	// ErrProductNotFound is returned when a product id or sku does not resolve.
	ErrProductNotFound = shared.NotFound("product")
	// ErrSKUExists flags a duplicate sku.
	ErrSKUExists = shared.Validationf("sku already exists")
)

// Supplier describes where a product is sourced from.
type Supplier struct {
	Name    string         `json:"name,omitempty"`
	Contact string         `json:"contact,omitempty"`
	Phone   string         `json:"phone,omitempty"`
	Email   string         `json:"email,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// Product is a sellable catalog item.
type Product struct {
	ID            int64           `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Unit          string          `json:"unit"`
	Price         decimal.Decimal `json:"price"`
	CostPrice     decimal.Decimal `json:"costPrice"`
	Quantity      int             `json:"quantity"`
	LowStockAlert int             `json:"lowStockAlert"`
	IsActive      bool            `json:"isActive"`
	Supplier      Supplier        `json:"supplier"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// DeriveStatus computes the stock status.
func DeriveStatus(isActive bool, quantity, lowStockAlert int) Status {
	switch {
	case !isActive:
		return StatusDiscontinued
	case quantity <= 0:
		return StatusOutOfStock
	case quantity <= lowStockAlert:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

func (p *Product) refreshStatus() {
	p.Status = DeriveStatus(p.IsActive, p.Quantity, p.LowStockAlert)
}

// ParseStatus accepts either the display label or a slug such as "low_stock".
func ParseStatus(raw string) (Status, error) {
	switch shared.NormalizeKey(raw) {
	case "":
		return "", nil
	case "in stock", "in_stock":
		return StatusInStock, nil
	case "low stock", "low_stock":
		return StatusLowStock, nil
	case "out of stock", "out_of_stock":
		return StatusOutOfStock, nil
	case "discontinued":
		return StatusDiscontinued, nil
	}
	return "", shared.NewValidationError(fmt.Sprintf("unknown status %q", raw), []Status{StatusInStock, StatusLowStock, StatusOutOfStock, StatusDiscontinued})
}

// ListFilter narrows product listings.
type ListFilter struct {
	Search   string
	Category string
	Status   Status
	Active   *bool
	Page     shared.PageRequest
}

// CreateInput carries a new product.
type CreateInput struct {
	SKU           string
	Name          string
	Category      string
	Description   string
	Unit          string
	Price         decimal.Decimal
	CostPrice     decimal.Decimal
	Quantity      int
	LowStockAlert int
	Supplier      Supplier
}

// UpdateInput patches a product; nil fields are left untouched.
type UpdateInput struct {
	SKU           *string
	Name          *string
	Category      *string
	Description   *string
	Unit          *string
	Price         *decimal.Decimal
	CostPrice     *decimal.Decimal
	LowStockAlert *int
	IsActive      *bool
	Supplier      *Supplier
}

// StockAdjustment changes on-hand quantity by a signed delta.
type StockAdjustment struct {
	ProductID int64
	Delta     int
	Reason    string
}
