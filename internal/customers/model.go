package customers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

var (
	// ErrNotFound is returned when a customer id does not resolve.
	ErrNotFound = shared.NotFound("customer")
	// ErrPhoneExists flags a duplicate phone number.
	ErrPhoneExists = shared.Validationf("phone already registered")
)

// Customer is a buyer with a running receivable balance.
type Customer struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email"`
	Address     string          `json:"address"`
	Notes       string          `json:"notes"`
	TotalDue    decimal.Decimal `json:"totalDue"`
	CreditLimit decimal.Decimal `json:"creditLimit"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CreateInput carries a new customer. The receivable balance always starts at zero.
type CreateInput struct {
	Name        string
	Phone       string
	Email       string
	Address     string
	Notes       string
	CreditLimit decimal.Decimal
}

// UpdateInput patches a customer. TotalDue is intentionally absent.
type UpdateInput struct {
	Name        *string
	Phone       *string
	Email       *string
	Address     *string
	Notes       *string
	CreditLimit *decimal.Decimal
	IsActive    *bool
}

// ListFilter narrows customer listings.
type ListFilter struct {
	Search string
	Active *bool
	HasDue *bool
	Page   shared.PageRequest
}

// BlockingBill is an unpaid bill that prevents customer deletion.
type BlockingBill struct {
	ID         int64           `json:"id"`
	BillNumber string          `json:"billNumber"`
	DueAmount  decimal.Decimal `json:"dueAmount"`
}

// DeleteSummary reports what a cascade delete removed.
type DeleteSummary struct {
	Bills    int64 `json:"bills"`
	Payments int64 `json:"payments"`
}
