package expenses

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/ar"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// ErrExpenseNotFound is returned for unknown expense ids.
var ErrExpenseNotFound = shared.NotFound("expense")

// Expense is an outgoing business cost.
type Expense struct {
	ID            int64            `json:"id"`
	Title         string           `json:"title"`
	Category      string           `json:"category"`
	Amount        decimal.Decimal  `json:"amount"`
	ExpenseDate   time.Time        `json:"expenseDate"`
	PaymentMethod ar.PaymentMethod `json:"paymentMethod"`
	Notes         string           `json:"notes"`
	RecordedBy    int64            `json:"recordedBy"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// CreateInput carries a new expense.
type CreateInput struct {
	Title         string
	Category      string
	Amount        decimal.Decimal
	ExpenseDate   *time.Time
	PaymentMethod string
	Notes         string
}

// UpdateInput patches an expense; nil fields are left unchanged.
type UpdateInput struct {
	Title         *string
	Category      *string
	Amount        *decimal.Decimal
	ExpenseDate   *time.Time
	PaymentMethod *string
	Notes         *string
}

// ListFilter narrows expense listings.
type ListFilter struct {
	Category string
	From     *time.Time
	To       *time.Time
	Page     shared.PageRequest
}
