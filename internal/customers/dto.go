package customers

import "github.com/shopspring/decimal"

type createCustomerRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Phone       string          `json:"phone" validate:"required,min=5,max=32"`
	Email       string          `json:"email" validate:"omitempty,email"`
	Address     string          `json:"address" validate:"max=500"`
	Notes       string          `json:"notes"`
	CreditLimit decimal.Decimal `json:"creditLimit"`
}

type updateCustomerRequest struct {
	Name        *string          `json:"name" validate:"omitempty,max=200"`
	Phone       *string          `json:"phone" validate:"omitempty,min=5,max=32"`
	Email       *string          `json:"email" validate:"omitempty,email"`
	Address     *string          `json:"address" validate:"omitempty,max=500"`
	Notes       *string          `json:"notes"`
	CreditLimit *decimal.Decimal `json:"creditLimit"`
	IsActive    *bool            `json:"isActive"`
}
