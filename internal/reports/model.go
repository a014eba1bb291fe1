package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySales aggregates sale bills for one business day.
type DailySales struct {
	Date       string          `json:"date"`
	Count      int             `json:"count"`
	Total      decimal.Decimal `json:"total"`
	PaidAmount decimal.Decimal `json:"paidAmount"`
	DueAmount  decimal.Decimal `json:"dueAmount"`
}

// ProductValuation values the stock on hand of one product.
type ProductValuation struct {
	ProductID   int64           `json:"productId"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Quantity    int             `json:"quantity"`
	CostPrice   decimal.Decimal `json:"costPrice"`
	Price       decimal.Decimal `json:"price"`
	CostValue   decimal.Decimal `json:"costValue"`
	RetailValue decimal.Decimal `json:"retailValue"`
}

// CategoryValuation sums product valuations per category.
type CategoryValuation struct {
	Category    string          `json:"category"`
	Products    int             `json:"products"`
	Quantity    int             `json:"quantity"`
	CostValue   decimal.Decimal `json:"costValue"`
	RetailValue decimal.Decimal `json:"retailValue"`
}

// InventoryValuation is the stock valuation report.
type InventoryValuation struct {
	Products    []ProductValuation  `json:"products"`
	Categories  []CategoryValuation `json:"categories"`
	TotalCost   decimal.Decimal     `json:"totalCost"`
	TotalRetail decimal.Decimal     `json:"totalRetail"`
}

// CategoryAmount is an expense total for one category.
type CategoryAmount struct {
	Category string          `json:"category"`
	Count    int             `json:"count"`
	Amount   decimal.Decimal `json:"amount"`
}

// MonthFigures are the raw monthly inputs of the profit and loss report.
type MonthFigures struct {
	Month       int
	Sales       decimal.Decimal
	CostOfGoods decimal.Decimal
	Expenses    decimal.Decimal
}

// ProfitLossMonth is one month of the profit and loss report.
type ProfitLossMonth struct {
	Month       int             `json:"month"`
	Label       string          `json:"label"`
	Sales       decimal.Decimal `json:"sales"`
	CostOfGoods decimal.Decimal `json:"costOfGoods"`
	Expenses    decimal.Decimal `json:"expenses"`
	Net         decimal.Decimal `json:"net"`
}

// ProfitLoss covers the twelve months of a year.
type ProfitLoss struct {
	Year   int               `json:"year"`
	Months []ProfitLossMonth `json:"months"`
	Totals ProfitLossMonth   `json:"totals"`
}

// TopProduct ranks a product by revenue from bill lines.
type TopProduct struct {
	ProductID int64           `json:"productId"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Quantity  int64           `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// OutstandingCustomer is a customer who still owes money.
type OutstandingCustomer struct {
	CustomerID      int64           `json:"customerId"`
	Name            string          `json:"name"`
	Phone           string          `json:"phone"`
	TotalDue        decimal.Decimal `json:"totalDue"`
	LastBillDate    *time.Time      `json:"lastBillDate,omitempty"`
	LastPaymentDate *time.Time      `json:"lastPaymentDate,omitempty"`
}

// Dashboard is the landing page rollup.
type Dashboard struct {
	Today                DailySales      `json:"today"`
	Month                ProfitLossMonth `json:"month"`
	LowStockCount        int             `json:"lowStockCount"`
	OutstandingTotal     decimal.Decimal `json:"outstandingTotal"`
	OutstandingCustomers int             `json:"outstandingCustomers"`
}
