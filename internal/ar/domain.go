package ar

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod enumerates tender types accepted at the counter.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodCard         PaymentMethod = "card"
	MethodUPI          PaymentMethod = "upi"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCredit       PaymentMethod = "credit"
)

// PaymentMethods lists every accepted payment method.
var PaymentMethods = []PaymentMethod{MethodCash, MethodCard, MethodUPI, MethodBankTransfer, MethodCredit}

// PaymentStatus tracks how much of a bill has been settled.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

var paymentStatuses = []PaymentStatus{PaymentPending, PaymentPartial, PaymentPaid}

// BillStatus is the fulfilment state of a bill.
type BillStatus string

const (
	StatusPending    BillStatus = "pending"
	StatusProcessing BillStatus = "processing"
	StatusCompleted  BillStatus = "completed"
	StatusCancelled  BillStatus = "cancelled"
	StatusRefunded   BillStatus = "refunded"
	StatusPaid       BillStatus = "paid"
)

var billStatuses = []BillStatus{StatusPending, StatusProcessing, StatusCompleted, StatusCancelled, StatusRefunded, StatusPaid}

// BillType distinguishes sales from purchases and returns.
type BillType string

const (
	TypeSale     BillType = "sale"
	TypePurchase BillType = "purchase"
	TypeReturn   BillType = "return"
)

var billTypes = []BillType{TypeSale, TypePurchase, TypeReturn}

// CustomerRef is the customer summary embedded in a bill.
type CustomerRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Metadata carries point-of-sale context stored as JSONB.
type Metadata struct {
	Source   string         `json:"source,omitempty"`
	Terminal string         `json:"terminal,omitempty"`
	Cashier  string         `json:"cashier,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// BillItem is one line of a bill. Product fields are filled on read.
type BillItem struct {
	ID          int64           `json:"id"`
	LineNo      int             `json:"lineNo"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	Category    string          `json:"category,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

// LineTotal returns price × quantity − discount + tax.
func LineTotal(price decimal.Decimal, qty int, discount, tax decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty))).Sub(discount).Add(tax)
}

// BillPayment is an entry in a bill's payment history. PaymentID is nil for
// payments applied directly to the bill.
type BillPayment struct {
	ID         int64           `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     PaymentMethod   `json:"method"`
	PaidAt     time.Time       `json:"date"`
	PaymentID  *int64          `json:"paymentId,omitempty"`
	RecordedBy int64           `json:"recordedBy"`
	// DueAfter is the bill's due amount right after this entry was applied.
	DueAfter decimal.Decimal `json:"dueAfter"`
}

// Bill is a sales invoice.
type Bill struct {
	ID            int64           `json:"id"`
	BillNumber    string          `json:"billNumber"`
	Reference     uuid.UUID       `json:"reference"`
	CustomerID    int64           `json:"customerId"`
	Customer      CustomerRef     `json:"customer"`
	Items         []BillItem      `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	DueAmount     decimal.Decimal `json:"dueAmount"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	Status        BillStatus      `json:"status"`
	Type          BillType        `json:"type"`
	BillDate      time.Time       `json:"billDate"`
	DueDate       *time.Time      `json:"dueDate,omitempty"`
	Notes         string          `json:"notes"`
	Metadata      Metadata        `json:"metadata"`
	Payments      []BillPayment   `json:"paymentHistory"`
	CreatedBy     int64           `json:"createdBy"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// applyPayment adds amount to the paid side and derives the payment state.
func (b *Bill) applyPayment(amount decimal.Decimal) {
	b.PaidAmount = b.PaidAmount.Add(amount)
	b.DueAmount = b.Total.Sub(b.PaidAmount)
	if b.DueAmount.Sign() <= 0 {
		b.DueAmount = decimal.Zero
		b.PaymentStatus = PaymentPaid
		b.Status = StatusPaid
		return
	}
	b.PaymentStatus = PaymentPartial
}

// Payment is money received from a customer against their running balance.
type Payment struct {
	ID                int64           `json:"id"`
	PaymentNumber     string          `json:"paymentNumber"`
	CustomerID        int64           `json:"customerId"`
	Amount            decimal.Decimal `json:"amount"`
	PaymentMethod     PaymentMethod   `json:"paymentMethod"`
	BalanceAfter      decimal.Decimal `json:"balanceAfter"`
	UnallocatedAmount decimal.Decimal `json:"unallocatedAmount"`
	Notes             string          `json:"notes"`
	RecordedBy        int64           `json:"recordedBy"`
	PaidAt            time.Time       `json:"paidAt"`
	CreatedAt         time.Time       `json:"createdAt"`
	Allocations       []Allocation    `json:"allocations,omitempty"`
}

// StockLevel is the product state consulted when a stock decrement is refused.
type StockLevel struct {
	ProductID int64
	Name      string
	Quantity  int
	IsActive  bool
}

// Drift reports a customer whose stored balance disagrees with their bills.
type Drift struct {
	CustomerID int64           `json:"customerId"`
	Name       string          `json:"name"`
	TotalDue   decimal.Decimal `json:"totalDue"`
	BillsDue   decimal.Decimal `json:"billsDue"`
}

// Difference returns stored minus computed balance.
func (d Drift) Difference() decimal.Decimal {
	return d.TotalDue.Sub(d.BillsDue)
}
