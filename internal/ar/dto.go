package ar

import (
	"time"

	"github.com/shopspring/decimal"
)

type billItemRequest struct {
	ProductID int64            `json:"productId"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price"`
	Discount  decimal.Decimal  `json:"discount"`
	Tax       decimal.Decimal  `json:"tax"`
}

type createBillRequest struct {
	CustomerID    int64             `json:"customerId"`
	Items         []billItemRequest `json:"items"`
	Subtotal      *decimal.Decimal  `json:"subtotal"`
	Tax           decimal.Decimal   `json:"tax"`
	Discount      decimal.Decimal   `json:"discount"`
	Total         *decimal.Decimal  `json:"total"`
	PaymentMethod string            `json:"paymentMethod"`
	PaymentStatus string            `json:"paymentStatus"`
	Status        string            `json:"status"`
	Type          string            `json:"type"`
	BillDate      *time.Time        `json:"billDate"`
	DueDate       *time.Time        `json:"dueDate"`
	Notes         string            `json:"notes" validate:"max=2000"`
	Metadata      Metadata          `json:"metadata"`
}

func (req createBillRequest) input() CreateBillInput {
	items := make([]BillItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = BillItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Discount:  it.Discount,
			Tax:       it.Tax,
		}
	}
	return CreateBillInput{
		CustomerID:    req.CustomerID,
		Items:         items,
		Subtotal:      req.Subtotal,
		Tax:           req.Tax,
		Discount:      req.Discount,
		Total:         req.Total,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: req.PaymentStatus,
		Status:        req.Status,
		Type:          req.Type,
		BillDate:      req.BillDate,
		DueDate:       req.DueDate,
		Notes:         req.Notes,
		Metadata:      req.Metadata,
	}
}

type updateBillRequest struct {
	Status        *string    `json:"status"`
	Type          *string    `json:"type"`
	PaymentMethod *string    `json:"paymentMethod"`
	Notes         *string    `json:"notes" validate:"omitempty,max=2000"`
	BillDate      *time.Time `json:"billDate"`
	DueDate       *time.Time `json:"dueDate"`
	Metadata      *Metadata  `json:"metadata"`
}

type billPaymentRequest struct {
	PaidAmount    *decimal.Decimal `json:"paidAmount" validate:"required"`
	PaymentMethod string           `json:"paymentMethod"`
}

type recordPaymentRequest struct {
	Amount        *decimal.Decimal `json:"amount" validate:"required"`
	PaymentMethod string           `json:"paymentMethod" validate:"required"`
	Notes         string           `json:"notes" validate:"max=2000"`
	RecordedBy    int64            `json:"recordedBy"`
}
