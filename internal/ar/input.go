package ar

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// BillItemInput is a requested bill line.
type BillItemInput struct {
	ProductID int64
	Quantity  int
	Price     *decimal.Decimal
	Discount  decimal.Decimal
	Tax       decimal.Decimal
}

// CreateBillInput carries a new sale.
type CreateBillInput struct {
	CustomerID     int64
	Items          []BillItemInput
	Subtotal       *decimal.Decimal
	Tax            decimal.Decimal
	Discount       decimal.Decimal
	Total          *decimal.Decimal
	PaymentMethod  string
	PaymentStatus  string
	Status         string
	Type           string
	BillDate       *time.Time
	DueDate        *time.Time
	Notes          string
	Metadata       Metadata
	CreatedBy      int64
	IdempotencyKey string
}

// BillPaymentInput adds money directly to one bill.
type BillPaymentInput struct {
	Amount        decimal.Decimal
	PaymentMethod string
}

// UpdateBillInput patches non-financial bill fields.
type UpdateBillInput struct {
	Status        *string
	Type          *string
	PaymentMethod *string
	Notes         *string
	BillDate      *time.Time
	DueDate       *time.Time
	Metadata      *Metadata
}

// PaymentInput records a customer payment.
type PaymentInput struct {
	Amount         decimal.Decimal
	PaymentMethod  string
	Notes          string
	RecordedBy     int64
	IdempotencyKey string
}

// BillFilter narrows bill listings.
type BillFilter struct {
	CustomerID    int64
	PaymentStatus PaymentStatus
	Status        BillStatus
	Type          BillType
	From          *time.Time
	To            *time.Time
	Search        string
	Page          shared.PageRequest
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	CustomerID int64
	From       *time.Time
	To         *time.Time
	Page       shared.PageRequest
}

// parseEnum lower-cases raw and checks it against options. Empty input yields fallback.
func parseEnum[T ~string](field, raw string, options []T, fallback T) (T, error) {
	key := shared.NormalizeKey(raw)
	if key == "" {
		if fallback != "" {
			return fallback, nil
		}
		return "", shared.NewValidationError(fmt.Sprintf("%s is required", field), map[string]any{
			"field":   field,
			"options": options,
		})
	}
	for _, opt := range options {
		if string(opt) == key {
			return opt, nil
		}
	}
	return "", shared.NewValidationError(fmt.Sprintf("invalid %s", field), map[string]any{
		"field":   field,
		"value":   raw,
		"options": options,
	})
}

// ParsePaymentMethod normalizes a payment method.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	return parseEnum("paymentMethod", raw, PaymentMethods, "")
}

// ParsePaymentStatus normalizes an optional payment status filter.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	if raw == "" {
		return "", nil
	}
	return parseEnum("paymentStatus", raw, paymentStatuses, "")
}

// ParseBillStatus normalizes an optional bill status filter.
func ParseBillStatus(raw string) (BillStatus, error) {
	if raw == "" {
		return "", nil
	}
	return parseEnum("status", raw, billStatuses, "")
}

// ParseBillType normalizes an optional bill type filter.
func ParseBillType(raw string) (BillType, error) {
	if raw == "" {
		return "", nil
	}
	return parseEnum("type", raw, billTypes, "")
}

// buildBill validates in and returns the bill to persist, without number or ids.
func buildBill(in CreateBillInput, now time.Time) (Bill, error) {
	var missing []string
	if in.CustomerID <= 0 {
		missing = append(missing, "customerId")
	}
	if len(in.Items) == 0 {
		missing = append(missing, "items")
	}
	if in.Subtotal == nil {
		missing = append(missing, "subtotal")
	}
	if in.Total == nil {
		missing = append(missing, "total")
	}
	if shared.NormalizeKey(in.PaymentMethod) == "" {
		missing = append(missing, "paymentMethod")
	}
	if len(missing) > 0 {
		return Bill{}, shared.NewValidationError("missing required fields", map[string]any{"missing": missing})
	}

	itemErrs := map[string]string{}
	items := make([]BillItem, 0, len(in.Items))
	for i, it := range in.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		if it.ProductID <= 0 {
			itemErrs[prefix+"productId"] = "is required"
		}
		if it.Quantity < 1 {
			itemErrs[prefix+"quantity"] = "must be at least 1"
		}
		if it.Price == nil {
			itemErrs[prefix+"price"] = "is required"
		} else if it.Price.IsNegative() {
			itemErrs[prefix+"price"] = "must not be negative"
		}
		if len(itemErrs) > 0 {
			continue
		}
		price := shared.RoundMoney(*it.Price)
		discount := shared.RoundMoney(it.Discount)
		tax := shared.RoundMoney(it.Tax)
		items = append(items, BillItem{
			LineNo:    i + 1,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     price,
			Discount:  discount,
			Tax:       tax,
			Total:     LineTotal(price, it.Quantity, discount, tax),
		})
	}
	if len(itemErrs) > 0 {
		return Bill{}, shared.NewValidationError("invalid bill items", itemErrs)
	}

	amountErrs := map[string]string{}
	if in.Subtotal.IsNegative() {
		amountErrs["subtotal"] = "must not be negative"
	}
	if in.Total.IsNegative() {
		amountErrs["total"] = "must not be negative"
	}
	if len(amountErrs) > 0 {
		return Bill{}, shared.NewValidationError("invalid bill amounts", amountErrs)
	}

	method, err := ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return Bill{}, err
	}
	payStatus, err := parseEnum("paymentStatus", in.PaymentStatus, paymentStatuses, PaymentPending)
	if err != nil {
		return Bill{}, err
	}
	defaultStatus := StatusPending
	if payStatus == PaymentPaid {
		defaultStatus = StatusCompleted
	}
	status, err := parseEnum("status", in.Status, billStatuses, defaultStatus)
	if err != nil {
		return Bill{}, err
	}
	billType, err := parseEnum("type", in.Type, billTypes, TypeSale)
	if err != nil {
		return Bill{}, err
	}

	total := shared.RoundMoney(*in.Total)
	paid := decimal.Zero
	if payStatus == PaymentPaid {
		paid = total
	}
	billDate := now
	if in.BillDate != nil && !in.BillDate.IsZero() {
		billDate = *in.BillDate
	}

	return Bill{
		CustomerID:    in.CustomerID,
		Items:         items,
		Subtotal:      shared.RoundMoney(*in.Subtotal),
		Tax:           shared.RoundMoney(in.Tax),
		Discount:      shared.RoundMoney(in.Discount),
		Total:         total,
		PaidAmount:    paid,
		DueAmount:     total.Sub(paid),
		PaymentMethod: method,
		PaymentStatus: payStatus,
		Status:        status,
		Type:          billType,
		BillDate:      billDate,
		DueDate:       in.DueDate,
		Notes:         in.Notes,
		Metadata:      in.Metadata,
		CreatedBy:     in.CreatedBy,
	}, nil
}
