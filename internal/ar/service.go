package ar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-pos/internal/customers"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

const (
	moduleBill    = "ar.bill"
	modulePayment = "ar.payment"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards create endpoints against replays.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// Invalidator drops cached reports after ledger changes.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// MetricsPort receives ledger business events.
type MetricsPort interface {
	BillCreated(paymentStatus string)
	PaymentRecorded(method string, amount float64)
}

// Option customises a Service.
type Option func(*Service)

// WithLocation sets the business time zone used for numbering and summaries.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIdempotency enables Idempotency-Key handling.
func WithIdempotency(store IdempotencyPort) Option {
	return func(s *Service) { s.idem = store }
}

// WithMetrics reports ledger events.
func WithMetrics(m MetricsPort) Option {
	return func(s *Service) { s.metrics = m }
}

// Service implements the bill ledger and payment recorder.
type Service struct {
	repo    Repository
	audit   AuditPort
	cache   Invalidator
	idem    IdempotencyPort
	metrics MetricsPort
	logger  *slog.Logger
	loc     *time.Location
	now     func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, audit AuditPort, cache Invalidator, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{repo: repo, audit: audit, cache: cache, logger: logger, loc: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the business time zone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// CreateBill validates and persists a sale, moving stock and the customer balance with it.
func (s *Service) CreateBill(ctx context.Context, in CreateBillInput) (Bill, error) {
	bill, err := buildBill(in, s.now())
	if err != nil {
		return Bill{}, err
	}
	if bill.CreatedBy == 0 {
		bill.CreatedBy = shared.ActorID(ctx)
	}
	release, err := s.claim(ctx, in.IdempotencyKey, moduleBill)
	if err != nil {
		return Bill{}, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		customer, err := tx.LockCustomer(ctx, bill.CustomerID)
		if err != nil {
			return err
		}
		seq, err := tx.NextSequence(ctx, billSequence)
		if err != nil {
			return err
		}
		bill.BillNumber = FormatBillNumber(seq)
		bill.Reference = uuid.New()
		if err := tx.InsertBill(ctx, &bill); err != nil {
			return err
		}
		for _, item := range bill.Items {
			ok, err := tx.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return stockError(ctx, tx, item)
			}
		}
		if bill.DueAmount.IsPositive() {
			if err := tx.AdjustCustomerDue(ctx, customer.ID, bill.DueAmount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		release()
		return Bill{}, err
	}

	s.logger.Info("bill created",
		slog.String("bill_number", bill.BillNumber),
		slog.Int64("customer_id", bill.CustomerID),
		slog.String("total", bill.Total.StringFixed(2)),
		slog.String("payment_status", string(bill.PaymentStatus)),
	)
	if s.metrics != nil {
		s.metrics.BillCreated(string(bill.PaymentStatus))
	}
	s.record(ctx, "bill.created", "bill", bill.ID, map[string]any{
		"bill_number": bill.BillNumber,
		"total":       bill.Total.StringFixed(2),
	})
	return s.repo.GetBill(ctx, bill.ID)
}

func stockError(ctx context.Context, tx TxRepository, item BillItem) error {
	lvl, err := tx.StockLevel(ctx, item.ProductID)
	if errors.Is(err, errProductMissing) {
		return shared.NewValidationError("product not found", map[string]any{"productId": item.ProductID})
	}
	if err != nil {
		return err
	}
	if !lvl.IsActive {
		return shared.NewValidationError("product is inactive", map[string]any{
			"productId": item.ProductID,
			"name":      lvl.Name,
		})
	}
	return shared.NewValidationError("insufficient stock", map[string]any{
		"productId": item.ProductID,
		"name":      lvl.Name,
		"available": lvl.Quantity,
		"requested": item.Quantity,
	})
}

// GetBill returns a populated bill.
func (s *Service) GetBill(ctx context.Context, id int64) (Bill, error) {
	return s.repo.GetBill(ctx, id)
}

// ListBills returns a filtered page of bills.
func (s *Service) ListBills(ctx context.Context, filter BillFilter) ([]Bill, int, error) {
	return s.repo.ListBills(ctx, filter)
}

// UpdateBillPayment applies a direct payment to one bill.
func (s *Service) UpdateBillPayment(ctx context.Context, id int64, in BillPaymentInput) (Bill, error) {
	if !in.Amount.IsPositive() {
		return Bill{}, shared.NewValidationError("invalid payment", map[string]string{"paidAmount": "must be greater than 0"})
	}
	amount := shared.RoundMoney(in.Amount)
	var method PaymentMethod
	if in.PaymentMethod != "" {
		m, err := ParsePaymentMethod(in.PaymentMethod)
		if err != nil {
			return Bill{}, err
		}
		method = m
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		customer, err := tx.LockBillCustomer(ctx, id)
		if err != nil {
			return err
		}
		bill, err := tx.GetBillForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if amount.GreaterThan(bill.DueAmount) {
			return shared.NewValidationError("payment exceeds amount due", map[string]any{
				"dueAmount":  bill.DueAmount,
				"paidAmount": amount,
			})
		}
		oldDue := bill.DueAmount
		bill.applyPayment(amount)
		if err := tx.UpdateBillAmounts(ctx, bill); err != nil {
			return err
		}
		entryMethod := method
		if entryMethod == "" {
			entryMethod = bill.PaymentMethod
		}
		if err := tx.InsertBillPayment(ctx, bill.ID, &BillPayment{
			Amount:     amount,
			Method:     entryMethod,
			PaidAt:     s.now(),
			RecordedBy: shared.ActorID(ctx),
			DueAfter:   bill.DueAmount,
		}); err != nil {
			return err
		}
		if method != "" && method != bill.PaymentMethod {
			if err := tx.UpdateBillDetails(ctx, bill.ID, map[string]any{"payment_method": method}); err != nil {
				return err
			}
		}
		return tx.AdjustCustomerDue(ctx, customer.ID, bill.DueAmount.Sub(oldDue))
	})
	if err != nil {
		return Bill{}, err
	}
	s.record(ctx, "bill.payment", "bill", id, map[string]any{"amount": amount.StringFixed(2)})
	return s.repo.GetBill(ctx, id)
}

// UpdateBill patches non-financial fields of a bill.
func (s *Service) UpdateBill(ctx context.Context, id int64, in UpdateBillInput) (Bill, error) {
	updates := make(map[string]any)
	if in.Status != nil {
		v, err := parseEnum("status", *in.Status, billStatuses, "")
		if err != nil {
			return Bill{}, err
		}
		updates["status"] = v
	}
	if in.Type != nil {
		v, err := parseEnum("type", *in.Type, billTypes, "")
		if err != nil {
			return Bill{}, err
		}
		updates["type"] = v
	}
	if in.PaymentMethod != nil {
		v, err := ParsePaymentMethod(*in.PaymentMethod)
		if err != nil {
			return Bill{}, err
		}
		updates["payment_method"] = v
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.BillDate != nil {
		updates["bill_date"] = *in.BillDate
	}
	if in.DueDate != nil {
		updates["due_date"] = *in.DueDate
	}
	if in.Metadata != nil {
		updates["metadata"] = *in.Metadata
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetBillForUpdate(ctx, id); err != nil {
			return err
		}
		return tx.UpdateBillDetails(ctx, id, updates)
	})
	if err != nil {
		return Bill{}, err
	}
	if len(updates) > 0 {
		s.record(ctx, "bill.updated", "bill", id, nil)
	}
	return s.repo.GetBill(ctx, id)
}

// DeleteBill removes a bill, restoring stock and the customer's outstanding balance.
func (s *Service) DeleteBill(ctx context.Context, id int64) (Bill, error) {
	existing, err := s.repo.GetBill(ctx, id)
	if err != nil {
		return Bill{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		customer, err := tx.LockBillCustomer(ctx, id)
		if err != nil {
			return err
		}
		bill, err := tx.GetBillForUpdate(ctx, id)
		if err != nil {
			return err
		}
		for _, item := range bill.Items {
			if err := tx.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		if bill.DueAmount.IsPositive() {
			if err := tx.AdjustCustomerDue(ctx, customer.ID, bill.DueAmount.Neg()); err != nil {
				return err
			}
		}
		return tx.DeleteBill(ctx, id)
	})
	if err != nil {
		return Bill{}, err
	}
	s.logger.Info("bill deleted", slog.String("bill_number", existing.BillNumber), slog.Int64("customer_id", existing.CustomerID))
	s.record(ctx, "bill.deleted", "bill", id, map[string]any{"bill_number": existing.BillNumber})
	return existing, nil
}

// PaymentReceipt is the result of recording a customer payment.
type PaymentReceipt struct {
	Payment  Payment            `json:"payment"`
	Customer customers.Customer `json:"customer"`
}

// RecordPayment takes money against a customer's balance and spreads it over
// their open bills oldest first.
func (s *Service) RecordPayment(ctx context.Context, customerID int64, in PaymentInput) (PaymentReceipt, error) {
	if !in.Amount.IsPositive() {
		return PaymentReceipt{}, shared.NewValidationError("invalid payment", map[string]string{"amount": "must be greater than 0"})
	}
	method, err := ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return PaymentReceipt{}, err
	}
	amount := shared.RoundMoney(in.Amount)
	recordedBy := shared.ActorID(ctx)
	if recordedBy == 0 {
		recordedBy = in.RecordedBy
	}
	release, err := s.claim(ctx, in.IdempotencyKey, modulePayment)
	if err != nil {
		return PaymentReceipt{}, err
	}

	var payment Payment
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		customer, err := tx.LockCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(customer.TotalDue) {
			return shared.NewValidationError("payment exceeds total due", map[string]any{
				"totalDue": customer.TotalDue,
				"amount":   amount,
			})
		}

		paidAt := s.now().In(s.loc)
		seq, err := tx.NextSequence(ctx, PaymentSequence(paidAt))
		if err != nil {
			return err
		}
		open, err := tx.ListOpenBillsForUpdate(ctx, customerID)
		if err != nil {
			return err
		}
		alloc := AllocateFIFO(amount, open)

		payment = Payment{
			PaymentNumber:     FormatPaymentNumber(paidAt, seq),
			CustomerID:        customerID,
			Amount:            amount,
			PaymentMethod:     method,
			BalanceAfter:      customer.TotalDue.Sub(amount),
			UnallocatedAmount: alloc.Unallocated,
			Notes:             in.Notes,
			RecordedBy:        recordedBy,
			PaidAt:            paidAt,
		}
		if err := tx.InsertPayment(ctx, &payment); err != nil {
			return err
		}
		if err := tx.AdjustCustomerDue(ctx, customerID, amount.Neg()); err != nil {
			return err
		}

		bills := make(map[int64]Bill, len(open))
		for _, b := range open {
			bills[b.ID] = b
		}
		for _, a := range alloc.Allocations {
			bill := bills[a.BillID]
			bill.applyPayment(a.Amount)
			if err := tx.UpdateBillAmounts(ctx, bill); err != nil {
				return err
			}
			paymentID := payment.ID
			if err := tx.InsertBillPayment(ctx, bill.ID, &BillPayment{
				Amount:     a.Amount,
				Method:     method,
				PaidAt:     paidAt,
				PaymentID:  &paymentID,
				RecordedBy: recordedBy,
				DueAfter:   bill.DueAmount,
			}); err != nil {
				return err
			}
		}
		payment.Allocations = alloc.Allocations
		return nil
	})
	if err != nil {
		release()
		return PaymentReceipt{}, err
	}

	if payment.UnallocatedAmount.IsPositive() {
		s.logger.Warn("payment left unallocated amount",
			slog.String("payment_number", payment.PaymentNumber),
			slog.Int64("customer_id", customerID),
			slog.String("unallocated", payment.UnallocatedAmount.StringFixed(2)),
		)
	}
	s.logger.Info("payment recorded",
		slog.String("payment_number", payment.PaymentNumber),
		slog.Int64("customer_id", customerID),
		slog.String("amount", amount.StringFixed(2)),
		slog.Int("bills_touched", len(payment.Allocations)),
	)
	if s.metrics != nil {
		s.metrics.PaymentRecorded(string(method), amount.InexactFloat64())
	}
	s.record(ctx, "payment.recorded", "payment", payment.ID, map[string]any{
		"payment_number": payment.PaymentNumber,
		"customer_id":    customerID,
		"amount":         amount.StringFixed(2),
	})

	customer, err := s.repo.GetCustomer(ctx, customerID)
	if err != nil {
		return PaymentReceipt{}, fmt.Errorf("reload customer: %w", err)
	}
	return PaymentReceipt{Payment: payment, Customer: customer}, nil
}

// GetPayment returns a payment with its allocations.
func (s *Service) GetPayment(ctx context.Context, id int64) (Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

// ListPayments returns a filtered page of payments.
func (s *Service) ListPayments(ctx context.Context, filter PaymentFilter) ([]Payment, int, error) {
	return s.repo.ListPayments(ctx, filter)
}

// claim records an idempotency key and returns a func that releases it on failure.
func (s *Service) claim(ctx context.Context, key, module string) (func(), error) {
	if key == "" || s.idem == nil {
		return func() {}, nil
	}
	if err := s.idem.CheckAndInsert(ctx, key, module); err != nil {
		return nil, err
	}
	return func() {
		if err := s.idem.Delete(context.WithoutCancel(ctx), key, module); err != nil {
			s.logger.Warn("release idempotency key", slog.String("module", module), slog.Any("error", err))
		}
	}, nil
}

func (s *Service) record(ctx context.Context, action, entity string, id int64, meta map[string]any) {
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  shared.ActorID(ctx),
			Action:   action,
			Entity:   entity,
			EntityID: shared.EntityKey(id),
			Meta:     meta,
		}); err != nil {
			s.logger.Warn("audit ledger change", slog.String("action", action), slog.Any("error", err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("bump report cache", slog.Any("error", err))
		}
	}
}
