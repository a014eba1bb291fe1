package ar

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/customers"
)

// Ledger entry kinds.
const (
	EntryBill        = "bill"
	EntrySalePayment = "sale_payment"
	EntryBillPayment = "bill_payment"
	EntryPayment     = "payment"
)

var entryRank = map[string]int{EntryBill: 0, EntrySalePayment: 1, EntryBillPayment: 2, EntryPayment: 3}

// LedgerEntry is one debit or credit in a customer statement.
type LedgerEntry struct {
	Date        time.Time       `json:"date"`
	Type        string          `json:"type"`
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
	BillID      *int64          `json:"billId,omitempty"`
	PaymentID   *int64          `json:"paymentId,omitempty"`
}

// Ledger is a customer statement, newest entry first.
type Ledger struct {
	Customer     customers.Customer `json:"customer"`
	Transactions []LedgerEntry      `json:"transactions"`
}

// CustomerLedger merges bills, payments and direct bill payments into a statement.
func (s *Service) CustomerLedger(ctx context.Context, customerID int64) (Ledger, error) {
	customer, err := s.repo.GetCustomer(ctx, customerID)
	if err != nil {
		return Ledger{}, err
	}
	bills, err := s.repo.ListCustomerBills(ctx, customerID)
	if err != nil {
		return Ledger{}, err
	}
	payments, err := s.repo.ListCustomerPayments(ctx, customerID)
	if err != nil {
		return Ledger{}, err
	}
	return Ledger{Customer: customer, Transactions: BuildLedger(bills, payments)}, nil
}

// BuildLedger computes running balances oldest first and returns the entries newest first.
// Money settled at the time of sale shows as a credit next to its bill.
func BuildLedger(bills []Bill, payments []Payment) []LedgerEntry {
	entries := make([]LedgerEntry, 0, len(bills)+len(payments))
	for _, b := range bills {
		billID := b.ID
		entries = append(entries, LedgerEntry{
			Date:        b.BillDate,
			Type:        EntryBill,
			Reference:   b.BillNumber,
			Description: fmt.Sprintf("Bill %s (%d items)", b.BillNumber, len(b.Items)),
			Debit:       b.Total,
			BillID:      &billID,
		})

		viaHistory := decimal.Zero
		for _, p := range b.Payments {
			viaHistory = viaHistory.Add(p.Amount)
			if p.PaymentID != nil {
				continue
			}
			entries = append(entries, LedgerEntry{
				Date:        p.PaidAt,
				Type:        EntryBillPayment,
				Reference:   b.BillNumber,
				Description: fmt.Sprintf("Payment on %s (%s)", b.BillNumber, p.Method),
				Credit:      p.Amount,
				BillID:      &billID,
			})
		}
		if atSale := b.PaidAmount.Sub(viaHistory); atSale.IsPositive() {
			entries = append(entries, LedgerEntry{
				Date:        b.BillDate,
				Type:        EntrySalePayment,
				Reference:   b.BillNumber,
				Description: fmt.Sprintf("Paid at sale (%s)", b.PaymentMethod),
				Credit:      atSale,
				BillID:      &billID,
			})
		}
	}
	for _, p := range payments {
		paymentID := p.ID
		entries = append(entries, LedgerEntry{
			Date:        p.PaidAt,
			Type:        EntryPayment,
			Reference:   p.PaymentNumber,
			Description: fmt.Sprintf("Payment %s (%s)", p.PaymentNumber, p.PaymentMethod),
			Credit:      p.Amount,
			PaymentID:   &paymentID,
		})
	}

	slices.SortStableFunc(entries, func(a, b LedgerEntry) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return entryRank[a.Type] - entryRank[b.Type]
	})
	balance := decimal.Zero
	for i := range entries {
		balance = balance.Add(entries[i].Debit).Sub(entries[i].Credit)
		entries[i].Balance = balance
	}
	slices.Reverse(entries)
	return entries
}
