package ar

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Allocation is the share of a payment applied to one bill.
type Allocation struct {
	BillID     int64           `json:"billId"`
	BillNumber string          `json:"billNumber"`
	Amount     decimal.Decimal `json:"amount"`
	DueAfter   decimal.Decimal `json:"dueAfter"`
}

// AllocationResult is the outcome of spreading a payment over open bills.
type AllocationResult struct {
	Allocations []Allocation
	Unallocated decimal.Decimal
}

// AllocateFIFO applies amount to bills oldest first (bill date, then id).
// Bills without a positive due amount are skipped. The input slice is not modified.
func AllocateFIFO(amount decimal.Decimal, bills []Bill) AllocationResult {
	ordered := make([]Bill, 0, len(bills))
	for _, b := range bills {
		if b.DueAmount.IsPositive() {
			ordered = append(ordered, b)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].BillDate.Equal(ordered[j].BillDate) {
			return ordered[i].BillDate.Before(ordered[j].BillDate)
		}
		return ordered[i].ID < ordered[j].ID
	})

	remaining := amount
	var result AllocationResult
	for _, b := range ordered {
		if !remaining.IsPositive() {
			break
		}
		applied := decimal.Min(remaining, b.DueAmount)
		result.Allocations = append(result.Allocations, Allocation{
			BillID:     b.ID,
			BillNumber: b.BillNumber,
			Amount:     applied,
			DueAfter:   b.DueAmount.Sub(applied),
		})
		remaining = remaining.Sub(applied)
	}
	if remaining.IsPositive() {
		result.Unallocated = remaining
	}
	return result
}
