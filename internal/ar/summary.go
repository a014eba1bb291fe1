package ar

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Summary periods.
const (
	PeriodToday    = "today"
	PeriodWeekly   = "weekly"
	PeriodMonthly  = "monthly"
	PeriodCategory = "category"
)

var summaryPeriods = []string{PeriodToday, PeriodWeekly, PeriodMonthly, PeriodCategory}

// SummaryBucket aggregates bills for one day or category.
type SummaryBucket struct {
	Key        string          `json:"key"`
	Count      int             `json:"count"`
	Total      decimal.Decimal `json:"total"`
	PaidAmount decimal.Decimal `json:"paidAmount"`
	DueAmount  decimal.Decimal `json:"dueAmount"`
}

func (b *SummaryBucket) add(total, paid, due decimal.Decimal) {
	b.Count++
	b.Total = b.Total.Add(total)
	b.PaidAmount = b.PaidAmount.Add(paid)
	b.DueAmount = b.DueAmount.Add(due)
}

// Summary is a bill rollup over a window.
type Summary struct {
	Period  string          `json:"period"`
	From    time.Time       `json:"from"`
	To      time.Time       `json:"to"`
	Totals  SummaryBucket   `json:"totals"`
	Buckets []SummaryBucket `json:"buckets"`
}

// Summary aggregates bills for period. from and to only apply to the category period.
func (s *Service) Summary(ctx context.Context, period string, from, to *time.Time) (Summary, error) {
	period = shared.NormalizeKey(period)
	start, end, ok := summaryWindow(period, s.now().In(s.loc))
	if !ok {
		return Summary{}, shared.NewValidationError("invalid summary period", map[string]any{"options": summaryPeriods})
	}
	if period == PeriodCategory {
		if from != nil {
			start = *from
		}
		if to != nil {
			end = to.AddDate(0, 0, 1)
		}
		if !end.After(start) {
			return Summary{}, shared.Validationf("from must not be after to")
		}
	}
	bills, err := s.repo.ListBillsBetween(ctx, start, end)
	if err != nil {
		return Summary{}, err
	}

	out := Summary{Period: period, From: start, To: end, Totals: SummaryBucket{Key: "total"}}
	for _, b := range bills {
		out.Totals.add(b.Total, b.PaidAmount, b.DueAmount)
	}
	if period == PeriodCategory {
		out.Buckets = byCategory(bills)
	} else {
		out.Buckets = byDay(bills, start, end, s.loc)
	}
	return out, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// summaryWindow returns the half-open [from, to) range for period.
func summaryWindow(period string, now time.Time) (time.Time, time.Time, bool) {
	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	switch period {
	case PeriodToday:
		return today, tomorrow, true
	case PeriodWeekly:
		return today.AddDate(0, 0, -6), tomorrow, true
	case PeriodMonthly, PeriodCategory:
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()), tomorrow, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

func byDay(bills []Bill, from, to time.Time, loc *time.Location) []SummaryBucket {
	var buckets []SummaryBucket
	index := map[string]int{}
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		index[key] = len(buckets)
		buckets = append(buckets, SummaryBucket{Key: key})
	}
	for _, b := range bills {
		i, ok := index[b.BillDate.In(loc).Format(time.DateOnly)]
		if !ok {
			continue
		}
		buckets[i].add(b.Total, b.PaidAmount, b.DueAmount)
	}
	return buckets
}

// byCategory spreads each bill's paid and due amounts over its lines pro rata.
func byCategory(bills []Bill) []SummaryBucket {
	buckets := map[string]*SummaryBucket{}
	for _, b := range bills {
		for _, it := range b.Items {
			category := it.Category
			if category == "" {
				category = "uncategorized"
			}
			paid := decimal.Zero
			if b.Total.IsPositive() {
				paid = shared.RoundMoney(it.Total.Mul(b.PaidAmount).Div(b.Total))
			}
			bucket, ok := buckets[category]
			if !ok {
				bucket = &SummaryBucket{Key: category}
				buckets[category] = bucket
			}
			bucket.add(it.Total, paid, it.Total.Sub(paid))
		}
	}
	out := make([]SummaryBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Key < out[j].Key
	})
	return out
}
