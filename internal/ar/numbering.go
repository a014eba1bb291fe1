package ar

import (
	"fmt"
	"time"
)

const (
	billSequence      = "bill"
	billNumberOffset  = 1000
	paymentSeqPrefix  = "payment:"
	paymentDateLayout = "060102"
)

// FormatBillNumber renders the n-th bill number. The first bill is BILL-1001.
func FormatBillNumber(n int64) string {
	return fmt.Sprintf("BILL-%d", billNumberOffset+n)
}

// PaymentSequence names the daily payment counter for day.
func PaymentSequence(day time.Time) string {
	return paymentSeqPrefix + day.Format(paymentDateLayout)
}

// FormatPaymentNumber renders the n-th payment of day, e.g. PAY2410150001.
func FormatPaymentNumber(day time.Time, n int64) string {
	return fmt.Sprintf("PAY%s%04d", day.Format(paymentDateLayout), n)
}
