package ar

import (
	"errors"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

var (
	// ErrBillNotFound is returned when a bill id does not resolve.
	ErrBillNotFound = shared.NotFound("bill")
	// ErrPaymentNotFound is returned when a payment id does not resolve.
	ErrPaymentNotFound = shared.NotFound("payment")
)

var errProductMissing = errors.New("product missing")
