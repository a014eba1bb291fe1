package shared

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

var lower = cases.Lower(language.Und)

// NormalizeKey trims and lower-cases enum-like input.
func NormalizeKey(value string) string {
	return lower.String(strings.TrimSpace(value))
}

// RoundMoney rounds to two decimal places using banker's rounding.
func RoundMoney(v decimal.Decimal) decimal.Decimal {
	return v.RoundBank(2)
}

// MinDecimal returns the smaller of a and b.
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
