// Package core holds the ledger domain: movements, validation rules and the
// pure aggregation functions the reporting layer is built on.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user or cell text into a non-negative fixed-precision
// amount. It accepts both dot (12.34) and comma (12,34) decimal separators.
// Sign is carried by the movement kind, never by the amount, so any leading
// sign is rejected.
//
// Examples:
//
//	ParseAmount("1000")   -> 1000.00
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("-5")     -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "empty"}
	}
	v = strings.ReplaceAll(v, ",", ".")
	if strings.HasPrefix(v, "+") || strings.HasPrefix(v, "-") {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "must not carry a sign"}
	}
	for _, r := range v {
		if !unicode.IsDigit(r) && r != '.' {
			return decimal.Zero, &ValidationError{Field: "amount", Reason: "not a number"}
		}
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "not a number"}
	}
	return d.Round(2), nil
}

// FormatAmount renders an amount with exactly two decimal places, the
// canonical wire representation for the Monto column.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Signed returns the amount with the sign implied by the movement kind.
func (m Movement) Signed() decimal.Decimal {
	if m.Kind == Expense {
		return m.Amount.Neg()
	}
	return m.Amount
}
