// Package core holds the domain entities shared by storage, services and the
// CLI, plus the money and merchant-key helpers they all rely on.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user input into a positive decimal amount.
//
// It accepts an optional leading currency sign ("$12.50"), a decimal comma
// ("12,50") and thousands grouping ("1,234.56"). Anything non-numeric, zero
// or negative is rejected with ErrInvalidAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := ParseSignedAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseSignedAmount is ParseAmount without the positivity requirement: zero
// and negative values pass through. Account balances need the full range; a
// credit card sits below zero.
func ParseSignedAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if rest, ok := strings.CutPrefix(s, "$"); ok {
		s = rest
		// "$-250" puts the sign after the currency symbol
		if !neg && strings.HasPrefix(s, "-") {
			neg = true
			s = strings.TrimPrefix(s, "-")
		}
	}
	s = normalizeSeparators(s)
	if s == "" || strings.ContainsAny(s, "+-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// normalizeSeparators rewrites the input to use "." as the decimal separator.
// A comma only acts as the decimal separator when it is the sole comma and at
// most two digits follow it; any other comma is thousands grouping and is
// stripped.
func normalizeSeparators(s string) string {
	switch {
	case !strings.Contains(s, ","):
		return s
	case strings.Contains(s, "."):
		return strings.ReplaceAll(s, ",", "")
	default:
		i := strings.LastIndex(s, ",")
		if strings.Count(s, ",") == 1 && len(s)-i-1 <= 2 {
			return s[:i] + "." + s[i+1:]
		}
		return strings.ReplaceAll(s, ",", "")
	}
}

// FormatAmount renders an amount with two decimal places for display.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
