package ai

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// FallbackCategory is assigned when nothing better is known.
const FallbackCategory = "Other - Miscellaneous"

var (
	dollarAmountRe = regexp.MustCompile(`\$(\d+(?:\.\d+)?)`)
	bareAmountRe   = regexp.MustCompile(`\d+(?:\.\d+)?`)
	decimalRe      = regexp.MustCompile(`\d+\.\d+`)
)

// FallbackParse is the deterministic heuristic parser used when the model is
// unavailable or unparseable. It never fails: worst case it returns a
// zero-amount "Unknown" transaction with low confidence, but it always
// returns something usable.
func FallbackParse(description string) ParsedTransaction {
	amount := decimal.Zero
	matched := ""

	// $-prefixed amounts win; otherwise take any decimal number, and as a
	// last resort any bare integer.
	if m := dollarAmountRe.FindStringSubmatch(description); m != nil {
		matched = m[0]
		amount, _ = decimal.NewFromString(m[1])
	} else if m := decimalRe.FindString(description); m != "" {
		matched = m
		amount, _ = decimal.NewFromString(m)
	} else if m := bareAmountRe.FindString(description); m != "" {
		matched = m
		amount, _ = decimal.NewFromString(m)
	}

	merchant := strings.TrimSpace(strings.Replace(description, matched, "", 1))
	merchant = strings.Trim(merchant, " -,:")
	if merchant == "" {
		merchant = "Unknown"
	}

	return ParsedTransaction{
		Merchant:   merchant,
		Amount:     amount,
		Category:   FallbackCategory,
		Confidence: 0.3,
	}
}
