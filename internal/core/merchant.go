package core

import (
	"strings"
	"unicode"
)

// MerchantKey normalizes merchant text into the grouping key used by category
// rules and recurring-charge detection: case-folded, punctuation stripped,
// whitespace runs collapsed to single spaces.
//
// "Netflix.com", "NETFLIX COM" and " netflix,com " all map to "netflix com".
func MerchantKey(merchant string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(strings.TrimSpace(merchant)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace:
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}
