// Package ai talks to the language-model API for transaction categorization
// and affordability advice, and carries the deterministic fallback parser used
// whenever the model is unreachable or returns garbage.
package ai

import (
	"time"

	"github.com/shopspring/decimal"
)

// ParseStatus tags the outcome of a classification attempt. Failures are
// ordinary values, not errors: callers dispatch on the status and fall back
// explicitly.
type ParseStatus int

const (
	// Matched means the model produced a usable structured answer.
	Matched ParseStatus = iota
	// Unparseable means the model answered but the payload could not be
	// decoded into the expected shape.
	Unparseable
	// Unavailable means the call itself failed (network, auth, timeout).
	Unavailable
)

func (s ParseStatus) String() string {
	switch s {
	case Matched:
		return "matched"
	case Unparseable:
		return "unparseable"
	default:
		return "unavailable"
	}
}

// ParsedTransaction is the structured reading of a free-text description.
type ParsedTransaction struct {
	Merchant   string
	Amount     decimal.Decimal
	Category   string
	Date       time.Time // zero unless the text names one
	Confidence float64
}

// ParseResult is the tagged result of ParseTransaction. Tx is only
// meaningful when Status == Matched; Reason carries the diagnostic for the
// other two states.
type ParseResult struct {
	Status ParseStatus
	Tx     ParsedTransaction
	Reason string
}

// Verdict is a qualitative affordability judgment.
type Verdict string

const (
	VerdictYes   Verdict = "YES"
	VerdictMaybe Verdict = "MAYBE"
	VerdictNo    Verdict = "NO"
)

// Advice is the advice collaborator's answer: a verdict plus its reasoning
// text, verbatim.
type Advice struct {
	Verdict   Verdict
	Reasoning string
}
