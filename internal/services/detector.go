package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielgermany/penny-cli/internal/core"
)

// DetectorOptions tune recurring-charge pattern detection.
type DetectorOptions struct {
	// MinOccurrences is the minimum number of distinct-day charges a
	// merchant needs before it can be called periodic.
	MinOccurrences int
	// AmountSwing is the relative amount variation tolerated before the
	// confidence penalty kicks in. Bills legitimately fluctuate, so high
	// swing penalizes but never rejects.
	AmountSwing float64
}

func (o DetectorOptions) withDefaults() DetectorOptions {
	if o.MinOccurrences < 2 {
		o.MinOccurrences = 2
	}
	if o.AmountSwing <= 0 {
		o.AmountSwing = 0.5
	}
	return o
}

// Frequency tolerance bands in days. A median inter-occurrence gap outside
// every band means no stable periodicity.
const (
	weeklyGap  = 7
	monthlyGap = 30
	annualGap  = 365

	weeklyTol  = 2
	monthlyTol = 5
	annualTol  = 15
)

// Confidence weights: gap consistency dominates because periodicity is the
// claim being made; amount consistency and observation count refine it.
// The source material leaves the exact weights open, so they are fixed here
// and exercised by the property tests.
const (
	gapWeight    = 0.5
	amountWeight = 0.3
	countWeight  = 0.2
)

// DetectCandidates scans one user's transaction history for periodic charge
// patterns. Input order does not matter; expenses are grouped by
// (merchant key, category), filtered by the occurrence threshold, and each
// surviving group is classified against the frequency bands.
func DetectCandidates(txs []core.Transaction, opts DetectorOptions) []core.RecurringCharge {
	opts = opts.withDefaults()

	type groupKey struct {
		merchantKey string
		category    string
	}
	groups := make(map[groupKey][]core.Transaction)
	for _, tx := range txs {
		if tx.Type != core.Expense || tx.Merchant == "" {
			continue
		}
		key := groupKey{core.MerchantKey(tx.Merchant), tx.Category}
		if key.merchantKey == "" {
			continue
		}
		groups[key] = append(groups[key], tx)
	}

	var out []core.RecurringCharge
	for key, group := range groups {
		candidate := analyzeGroup(group, opts)
		if candidate == nil {
			continue
		}
		candidate.MerchantKey = key.merchantKey
		candidate.Category = key.category
		out = append(out, *candidate)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].MerchantKey < out[j].MerchantKey
	})
	return out
}

func analyzeGroup(group []core.Transaction, opts DetectorOptions) *core.RecurringCharge {
	sort.Slice(group, func(i, j int) bool { return group[i].Date.Before(group[j].Date) })

	// Duplicate entries on the same day are one occurrence, not evidence of
	// a zero-day period.
	deduped := group[:0:0]
	for _, tx := range group {
		if len(deduped) > 0 && sameDay(deduped[len(deduped)-1].Date, tx.Date) {
			continue
		}
		deduped = append(deduped, tx)
	}

	if len(deduped) < opts.MinOccurrences {
		return nil
	}

	gaps := make([]int, 0, len(deduped)-1)
	for i := 1; i < len(deduped); i++ {
		gaps = append(gaps, daysBetween(deduped[i-1].Date, deduped[i].Date))
	}

	median := medianInt(gaps)
	frequency, ok := classifyGap(median)
	if !ok {
		return nil
	}

	amounts := make([]decimal.Decimal, len(deduped))
	for i, tx := range deduped {
		amounts[i] = tx.Amount
	}

	confidence := clamp01(
		gapWeight*gapConsistency(gaps, median) +
			amountWeight*amountConsistency(amounts, opts.AmountSwing) +
			countWeight*countScore(len(deduped)))

	last := deduped[len(deduped)-1]
	dayOfPeriod := typicalDay(deduped, frequency)

	return &core.RecurringCharge{
		Merchant:        last.Merchant,
		TypicalAmount:   meanAmount(amounts),
		Frequency:       frequency,
		DayOfPeriod:     dayOfPeriod,
		FirstSeen:       deduped[0].Date,
		LastSeen:        last.Date,
		NextExpected:    nextExpected(last.Date, median, frequency, dayOfPeriod),
		OccurrenceCount: len(deduped),
		Confidence:      confidence,
		Status:          core.ChargeActive,
	}
}

func classifyGap(median int) (core.Frequency, bool) {
	switch {
	case median >= weeklyGap-weeklyTol && median <= weeklyGap+weeklyTol:
		return core.Weekly, true
	case median >= monthlyGap-monthlyTol && median <= monthlyGap+monthlyTol:
		return core.Monthly, true
	case median >= annualGap-annualTol && median <= annualGap+annualTol:
		return core.Annual, true
	}
	return "", false
}

// gapConsistency scores how tightly the gaps cluster around the median:
// 1.0 for a perfectly regular series, falling toward 0 as the mean absolute
// deviation approaches the median itself.
func gapConsistency(gaps []int, median int) float64 {
	if median == 0 || len(gaps) == 0 {
		return 0
	}
	var dev float64
	for _, g := range gaps {
		d := float64(g - median)
		if d < 0 {
			d = -d
		}
		dev += d
	}
	dev /= float64(len(gaps))
	return 1 - minFloat(1, dev/float64(median))
}

// amountConsistency scores charge-amount stability. Swings beyond the
// configured tolerance are penalized proportionally but a volatile utility
// bill still scores above zero until deviation reaches the mean itself.
func amountConsistency(amounts []decimal.Decimal, swing float64) float64 {
	mean := meanAmount(amounts)
	if mean.IsZero() {
		return 0
	}
	var dev decimal.Decimal
	for _, a := range amounts {
		dev = dev.Add(a.Sub(mean).Abs())
	}
	rel, _ := dev.Div(decimal.NewFromInt(int64(len(amounts)))).Div(mean).Float64()
	score := 1 - minFloat(1, rel)
	if rel > swing {
		score *= 0.5
	}
	return score
}

func countScore(n int) float64 {
	return minFloat(1, float64(n)/5)
}

// typicalDay is the mode of the historical day-of-week (weekly) or
// day-of-month (monthly, annual).
func typicalDay(txs []core.Transaction, freq core.Frequency) int {
	counts := make(map[int]int)
	for _, tx := range txs {
		var day int
		if freq == core.Weekly {
			day = int(tx.Date.Weekday())
		} else {
			day = tx.Date.Day()
		}
		counts[day]++
	}
	best, bestCount := 0, -1
	for day, count := range counts {
		if count > bestCount || (count == bestCount && day < best) {
			best, bestCount = day, count
		}
	}
	return best
}

// nextExpected predicts the next occurrence: last date plus the median gap,
// snapped to the historical typical day of the period.
func nextExpected(last time.Time, medianGap int, freq core.Frequency, dayOfPeriod int) time.Time {
	next := last.AddDate(0, 0, medianGap)

	switch freq {
	case core.Weekly:
		// Shift by at most three days to land on the typical weekday.
		diff := (dayOfPeriod - int(next.Weekday()) + 7) % 7
		if diff > 3 {
			diff -= 7
		}
		next = next.AddDate(0, 0, diff)
	case core.Monthly, core.Annual:
		day := dayOfPeriod
		if last := lastDayOfMonth(next); day > last {
			day = last
		}
		next = time.Date(next.Year(), next.Month(), day, 0, 0, 0, 0, next.Location())
	}

	if !next.After(last) {
		next = next.AddDate(0, 0, medianGap)
	}
	return next
}

func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

func medianInt(xs []int) int {
	sorted := append([]int(nil), xs...)
	sort.Ints(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func meanAmount(amounts []decimal.Decimal) decimal.Decimal {
	if len(amounts) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total.Div(decimal.NewFromInt(int64(len(amounts)))).Round(2)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
