package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielgermany/penny-cli/internal/ai"
	"github.com/danielgermany/penny-cli/internal/core"
	"github.com/danielgermany/penny-cli/internal/storage"
)

// Adviser is the affordability collaborator. It sees a pre-computed numeric
// snapshot and returns only the qualitative judgment.
type Adviser interface {
	Advise(ctx context.Context, question, financialContext string) (*ai.Advice, error)
}

// Decision is the answer to "can I afford X". The numbers are always local;
// the verdict is the adviser's unless it failed, in which case Degraded is
// set and a deterministic local verdict stands in.
type Decision struct {
	Question string
	Amount   decimal.Decimal
	Context  string
	Advice   ai.Advice
	Degraded bool
}

type DecisionService struct {
	storage *storage.SQLiteRepository
	budgets *BudgetService
	adviser Adviser
	// lookahead is the recurring-charge window folded into the snapshot.
	lookahead int
}

func NewDecisionService(storage *storage.SQLiteRepository, budgets *BudgetService, adviser Adviser, lookaheadDays int) *DecisionService {
	if lookaheadDays <= 0 {
		lookaheadDays = 7
	}
	return &DecisionService{storage: storage, budgets: budgets, adviser: adviser, lookahead: lookaheadDays}
}

var (
	dollarAmountRe = regexp.MustCompile(`\$\s*([0-9]+(?:[.,][0-9]{1,2})?)`)
	wordAmountRe   = regexp.MustCompile(`(?i)([0-9]+(?:[.,][0-9]{1,2})?)\s*(?:dollars?|bucks?|usd)`)
)

// CanAfford answers an affordability question. An unreachable adviser never
// fails the command; the caller still gets the snapshot and a local verdict.
func (s *DecisionService) CanAfford(ctx context.Context, userID int64, question string) (*Decision, error) {
	amount := ExtractAmount(question)
	if amount.IsZero() {
		return nil, fmt.Errorf("no amount in question: %w", core.ErrInvalidAmount)
	}

	snapshot, available, err := s.buildContext(ctx, userID, amount)
	if err != nil {
		return nil, err
	}

	d := &Decision{Question: question, Amount: amount, Context: snapshot}

	if s.adviser != nil {
		advice, err := s.adviser.Advise(ctx, question, snapshot)
		if err == nil {
			d.Advice = *advice
			return d, nil
		}
		slog.WarnContext(ctx, "Adviser unavailable, using local verdict", "error", err)
	}

	d.Degraded = true
	d.Advice = localVerdict(amount, available)
	return d, nil
}

// ExtractAmount pulls the first monetary amount out of free text, "$80" or
// "80 dollars". Zero when the text names none.
func ExtractAmount(text string) decimal.Decimal {
	m := dollarAmountRe.FindStringSubmatch(text)
	if m == nil {
		m = wordAmountRe.FindStringSubmatch(text)
	}
	if m == nil {
		return decimal.Zero
	}
	amount, err := core.ParseAmount(m[1])
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// buildContext assembles the numeric snapshot the adviser reasons over and
// returns the liquid amount left after committed upcoming charges.
func (s *DecisionService) buildContext(ctx context.Context, userID int64, amount decimal.Decimal) (string, decimal.Decimal, error) {
	var b strings.Builder
	now := time.Now()

	accounts, err := s.storage.ListAccounts(ctx, userID, true)
	if err != nil {
		return "", decimal.Zero, err
	}
	total := decimal.Zero
	b.WriteString("Accounts:\n")
	for _, a := range accounts {
		total = total.Add(a.Balance)
		fmt.Fprintf(&b, "- %s (%s): %s\n", a.Name, a.Type, core.FormatAmount(a.Balance))
	}
	fmt.Fprintf(&b, "Total balance: %s\n", core.FormatAmount(total))

	upcoming, err := s.storage.ListUpcomingCharges(ctx, userID, now, s.lookahead)
	if err != nil {
		return "", decimal.Zero, err
	}
	committed := decimal.Zero
	if len(upcoming) > 0 {
		fmt.Fprintf(&b, "Recurring charges due within %d days:\n", s.lookahead)
		for _, rc := range upcoming {
			committed = committed.Add(rc.TypicalAmount)
			fmt.Fprintf(&b, "- %s: %s on %s\n",
				rc.Merchant, core.FormatAmount(rc.TypicalAmount), rc.NextExpected.Format("2006-01-02"))
		}
	}

	statuses, err := s.budgets.Status(ctx, userID, now.Year(), now.Month())
	if err != nil {
		return "", decimal.Zero, err
	}
	if len(statuses) > 0 {
		b.WriteString("Budgets this month:\n")
		for _, st := range statuses {
			fmt.Fprintf(&b, "- %s: spent %s of %s (%.0f%%, %s)\n",
				st.Category, core.FormatAmount(st.Spent), core.FormatAmount(st.Limit),
				st.Percent, st.State)
		}
	}

	goals, err := s.storage.ListSavingsGoals(ctx, userID, core.GoalActive)
	if err != nil {
		return "", decimal.Zero, err
	}
	if len(goals) > 0 {
		b.WriteString("Active savings goals:\n")
		for _, g := range goals {
			fmt.Fprintf(&b, "- %s: %s of %s\n",
				g.Name, core.FormatAmount(g.CurrentAmount), core.FormatAmount(g.TargetAmount))
		}
	}

	fmt.Fprintf(&b, "Purchase under consideration: %s\n", core.FormatAmount(amount))

	return b.String(), total.Sub(committed), nil
}

// localVerdict is the deterministic stand-in when the adviser is down: a
// purchase is fine below a tenth of liquid funds, questionable below half,
// and otherwise refused.
func localVerdict(amount, available decimal.Decimal) ai.Advice {
	if available.Sign() <= 0 || amount.GreaterThan(available) {
		return ai.Advice{
			Verdict:   ai.VerdictNo,
			Reasoning: "This exceeds what is left after upcoming recurring charges.",
		}
	}
	ratio, _ := amount.Div(available).Float64()
	switch {
	case ratio <= 0.1:
		return ai.Advice{
			Verdict:   ai.VerdictYes,
			Reasoning: "This is a small share of available funds after upcoming charges.",
		}
	case ratio <= 0.5:
		return ai.Advice{
			Verdict:   ai.VerdictMaybe,
			Reasoning: "Affordable, but it takes a sizable share of available funds.",
		}
	default:
		return ai.Advice{
			Verdict:   ai.VerdictNo,
			Reasoning: "This would consume most of the funds left after upcoming charges.",
		}
	}
}
