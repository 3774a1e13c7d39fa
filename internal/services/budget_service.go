package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielgermany/penny-cli/internal/core"
	"github.com/danielgermany/penny-cli/internal/storage"
)

// BudgetState classifies spending against a monthly limit.
type BudgetState string

const (
	BudgetUnder       BudgetState = "under"
	BudgetApproaching BudgetState = "approaching"
	BudgetOver        BudgetState = "over"
)

const (
	approachingPct = 80
	overPct        = 100

	// defaultAlertThreshold is the fraction of the limit at which a budget
	// alerts when no explicit threshold was set.
	defaultAlertThreshold = 0.8
)

// BudgetStatus is one category's position for a calendar month. All figures
// are computed locally from the ledger.
type BudgetStatus struct {
	Category  string
	Limit     decimal.Decimal
	Spent     decimal.Decimal
	Remaining decimal.Decimal
	Percent   float64
	State     BudgetState
	// Alert fires when Percent crosses the budget's own threshold.
	Alert bool
}

type BudgetService struct {
	storage *storage.SQLiteRepository
}

func NewBudgetService(storage *storage.SQLiteRepository) *BudgetService {
	return &BudgetService{storage: storage}
}

// Set creates or replaces the monthly limit for a category.
func (s *BudgetService) Set(ctx context.Context, b core.Budget) error {
	if b.AlertThreshold == 0 {
		b.AlertThreshold = defaultAlertThreshold
	}
	if err := b.Validate(); err != nil {
		return err
	}

	existing, err := s.storage.GetBudgetByCategory(ctx, b.UserID, b.Category)
	switch {
	case err == nil:
		b.ID = existing.ID
		return s.storage.UpdateBudget(ctx, b)
	case errors.Is(err, core.ErrNotFound):
		_, err := s.storage.CreateBudget(ctx, b)
		return err
	default:
		return fmt.Errorf("look up budget: %w", err)
	}
}

func (s *BudgetService) List(ctx context.Context, userID int64) ([]core.Budget, error) {
	return s.storage.ListBudgets(ctx, userID)
}

func (s *BudgetService) Delete(ctx context.Context, userID int64, category string) error {
	return s.storage.DeleteBudget(ctx, userID, category)
}

// Status reports every budgeted category's position for the given month.
func (s *BudgetService) Status(ctx context.Context, userID int64, year int, month time.Month) ([]BudgetStatus, error) {
	budgets, err := s.storage.ListBudgets(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		spent, err := s.storage.SumByCategory(ctx, userID, b.Category, year, month)
		if err != nil {
			return nil, err
		}
		out = append(out, statusOf(b, spent))
	}
	return out, nil
}

// StatusFor reports a single category's position for the given month.
func (s *BudgetService) StatusFor(ctx context.Context, userID int64, category string, year int, month time.Month) (*BudgetStatus, error) {
	b, err := s.storage.GetBudgetByCategory(ctx, userID, category)
	if err != nil {
		return nil, err
	}
	spent, err := s.storage.SumByCategory(ctx, userID, category, year, month)
	if err != nil {
		return nil, err
	}
	st := statusOf(*b, spent)
	return &st, nil
}

func statusOf(b core.Budget, spent decimal.Decimal) BudgetStatus {
	var pct float64
	if b.MonthlyLimit.Sign() > 0 {
		pct, _ = spent.Div(b.MonthlyLimit).Mul(decimal.NewFromInt(100)).Float64()
	}
	return BudgetStatus{
		Category:  b.Category,
		Limit:     b.MonthlyLimit,
		Spent:     spent,
		Remaining: b.MonthlyLimit.Sub(spent),
		Percent:   pct,
		State:     classifySpend(pct),
		Alert:     pct >= b.AlertThreshold*100,
	}
}

func classifySpend(pct float64) BudgetState {
	switch {
	case pct >= overPct:
		return BudgetOver
	case pct >= approachingPct:
		return BudgetApproaching
	default:
		return BudgetUnder
	}
}
