package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielgermany/penny-cli/internal/core"
	"github.com/danielgermany/penny-cli/internal/storage"
)

// GoalService manages savings goals. Contributions and withdrawals are
// applied atomically in storage; a goal auto-completes when it reaches its
// target.
type GoalService struct {
	storage *storage.SQLiteRepository
}

func NewGoalService(storage *storage.SQLiteRepository) *GoalService {
	return &GoalService{storage: storage}
}

// GoalProgress is the derived view of a goal shown by status commands.
type GoalProgress struct {
	Goal    core.SavingsGoal
	Percent float64
	// Remaining is target minus current, never negative.
	Remaining decimal.Decimal
	// MonthlyRequired is the saving pace needed to hit the deadline; zero
	// when the goal is open-ended or already reached.
	MonthlyRequired decimal.Decimal
}

func (s *GoalService) Create(ctx context.Context, g core.SavingsGoal) (int64, error) {
	if g.Priority == 0 {
		g.Priority = 5
	}
	if g.Status == "" {
		g.Status = core.GoalActive
	}
	if err := g.Validate(); err != nil {
		return 0, err
	}
	if _, err := s.storage.GetSavingsGoalByName(ctx, g.UserID, g.Name); err == nil {
		return 0, fmt.Errorf("goal %q: %w", g.Name, core.ErrDuplicate)
	}
	return s.storage.CreateSavingsGoal(ctx, g)
}

func (s *GoalService) GetByName(ctx context.Context, userID int64, name string) (*core.SavingsGoal, error) {
	return s.storage.GetSavingsGoalByName(ctx, userID, name)
}

func (s *GoalService) List(ctx context.Context, userID int64, status core.GoalStatus) ([]core.SavingsGoal, error) {
	return s.storage.ListSavingsGoals(ctx, userID, status)
}

// Contribute adds money toward a goal.
func (s *GoalService) Contribute(ctx context.Context, userID int64, name string, amount decimal.Decimal) (*core.SavingsGoal, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("contribution %s: %w", amount, core.ErrInvalidAmount)
	}
	goal, err := s.storage.GetSavingsGoalByName(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("goal %q: %w", name, err)
	}
	return s.storage.AdjustGoalAmount(ctx, goal.ID, amount)
}

// Withdraw takes money back out. Storage refuses a withdrawal that would
// push the saved amount below zero.
func (s *GoalService) Withdraw(ctx context.Context, userID int64, name string, amount decimal.Decimal) (*core.SavingsGoal, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("withdrawal %s: %w", amount, core.ErrInvalidAmount)
	}
	goal, err := s.storage.GetSavingsGoalByName(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("goal %q: %w", name, err)
	}
	return s.storage.AdjustGoalAmount(ctx, goal.ID, amount.Neg())
}

func (s *GoalService) SetStatus(ctx context.Context, userID int64, name string, status core.GoalStatus) error {
	goal, err := s.storage.GetSavingsGoalByName(ctx, userID, name)
	if err != nil {
		return fmt.Errorf("goal %q: %w", name, err)
	}
	return s.storage.UpdateGoalStatus(ctx, goal.ID, status)
}

func (s *GoalService) Delete(ctx context.Context, userID int64, name string) error {
	goal, err := s.storage.GetSavingsGoalByName(ctx, userID, name)
	if err != nil {
		return fmt.Errorf("goal %q: %w", name, err)
	}
	return s.storage.DeleteSavingsGoal(ctx, goal.ID)
}

// Progress derives the status view for one goal as of now.
func (s *GoalService) Progress(ctx context.Context, userID int64, name string) (*GoalProgress, error) {
	goal, err := s.storage.GetSavingsGoalByName(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("goal %q: %w", name, err)
	}
	p := progressOf(*goal, time.Now())
	return &p, nil
}

func progressOf(g core.SavingsGoal, now time.Time) GoalProgress {
	p := GoalProgress{Goal: g, Remaining: g.TargetAmount.Sub(g.CurrentAmount)}
	if p.Remaining.Sign() < 0 {
		p.Remaining = decimal.Zero
	}
	if g.TargetAmount.Sign() > 0 {
		p.Percent, _ = g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).Float64()
	}
	if !g.Deadline.IsZero() && g.Deadline.After(now) && p.Remaining.Sign() > 0 {
		months := monthsUntil(now, g.Deadline)
		p.MonthlyRequired = p.Remaining.Div(decimal.NewFromInt(int64(months))).Round(2)
	}
	return p
}

// monthsUntil counts the calendar months from now to the deadline, at
// least one so a deadline this month still yields a finite pace.
func monthsUntil(now, deadline time.Time) int {
	months := (deadline.Year()-now.Year())*12 + int(deadline.Month()) - int(now.Month())
	if months < 1 {
		months = 1
	}
	return months
}
