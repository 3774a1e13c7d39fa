package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielgermany/penny-cli/internal/core"
)

func TestGoalService_ContributeAutoCompletes(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo)
	svc := NewGoalService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, core.SavingsGoal{
		UserID:       userID,
		Name:         "emergency fund",
		TargetAmount: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	goal, err := svc.Contribute(ctx, userID, "emergency fund", decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("Contribute() error = %v", err)
	}
	if goal.Status != core.GoalCompleted {
		t.Errorf("status after full contribution = %s, want %s", goal.Status, core.GoalCompleted)
	}
	if !goal.CurrentAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("current amount = %s, want 100", goal.CurrentAmount)
	}
}

func TestGoalService_RejectsNonPositiveAmounts(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo)
	svc := NewGoalService(repo)
	ctx := context.Background()

	if _, err := svc.Create(ctx, core.SavingsGoal{
		UserID:       userID,
		Name:         "vacation",
		TargetAmount: decimal.NewFromInt(500),
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.Contribute(ctx, userID, "vacation", decimal.Zero); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("Contribute(0) error = %v, want ErrInvalidAmount", err)
	}
	if _, err := svc.Withdraw(ctx, userID, "vacation", decimal.NewFromInt(-5)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("Withdraw(-5) error = %v, want ErrInvalidAmount", err)
	}
}

func TestGoalService_DuplicateNameRefused(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo)
	svc := NewGoalService(repo)
	ctx := context.Background()

	g := core.SavingsGoal{UserID: userID, Name: "car", TargetAmount: decimal.NewFromInt(9000)}
	if _, err := svc.Create(ctx, g); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(ctx, g); !errors.Is(err, core.ErrDuplicate) {
		t.Errorf("second Create() error = %v, want ErrDuplicate", err)
	}
}

func TestGoalService_SetStatus(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo)
	svc := NewGoalService(repo)
	ctx := context.Background()

	if _, err := svc.Create(ctx, core.SavingsGoal{
		UserID:       userID,
		Name:         "house",
		TargetAmount: decimal.NewFromInt(50000),
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.SetStatus(ctx, userID, "house", core.GoalPaused); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	paused, err := svc.List(ctx, userID, core.GoalPaused)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(paused) != 1 || paused[0].Name != "house" {
		t.Errorf("paused goals = %v, want [house]", paused)
	}
}

func TestProgressOf(t *testing.T) {
	now := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		goal        core.SavingsGoal
		wantPercent float64
		wantRemain  decimal.Decimal
		wantMonthly decimal.Decimal
	}{
		{
			name: "six months out",
			goal: core.SavingsGoal{
				TargetAmount: decimal.NewFromInt(1200),
				Deadline:     time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC),
			},
			wantPercent: 0,
			wantRemain:  decimal.NewFromInt(1200),
			wantMonthly: decimal.NewFromInt(200),
		},
		{
			name: "halfway there",
			goal: core.SavingsGoal{
				TargetAmount:  decimal.NewFromInt(1000),
				CurrentAmount: decimal.NewFromInt(500),
			},
			wantPercent: 50,
			wantRemain:  decimal.NewFromInt(500),
			wantMonthly: decimal.Zero,
		},
		{
			name: "overshoot clamps remaining",
			goal: core.SavingsGoal{
				TargetAmount:  decimal.NewFromInt(100),
				CurrentAmount: decimal.NewFromInt(120),
			},
			wantPercent: 120,
			wantRemain:  decimal.Zero,
			wantMonthly: decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := progressOf(tt.goal, now)
			if p.Percent != tt.wantPercent {
				t.Errorf("Percent = %v, want %v", p.Percent, tt.wantPercent)
			}
			if !p.Remaining.Equal(tt.wantRemain) {
				t.Errorf("Remaining = %s, want %s", p.Remaining, tt.wantRemain)
			}
			if !p.MonthlyRequired.Equal(tt.wantMonthly) {
				t.Errorf("MonthlyRequired = %s, want %s", p.MonthlyRequired, tt.wantMonthly)
			}
		})
	}
}
