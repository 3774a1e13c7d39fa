package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielgermany/penny-cli/internal/core"
)

func TestClassifySpend(t *testing.T) {
	tests := []struct {
		pct  float64
		want BudgetState
	}{
		{0, BudgetUnder},
		{79, BudgetUnder},
		{79.9, BudgetUnder},
		{80, BudgetApproaching},
		{99.9, BudgetApproaching},
		{100, BudgetOver},
		{150, BudgetOver},
	}
	for _, tt := range tests {
		if got := classifySpend(tt.pct); got != tt.want {
			t.Errorf("classifySpend(%v) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}

func TestBudgetStatus(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo)
	accountID := newTestAccount(t, repo, userID, "checking")
	ctx := context.Background()

	svc := NewBudgetService(repo)
	err := svc.Set(ctx, core.Budget{
		UserID:       userID,
		Category:     "Food - Groceries",
		MonthlyLimit: decimal.RequireFromString("400.00"),
	})
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	march := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	for _, amount := range []string{"150.00", "170.00"} {
		_, err := repo.CreateTransaction(ctx, core.Transaction{
			UserID:    userID,
			AccountID: accountID,
			Date:      march,
			Amount:    decimal.RequireFromString(amount),
			Type:      core.Expense,
			Merchant:  "Grocer",
			Category:  "Food - Groceries",
		})
		if err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	got, err := svc.StatusFor(ctx, userID, "Food - Groceries", 2026, time.March)
	if err != nil {
		t.Fatalf("StatusFor() error = %v", err)
	}
	if !got.Spent.Equal(decimal.RequireFromString("320.00")) {
		t.Errorf("Spent = %v, want 320.00", got.Spent)
	}
	if !got.Remaining.Equal(decimal.RequireFromString("80.00")) {
		t.Errorf("Remaining = %v, want 80.00", got.Remaining)
	}
	if got.State != BudgetApproaching {
		t.Errorf("State = %v, want %v at 80%%", got.State, BudgetApproaching)
	}
	if !got.Alert {
		t.Error("Alert = false, want true at the default threshold")
	}

	// Spending in another month does not count.
	other, err := svc.StatusFor(ctx, userID, "Food - Groceries", 2026, time.April)
	if err != nil {
		t.Fatalf("StatusFor() error = %v", err)
	}
	if !other.Spent.IsZero() {
		t.Errorf("April Spent = %v, want 0", other.Spent)
	}
	if other.State != BudgetUnder {
		t.Errorf("April State = %v, want %v", other.State, BudgetUnder)
	}
}

func TestBudgetSetUpdatesExisting(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo)
	ctx := context.Background()
	svc := NewBudgetService(repo)

	base := core.Budget{
		UserID:       userID,
		Category:     "Transport - Fuel",
		MonthlyLimit: decimal.RequireFromString("200.00"),
	}
	if err := svc.Set(ctx, base); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	base.MonthlyLimit = decimal.RequireFromString("250.00")
	if err := svc.Set(ctx, base); err != nil {
		t.Fatalf("Set() update error = %v", err)
	}

	budgets, err := svc.List(ctx, userID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(budgets) != 1 {
		t.Fatalf("List() returned %d budgets, want 1", len(budgets))
	}
	if !budgets[0].MonthlyLimit.Equal(decimal.RequireFromString("250.00")) {
		t.Errorf("MonthlyLimit = %v, want 250.00", budgets[0].MonthlyLimit)
	}
}
