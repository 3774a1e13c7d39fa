package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielgermany/penny-cli/internal/core"
)

func newRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "penny.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func seedUser(t *testing.T, repo *SQLiteRepository) int64 {
	t.Helper()
	id, err := repo.CreateUser(context.Background(), core.User{Username: "dana", IsActive: true})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return id
}

func seedAccount(t *testing.T, repo *SQLiteRepository, userID int64, name, balance string) int64 {
	t.Helper()
	id, err := repo.CreateAccount(context.Background(), core.Account{
		UserID:  userID,
		Name:    name,
		Type:    "checking",
		Balance: decimal.RequireFromString(balance),
	})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	return id
}

func balance(t *testing.T, repo *SQLiteRepository, accountID int64) decimal.Decimal {
	t.Helper()
	a, err := repo.GetAccount(context.Background(), accountID)
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	return a.Balance
}

func TestMigrationsAreIdempotent(t *testing.T) {
	_, path := newRepo(t)
	// Opening ran the full sequence once; a second full run must be a no-op.
	if err := RunMigrations(path); err != nil {
		t.Fatalf("RunMigrations() second run error = %v", err)
	}
}

func TestCreateTransactionAdjustsBalance(t *testing.T) {
	repo, _ := newRepo(t)
	userID := seedUser(t, repo)
	accountID := seedAccount(t, repo, userID, "checking", "1000.00")
	ctx := context.Background()

	_, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID:    userID,
		AccountID: accountID,
		Date:      time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Amount:    decimal.RequireFromString("59.99"),
		Type:      core.Expense,
		Merchant:  "Hardware Store",
		Category:  "Home - Maintenance",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if got := balance(t, repo, accountID); !got.Equal(decimal.RequireFromString("940.01")) {
		t.Errorf("balance = %v, want 940.01", got)
	}

	_, err = repo.CreateTransaction(ctx, core.Transaction{
		UserID:    userID,
		AccountID: accountID,
		Date:      time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
		Amount:    decimal.RequireFromString("2500.00"),
		Type:      core.Income,
		Merchant:  "Employer",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() income error = %v", err)
	}
	if got := balance(t, repo, accountID); !got.Equal(decimal.RequireFromString("3440.01")) {
		t.Errorf("balance = %v, want 3440.01", got)
	}
}

func TestUpdateTransactionAdjustsByDifference(t *testing.T) {
	repo, _ := newRepo(t)
	userID := seedUser(t, repo)
	accountID := seedAccount(t, repo, userID, "checking", "500.00")
	ctx := context.Background()

	id, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID:    userID,
		AccountID: accountID,
		Date:      time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Amount:    decimal.RequireFromString("100.00"),
		Type:      core.Expense,
		Merchant:  "Restaurant",
		Category:  "Food - Restaurants",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	updated, err := repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	updated.Amount = decimal.RequireFromString("130.00")
	if err := repo.UpdateTransaction(ctx, *updated); err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}

	// 500 - 100, then a further -30 for the difference.
	if got := balance(t, repo, accountID); !got.Equal(decimal.RequireFromString("370.00")) {
		t.Errorf("balance = %v, want 370.00", got)
	}
}

func TestDeleteTransactionReversesEffect(t *testing.T) {
	repo, _ := newRepo(t)
	userID := seedUser(t, repo)
	accountID := seedAccount(t, repo, userID, "checking", "500.00")
	ctx := context.Background()

	id, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID:    userID,
		AccountID: accountID,
		Date:      time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Amount:    decimal.RequireFromString("75.25"),
		Type:      core.Expense,
		Merchant:  "Cinema",
		Category:  "Entertainment - Events",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if err := repo.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}

	if got := balance(t, repo, accountID); !got.Equal(decimal.RequireFromString("500.00")) {
		t.Errorf("balance = %v, want the original 500.00", got)
	}
	if _, err := repo.GetTransaction(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetTransaction() after delete error = %v, want %v", err, core.ErrNotFound)
	}
}

func TestTransferLegsNetToZero(t *testing.T) {
	repo, _ := newRepo(t)
	userID := seedUser(t, repo)
	fromID := seedAccount(t, repo, userID, "checking", "1000.00")
	toID := seedAccount(t, repo, userID, "savings", "200.00")
	ctx := context.Background()

	outID, inID, err := repo.CreateTransfer(ctx, userID, fromID, toID,
		decimal.RequireFromString("300.00"), time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC), "monthly savings")
	if err != nil {
		t.Fatalf("CreateTransfer() error = %v", err)
	}

	if got := balance(t, repo, fromID); !got.Equal(decimal.RequireFromString("700.00")) {
		t.Errorf("source balance = %v, want 700.00", got)
	}
	if got := balance(t, repo, toID); !got.Equal(decimal.RequireFromString("500.00")) {
		t.Errorf("destination balance = %v, want 500.00", got)
	}

	out, err := repo.GetTransaction(ctx, outID)
	if err != nil {
		t.Fatalf("GetTransaction(out) error = %v", err)
	}
	in, err := repo.GetTransaction(ctx, inID)
	if err != nil {
		t.Fatalf("GetTransaction(in) error = %v", err)
	}
	if out.TransferPairID == "" || out.TransferPairID != in.TransferPairID {
		t.Errorf("pair ids %q and %q, want matching non-empty ids", out.TransferPairID, in.TransferPairID)
	}
	if sum := out.SignedAmount().Add(in.SignedAmount()); !sum.IsZero() {
		t.Errorf("signed amounts sum to %v, want 0", sum)
	}
}

func TestDeleteTransferRemovesBothLegs(t *testing.T) {
	repo, _ := newRepo(t)
	userID := seedUser(t, repo)
	fromID := seedAccount(t, repo, userID, "checking", "1000.00")
	toID := seedAccount(t, repo, userID, "savings", "0.00")
	ctx := context.Background()

	outID, inID, err := repo.CreateTransfer(ctx, userID, fromID, toID,
		decimal.RequireFromString("250.00"), time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), "")
	if err != nil {
		t.Fatalf("CreateTransfer() error = %v", err)
	}

	if err := repo.DeleteTransaction(ctx, inID); err != nil {
		t.Fatalf("DeleteTransaction(in leg) error = %v", err)
	}

	if _, err := repo.GetTransaction(ctx, outID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("out leg still present, err = %v", err)
	}
	if got := balance(t, repo, fromID); !got.Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("source balance = %v, want restored 1000.00", got)
	}
	if got := balance(t, repo, toID); !got.IsZero() {
		t.Errorf("destination balance = %v, want restored 0", got)
	}
}

func TestUpdateTransactionRefusesTransferLegs(t *testing.T) {
	repo, _ := newRepo(t)
	userID := seedUser(t, repo)
	fromID := seedAccount(t, repo, userID, "checking", "100.00")
	toID := seedAccount(t, repo, userID, "savings", "0.00")
	ctx := context.Background()

	outID, _, err := repo.CreateTransfer(ctx, userID, fromID, toID,
		decimal.RequireFromString("10.00"), time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC), "")
	if err != nil {
		t.Fatalf("CreateTransfer() error = %v", err)
	}

	leg, err := repo.GetTransaction(ctx, outID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	leg.Amount = decimal.RequireFromString("20.00")
	if err := repo.UpdateTransaction(ctx, *leg); !errors.Is(err, core.ErrInvalidType) {
		t.Errorf("UpdateTransaction(transfer leg) error = %v, want %v", err, core.ErrInvalidType)
	}
}

func TestAdjustGoalAmount(t *testing.T) {
	repo, _ := newRepo(t)
	userID := seedUser(t, repo)
	ctx := context.Background()

	goalID, err := repo.CreateSavingsGoal(ctx, core.SavingsGoal{
		UserID:       userID,
		Name:         "emergency fund",
		TargetAmount: decimal.RequireFromString("1000.00"),
		Priority:     8,
		Status:       core.GoalActive,
	})
	if err != nil {
		t.Fatalf("CreateSavingsGoal() error = %v", err)
	}

	if _, err := repo.AdjustGoalAmount(ctx, goalID, decimal.RequireFromString("400.00")); err != nil {
		t.Fatalf("AdjustGoalAmount() error = %v", err)
	}

	// Withdrawing more than is saved must fail and change nothing.
	if _, err := repo.AdjustGoalAmount(ctx, goalID, decimal.RequireFromString("-500.00")); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("AdjustGoalAmount() overdraw error = %v, want %v", err, core.ErrInvalidAmount)
	}
	g, err := repo.GetSavingsGoal(ctx, goalID)
	if err != nil {
		t.Fatalf("GetSavingsGoal() error = %v", err)
	}
	if !g.CurrentAmount.Equal(decimal.RequireFromString("400.00")) {
		t.Errorf("CurrentAmount = %v, want 400.00 after refused overdraw", g.CurrentAmount)
	}

	// Reaching the target completes the goal.
	g, err = repo.AdjustGoalAmount(ctx, goalID, decimal.RequireFromString("600.00"))
	if err != nil {
		t.Fatalf("AdjustGoalAmount() error = %v", err)
	}
	if g.Status != core.GoalCompleted {
		t.Errorf("Status = %v, want %v at target", g.Status, core.GoalCompleted)
	}
}

func TestUpsertRecurringChargeRefreshesInPlace(t *testing.T) {
	repo, _ := newRepo(t)
	userID := seedUser(t, repo)
	ctx := context.Background()

	rc := core.RecurringCharge{
		UserID:          userID,
		Merchant:        "Netflix",
		MerchantKey:     "netflix",
		Category:        "Entertainment - Streaming",
		TypicalAmount:   decimal.RequireFromString("15.99"),
		Frequency:       core.Monthly,
		DayOfPeriod:     15,
		OccurrenceCount: 3,
		Confidence:      0.92,
		Status:          core.ChargeActive,
	}
	id1, err := repo.UpsertRecurringCharge(ctx, rc)
	if err != nil {
		t.Fatalf("UpsertRecurringCharge() error = %v", err)
	}

	// A paused charge keeps its status across detection reruns.
	if err := repo.UpdateRecurringStatus(ctx, id1, core.ChargePaused); err != nil {
		t.Fatalf("UpdateRecurringStatus() error = %v", err)
	}

	rc.OccurrenceCount = 4
	rc.Confidence = 0.95
	id2, err := repo.UpsertRecurringCharge(ctx, rc)
	if err != nil {
		t.Fatalf("UpsertRecurringCharge() rerun error = %v", err)
	}
	if id1 != id2 {
		t.Fatalf("rerun created a new row: %d != %d", id1, id2)
	}

	got, err := repo.GetRecurringCharge(ctx, id1)
	if err != nil {
		t.Fatalf("GetRecurringCharge() error = %v", err)
	}
	if got.OccurrenceCount != 4 {
		t.Errorf("OccurrenceCount = %d, want 4", got.OccurrenceCount)
	}
	if got.Status != core.ChargePaused {
		t.Errorf("Status = %v, want %v preserved", got.Status, core.ChargePaused)
	}
}
