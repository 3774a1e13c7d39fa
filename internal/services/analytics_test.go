package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielgermany/penny-cli/internal/core"
)

func expense(amount int64, date time.Time, merchant, category string) core.Transaction {
	return core.Transaction{
		Type:     core.Expense,
		Amount:   decimal.NewFromInt(amount),
		Date:     date,
		Merchant: merchant,
		Category: category,
	}
}

func TestAnalyzeCategory(t *testing.T) {
	now := time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC)
	day := func(m time.Month, d int) time.Time {
		return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC)
	}
	txs := []core.Transaction{
		expense(10, day(time.May, 5), "steam", "Entertainment"),
		expense(20, day(time.June, 9), "steam", "Entertainment"),
		expense(30, day(time.July, 14), "steam", "Entertainment"),
		expense(40, day(time.August, 2), "gog", "Entertainment"),
		// outside the window, must be ignored
		expense(999, day(time.January, 1), "steam", "Entertainment"),
	}

	a := analyzeCategory(txs, "Entertainment", 4, now)

	if !a.Total.Equal(decimal.NewFromInt(100)) || a.Count != 4 {
		t.Fatalf("Total = %s, Count = %d, want 100 and 4", a.Total, a.Count)
	}
	if !a.Average.Equal(decimal.NewFromInt(25)) {
		t.Errorf("Average = %s, want 25", a.Average)
	}
	if !a.Min.Equal(decimal.NewFromInt(10)) || !a.Max.Equal(decimal.NewFromInt(40)) {
		t.Errorf("Min/Max = %s/%s, want 10/40", a.Min, a.Max)
	}

	if len(a.Monthly) != 4 {
		t.Fatalf("len(Monthly) = %d, want 4", len(a.Monthly))
	}
	if a.Monthly[0].Month != time.May || !a.Monthly[0].Total.Equal(decimal.NewFromInt(10)) {
		t.Errorf("first bucket = %v %s, want May 10", a.Monthly[0].Month, a.Monthly[0].Total)
	}
	if a.Monthly[3].Month != time.August || a.Monthly[3].Count != 1 {
		t.Errorf("last bucket = %v count %d, want August count 1", a.Monthly[3].Month, a.Monthly[3].Count)
	}

	// earlier half averages 15, later half 35
	if a.Trend != "increasing" || !a.TrendChange.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Trend = %s (%s), want increasing (20)", a.Trend, a.TrendChange)
	}

	if len(a.TopMerchants) != 2 || a.TopMerchants[0].Merchant != "steam" {
		t.Fatalf("TopMerchants = %v, want steam first", a.TopMerchants)
	}
}

func TestAnalyzeCategory_QuietMonthsStayZero(t *testing.T) {
	now := time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC)
	a := analyzeCategory(nil, "Food", 3, now)
	if a.Count != 0 || len(a.Monthly) != 3 {
		t.Fatalf("Count = %d, len(Monthly) = %d, want 0 and 3", a.Count, len(a.Monthly))
	}
	for _, m := range a.Monthly {
		if m.Total.Sign() != 0 {
			t.Errorf("bucket %d-%02d total = %s, want 0", m.Year, m.Month, m.Total)
		}
	}
	if a.Trend != "stable" {
		t.Errorf("Trend = %s, want stable", a.Trend)
	}
}

func TestTrendWeeks(t *testing.T) {
	now := time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)
	day := func(d int) time.Time {
		return time.Date(2026, time.August, d, 0, 0, 0, 0, time.UTC)
	}
	txs := []core.Transaction{
		expense(300, day(29), "rei", "Shopping"),
		expense(60, day(28), "grocer", "Groceries"),
		expense(40, day(20), "grocer", "Groceries"),
	}

	tr := trendWeeks(txs, 2, now)

	if len(tr.Weekly) != 2 {
		t.Fatalf("len(Weekly) = %d, want 2", len(tr.Weekly))
	}
	latest := tr.Weekly[1]
	if !latest.Total.Equal(decimal.NewFromInt(360)) || latest.Count != 2 {
		t.Errorf("latest week = %s over %d, want 360 over 2", latest.Total, latest.Count)
	}
	if !tr.Weekly[0].Total.Equal(decimal.NewFromInt(40)) {
		t.Errorf("earlier week = %s, want 40", tr.Weekly[0].Total)
	}
	if !tr.AvgWeekly.Equal(decimal.NewFromInt(200)) {
		t.Errorf("AvgWeekly = %s, want 200", tr.AvgWeekly)
	}
	// 360 > 200 * 1.2, 40 is not
	if !latest.Unusual || tr.Weekly[0].Unusual {
		t.Errorf("Unusual flags = %v/%v, want latest only", tr.Weekly[0].Unusual, latest.Unusual)
	}
}

func TestCategoryShares(t *testing.T) {
	now := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		expense(75, now, "grocer", "Groceries"),
		expense(25, now, "kiosk", ""),
		{Type: core.Income, Amount: decimal.NewFromInt(500), Date: now},
	}

	shares := categoryShares(txs)
	if len(shares) != 2 {
		t.Fatalf("len(shares) = %d, want 2", len(shares))
	}
	if shares[0].Category != "Groceries" || shares[0].Percent != 75 {
		t.Errorf("shares[0] = %s %.1f%%, want Groceries 75%%", shares[0].Category, shares[0].Percent)
	}
	if shares[1].Category != "Uncategorized" || shares[1].Percent != 25 {
		t.Errorf("shares[1] = %s %.1f%%, want Uncategorized 25%%", shares[1].Category, shares[1].Percent)
	}
}

func TestAccountSummary(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo)
	ctx := context.Background()

	checkingID, err := repo.CreateAccount(ctx, core.Account{
		UserID:   userID,
		Name:     "checking",
		Type:     "checking",
		Balance:  decimal.NewFromInt(1000),
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if _, err := repo.CreateAccount(ctx, core.Account{
		UserID:   userID,
		Name:     "visa",
		Type:     "credit_card",
		Balance:  decimal.NewFromInt(-250),
		IsActive: true,
	}); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	if _, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID:    userID,
		AccountID: checkingID,
		Date:      time.Now(),
		Amount:    decimal.NewFromInt(100),
		Type:      core.Expense,
		Merchant:  "grocer",
		Category:  "Groceries",
	}); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	svc := NewReportService(repo)
	summary, err := svc.AccountSummary(ctx, userID)
	if err != nil {
		t.Fatalf("AccountSummary() error = %v", err)
	}

	// 1000 - 100 expense - 250 card debt
	if !summary.NetWorth.Equal(decimal.NewFromInt(650)) {
		t.Errorf("NetWorth = %s, want 650", summary.NetWorth)
	}
	if len(summary.Accounts) != 2 || summary.Accounts[0].Account.Name != "checking" {
		t.Fatalf("accounts = %v, want checking first", summary.Accounts)
	}
	checking := summary.Accounts[0]
	if !checking.Expenses.Equal(decimal.NewFromInt(100)) || checking.Count != 1 {
		t.Errorf("checking activity = %s over %d, want 100 over 1", checking.Expenses, checking.Count)
	}
	if !checking.Net.Equal(decimal.NewFromInt(-100)) {
		t.Errorf("checking net = %s, want -100", checking.Net)
	}
}
