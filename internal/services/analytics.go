package services

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielgermany/penny-cli/internal/core"
	"github.com/danielgermany/penny-cli/internal/storage"
)

// ReportService computes summaries, comparisons and trend analyses from the
// ledger.
type ReportService struct {
	storage *storage.SQLiteRepository
}

func NewReportService(storage *storage.SQLiteRepository) *ReportService {
	return &ReportService{storage: storage}
}

// CategoryShare is one expense category's slice of a total.
type CategoryShare struct {
	Category string
	Amount   decimal.Decimal
	Percent  float64
}

// MerchantTotal is one merchant's expense total. Percent is the merchant's
// share of whatever total the report covers (a month, a category window).
type MerchantTotal struct {
	Merchant string
	Amount   decimal.Decimal
	Count    int
	Percent  float64
}

// MonthlySummary is the full picture of one calendar month.
type MonthlySummary struct {
	Year     int
	Month    time.Month
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Net      decimal.Decimal
	// SavingsRate is net over income as a percentage; zero when the month
	// had no income.
	SavingsRate  float64
	Categories   []CategoryShare
	TopMerchants []MerchantTotal
}

// MonthComparison pairs two summaries with their deltas.
type MonthComparison struct {
	Before        MonthlySummary
	After         MonthlySummary
	IncomeDelta   decimal.Decimal
	ExpensesDelta decimal.Decimal
	NetDelta      decimal.Decimal
}

// MonthTotal is one month's slice of a category trend.
type MonthTotal struct {
	Year  int
	Month time.Month
	Total decimal.Decimal
	Count int
}

// CategoryAnalysis is one expense category examined over several months.
type CategoryAnalysis struct {
	Category string
	Months   int
	Total    decimal.Decimal
	Count    int
	Average  decimal.Decimal
	Min      decimal.Decimal
	Max      decimal.Decimal
	Monthly  []MonthTotal
	// TopMerchants percentages are shares of Total.
	TopMerchants []MerchantTotal
	// Trend compares the later half of the window against the earlier one:
	// "increasing", "decreasing" or "stable".
	Trend       string
	TrendChange decimal.Decimal
}

// WeekSpend is one week of expense activity.
type WeekSpend struct {
	Start  time.Time
	End    time.Time
	Total  decimal.Decimal
	Count  int
	PerDay decimal.Decimal
	// Unusual marks a week that spent more than 20% above the window average.
	Unusual bool
}

// SpendingTrends is the recent weekly spending picture.
type SpendingTrends struct {
	Weeks     int
	Weekly    []WeekSpend
	AvgWeekly decimal.Decimal
}

// AccountActivity is one account with its last-30-day flow.
type AccountActivity struct {
	Account  core.Account
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Net      decimal.Decimal
	Count    int
}

// AccountSummary is every active account plus the net worth across them.
type AccountSummary struct {
	NetWorth decimal.Decimal
	Accounts []AccountActivity
}

const (
	topMerchantCount = 5
	activityWindow   = 30 // days of per-account history in AccountSummary
)

var unusualWeekFactor = decimal.NewFromFloat(1.2)

// MonthlySummary aggregates one month. Transfers move money between the
// user's own accounts and are excluded from income and expenses.
func (s *ReportService) MonthlySummary(ctx context.Context, userID int64, year int, month time.Month) (*MonthlySummary, error) {
	txs, err := s.storage.ListTransactionsByMonth(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}
	summary := summarize(txs, year, month)
	return &summary, nil
}

// Compare summarizes two months side by side.
func (s *ReportService) Compare(ctx context.Context, userID int64, beforeYear int, beforeMonth time.Month, afterYear int, afterMonth time.Month) (*MonthComparison, error) {
	before, err := s.MonthlySummary(ctx, userID, beforeYear, beforeMonth)
	if err != nil {
		return nil, err
	}
	after, err := s.MonthlySummary(ctx, userID, afterYear, afterMonth)
	if err != nil {
		return nil, err
	}
	return &MonthComparison{
		Before:        *before,
		After:         *after,
		IncomeDelta:   after.Income.Sub(before.Income),
		ExpensesDelta: after.Expenses.Sub(before.Expenses),
		NetDelta:      after.Net.Sub(before.Net),
	}, nil
}

// CategoryAnalysis examines one category's spending over the given number of
// calendar months ending in the current one.
func (s *ReportService) CategoryAnalysis(ctx context.Context, userID int64, category string, months int) (*CategoryAnalysis, error) {
	if months < 1 {
		months = 6
	}
	now := time.Now()
	start := monthStart(now).AddDate(0, -(months - 1), 0)
	txs, err := s.storage.ListTransactions(ctx, userID, storage.TxFilter{
		Category:  category,
		Type:      core.Expense,
		StartDate: start,
		EndDate:   now,
	})
	if err != nil {
		return nil, err
	}
	a := analyzeCategory(txs, category, months, now)
	return &a, nil
}

// SpendingTrends buckets recent expenses into trailing weeks ending today.
func (s *ReportService) SpendingTrends(ctx context.Context, userID int64, weeks int) (*SpendingTrends, error) {
	if weeks < 1 {
		weeks = 4
	}
	now := time.Now()
	txs, err := s.storage.ListTransactions(ctx, userID, storage.TxFilter{
		Type:      core.Expense,
		StartDate: dateOnly(now).AddDate(0, 0, -(7*weeks - 1)),
		EndDate:   now,
	})
	if err != nil {
		return nil, err
	}
	t := trendWeeks(txs, weeks, now)
	return &t, nil
}

// AccountSummary reports every active account's balance and last-30-day
// activity, plus the net worth across them.
func (s *ReportService) AccountSummary(ctx context.Context, userID int64) (*AccountSummary, error) {
	accounts, err := s.storage.ListAccounts(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	start := now.AddDate(0, 0, -activityWindow)
	out := &AccountSummary{}
	for _, acc := range accounts {
		txs, err := s.storage.ListTransactions(ctx, userID, storage.TxFilter{
			AccountID: acc.ID,
			StartDate: start,
			EndDate:   now,
		})
		if err != nil {
			return nil, err
		}
		act := AccountActivity{Account: acc, Count: len(txs)}
		for _, t := range txs {
			switch t.Type {
			case core.Income:
				act.Income = act.Income.Add(t.Amount)
			case core.Expense:
				act.Expenses = act.Expenses.Add(t.Amount)
			}
		}
		act.Net = act.Income.Sub(act.Expenses)
		out.NetWorth = out.NetWorth.Add(acc.Balance)
		out.Accounts = append(out.Accounts, act)
	}
	sort.Slice(out.Accounts, func(i, j int) bool {
		return out.Accounts[i].Account.Balance.GreaterThan(out.Accounts[j].Account.Balance)
	})
	return out, nil
}

// TopCategories ranks expense categories over the trailing number of days.
func (s *ReportService) TopCategories(ctx context.Context, userID int64, limit, days int) ([]CategoryShare, error) {
	if limit < 1 {
		limit = 10
	}
	if days < 1 {
		days = activityWindow
	}
	now := time.Now()
	txs, err := s.storage.ListTransactions(ctx, userID, storage.TxFilter{
		Type:      core.Expense,
		StartDate: now.AddDate(0, 0, -days),
		EndDate:   now,
	})
	if err != nil {
		return nil, err
	}
	shares := categoryShares(txs)
	if len(shares) > limit {
		shares = shares[:limit]
	}
	return shares, nil
}

func summarize(txs []core.Transaction, year int, month time.Month) MonthlySummary {
	summary := MonthlySummary{Year: year, Month: month}
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			summary.Income = summary.Income.Add(t.Amount)
		case core.Expense:
			summary.Expenses = summary.Expenses.Add(t.Amount)
		}
	}
	summary.Net = summary.Income.Sub(summary.Expenses)
	if summary.Income.Sign() > 0 {
		summary.SavingsRate, _ = summary.Net.Div(summary.Income).Mul(decimal.NewFromInt(100)).Float64()
	}
	summary.Categories = categoryShares(txs)
	summary.TopMerchants = merchantTotals(txs, topMerchantCount)
	return summary
}

func analyzeCategory(txs []core.Transaction, category string, months int, now time.Time) CategoryAnalysis {
	a := CategoryAnalysis{Category: category, Months: months, Trend: "stable"}

	first := monthStart(now).AddDate(0, -(months - 1), 0)
	a.Monthly = make([]MonthTotal, months)
	for i := range a.Monthly {
		m := first.AddDate(0, i, 0)
		a.Monthly[i] = MonthTotal{Year: m.Year(), Month: m.Month()}
	}
	index := func(d time.Time) int {
		return (d.Year()-first.Year())*12 + int(d.Month()) - int(first.Month())
	}

	var inWindow []core.Transaction
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		i := index(t.Date)
		if i < 0 || i >= months {
			continue
		}
		a.Monthly[i].Total = a.Monthly[i].Total.Add(t.Amount)
		a.Monthly[i].Count++
		a.Total = a.Total.Add(t.Amount)
		if a.Count == 0 || t.Amount.LessThan(a.Min) {
			a.Min = t.Amount
		}
		if t.Amount.GreaterThan(a.Max) {
			a.Max = t.Amount
		}
		a.Count++
		inWindow = append(inWindow, t)
	}
	if a.Count > 0 {
		a.Average = a.Total.Div(decimal.NewFromInt(int64(a.Count))).Round(2)
	}

	a.TopMerchants = merchantTotals(inWindow, topMerchantCount)

	if months >= 2 {
		half := months / 2
		earlier := averageTotal(a.Monthly[:half])
		later := averageTotal(a.Monthly[half:])
		a.TrendChange = later.Sub(earlier)
		switch a.TrendChange.Sign() {
		case 1:
			a.Trend = "increasing"
		case -1:
			a.Trend = "decreasing"
		}
	}
	return a
}

func trendWeeks(txs []core.Transaction, weeks int, now time.Time) SpendingTrends {
	end := dateOnly(now)
	tr := SpendingTrends{Weeks: weeks, Weekly: make([]WeekSpend, weeks)}
	for i := range tr.Weekly {
		weekEnd := end.AddDate(0, 0, -7*(weeks-1-i))
		tr.Weekly[i] = WeekSpend{Start: weekEnd.AddDate(0, 0, -6), End: weekEnd}
	}

	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		back := daysBetween(t.Date, end)
		if back < 0 || back >= 7*weeks {
			continue
		}
		i := weeks - 1 - back/7
		tr.Weekly[i].Total = tr.Weekly[i].Total.Add(t.Amount)
		tr.Weekly[i].Count++
	}

	var sum decimal.Decimal
	for i := range tr.Weekly {
		tr.Weekly[i].PerDay = tr.Weekly[i].Total.Div(decimal.NewFromInt(7)).Round(2)
		sum = sum.Add(tr.Weekly[i].Total)
	}
	tr.AvgWeekly = sum.Div(decimal.NewFromInt(int64(weeks))).Round(2)
	if tr.AvgWeekly.Sign() > 0 {
		threshold := tr.AvgWeekly.Mul(unusualWeekFactor)
		for i := range tr.Weekly {
			tr.Weekly[i].Unusual = tr.Weekly[i].Total.GreaterThan(threshold)
		}
	}
	return tr
}

// categoryShares aggregates the expense rows by category, with each share's
// percentage of the expense total, sorted largest first.
func categoryShares(txs []core.Transaction) []CategoryShare {
	byCategory := make(map[string]decimal.Decimal)
	var total decimal.Decimal
	for _, t := range txs {
		if t.Type != core.Expense {
			continue
		}
		category := t.Category
		if category == "" {
			category = "Uncategorized"
		}
		byCategory[category] = byCategory[category].Add(t.Amount)
		total = total.Add(t.Amount)
	}

	shares := make([]CategoryShare, 0, len(byCategory))
	for category, amount := range byCategory {
		share := CategoryShare{Category: category, Amount: amount}
		if total.Sign() > 0 {
			share.Percent, _ = amount.Div(total).Mul(decimal.NewFromInt(100)).Float64()
		}
		shares = append(shares, share)
	}
	sort.Slice(shares, func(i, j int) bool {
		if !shares[i].Amount.Equal(shares[j].Amount) {
			return shares[i].Amount.GreaterThan(shares[j].Amount)
		}
		return shares[i].Category < shares[j].Category
	})
	return shares
}

// merchantTotals aggregates the expense rows by merchant and keeps the top n,
// with each merchant's percentage of the expense total.
func merchantTotals(txs []core.Transaction, n int) []MerchantTotal {
	byMerchant := make(map[string]MerchantTotal)
	var total decimal.Decimal
	for _, t := range txs {
		if t.Type != core.Expense || t.Merchant == "" {
			continue
		}
		mt := byMerchant[t.Merchant]
		mt.Merchant = t.Merchant
		mt.Amount = mt.Amount.Add(t.Amount)
		mt.Count++
		byMerchant[t.Merchant] = mt
		total = total.Add(t.Amount)
	}

	totals := make([]MerchantTotal, 0, len(byMerchant))
	for _, mt := range byMerchant {
		if total.Sign() > 0 {
			mt.Percent, _ = mt.Amount.Div(total).Mul(decimal.NewFromInt(100)).Float64()
		}
		totals = append(totals, mt)
	}
	sort.Slice(totals, func(i, j int) bool {
		if !totals[i].Amount.Equal(totals[j].Amount) {
			return totals[i].Amount.GreaterThan(totals[j].Amount)
		}
		return totals[i].Merchant < totals[j].Merchant
	})
	if len(totals) > n {
		totals = totals[:n]
	}
	return totals
}

func averageTotal(months []MonthTotal) decimal.Decimal {
	if len(months) == 0 {
		return decimal.Zero
	}
	var sum decimal.Decimal
	for _, m := range months {
		sum = sum.Add(m.Total)
	}
	return sum.Div(decimal.NewFromInt(int64(len(months))))
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
