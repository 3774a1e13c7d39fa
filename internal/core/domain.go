package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Expense  TransactionType = "expense"
	Income   TransactionType = "income"
	Transfer TransactionType = "transfer"
)

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Annual  Frequency = "annual"
)

const (
	ChargeActive    ChargeStatus = "active"
	ChargePaused    ChargeStatus = "paused"
	ChargeCancelled ChargeStatus = "cancelled"
)

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalPaused    GoalStatus = "paused"
	GoalCancelled GoalStatus = "cancelled"
)

const (
	PurchasePlanned   PurchaseStatus = "planned"
	PurchaseBought    PurchaseStatus = "purchased"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

type (
	TransactionType string
	Frequency       string
	ChargeStatus    string
	GoalStatus      string
	PurchaseStatus  string

	User struct {
		ID              int64
		Username        string
		Email           string
		DisplayName     string
		PasswordHash    string
		RequirePassword bool
		IsActive        bool
		CreatedAt       time.Time
	}

	Account struct {
		ID          int64
		UserID      int64
		Name        string
		Type        string
		Institution string
		Balance     decimal.Decimal
		IsActive    bool
		Notes       string
		CreatedAt   time.Time
	}

	// Transaction is an immutable ledger fact once settled. Amount is a
	// positive magnitude; the sign of its balance effect is derived from Type.
	Transaction struct {
		ID             int64
		UserID         int64
		AccountID      int64
		Date           time.Time
		Amount         decimal.Decimal
		Type           TransactionType
		Merchant       string
		Category       string
		Description    string
		Notes          string
		ToAccountID    int64  // transfers only
		TransferPairID string // shared UUID linking both legs of a transfer
		Status         string
		CreatedAt      time.Time
	}

	// CategoryRule maps a normalized merchant key to a category, either
	// entered manually or learned from an accepted AI categorization.
	CategoryRule struct {
		ID          int64
		UserID      int64
		MerchantKey string
		Category    string
		Confidence  float64
		Source      string // "manual" or "ai"
		UseCount    int64
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Budget struct {
		ID             int64
		UserID         int64
		Category       string
		MonthlyLimit   decimal.Decimal
		AlertThreshold float64
		CreatedAt      time.Time
	}

	// RecurringCharge is a detected or manually entered periodic charge
	// pattern with a predicted next occurrence.
	RecurringCharge struct {
		ID              int64
		UserID          int64
		Merchant        string
		MerchantKey     string
		Category        string
		TypicalAmount   decimal.Decimal
		Frequency       Frequency
		DayOfPeriod     int // weekday 0-6 for weekly, day of month 1-31 otherwise
		FirstSeen       time.Time
		LastSeen        time.Time
		NextExpected    time.Time
		OccurrenceCount int
		Confidence      float64
		Status          ChargeStatus
		Notes           string
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	SavingsGoal struct {
		ID            int64
		UserID        int64
		Name          string
		Description   string
		TargetAmount  decimal.Decimal
		CurrentAmount decimal.Decimal
		Deadline      time.Time // zero when open-ended
		Category      string
		Priority      int // 1 (low) to 10 (high)
		Status        GoalStatus
		Notes         string
		CreatedAt     time.Time
	}

	PlannedPurchase struct {
		ID            int64
		UserID        int64
		Name          string
		Description   string
		EstimatedCost decimal.Decimal
		Priority      int // 1 (critical) to 5 (want)
		Category      string
		Deadline      time.Time
		URL           string
		Status        PurchaseStatus
		Notes         string
		CreatedAt     time.Time
	}

	Tag struct {
		ID        int64
		UserID    int64
		Name      string
		CreatedAt time.Time
	}
)

var accountTypes = map[string]bool{
	"checking":    true,
	"savings":     true,
	"credit_card": true,
	"investment":  true,
}

// AccountTypes lists the valid account types in display order.
func AccountTypes() []string {
	return []string{"checking", "savings", "credit_card", "investment"}
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !accountTypes[a.Type] {
		return ErrInvalidAccountType
	}
	return nil
}

func (t TransactionType) Valid() bool {
	switch t {
	case Expense, Income, Transfer:
		return true
	}
	return false
}

func (f Frequency) Valid() bool {
	switch f {
	case Weekly, Monthly, Annual:
		return true
	}
	return false
}

func (s ChargeStatus) Valid() bool {
	switch s {
	case ChargeActive, ChargePaused, ChargeCancelled:
		return true
	}
	return false
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.AccountID == 0 {
		return ErrNoAccount
	}
	return nil
}

// SignedAmount returns the balance effect of the transaction on its owning
// account: negative for expenses and outgoing transfer legs, positive for
// income.
func (t Transaction) SignedAmount() decimal.Decimal {
	switch t.Type {
	case Income:
		return t.Amount
	case Transfer:
		if t.ToAccountID != 0 {
			return t.Amount.Neg() // outgoing leg
		}
		return t.Amount
	default:
		return t.Amount.Neg()
	}
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if !b.MonthlyLimit.IsPositive() {
		return ErrInvalidAmount
	}
	if b.AlertThreshold <= 0 || b.AlertThreshold > 1 {
		return ErrInvalidThreshold
	}
	return nil
}

func (rc RecurringCharge) Validate() error {
	if strings.TrimSpace(rc.Merchant) == "" {
		return ErrEmptyName
	}
	if !rc.TypicalAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if !rc.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if !g.TargetAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if g.Priority < 1 || g.Priority > 10 {
		return ErrInvalidPriority
	}
	return nil
}

func (p PlannedPurchase) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if !p.EstimatedCost.IsPositive() {
		return ErrInvalidAmount
	}
	if p.Priority < 1 || p.Priority > 5 {
		return ErrInvalidPriority
	}
	return nil
}
