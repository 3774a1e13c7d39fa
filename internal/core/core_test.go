package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "12.34", "12.34", false},
		{"dollar sign", "$5", "5", false},
		{"comma separator", "12,34", "12.34", false},
		{"thousands grouping", "1,234.56", "1234.56", false},
		{"thousands without decimals", "$1,234", "1234", false},
		{"grouped millions", "1,234,567.89", "1234567.89", false},
		{"whitespace", "  7.50 ", "7.5", false},
		{"rounds third decimal", "12.345", "12.35", false},
		{"zero", "0", "", true},
		{"negative", "-5", "", true},
		{"explicit plus", "+5", "", true},
		{"empty", "", "", true},
		{"garbage", "abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("ParseAmount(%q) error = %v, want ErrInvalidAmount", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tt.input, err)
			}
			if want, _ := decimal.NewFromString(tt.want); !got.Equal(want) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestParseSignedAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"negative", "-250", "-250", false},
		{"negative with currency sign", "-$99.99", "-99.99", false},
		{"sign after currency", "$-10", "-10", false},
		{"zero", "0", "0", false},
		{"negative with grouping", "-1,250.50", "-1250.50", false},
		{"positive unchanged", "$12.34", "12.34", false},
		{"explicit plus", "+5", "", true},
		{"double minus", "--5", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSignedAmount(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("ParseSignedAmount(%q) error = %v, want ErrInvalidAmount", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSignedAmount(%q) unexpected error: %v", tt.input, err)
			}
			if want, _ := decimal.NewFromString(tt.want); !got.Equal(want) {
				t.Errorf("ParseSignedAmount(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestMerchantKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Netflix.com", "netflix com"},
		{"NETFLIX COM", "netflix com"},
		{" netflix,com ", "netflix com"},
		{"Whole Foods  Market #123", "whole foods market 123"},
		{"", ""},
		{"---", ""},
	}

	for _, tt := range tests {
		if got := MerchantKey(tt.input); got != tt.want {
			t.Errorf("MerchantKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		AccountID: 1,
		Date:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:    decimal.NewFromInt(5),
		Type:      Expense,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrInvalidDate},
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-1) }, ErrInvalidAmount},
		{"bad type", func(tx *Transaction) { tx.Type = "refund" }, ErrInvalidType},
		{"no account", func(tx *Transaction) { tx.AccountID = 0 }, ErrNoAccount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			if err := tx.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSignedAmount(t *testing.T) {
	amt := decimal.NewFromFloat(12.50)

	expense := Transaction{Type: Expense, Amount: amt}
	if !expense.SignedAmount().Equal(amt.Neg()) {
		t.Errorf("expense signed amount = %s, want %s", expense.SignedAmount(), amt.Neg())
	}

	income := Transaction{Type: Income, Amount: amt}
	if !income.SignedAmount().Equal(amt) {
		t.Errorf("income signed amount = %s, want %s", income.SignedAmount(), amt)
	}

	out := Transaction{Type: Transfer, Amount: amt, ToAccountID: 2}
	in := Transaction{Type: Transfer, Amount: amt}
	if !out.SignedAmount().Add(in.SignedAmount()).IsZero() {
		t.Error("transfer legs should net to zero")
	}
}

func TestBudgetValidate(t *testing.T) {
	b := Budget{Category: "Food", MonthlyLimit: decimal.NewFromInt(400), AlertThreshold: 0.9}
	if err := b.Validate(); err != nil {
		t.Fatalf("valid budget rejected: %v", err)
	}

	b.AlertThreshold = 1.5
	if err := b.Validate(); !errors.Is(err, ErrInvalidThreshold) {
		t.Errorf("threshold over 1 accepted: %v", err)
	}
}
