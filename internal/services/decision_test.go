package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/danielgermany/penny-cli/internal/ai"
	"github.com/danielgermany/penny-cli/internal/core"
)

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"can I afford $80 dinner?", "80"},
		{"can I afford a $1250.50 laptop", "1250.50"},
		{"is 40 dollars for a game ok", "40"},
		{"thinking about 15.99 USD", "15.99"},
		{"should I buy this", "0"},
	}
	for _, tt := range tests {
		got := ExtractAmount(tt.text)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ExtractAmount(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestLocalVerdict(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		available string
		want      ai.Verdict
	}{
		{"small share", "50", "1000", ai.VerdictYes},
		{"exactly a tenth", "100", "1000", ai.VerdictYes},
		{"sizable share", "300", "1000", ai.VerdictMaybe},
		{"most of the funds", "800", "1000", ai.VerdictNo},
		{"exceeds available", "1200", "1000", ai.VerdictNo},
		{"nothing available", "10", "0", ai.VerdictNo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := localVerdict(
				decimal.RequireFromString(tt.amount),
				decimal.RequireFromString(tt.available))
			if got.Verdict != tt.want {
				t.Errorf("localVerdict(%s, %s) = %v, want %v",
					tt.amount, tt.available, got.Verdict, tt.want)
			}
		})
	}
}

type stubAdviser struct {
	advice *ai.Advice
	err    error
}

func (s stubAdviser) Advise(context.Context, string, string) (*ai.Advice, error) {
	return s.advice, s.err
}

func TestCanAfford_AdviserDownDegrades(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo)
	accountID := newTestAccount(t, repo, userID, "checking")
	ctx := context.Background()

	if err := repo.SetBalance(ctx, accountID, decimal.RequireFromString("2000.00")); err != nil {
		t.Fatalf("SetBalance() error = %v", err)
	}

	svc := NewDecisionService(repo, NewBudgetService(repo),
		stubAdviser{err: errors.New("dial tcp: connection refused")}, 7)

	got, err := svc.CanAfford(ctx, userID, "can I afford $80 dinner?")
	if err != nil {
		t.Fatalf("CanAfford() error = %v", err)
	}
	if !got.Degraded {
		t.Error("Degraded = false, want true when the adviser fails")
	}
	if got.Advice.Verdict != ai.VerdictYes {
		t.Errorf("Verdict = %v, want %v for 80 of 2000", got.Advice.Verdict, ai.VerdictYes)
	}
	if !strings.Contains(got.Context, "Total balance: 2000.00") {
		t.Errorf("Context missing total balance:\n%s", got.Context)
	}
}

func TestCanAfford_NoAmount(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo)

	svc := NewDecisionService(repo, NewBudgetService(repo), stubAdviser{}, 7)
	_, err := svc.CanAfford(context.Background(), userID, "should I buy it?")
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("CanAfford() error = %v, want %v", err, core.ErrInvalidAmount)
	}
}

func TestCanAfford_AdviserVerdictWins(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo)
	newTestAccount(t, repo, userID, "checking")
	ctx := context.Background()

	svc := NewDecisionService(repo, NewBudgetService(repo),
		stubAdviser{advice: &ai.Advice{Verdict: ai.VerdictNo, Reasoning: "rent is due"}}, 7)

	got, err := svc.CanAfford(ctx, userID, "can I afford $10 lunch?")
	if err != nil {
		t.Fatalf("CanAfford() error = %v", err)
	}
	if got.Degraded {
		t.Error("Degraded = true, want false when the adviser answered")
	}
	if got.Advice.Verdict != ai.VerdictNo {
		t.Errorf("Verdict = %v, want the adviser's %v", got.Advice.Verdict, ai.VerdictNo)
	}
}
