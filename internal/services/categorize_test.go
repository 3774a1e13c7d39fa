package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/danielgermany/penny-cli/internal/ai"
	"github.com/danielgermany/penny-cli/internal/core"
)

// stubAssistant returns a canned result and counts calls.
type stubAssistant struct {
	result ai.ParseResult
	calls  int
}

func (s *stubAssistant) ParseTransaction(_ context.Context, _ string, _ []string) ai.ParseResult {
	s.calls++
	return s.result
}

func TestCategorize_RuleHitBypassesAssistant(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo)
	ctx := context.Background()

	err := repo.UpsertCategoryRule(ctx, core.CategoryRule{
		UserID:      userID,
		MerchantKey: "starbucks",
		Category:    "Food - Coffee",
		Confidence:  1.0,
		Source:      "manual",
	})
	if err != nil {
		t.Fatalf("UpsertCategoryRule() error = %v", err)
	}

	assistant := &stubAssistant{result: ai.ParseResult{Status: ai.Matched}}
	svc := NewCategorizationService(repo, assistant)

	got, err := svc.Categorize(ctx, userID, "Starbucks $4.50")
	if err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}
	if assistant.calls != 0 {
		t.Errorf("assistant called %d times, want 0 on a rule hit", assistant.calls)
	}
	if got.Source != SourceRule {
		t.Errorf("Source = %v, want %v", got.Source, SourceRule)
	}
	if got.Tx.Category != "Food - Coffee" {
		t.Errorf("Category = %q, want %q", got.Tx.Category, "Food - Coffee")
	}
	if got.Tx.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", got.Tx.Confidence)
	}
	if !got.Tx.Amount.Equal(decimal.RequireFromString("4.50")) {
		t.Errorf("Amount = %v, want 4.50", got.Tx.Amount)
	}

	rule, err := repo.GetCategoryRule(ctx, userID, "starbucks")
	if err != nil {
		t.Fatalf("GetCategoryRule() error = %v", err)
	}
	if rule.UseCount != 1 {
		t.Errorf("UseCount = %d, want 1 after a hit", rule.UseCount)
	}
}

func TestCategorize_FuzzyRuleMatch(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo)
	ctx := context.Background()

	err := repo.UpsertCategoryRule(ctx, core.CategoryRule{
		UserID:      userID,
		MerchantKey: "netflix com",
		Category:    "Entertainment - Streaming",
		Confidence:  1.0,
		Source:      "manual",
	})
	if err != nil {
		t.Fatalf("UpsertCategoryRule() error = %v", err)
	}

	assistant := &stubAssistant{result: ai.ParseResult{Status: ai.Unavailable}}
	svc := NewCategorizationService(repo, assistant)

	got, err := svc.Categorize(ctx, userID, "Netflix $15.99")
	if err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}
	if got.Source != SourceRule {
		t.Errorf("Source = %v, want %v via fuzzy match", got.Source, SourceRule)
	}
	if got.Tx.Category != "Entertainment - Streaming" {
		t.Errorf("Category = %q, want %q", got.Tx.Category, "Entertainment - Streaming")
	}
	if assistant.calls != 0 {
		t.Errorf("assistant called %d times, want 0", assistant.calls)
	}
}

func TestCategorize_AssistantUnavailableFallsBack(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo)

	assistant := &stubAssistant{result: ai.ParseResult{Status: ai.Unavailable, Reason: "timeout"}}
	svc := NewCategorizationService(repo, assistant)

	got, err := svc.Categorize(context.Background(), userID, "coffee $5")
	if err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}
	if assistant.calls != 1 {
		t.Errorf("assistant called %d times, want 1", assistant.calls)
	}
	if got.Source != SourceFallback {
		t.Errorf("Source = %v, want %v", got.Source, SourceFallback)
	}
	if !got.Tx.Amount.Equal(decimal.RequireFromString("5")) {
		t.Errorf("Amount = %v, want 5.00", got.Tx.Amount)
	}
	if got.Tx.Merchant != "coffee" {
		t.Errorf("Merchant = %q, want %q", got.Tx.Merchant, "coffee")
	}
	if got.Tx.Category != ai.FallbackCategory {
		t.Errorf("Category = %q, want %q", got.Tx.Category, ai.FallbackCategory)
	}
	if got.Tx.Confidence != 0.3 {
		t.Errorf("Confidence = %v, want 0.3", got.Tx.Confidence)
	}
}

func TestCategorize_AssistantMatchUsed(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo)

	assistant := &stubAssistant{result: ai.ParseResult{
		Status: ai.Matched,
		Tx: ai.ParsedTransaction{
			Merchant:   "Trader Joe's",
			Amount:     decimal.RequireFromString("62.10"),
			Category:   "Food - Groceries",
			Confidence: 0.95,
		},
	}}
	svc := NewCategorizationService(repo, assistant)

	got, err := svc.Categorize(context.Background(), userID, "groceries at trader joes $62.10")
	if err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}
	if got.Source != SourceAI {
		t.Errorf("Source = %v, want %v", got.Source, SourceAI)
	}
	if got.Tx.Category != "Food - Groceries" {
		t.Errorf("Category = %q, want %q", got.Tx.Category, "Food - Groceries")
	}
}

func TestLearn_ConfidenceFloor(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo)
	ctx := context.Background()
	svc := NewCategorizationService(repo, nil)

	if err := svc.Learn(ctx, userID, "Spotify", "Entertainment - Streaming", "ai", 0.75); err != nil {
		t.Fatalf("Learn() error = %v", err)
	}
	if _, err := repo.GetCategoryRule(ctx, userID, "spotify"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("low-confidence ai result was learned, err = %v", err)
	}

	if err := svc.Learn(ctx, userID, "Spotify", "Entertainment - Streaming", "ai", 0.9); err != nil {
		t.Fatalf("Learn() error = %v", err)
	}
	rule, err := repo.GetCategoryRule(ctx, userID, "spotify")
	if err != nil {
		t.Fatalf("GetCategoryRule() error = %v", err)
	}
	if rule.Source != "ai" || rule.Category != "Entertainment - Streaming" {
		t.Errorf("learned rule = %+v", rule)
	}
}

func TestCommonSubstring(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"netflix", "netflix com", 7},
		{"abc", "xyz", 0},
		{"", "anything", 0},
		{"amazon prime", "prime video", 5},
	}
	for _, tt := range tests {
		if got := commonSubstring(tt.a, tt.b); got != tt.want {
			t.Errorf("commonSubstring(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
