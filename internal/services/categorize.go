package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielgermany/penny-cli/internal/ai"
	"github.com/danielgermany/penny-cli/internal/core"
	"github.com/danielgermany/penny-cli/internal/storage"
)

// Assistant is the external classifier. ParseTransaction reports failure
// through the result's status, never through an error, so the pipeline can
// dispatch on outcome explicitly.
type Assistant interface {
	ParseTransaction(ctx context.Context, description string, categories []string) ai.ParseResult
}

// CategorySource records which stage of the pipeline produced a category.
type CategorySource string

const (
	SourceRule     CategorySource = "rule"
	SourceAI       CategorySource = "ai"
	SourceFallback CategorySource = "fallback"
)

// Categorized is the outcome of running free text through the pipeline.
type Categorized struct {
	Tx     ai.ParsedTransaction
	Source CategorySource
	// RuleID is set when Source is SourceRule.
	RuleID int64
}

// CategorizationService resolves a free-text transaction description into a
// structured transaction. Stored rules win over the assistant; the assistant
// wins over the heuristic parser; the heuristic parser never fails.
type CategorizationService struct {
	storage   *storage.SQLiteRepository
	assistant Assistant
}

func NewCategorizationService(storage *storage.SQLiteRepository, assistant Assistant) *CategorizationService {
	return &CategorizationService{storage: storage, assistant: assistant}
}

// minimum share of the shorter merchant key a common substring must cover
// for a fuzzy rule match.
const fuzzyRuleThreshold = 0.6

// Categorize runs the rule-first pipeline. A rule hit skips the assistant
// entirely and bumps the rule's usage counter.
func (s *CategorizationService) Categorize(ctx context.Context, userID int64, text string) (Categorized, error) {
	guess := ai.FallbackParse(text)

	if rule, err := s.matchRule(ctx, userID, core.MerchantKey(guess.Merchant)); err != nil {
		return Categorized{}, err
	} else if rule != nil {
		if err := s.storage.BumpRuleUsage(ctx, rule.ID); err != nil {
			return Categorized{}, fmt.Errorf("bump rule usage: %w", err)
		}
		guess.Category = rule.Category
		guess.Confidence = 1.0
		slog.DebugContext(ctx, "Category rule hit",
			"merchant_key", rule.MerchantKey, "category", rule.Category)
		return Categorized{Tx: guess, Source: SourceRule, RuleID: rule.ID}, nil
	}

	if s.assistant != nil {
		result := s.assistant.ParseTransaction(ctx, text, ai.DefaultTaxonomy)
		if result.Status == ai.Matched {
			return Categorized{Tx: result.Tx, Source: SourceAI}, nil
		}
		slog.WarnContext(ctx, "Assistant parse failed, using heuristic parser",
			"status", result.Status.String(), "reason", result.Reason)
	}

	guess.Category = ai.FallbackCategory
	return Categorized{Tx: guess, Source: SourceFallback}, nil
}

// Learn persists an accepted categorization as a rule so future charges from
// the same merchant never reach the assistant. Assistant answers are only
// learned above the confidence floor; manual entries are always learned.
func (s *CategorizationService) Learn(ctx context.Context, userID int64, merchant, category, source string, confidence float64) error {
	key := core.MerchantKey(merchant)
	if key == "" || category == "" {
		return nil
	}
	if source == "ai" && confidence < 0.8 {
		return nil
	}
	err := s.storage.UpsertCategoryRule(ctx, core.CategoryRule{
		UserID:      userID,
		MerchantKey: key,
		Category:    category,
		Confidence:  confidence,
		Source:      source,
	})
	if err != nil {
		return fmt.Errorf("learn category rule: %w", err)
	}
	return nil
}

// matchRule finds a stored rule for the merchant key: exact first, then the
// fuzzy pass over all of the user's rules. Returns nil with no error when
// nothing matches.
func (s *CategorizationService) matchRule(ctx context.Context, userID int64, key string) (*core.CategoryRule, error) {
	if key == "" {
		return nil, nil
	}

	rule, err := s.storage.GetCategoryRule(ctx, userID, key)
	if err == nil {
		return rule, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("look up category rule: %w", err)
	}

	rules, err := s.storage.ListCategoryRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list category rules: %w", err)
	}

	// Rules arrive ordered by use count, so the first acceptable fuzzy
	// match is also the most used one.
	for i, r := range rules {
		shorter := len(key)
		if len(r.MerchantKey) < shorter {
			shorter = len(r.MerchantKey)
		}
		if shorter == 0 {
			continue
		}
		if float64(commonSubstring(key, r.MerchantKey)) >= fuzzyRuleThreshold*float64(shorter) {
			return &rules[i], nil
		}
	}
	return nil, nil
}

// commonSubstring is the length of the longest common substring of a and b.
func commonSubstring(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	best := 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > best {
					best = cur[j]
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return best
}
