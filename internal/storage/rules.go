package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/danielgermany/penny-cli/internal/core"
)

const ruleColumns = `id, user_id, merchant_key, category, confidence, source,
	use_count, created_at, updated_at`

// UpsertCategoryRule inserts a merchant→category rule or replaces the
// category and confidence of an existing one (same user + merchant key).
func (r *SQLiteRepository) UpsertCategoryRule(ctx context.Context, rule core.CategoryRule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO category_rules (user_id, merchant_key, category, confidence, source)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, merchant_key)
		DO UPDATE SET category = excluded.category,
		              confidence = excluded.confidence,
		              source = excluded.source,
		              updated_at = CURRENT_TIMESTAMP`,
		rule.UserID, rule.MerchantKey, rule.Category, rule.Confidence, rule.Source)
	if err != nil {
		return fmt.Errorf("upsert category rule: %w", err)
	}

	slog.DebugContext(ctx, "Category rule stored",
		"merchant_key", rule.MerchantKey,
		"category", rule.Category,
		"source", rule.Source)
	return nil
}

func (r *SQLiteRepository) GetCategoryRule(ctx context.Context, userID int64, merchantKey string) (*core.CategoryRule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM category_rules WHERE user_id = ? AND merchant_key = ?`,
		userID, merchantKey)
	var rule core.CategoryRule
	err := row.Scan(&rule.ID, &rule.UserID, &rule.MerchantKey, &rule.Category,
		&rule.Confidence, &rule.Source, &rule.UseCount, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &rule, nil
}

func (r *SQLiteRepository) ListCategoryRules(ctx context.Context, userID int64) ([]core.CategoryRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM category_rules WHERE user_id = ? ORDER BY use_count DESC, merchant_key`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list category rules: %w", err)
	}
	defer rows.Close()

	var rules []core.CategoryRule
	for rows.Next() {
		var rule core.CategoryRule
		if err := rows.Scan(&rule.ID, &rule.UserID, &rule.MerchantKey, &rule.Category,
			&rule.Confidence, &rule.Source, &rule.UseCount, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// BumpRuleUsage increments a rule's use counter after a successful hit.
func (r *SQLiteRepository) BumpRuleUsage(ctx context.Context, ruleID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE category_rules
		SET use_count = use_count + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, ruleID)
	if err != nil {
		return fmt.Errorf("bump rule usage: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteCategoryRule(ctx context.Context, userID int64, merchantKey string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM category_rules WHERE user_id = ? AND merchant_key = ?`,
		userID, merchantKey)
	if err != nil {
		return fmt.Errorf("delete category rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}
