package storage

import (
	"context"
	"fmt"

	"github.com/danielgermany/penny-cli/internal/core"
)

const budgetColumns = `id, user_id, category, monthly_limit, alert_threshold, created_at`

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, category, monthly_limit, alert_threshold)
		VALUES (?, ?, ?, ?)`,
		b.UserID, b.Category, b.MonthlyLimit.String(), b.AlertThreshold)
	if err != nil {
		return 0, fmt.Errorf("create budget: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetBudgetByCategory(ctx context.Context, userID int64, category string) (*core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? AND category = ?`,
		userID, category)
	return scanBudget(row)
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? ORDER BY category`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, *b)
	}
	return budgets, rows.Err()
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets SET monthly_limit = ?, alert_threshold = ? WHERE id = ?`,
		b.MonthlyLimit.String(), b.AlertThreshold, b.ID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID int64, category string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE user_id = ? AND category = ?`, userID, category)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanBudget(row rowScanner) (*core.Budget, error) {
	var b core.Budget
	var limit string
	err := row.Scan(&b.ID, &b.UserID, &b.Category, &limit, &b.AlertThreshold, &b.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	b.MonthlyLimit = scanDecimal(limit)
	return &b, nil
}
