package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/danielgermany/penny-cli/internal/core"
)

const goalColumns = `id, user_id, name, COALESCE(description, ''), target_amount,
	current_amount, deadline, COALESCE(category, ''), priority, status,
	COALESCE(notes, ''), created_at`

func (r *SQLiteRepository) CreateSavingsGoal(ctx context.Context, g core.SavingsGoal) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO savings_goals
		(user_id, name, description, target_amount, current_amount, deadline, category, priority, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.UserID, g.Name, g.Description, g.TargetAmount.String(), g.CurrentAmount.String(),
		dateStr(g.Deadline), g.Category, g.Priority, g.Notes)
	if err != nil {
		return 0, fmt.Errorf("create savings goal: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetSavingsGoal(ctx context.Context, id int64) (*core.SavingsGoal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if err != nil {
		return nil, notFound(err)
	}
	return g, nil
}

func (r *SQLiteRepository) GetSavingsGoalByName(ctx context.Context, userID int64, name string) (*core.SavingsGoal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE user_id = ? AND name = ?`, userID, name)
	g, err := scanGoal(row)
	if err != nil {
		return nil, notFound(err)
	}
	return g, nil
}

func (r *SQLiteRepository) ListSavingsGoals(ctx context.Context, userID int64, status core.GoalStatus) ([]core.SavingsGoal, error) {
	query := `SELECT ` + goalColumns + ` FROM savings_goals WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY priority DESC, name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	defer rows.Close()

	var goals []core.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan savings goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// AdjustGoalAmount applies a signed delta to a goal's saved amount as a
// single atomic read-modify-write. Completion is flipped when the target is
// reached.
func (r *SQLiteRepository) AdjustGoalAmount(ctx context.Context, id int64, delta decimal.Decimal) (*core.SavingsGoal, error) {
	var updated *core.SavingsGoal
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+goalColumns+` FROM savings_goals WHERE id = ?`, id)
		g, err := scanGoal(row)
		if err != nil {
			return notFound(err)
		}

		next := g.CurrentAmount.Add(delta)
		if next.IsNegative() {
			return fmt.Errorf("withdraw %s from balance %s: %w",
				delta.Neg(), g.CurrentAmount, core.ErrInvalidAmount)
		}

		status := g.Status
		if status == core.GoalActive && next.GreaterThanOrEqual(g.TargetAmount) {
			status = core.GoalCompleted
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE savings_goals SET current_amount = ?, status = ? WHERE id = ?`,
			next.String(), string(status), id); err != nil {
			return fmt.Errorf("update goal amount: %w", err)
		}

		g.CurrentAmount = next
		g.Status = status
		updated = g
		return nil
	})
	return updated, err
}

func (r *SQLiteRepository) UpdateGoalStatus(ctx context.Context, id int64, status core.GoalStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE savings_goals SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update goal status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteSavingsGoal(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM savings_goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete savings goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanGoal(row rowScanner) (*core.SavingsGoal, error) {
	var g core.SavingsGoal
	var target, current, status string
	var deadline sql.NullString
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.Description, &target, &current,
		&deadline, &g.Category, &g.Priority, &status, &g.Notes, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	g.TargetAmount = scanDecimal(target)
	g.CurrentAmount = scanDecimal(current)
	g.Deadline = scanDate(deadline)
	g.Status = core.GoalStatus(status)
	return &g, nil
}
