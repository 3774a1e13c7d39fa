package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielgermany/penny-cli/internal/core"
)

const purchaseColumns = `id, user_id, name, COALESCE(description, ''), estimated_cost,
	priority, COALESCE(category, ''), deadline, COALESCE(url, ''), status,
	COALESCE(notes, ''), created_at`

func (r *SQLiteRepository) CreatePlannedPurchase(ctx context.Context, p core.PlannedPurchase) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO planned_purchases
		(user_id, name, description, estimated_cost, priority, category, deadline, url, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Name, p.Description, p.EstimatedCost.String(), p.Priority,
		p.Category, dateStr(p.Deadline), p.URL, p.Notes)
	if err != nil {
		return 0, fmt.Errorf("create planned purchase: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetPlannedPurchase(ctx context.Context, id int64) (*core.PlannedPurchase, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+purchaseColumns+` FROM planned_purchases WHERE id = ?`, id)
	p, err := scanPurchase(row)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListPlannedPurchases(ctx context.Context, userID int64, status core.PurchaseStatus) ([]core.PlannedPurchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM planned_purchases WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY priority, name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list planned purchases: %w", err)
	}
	defer rows.Close()

	var purchases []core.PlannedPurchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan planned purchase: %w", err)
		}
		purchases = append(purchases, *p)
	}
	return purchases, rows.Err()
}

func (r *SQLiteRepository) UpdatePurchaseStatus(ctx context.Context, id int64, status core.PurchaseStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE planned_purchases SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update purchase status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeletePlannedPurchase(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM planned_purchases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete planned purchase: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanPurchase(row rowScanner) (*core.PlannedPurchase, error) {
	var p core.PlannedPurchase
	var cost, status string
	var deadline sql.NullString
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &cost, &p.Priority,
		&p.Category, &deadline, &p.URL, &status, &p.Notes, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.EstimatedCost = scanDecimal(cost)
	p.Deadline = scanDate(deadline)
	p.Status = core.PurchaseStatus(status)
	return &p, nil
}
