package storage

import (
	"context"
	"fmt"

	"github.com/danielgermany/penny-cli/internal/core"
)

func (r *SQLiteRepository) CreateTag(ctx context.Context, userID int64, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (user_id, name) VALUES (?, ?)`, userID, name)
	if err != nil {
		return 0, fmt.Errorf("create tag: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetTagByName(ctx context.Context, userID int64, name string) (*core.Tag, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM tags WHERE user_id = ? AND name = ?`,
		userID, name)
	var t core.Tag
	if err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *SQLiteRepository) ListTags(ctx context.Context, userID int64) ([]core.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, created_at FROM tags WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []core.Tag
	for rows.Next() {
		var t core.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *SQLiteRepository) DeleteTag(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) AttachTag(ctx context.Context, transactionID, tagID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO transaction_tags (transaction_id, tag_id) VALUES (?, ?)`,
		transactionID, tagID)
	if err != nil {
		return fmt.Errorf("attach tag: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DetachTag(ctx context.Context, transactionID, tagID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transaction_tags WHERE transaction_id = ? AND tag_id = ?`,
		transactionID, tagID)
	if err != nil {
		return fmt.Errorf("detach tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ListTransactionsByTag returns all ledger rows carrying a given tag.
func (r *SQLiteRepository) ListTransactionsByTag(ctx context.Context, tagID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE id IN (SELECT transaction_id FROM transaction_tags WHERE tag_id = ?)
		ORDER BY date, id`, tagID)
	if err != nil {
		return nil, fmt.Errorf("list transactions by tag: %w", err)
	}
	return collectTransactions(rows)
}
