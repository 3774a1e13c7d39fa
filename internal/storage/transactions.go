package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danielgermany/penny-cli/internal/core"
)

const txColumns = `id, user_id, account_id, date, amount, type,
	COALESCE(merchant, ''), COALESCE(category, ''), COALESCE(description, ''),
	COALESCE(notes, ''), COALESCE(to_account_id, 0), COALESCE(transfer_pair_id, ''),
	status, created_at`

// TxFilter narrows ListTransactions. Zero values mean "no constraint".
type TxFilter struct {
	SearchText string
	StartDate  time.Time
	EndDate    time.Time
	MinAmount  decimal.Decimal
	MaxAmount  decimal.Decimal
	Category   string
	AccountID  int64
	Type       core.TransactionType
	Limit      int
}

// CreateTransaction inserts a ledger row and applies its balance effect to
// the owning account in one atomic unit.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = insertTransactionTx(ctx, tx, t)
		if err != nil {
			return err
		}
		return adjustBalanceTx(ctx, tx, t.AccountID, t.SignedAmount())
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"id", id,
		"account_id", t.AccountID,
		"type", t.Type,
		"amount", t.Amount.String(),
		"merchant", t.Merchant)

	return id, nil
}

// CreateTransfer writes both legs of an account transfer and both balance
// updates atomically. The legs share a generated pair id and their signed
// amounts net to zero.
func (r *SQLiteRepository) CreateTransfer(ctx context.Context, userID, fromID, toID int64, amount decimal.Decimal, date time.Time, description string) (outID, inID int64, err error) {
	pairID := uuid.NewString()

	err = r.withTx(ctx, func(tx *sql.Tx) error {
		out := core.Transaction{
			UserID:         userID,
			AccountID:      fromID,
			Date:           date,
			Amount:         amount,
			Type:           core.Transfer,
			Description:    description,
			ToAccountID:    toID,
			TransferPairID: pairID,
		}
		in := core.Transaction{
			UserID:         userID,
			AccountID:      toID,
			Date:           date,
			Amount:         amount,
			Type:           core.Transfer,
			Description:    description,
			TransferPairID: pairID,
		}

		var err error
		if outID, err = insertTransactionTx(ctx, tx, out); err != nil {
			return err
		}
		if inID, err = insertTransactionTx(ctx, tx, in); err != nil {
			return err
		}
		if err = adjustBalanceTx(ctx, tx, fromID, amount.Neg()); err != nil {
			return err
		}
		return adjustBalanceTx(ctx, tx, toID, amount)
	})
	if err != nil {
		return 0, 0, err
	}

	slog.InfoContext(ctx, "Transfer recorded",
		"pair_id", pairID,
		"from_account", fromID,
		"to_account", toID,
		"amount", amount.String())

	return outID, inID, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

// UpdateTransaction replaces the mutable fields of a transaction and, when
// the amount or type changed, adjusts the owning account balance by exactly
// the difference between new and old effect, all in one transaction.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, updated core.Transaction) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+txColumns+` FROM transactions WHERE id = ?`, updated.ID)
		old, err := scanTransaction(row)
		if err != nil {
			return notFound(err)
		}

		if old.Type == core.Transfer || updated.Type == core.Transfer {
			return fmt.Errorf("edit transfer leg: %w", core.ErrInvalidType)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE transactions
			SET date = ?, amount = ?, type = ?, merchant = ?, category = ?, description = ?, notes = ?
			WHERE id = ?`,
			updated.Date.Format(dateLayout), updated.Amount.String(), string(updated.Type),
			updated.Merchant, updated.Category, updated.Description, updated.Notes, updated.ID)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}

		delta := updated.SignedAmount().Sub(old.SignedAmount())
		if delta.IsZero() {
			return nil
		}
		return adjustBalanceTx(ctx, tx, old.AccountID, delta)
	})
}

// DeleteTransaction removes a ledger row and reverses its balance effect.
// Deleting either leg of a transfer removes both legs and reverses both
// balance effects.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+txColumns+` FROM transactions WHERE id = ?`, id)
		t, err := scanTransaction(row)
		if err != nil {
			return notFound(err)
		}

		ids := []int64{t.ID}
		legs := []*core.Transaction{t}

		if t.Type == core.Transfer && t.TransferPairID != "" {
			rows, err := tx.QueryContext(ctx,
				`SELECT `+txColumns+` FROM transactions WHERE transfer_pair_id = ? AND id != ?`,
				t.TransferPairID, t.ID)
			if err != nil {
				return fmt.Errorf("load transfer pair: %w", err)
			}
			defer rows.Close()
			for rows.Next() {
				leg, err := scanTransaction(rows)
				if err != nil {
					return err
				}
				ids = append(ids, leg.ID)
				legs = append(legs, leg)
			}
			if err := rows.Err(); err != nil {
				return err
			}
		}

		for _, leg := range legs {
			if err := adjustBalanceTx(ctx, tx, leg.AccountID, leg.SignedAmount().Neg()); err != nil {
				return err
			}
		}
		for _, legID := range ids {
			if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, legID); err != nil {
				return fmt.Errorf("delete transaction: %w", err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) ListRecentTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE user_id = ?
		ORDER BY date DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent transactions: %w", err)
	}
	return collectTransactions(rows)
}

func (r *SQLiteRepository) ListTransactionsByMonth(ctx context.Context, userID int64, year int, month time.Month) ([]core.Transaction, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE user_id = ? AND date >= ? AND date < ?
		ORDER BY date, id`,
		userID, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list transactions by month: %w", err)
	}
	return collectTransactions(rows)
}

// ListTransactions applies an arbitrary filter; used by search and by the
// recurring-charge detector, which needs a user's full expense history in
// date order.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, f TxFilter) ([]core.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE user_id = ?`
	args := []any{userID}

	if f.SearchText != "" {
		query += ` AND (merchant LIKE ? OR description LIKE ? OR notes LIKE ?)`
		pat := "%" + f.SearchText + "%"
		args = append(args, pat, pat, pat)
	}
	if !f.StartDate.IsZero() {
		query += ` AND date >= ?`
		args = append(args, f.StartDate.Format(dateLayout))
	}
	if !f.EndDate.IsZero() {
		query += ` AND date <= ?`
		args = append(args, f.EndDate.Format(dateLayout))
	}
	if !f.MinAmount.IsZero() {
		query += ` AND CAST(amount AS REAL) >= ?`
		args = append(args, f.MinAmount.InexactFloat64())
	}
	if !f.MaxAmount.IsZero() {
		query += ` AND CAST(amount AS REAL) <= ?`
		args = append(args, f.MaxAmount.InexactFloat64())
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.AccountID != 0 {
		query += ` AND account_id = ?`
		args = append(args, f.AccountID)
	}
	if f.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(f.Type))
	}

	query += ` ORDER BY date, id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search transactions: %w", err)
	}
	return collectTransactions(rows)
}

// SumByCategory totals expense amounts for one category in a calendar month.
func (r *SQLiteRepository) SumByCategory(ctx context.Context, userID int64, category string, year int, month time.Month) (decimal.Decimal, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	rows, err := r.db.QueryContext(ctx, `
		SELECT amount FROM transactions
		WHERE user_id = ? AND category = ? AND type = 'expense' AND date >= ? AND date < ?`,
		userID, category, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("scan amount: %w", err)
		}
		total = total.Add(scanDecimal(raw))
	}
	return total, rows.Err()
}

func insertTransactionTx(ctx context.Context, tx *sql.Tx, t core.Transaction) (int64, error) {
	var toAccount any
	if t.ToAccountID != 0 {
		toAccount = t.ToAccountID
	}
	var pairID any
	if t.TransferPairID != "" {
		pairID = t.TransferPairID
	}
	status := t.Status
	if status == "" {
		status = "posted"
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO transactions
		(user_id, account_id, date, amount, type, merchant, category, description,
		 notes, to_account_id, transfer_pair_id, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.AccountID, t.Date.Format(dateLayout), t.Amount.String(), string(t.Type),
		t.Merchant, t.Category, t.Description, t.Notes, toAccount, pairID, status)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return res.LastInsertId()
}

func scanTransaction(row rowScanner) (*core.Transaction, error) {
	var t core.Transaction
	var date string
	var amount string
	var typ string
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &date, &amount, &typ,
		&t.Merchant, &t.Category, &t.Description, &t.Notes,
		&t.ToAccountID, &t.TransferPairID, &t.Status, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Date = scanDate(sql.NullString{String: date, Valid: true})
	t.Amount = scanDecimal(amount)
	t.Type = core.TransactionType(typ)
	return &t, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}
