package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/danielgermany/penny-cli/internal/core"
)

const accountColumns = `id, user_id, name, type, COALESCE(institution, ''),
	current_balance, is_active, COALESCE(notes, ''), created_at`

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (user_id, name, type, institution, current_balance, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Name, a.Type, a.Institution, a.Balance.String(), a.Notes)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (*core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *SQLiteRepository) GetAccountByName(ctx context.Context, userID int64, name string) (*core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? AND name = ?`, userID, name)
	return scanAccount(row)
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID int64, activeOnly bool) ([]core.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// AdjustBalance applies a signed delta to an account balance. Compound
// ledger operations use the tx-scoped variant instead.
func (r *SQLiteRepository) AdjustBalance(ctx context.Context, accountID int64, delta decimal.Decimal) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return adjustBalanceTx(ctx, tx, accountID, delta)
	})
}

// SetBalance overwrites an account balance with an explicit value.
func (r *SQLiteRepository) SetBalance(ctx context.Context, accountID int64, balance decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET current_balance = ? WHERE id = ?`,
		balance.String(), accountID)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// SoftDeleteAccount marks an account inactive while keeping its transaction
// history intact.
func (r *SQLiteRepository) SoftDeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("soft delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// CountAccountTransactions reports how many ledger rows reference an account,
// used to refuse hard deletes.
func (r *SQLiteRepository) CountAccountTransactions(ctx context.Context, accountID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_id = ? OR to_account_id = ?`,
		accountID, accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count account transactions: %w", err)
	}
	return n, nil
}

// DeleteAccount removes an account outright. Callers must check for
// referencing transactions first; the foreign key keeps us honest anyway.
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func adjustBalanceTx(ctx context.Context, tx *sql.Tx, accountID int64, delta decimal.Decimal) error {
	var raw string
	err := tx.QueryRowContext(ctx,
		`SELECT current_balance FROM accounts WHERE id = ?`, accountID).Scan(&raw)
	if err != nil {
		return notFound(err)
	}
	next := scanDecimal(raw).Add(delta)
	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET current_balance = ? WHERE id = ?`,
		next.String(), accountID); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	return nil
}

func scanAccount(row rowScanner) (*core.Account, error) {
	a, err := scanAccountRow(row)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func scanAccountRow(row rowScanner) (*core.Account, error) {
	var a core.Account
	var balance string
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Institution,
		&balance, &a.IsActive, &a.Notes, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Balance = scanDecimal(balance)
	return &a, nil
}
