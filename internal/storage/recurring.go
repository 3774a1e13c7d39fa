package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielgermany/penny-cli/internal/core"
)

const chargeColumns = `id, user_id, merchant, merchant_key, COALESCE(category, ''),
	typical_amount, frequency, COALESCE(day_of_period, 0), first_seen, last_seen,
	next_expected, occurrence_count, confidence, status, COALESCE(notes, ''),
	created_at, updated_at`

func (r *SQLiteRepository) CreateRecurringCharge(ctx context.Context, rc core.RecurringCharge) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_charges
		(user_id, merchant, merchant_key, category, typical_amount, frequency,
		 day_of_period, first_seen, last_seen, next_expected, occurrence_count,
		 confidence, status, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rc.UserID, rc.Merchant, rc.MerchantKey, rc.Category, rc.TypicalAmount.String(),
		string(rc.Frequency), rc.DayOfPeriod, dateStr(rc.FirstSeen), dateStr(rc.LastSeen),
		dateStr(rc.NextExpected), rc.OccurrenceCount, rc.Confidence, string(rc.Status), rc.Notes)
	if err != nil {
		return 0, fmt.Errorf("create recurring charge: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetRecurringCharge(ctx context.Context, id int64) (*core.RecurringCharge, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+chargeColumns+` FROM recurring_charges WHERE id = ?`, id)
	rc, err := scanCharge(row)
	if err != nil {
		return nil, notFound(err)
	}
	return rc, nil
}

func (r *SQLiteRepository) GetRecurringChargeByKey(ctx context.Context, userID int64, merchantKey, category string) (*core.RecurringCharge, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+chargeColumns+` FROM recurring_charges
		WHERE user_id = ? AND merchant_key = ? AND category = ?`,
		userID, merchantKey, category)
	rc, err := scanCharge(row)
	if err != nil {
		return nil, notFound(err)
	}
	return rc, nil
}

// ListRecurringCharges returns a user's charges, optionally filtered by
// lifecycle status.
func (r *SQLiteRepository) ListRecurringCharges(ctx context.Context, userID int64, status core.ChargeStatus) ([]core.RecurringCharge, error) {
	query := `SELECT ` + chargeColumns + ` FROM recurring_charges WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY next_expected, merchant`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recurring charges: %w", err)
	}
	defer rows.Close()

	var charges []core.RecurringCharge
	for rows.Next() {
		rc, err := scanCharge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring charge: %w", err)
		}
		charges = append(charges, *rc)
	}
	return charges, rows.Err()
}

// ListUpcomingCharges returns active charges expected within the window.
// Paused and cancelled charges never appear here.
func (r *SQLiteRepository) ListUpcomingCharges(ctx context.Context, userID int64, from time.Time, days int) ([]core.RecurringCharge, error) {
	until := from.AddDate(0, 0, days)
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+chargeColumns+` FROM recurring_charges
		WHERE user_id = ? AND status = 'active'
		  AND next_expected IS NOT NULL AND next_expected <= ?
		ORDER BY next_expected`,
		userID, until.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list upcoming charges: %w", err)
	}
	defer rows.Close()

	var charges []core.RecurringCharge
	for rows.Next() {
		rc, err := scanCharge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring charge: %w", err)
		}
		charges = append(charges, *rc)
	}
	return charges, rows.Err()
}

// UpsertRecurringCharge creates a charge or refreshes the statistics of the
// existing one matching (user, merchant key, category). Detection reruns land
// here so observed patterns update in place.
func (r *SQLiteRepository) UpsertRecurringCharge(ctx context.Context, rc core.RecurringCharge) (int64, error) {
	existing, err := r.GetRecurringChargeByKey(ctx, rc.UserID, rc.MerchantKey, rc.Category)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return 0, err
	}

	if existing == nil {
		id, err := r.CreateRecurringCharge(ctx, rc)
		if err != nil {
			return 0, err
		}
		slog.InfoContext(ctx, "Recurring charge detected",
			"id", id, "merchant", rc.Merchant, "frequency", rc.Frequency,
			"confidence", rc.Confidence)
		return id, nil
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE recurring_charges
		SET typical_amount = ?, frequency = ?, day_of_period = ?, first_seen = ?,
		    last_seen = ?, next_expected = ?, occurrence_count = ?, confidence = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		rc.TypicalAmount.String(), string(rc.Frequency), rc.DayOfPeriod,
		dateStr(rc.FirstSeen), dateStr(rc.LastSeen), dateStr(rc.NextExpected),
		rc.OccurrenceCount, rc.Confidence, existing.ID)
	if err != nil {
		return 0, fmt.Errorf("update recurring charge: %w", err)
	}

	slog.DebugContext(ctx, "Recurring charge refreshed",
		"id", existing.ID, "merchant", rc.Merchant, "occurrences", rc.OccurrenceCount)
	return existing.ID, nil
}

func (r *SQLiteRepository) UpdateRecurringStatus(ctx context.Context, id int64, status core.ChargeStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_charges SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("update recurring status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteRecurringCharge(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_charges WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring charge: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanCharge(row rowScanner) (*core.RecurringCharge, error) {
	var rc core.RecurringCharge
	var amount, frequency, status string
	var firstSeen, lastSeen, nextExpected sql.NullString
	err := row.Scan(&rc.ID, &rc.UserID, &rc.Merchant, &rc.MerchantKey, &rc.Category,
		&amount, &frequency, &rc.DayOfPeriod, &firstSeen, &lastSeen, &nextExpected,
		&rc.OccurrenceCount, &rc.Confidence, &status, &rc.Notes,
		&rc.CreatedAt, &rc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rc.TypicalAmount = scanDecimal(amount)
	rc.Frequency = core.Frequency(frequency)
	rc.Status = core.ChargeStatus(status)
	rc.FirstSeen = scanDate(firstSeen)
	rc.LastSeen = scanDate(lastSeen)
	rc.NextExpected = scanDate(nextExpected)
	return &rc, nil
}
