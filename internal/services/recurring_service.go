package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielgermany/penny-cli/internal/core"
	"github.com/danielgermany/penny-cli/internal/storage"
)

// RecurringService owns the recurring-charge catalog: automatic detection
// from the ledger plus the manual lifecycle around it.
type RecurringService struct {
	storage *storage.SQLiteRepository
	opts    DetectorOptions
}

func NewRecurringService(storage *storage.SQLiteRepository, opts DetectorOptions) *RecurringService {
	return &RecurringService{storage: storage, opts: opts.withDefaults()}
}

// DetectPatterns scans the user's full expense history for periodic charges
// and upserts every candidate by (merchant key, category). Reruns refresh
// statistics in place; charges the user paused or cancelled keep their status.
func (s *RecurringService) DetectPatterns(ctx context.Context, userID int64) ([]core.RecurringCharge, error) {
	txs, err := s.storage.ListTransactions(ctx, userID, storage.TxFilter{Type: core.Expense})
	if err != nil {
		return nil, fmt.Errorf("load expense history: %w", err)
	}

	candidates := DetectCandidates(txs, s.opts)
	for i := range candidates {
		candidates[i].UserID = userID
		id, err := s.storage.UpsertRecurringCharge(ctx, candidates[i])
		if err != nil {
			return nil, err
		}
		candidates[i].ID = id
	}

	slog.InfoContext(ctx, "Recurring charge detection finished",
		"user_id", userID, "transactions", len(txs), "candidates", len(candidates))
	return candidates, nil
}

// Add records a charge the user knows about without waiting for detection.
func (s *RecurringService) Add(ctx context.Context, rc core.RecurringCharge) (int64, error) {
	rc.MerchantKey = core.MerchantKey(rc.Merchant)
	rc.Status = core.ChargeActive
	rc.Confidence = 1.0
	if rc.OccurrenceCount == 0 {
		rc.OccurrenceCount = 1
	}
	if rc.NextExpected.IsZero() {
		rc.NextExpected = firstExpected(time.Now(), rc.Frequency, rc.DayOfPeriod)
	}
	if err := rc.Validate(); err != nil {
		return 0, err
	}
	return s.storage.UpsertRecurringCharge(ctx, rc)
}

func (s *RecurringService) Get(ctx context.Context, id int64) (*core.RecurringCharge, error) {
	return s.storage.GetRecurringCharge(ctx, id)
}

// List returns the user's charges, all of them or one status.
func (s *RecurringService) List(ctx context.Context, userID int64, status core.ChargeStatus) ([]core.RecurringCharge, error) {
	return s.storage.ListRecurringCharges(ctx, userID, status)
}

// Upcoming lists active charges expected within the next days.
func (s *RecurringService) Upcoming(ctx context.Context, userID int64, days int) ([]core.RecurringCharge, error) {
	if days <= 0 {
		days = 7
	}
	return s.storage.ListUpcomingCharges(ctx, userID, time.Now(), days)
}

func (s *RecurringService) Pause(ctx context.Context, id int64) error {
	return s.transition(ctx, id, core.ChargePaused)
}

func (s *RecurringService) Resume(ctx context.Context, id int64) error {
	return s.transition(ctx, id, core.ChargeActive)
}

// Cancel is terminal: a cancelled charge is kept for history but never
// resumes and never appears in upcoming or affordability queries.
func (s *RecurringService) Cancel(ctx context.Context, id int64) error {
	return s.transition(ctx, id, core.ChargeCancelled)
}

func (s *RecurringService) Delete(ctx context.Context, id int64) error {
	return s.storage.DeleteRecurringCharge(ctx, id)
}

func (s *RecurringService) transition(ctx context.Context, id int64, to core.ChargeStatus) error {
	rc, err := s.storage.GetRecurringCharge(ctx, id)
	if err != nil {
		return err
	}
	if !validTransition(rc.Status, to) {
		return fmt.Errorf("recurring charge is %s, cannot move to %s: %w",
			rc.Status, to, core.ErrInvalidType)
	}
	return s.storage.UpdateRecurringStatus(ctx, id, to)
}

func validTransition(from, to core.ChargeStatus) bool {
	if from == core.ChargeCancelled {
		return false
	}
	switch to {
	case core.ChargeActive:
		return from == core.ChargePaused || from == core.ChargeActive
	case core.ChargePaused:
		return from == core.ChargeActive || from == core.ChargePaused
	case core.ChargeCancelled:
		return true
	}
	return false
}

// firstExpected finds the next date matching the charge's period day,
// starting from now.
func firstExpected(now time.Time, freq core.Frequency, dayOfPeriod int) time.Time {
	switch freq {
	case core.Weekly:
		diff := (dayOfPeriod - int(now.Weekday()) + 7) % 7
		if diff == 0 {
			diff = 7
		}
		return now.AddDate(0, 0, diff)
	case core.Annual:
		next := time.Date(now.Year(), now.Month(), clampDay(now, dayOfPeriod), 0, 0, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(1, 0, 0)
		}
		return next
	default:
		next := time.Date(now.Year(), now.Month(), clampDay(now, dayOfPeriod), 0, 0, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 1, 0)
		}
		return next
	}
}

func clampDay(t time.Time, day int) int {
	if last := lastDayOfMonth(t); day > last {
		return last
	}
	if day < 1 {
		return 1
	}
	return day
}
