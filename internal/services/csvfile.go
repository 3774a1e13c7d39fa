package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/danielgermany/penny-cli/internal/core"
	"github.com/danielgermany/penny-cli/internal/storage"
)

// CSVService moves transactions in and out of CSV files. Import validates
// each row on its own: a bad row is reported and skipped, the rest of the
// batch still lands.
type CSVService struct {
	storage *storage.SQLiteRepository
}

func NewCSVService(storage *storage.SQLiteRepository) *CSVService {
	return &CSVService{storage: storage}
}

var csvHeader = []string{"date", "amount", "type", "merchant", "category", "description", "notes", "account"}

// RowError records why one import row was skipped.
type RowError struct {
	Line int
	Err  error
}

// ImportReport is the outcome of one import batch.
type ImportReport struct {
	Imported int
	Skipped  []RowError
}

// Export writes all of the user's transactions, oldest first.
func (s *CSVService) Export(ctx context.Context, w io.Writer, userID int64) (int, error) {
	txs, err := s.storage.ListTransactions(ctx, userID, storage.TxFilter{})
	if err != nil {
		return 0, err
	}

	accountNames, err := s.accountNames(ctx, userID)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txs {
		record := []string{
			t.Date.Format("2006-01-02"),
			t.Amount.StringFixed(2),
			string(t.Type),
			t.Merchant,
			t.Category,
			t.Description,
			t.Notes,
			accountNames[t.AccountID],
		}
		if err := cw.Write(record); err != nil {
			return 0, fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return len(txs), cw.Error()
}

// Import reads rows into the ledger. The account column may be blank when
// defaultAccount names where unattributed rows should land.
func (s *CSVService) Import(ctx context.Context, r io.Reader, userID int64, defaultAccount string) (*ImportReport, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := columnIndex(header)

	accountIDs, err := s.accountIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{}
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			report.Skipped = append(report.Skipped, RowError{Line: line, Err: err})
			continue
		}

		t, err := rowToTransaction(record, cols, userID)
		if err != nil {
			report.Skipped = append(report.Skipped, RowError{Line: line, Err: err})
			continue
		}

		accountName := field(record, cols, "account")
		if accountName == "" {
			accountName = defaultAccount
		}
		accountID, ok := accountIDs[accountName]
		if !ok {
			report.Skipped = append(report.Skipped, RowError{
				Line: line,
				Err:  fmt.Errorf("account %q: %w", accountName, core.ErrNotFound),
			})
			continue
		}
		t.AccountID = accountID

		if _, err := s.storage.CreateTransaction(ctx, t); err != nil {
			report.Skipped = append(report.Skipped, RowError{Line: line, Err: err})
			continue
		}
		report.Imported++
	}

	slog.InfoContext(ctx, "CSV import finished",
		"imported", report.Imported, "skipped", len(report.Skipped))
	return report, nil
}

func rowToTransaction(record []string, cols map[string]int, userID int64) (core.Transaction, error) {
	var t core.Transaction
	t.UserID = userID

	date, err := time.Parse("2006-01-02", field(record, cols, "date"))
	if err != nil {
		return t, fmt.Errorf("%q: %w", field(record, cols, "date"), core.ErrInvalidDate)
	}
	t.Date = date

	t.Amount, err = core.ParseAmount(field(record, cols, "amount"))
	if err != nil {
		return t, err
	}

	t.Type = core.TransactionType(field(record, cols, "type"))
	if t.Type == "" {
		t.Type = core.Expense
	}
	if t.Type == core.Transfer {
		return t, fmt.Errorf("transfers cannot be imported row by row: %w", core.ErrInvalidType)
	}

	t.Merchant = field(record, cols, "merchant")
	t.Category = field(record, cols, "category")
	t.Description = field(record, cols, "description")
	t.Notes = field(record, cols, "notes")

	return t, t.Validate()
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	return cols
}

func field(record []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

func (s *CSVService) accountNames(ctx context.Context, userID int64) (map[int64]string, error) {
	accounts, err := s.storage.ListAccounts(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}
	return names, nil
}

func (s *CSVService) accountIDs(ctx context.Context, userID int64) (map[string]int64, error) {
	accounts, err := s.storage.ListAccounts(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(accounts))
	for _, a := range accounts {
		ids[a.Name] = a.ID
	}
	return ids, nil
}
