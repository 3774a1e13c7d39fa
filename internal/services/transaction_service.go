package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielgermany/penny-cli/internal/core"
	"github.com/danielgermany/penny-cli/internal/storage"
)

// TransactionService orchestrates ledger writes. Balance arithmetic lives in
// the repository so every paired write shares one SQL transaction.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	categorize *CategorizationService
}

func NewTransactionService(storage *storage.SQLiteRepository, categorize *CategorizationService) *TransactionService {
	return &TransactionService{storage: storage, categorize: categorize}
}

// LogOverrides are the optional flags on `tx log` that beat whatever the
// pipeline inferred from the text.
type LogOverrides struct {
	AccountName string
	Category    string
	Date        time.Time
}

// LogFromText turns a free-text description into a settled expense. The
// category pipeline never blocks the write: a dead assistant still produces a
// transaction, just a less confident one.
func (s *TransactionService) LogFromText(ctx context.Context, userID int64, text string, o LogOverrides) (*core.Transaction, Categorized, error) {
	parsed, err := s.categorize.Categorize(ctx, userID, text)
	if err != nil {
		return nil, Categorized{}, err
	}

	account, err := s.resolveAccount(ctx, userID, o.AccountName)
	if err != nil {
		return nil, Categorized{}, err
	}

	category := parsed.Tx.Category
	if o.Category != "" {
		category = o.Category
	}
	date := parsed.Tx.Date
	if !o.Date.IsZero() {
		date = o.Date
	}
	if date.IsZero() {
		date = time.Now()
	}

	t := core.Transaction{
		UserID:      userID,
		AccountID:   account.ID,
		Date:        date,
		Amount:      parsed.Tx.Amount,
		Type:        core.Expense,
		Merchant:    parsed.Tx.Merchant,
		Category:    category,
		Description: text,
	}
	if err := t.Validate(); err != nil {
		return nil, Categorized{}, err
	}

	id, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return nil, Categorized{}, err
	}
	t.ID = id

	// Learn from the assistant only when the user did not override its
	// category choice.
	if parsed.Source == SourceAI && o.Category == "" {
		if err := s.categorize.Learn(ctx, userID, t.Merchant, t.Category, "ai", parsed.Tx.Confidence); err != nil {
			slog.WarnContext(ctx, "Failed to learn category rule", "error", err)
		}
	}

	return &t, parsed, nil
}

// Create records an explicit transaction after validation.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	return s.storage.CreateTransaction(ctx, t)
}

// Transfer moves money between two of the user's accounts.
func (s *TransactionService) Transfer(ctx context.Context, userID int64, fromName, toName string, amount decimal.Decimal, date time.Time, description string) (int64, int64, error) {
	if amount.Sign() <= 0 {
		return 0, 0, fmt.Errorf("transfer amount %s: %w", amount, core.ErrInvalidAmount)
	}
	from, err := s.storage.GetAccountByName(ctx, userID, fromName)
	if err != nil {
		return 0, 0, fmt.Errorf("source account %q: %w", fromName, err)
	}
	to, err := s.storage.GetAccountByName(ctx, userID, toName)
	if err != nil {
		return 0, 0, fmt.Errorf("destination account %q: %w", toName, err)
	}
	if from.ID == to.ID {
		return 0, 0, fmt.Errorf("transfer to same account: %w", core.ErrNoAccount)
	}
	if date.IsZero() {
		date = time.Now()
	}
	return s.storage.CreateTransfer(ctx, userID, from.ID, to.ID, amount, date, description)
}

// Edit replaces the mutable fields of a transaction. The owning account's
// balance moves by exactly the difference between new and old effect.
func (s *TransactionService) Edit(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.storage.UpdateTransaction(ctx, t)
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	return s.storage.DeleteTransaction(ctx, id)
}

func (s *TransactionService) Get(ctx context.Context, id int64) (*core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

func (s *TransactionService) ListRecent(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.storage.ListRecentTransactions(ctx, userID, limit)
}

func (s *TransactionService) Search(ctx context.Context, userID int64, f storage.TxFilter) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, userID, f)
}

// resolveAccount picks the named account, or the user's only active account
// when no name is given. More than one active account with no name is an
// error rather than a silent guess.
func (s *TransactionService) resolveAccount(ctx context.Context, userID int64, name string) (*core.Account, error) {
	if name != "" {
		account, err := s.storage.GetAccountByName(ctx, userID, name)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", name, err)
		}
		return account, nil
	}

	accounts, err := s.storage.ListAccounts(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	switch len(accounts) {
	case 0:
		return nil, fmt.Errorf("create an account first: %w", core.ErrNoAccount)
	case 1:
		return &accounts[0], nil
	default:
		return nil, fmt.Errorf("multiple accounts, pass --account: %w", core.ErrNoAccount)
	}
}
