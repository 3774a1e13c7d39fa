package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/danielgermany/penny-cli/internal/core"
	"github.com/danielgermany/penny-cli/internal/storage"
)

// AccountService manages accounts. Deleting an account that still backs
// ledger rows is refused; soft delete keeps history intact.
type AccountService struct {
	storage *storage.SQLiteRepository
}

func NewAccountService(storage *storage.SQLiteRepository) *AccountService {
	return &AccountService{storage: storage}
}

func (s *AccountService) Create(ctx context.Context, a core.Account) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if _, err := s.storage.GetAccountByName(ctx, a.UserID, a.Name); err == nil {
		return 0, fmt.Errorf("account %q: %w", a.Name, core.ErrDuplicate)
	}
	return s.storage.CreateAccount(ctx, a)
}

func (s *AccountService) List(ctx context.Context, userID int64, includeInactive bool) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx, userID, !includeInactive)
}

func (s *AccountService) GetByName(ctx context.Context, userID int64, name string) (*core.Account, error) {
	return s.storage.GetAccountByName(ctx, userID, name)
}

// SetBalance overwrites an account balance, for reconciling against a bank
// statement. It does not touch the ledger.
func (s *AccountService) SetBalance(ctx context.Context, userID int64, name string, balance decimal.Decimal) error {
	account, err := s.storage.GetAccountByName(ctx, userID, name)
	if err != nil {
		return fmt.Errorf("account %q: %w", name, err)
	}
	return s.storage.SetBalance(ctx, account.ID, balance)
}

// Delete removes an account. An account with transactions cannot be hard
// deleted; pass soft to deactivate it instead.
func (s *AccountService) Delete(ctx context.Context, userID int64, name string, soft bool) error {
	account, err := s.storage.GetAccountByName(ctx, userID, name)
	if err != nil {
		return fmt.Errorf("account %q: %w", name, err)
	}

	if soft {
		return s.storage.SoftDeleteAccount(ctx, account.ID)
	}

	n, err := s.storage.CountAccountTransactions(ctx, account.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("account %q has %d transactions, use --soft: %w", name, n, core.ErrReferenced)
	}
	return s.storage.DeleteAccount(ctx, account.ID)
}
