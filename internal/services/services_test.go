package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/danielgermany/penny-cli/internal/core"
	"github.com/danielgermany/penny-cli/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "penny.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestUser(t *testing.T, repo *storage.SQLiteRepository) int64 {
	t.Helper()
	id, err := repo.CreateUser(context.Background(), core.User{
		Username: "tester",
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return id
}

func newTestAccount(t *testing.T, repo *storage.SQLiteRepository, userID int64, name string) int64 {
	t.Helper()
	id, err := repo.CreateAccount(context.Background(), core.Account{
		UserID:   userID,
		Name:     name,
		Type:     "checking",
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	return id
}
