package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/danielgermany/penny-cli/internal/core"
	"github.com/danielgermany/penny-cli/internal/storage"
)

// ErrBadCredentials covers both a wrong password and a missing required one.
var ErrBadCredentials = errors.New("invalid credentials")

// UserService creates and authenticates users. Passwords are optional for a
// single-person local install; when set, they are bcrypt-hashed.
type UserService struct {
	storage *storage.SQLiteRepository
}

func NewUserService(storage *storage.SQLiteRepository) *UserService {
	return &UserService{storage: storage}
}

func (s *UserService) Create(ctx context.Context, username, email, displayName, password string) (*core.User, error) {
	if username == "" {
		return nil, core.ErrEmptyName
	}
	if _, err := s.storage.GetUserByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("user %q: %w", username, core.ErrDuplicate)
	}

	u := core.User{
		Username:    username,
		Email:       email,
		DisplayName: displayName,
		IsActive:    true,
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
		u.RequirePassword = true
	}

	id, err := s.storage.CreateUser(ctx, u)
	if err != nil {
		return nil, err
	}
	u.ID = id
	return &u, nil
}

// Authenticate resolves a username and checks the password when the account
// requires one. Inactive users cannot log in.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*core.User, error) {
	u, err := s.storage.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, fmt.Errorf("user %q is deactivated: %w", username, ErrBadCredentials)
	}
	if u.RequirePassword {
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
			return nil, ErrBadCredentials
		}
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context) ([]core.User, error) {
	return s.storage.ListUsers(ctx)
}

func (s *UserService) Deactivate(ctx context.Context, username string) error {
	u, err := s.storage.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("user %q: %w", username, err)
	}
	return s.storage.SetUserActive(ctx, u.ID, false)
}
