// Package session persists which user is logged in between invocations.
// The marker file is plain JSON; every command loads it once into an explicit
// Session value instead of sharing mutable global state.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danielgermany/penny-cli/internal/core"
)

// Session identifies the logged-in user for one invocation.
type Session struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// UserLookup resolves a session's user id back to a user record.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*core.User, error)
}

// Store reads and writes the session marker file.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the current session, validated against the user table. A
// missing file means nobody is logged in; a session naming a deleted or
// deactivated user is treated the same and cleared.
func (s *Store) Load(ctx context.Context, users UserLookup) (*Session, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, core.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		s.Clear()
		return nil, core.ErrNoSession
	}

	u, err := users.GetUser(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.Clear()
			return nil, core.ErrNoSession
		}
		return nil, err
	}
	if !u.IsActive {
		s.Clear()
		return nil, core.ErrNoSession
	}

	sess.Username = u.Username
	return &sess, nil
}

// Save records a login.
func (s *Store) Save(sess Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	raw, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Clear logs out. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
