package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/danielgermany/penny-cli/internal/core"
)

type fakeUsers struct {
	users map[int64]*core.User
}

func (f fakeUsers) GetUser(_ context.Context, id int64) (*core.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return u, nil
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))
	users := fakeUsers{users: map[int64]*core.User{
		7: {ID: 7, Username: "dana", IsActive: true},
	}}
	ctx := context.Background()

	if _, err := store.Load(ctx, users); !errors.Is(err, core.ErrNoSession) {
		t.Fatalf("Load() with no file error = %v, want %v", err, core.ErrNoSession)
	}

	if err := store.Save(Session{UserID: 7, Username: "dana"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := store.Load(ctx, users)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.UserID != 7 || got.Username != "dana" {
		t.Errorf("Load() = %+v, want user 7 dana", got)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := store.Load(ctx, users); !errors.Is(err, core.ErrNoSession) {
		t.Errorf("Load() after Clear() error = %v, want %v", err, core.ErrNoSession)
	}
	// Clearing twice is fine.
	if err := store.Clear(); err != nil {
		t.Errorf("Clear() second call error = %v", err)
	}
}

func TestLoadRejectsStaleSessions(t *testing.T) {
	ctx := context.Background()

	t.Run("deleted user", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "session.json"))
		if err := store.Save(Session{UserID: 99}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if _, err := store.Load(ctx, fakeUsers{users: map[int64]*core.User{}}); !errors.Is(err, core.ErrNoSession) {
			t.Errorf("Load() error = %v, want %v", err, core.ErrNoSession)
		}
	})

	t.Run("deactivated user", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "session.json"))
		if err := store.Save(Session{UserID: 3}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		users := fakeUsers{users: map[int64]*core.User{3: {ID: 3, Username: "old", IsActive: false}}}
		if _, err := store.Load(ctx, users); !errors.Is(err, core.ErrNoSession) {
			t.Errorf("Load() error = %v, want %v", err, core.ErrNoSession)
		}
	})
}
