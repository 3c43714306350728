package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmynk/splitsync/internal/models"
	"github.com/mmynk/splitsync/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "splitsync-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestClientGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("GetClientGroup returns ErrNotFound for unknown group", func(t *testing.T) {
		_, _, err := store.GetClientGroup(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetClientGroup error = %v, want ErrNotFound", err)
		}
	})

	t.Run("PutClientGroup then GetClientGroup roundtrips", func(t *testing.T) {
		if err := store.PutClientGroup(ctx, "cg1", "user-a"); err != nil {
			t.Fatalf("PutClientGroup failed: %v", err)
		}

		owner, clients, err := store.GetClientGroup(ctx, "cg1")
		if err != nil {
			t.Fatalf("GetClientGroup failed: %v", err)
		}
		if owner != "user-a" {
			t.Errorf("owner = %s, want user-a", owner)
		}
		if len(clients) != 0 {
			t.Errorf("expected no clients, got %d", len(clients))
		}
	})

	t.Run("PutClientGroup never rewrites the owner", func(t *testing.T) {
		if err := store.PutClientGroup(ctx, "cg1", "user-b"); err != nil {
			t.Fatalf("PutClientGroup failed: %v", err)
		}

		owner, _, err := store.GetClientGroup(ctx, "cg1")
		if err != nil {
			t.Fatalf("GetClientGroup failed: %v", err)
		}
		if owner != "user-a" {
			t.Errorf("owner = %s, want user-a (owner is immutable)", owner)
		}
	})

	t.Run("InsertClient and UpdateClient roundtrip", func(t *testing.T) {
		c := models.Client{GroupID: "cg1", ID: "device-1", LastMutationID: 3, ExpireAt: 1000}
		if err := store.InsertClient(ctx, c); err != nil {
			t.Fatalf("InsertClient failed: %v", err)
		}

		c.LastMutationID = 7
		c.ExpireAt = 2000
		if err := store.UpdateClient(ctx, c); err != nil {
			t.Fatalf("UpdateClient failed: %v", err)
		}

		_, clients, err := store.GetClientGroup(ctx, "cg1")
		if err != nil {
			t.Fatalf("GetClientGroup failed: %v", err)
		}
		if len(clients) != 1 {
			t.Fatalf("expected 1 client, got %d", len(clients))
		}
		if clients[0].LastMutationID != 7 || clients[0].ExpireAt != 2000 {
			t.Errorf("client = %+v, want LastMutationID=7 ExpireAt=2000", clients[0])
		}
	})
}

func TestUpdateTransaction(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("commits writes and bumps version", func(t *testing.T) {
		err := store.Update(ctx, "g1", func(tx storage.Tx) error {
			if err := tx.PutUser(models.User{ID: "alice", Name: "Alice", Owed: 100}); err != nil {
				return err
			}
			if err := tx.PutExpense(models.Expense{ID: "e1", Description: "Pizza", Amount: 2000, PaidByUserID: "alice", Status: models.StatusUnpaid, CreatedAt: 1}); err != nil {
				return err
			}
			v, err := tx.BumpVersion()
			if err != nil {
				return err
			}
			if v != 1 {
				t.Errorf("first BumpVersion = %d, want 1", v)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		users, err := store.ListUsers(ctx, "g1")
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(users) != 1 || users[0].Owed != 100 {
			t.Errorf("users = %+v, want alice with owed 100", users)
		}

		expenses, err := store.ListExpenses(ctx, "g1")
		if err != nil {
			t.Fatalf("ListExpenses failed: %v", err)
		}
		if len(expenses) != 1 || expenses[0].Amount != 2000 {
			t.Errorf("expenses = %+v, want e1 with amount 2000", expenses)
		}

		version, err := store.Version(ctx, "g1")
		if err != nil {
			t.Fatalf("Version failed: %v", err)
		}
		if version != 1 {
			t.Errorf("version = %d, want 1", version)
		}
	})

	t.Run("rolls back every write when fn fails", func(t *testing.T) {
		sentinel := errors.New("abort")
		err := store.Update(ctx, "g1", func(tx storage.Tx) error {
			if err := tx.PutUser(models.User{ID: "bob", Name: "Bob"}); err != nil {
				return err
			}
			if _, err := tx.BumpVersion(); err != nil {
				return err
			}
			return sentinel
		})
		if !errors.Is(err, sentinel) {
			t.Fatalf("Update error = %v, want sentinel returned unchanged", err)
		}

		users, err := store.ListUsers(ctx, "g1")
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		for _, u := range users {
			if u.ID == "bob" {
				t.Error("rolled-back user is visible")
			}
		}

		version, err := store.Version(ctx, "g1")
		if err != nil {
			t.Fatalf("Version failed: %v", err)
		}
		if version != 1 {
			t.Errorf("version = %d, want 1 (rolled-back bump must not stick)", version)
		}
	})

	t.Run("PutUser upserts the balance row", func(t *testing.T) {
		err := store.Update(ctx, "g1", func(tx storage.Tx) error {
			return tx.PutUser(models.User{ID: "alice", Name: "Alice", Owed: -250})
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		users, err := store.ListUsers(ctx, "g1")
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(users) != 1 || users[0].Owed != -250 {
			t.Errorf("users = %+v, want alice with owed -250", users)
		}
	})

	t.Run("DeleteExpense removes the row and tolerates absent ids", func(t *testing.T) {
		err := store.Update(ctx, "g1", func(tx storage.Tx) error {
			if err := tx.DeleteExpense("e1"); err != nil {
				return err
			}
			return tx.DeleteExpense("never-existed")
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		expenses, err := store.ListExpenses(ctx, "g1")
		if err != nil {
			t.Fatalf("ListExpenses failed: %v", err)
		}
		if len(expenses) != 0 {
			t.Errorf("expected 0 expenses, got %d", len(expenses))
		}
	})
}

func TestListGroupsForUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, groupID := range []string{"g1", "g2"} {
		err := store.Update(ctx, groupID, func(tx storage.Tx) error {
			return tx.PutUser(models.User{ID: "alice", Name: "Alice"})
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}
	err := store.Update(ctx, "g3", func(tx storage.Tx) error {
		return tx.PutUser(models.User{ID: "bob", Name: "Bob"})
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	groups, err := store.ListGroupsForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListGroupsForUser failed: %v", err)
	}
	if len(groups) != 2 || groups[0] != "g1" || groups[1] != "g2" {
		t.Errorf("groups = %v, want [g1 g2]", groups)
	}

	groups, err = store.ListGroupsForUser(ctx, "nobody")
	if err != nil {
		t.Fatalf("ListGroupsForUser failed: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("groups = %v, want empty", groups)
	}
}

func TestVersionUnknownGroup(t *testing.T) {
	store := newTestStore(t)

	version, err := store.Version(context.Background(), "never-written")
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if version != 0 {
		t.Errorf("version = %d, want 0", version)
	}
}
