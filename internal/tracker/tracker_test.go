package tracker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/splitsync/internal/storage"
	"github.com/mmynk/splitsync/internal/storage/sqlite"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "splitsync-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store)
}

func TestLoadUnknownGroup(t *testing.T) {
	tr := newTestTracker(t)

	_, err := tr.Load(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Load error = %v, want ErrNotFound", err)
	}
}

func TestCreateGroup(t *testing.T) {
	tr := newTestTracker(t)

	cg := tr.CreateGroup(nil, "cg1", "user-a")
	if cg.ID != "cg1" || cg.OwnerUserID != "user-a" {
		t.Errorf("CreateGroup = %+v, want id cg1 owned by user-a", cg)
	}
	if len(cg.Clients) != 0 {
		t.Errorf("expected empty client map, got %d entries", len(cg.Clients))
	}

	// Creating over an already-loaded group returns the loaded one untouched.
	tr.EnsureClient(cg, "device-1", 5)
	same := tr.CreateGroup(cg, "cg1", "user-b")
	if same != cg {
		t.Error("CreateGroup over a loaded group must return the loaded group")
	}
	if same.OwnerUserID != "user-a" {
		t.Errorf("owner = %s, want user-a", same.OwnerUserID)
	}
	if len(same.Clients) != 1 {
		t.Errorf("expected the loaded clients preserved, got %d", len(same.Clients))
	}
}

func TestEnsureClient(t *testing.T) {
	tr := newTestTracker(t)
	cg := tr.CreateGroup(nil, "cg1", "user-a")

	t.Run("unknown client becomes New with a fresh expiry", func(t *testing.T) {
		tr.EnsureClient(cg, "device-1", 3)

		rec := cg.Clients["device-1"]
		if rec == nil {
			t.Fatal("expected device-1 record")
		}
		if rec.Status() != StatusNew {
			t.Errorf("status = %v, want new", rec.Status())
		}
		if rec.LastMutationID != 3 {
			t.Errorf("LastMutationID = %d, want 3", rec.LastMutationID)
		}
		if rec.ExpireAt == 0 {
			t.Error("expected a non-zero expiry")
		}
	})

	t.Run("new records stay New on later mutations", func(t *testing.T) {
		tr.EnsureClient(cg, "device-1", 4)

		rec := cg.Clients["device-1"]
		if rec.Status() != StatusNew {
			t.Errorf("status = %v, want new", rec.Status())
		}
		if rec.LastMutationID != 4 {
			t.Errorf("LastMutationID = %d, want 4", rec.LastMutationID)
		}
	})

	t.Run("cursor never regresses", func(t *testing.T) {
		tr.EnsureClient(cg, "device-1", 2)

		if got := cg.Clients["device-1"].LastMutationID; got != 4 {
			t.Errorf("LastMutationID = %d, want 4 (ids are monotonic)", got)
		}
	})
}

func TestEnsureClientRefreshesTTLOnce(t *testing.T) {
	tr := newTestTracker(t)
	tr.ttl = time.Hour

	base := time.Unix(1_000_000, 0)
	tr.now = func() time.Time { return base }

	cg := tr.CreateGroup(nil, "cg1", "user-a")
	cg.Clients["device-1"] = &ClientRecord{
		ID:             "device-1",
		LastMutationID: 1,
		ExpireAt:       base.Unix(),
		status:         StatusFound,
	}

	tr.EnsureClient(cg, "device-1", 2)

	rec := cg.Clients["device-1"]
	if rec.Status() != StatusChanged {
		t.Fatalf("status = %v, want changed", rec.Status())
	}
	firstExpiry := rec.ExpireAt
	if want := base.Add(time.Hour).Unix(); firstExpiry != want {
		t.Fatalf("ExpireAt = %d, want %d", firstExpiry, want)
	}

	// A later mutation in the same cycle keeps the first refresh.
	tr.now = func() time.Time { return base.Add(30 * time.Minute) }
	tr.EnsureClient(cg, "device-1", 3)

	if rec.ExpireAt != firstExpiry {
		t.Errorf("ExpireAt = %d, want %d (refreshed only on found -> changed)", rec.ExpireAt, firstExpiry)
	}
	if rec.LastMutationID != 3 {
		t.Errorf("LastMutationID = %d, want 3", rec.LastMutationID)
	}
}

func TestSaveAndReload(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	cg := tr.CreateGroup(nil, "cg1", "user-a")
	tr.EnsureClient(cg, "device-1", 5)
	tr.EnsureClient(cg, "device-2", 2)

	if err := tr.Save(ctx, cg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := tr.Load(ctx, "cg1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.OwnerUserID != "user-a" {
		t.Errorf("owner = %s, want user-a", loaded.OwnerUserID)
	}

	last := tr.LastMutationIDs(loaded)
	if last["device-1"] != 5 || last["device-2"] != 2 {
		t.Errorf("last mutation ids = %v, want device-1:5 device-2:2", last)
	}
	for id, rec := range loaded.Clients {
		if rec.Status() != StatusFound {
			t.Errorf("client %s status = %v, want found after load", id, rec.Status())
		}
	}

	// A second cycle: one record advances, the untouched one is left alone.
	tr.EnsureClient(loaded, "device-1", 6)
	if err := tr.Save(ctx, loaded); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := tr.Load(ctx, "cg1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	last = tr.LastMutationIDs(reloaded)
	if last["device-1"] != 6 || last["device-2"] != 2 {
		t.Errorf("last mutation ids = %v, want device-1:6 device-2:2", last)
	}
}

func TestSaveNilGroup(t *testing.T) {
	tr := newTestTracker(t)
	if err := tr.Save(context.Background(), nil); err != nil {
		t.Errorf("Save(nil) = %v, want nil", err)
	}
}
