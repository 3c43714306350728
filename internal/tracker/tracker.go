// Package tracker implements the per-client-group mutation tracking store.
//
// The tracker is the authority for "has mutation N from client C already
// been applied?". Each push loads a fresh ClientGroup value, mutates it in
// memory while the batch replays, and saves it once the ledger effects have
// committed. Durability never precedes effect: a mutation is only marked
// seen after its ledger transaction succeeded, so a crashed push is replayed
// safely on the next attempt.
//
// The group value is passed explicitly through the load → mutate → save
// cycle; nothing here is shared between concurrent requests.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/splitsync/internal/models"
	"github.com/mmynk/splitsync/internal/storage"
)

// DefaultTTL is the sliding expiry applied to device records. Records whose
// TTL lapses are eligible for garbage collection.
const DefaultTTL = 3 * 24 * time.Hour

// ClientStatus is the transient dirty-tracking state of one record within a
// single load/save cycle. It is never persisted.
type ClientStatus int

const (
	// StatusFound marks a record loaded from storage and untouched.
	StatusFound ClientStatus = iota
	// StatusNew marks a record created this cycle, not yet in storage.
	StatusNew
	// StatusChanged marks a loaded record updated this cycle.
	StatusChanged
)

func (s ClientStatus) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNew:
		return "new"
	case StatusChanged:
		return "changed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ClientRecord is the in-memory view of one device's sync cursor.
type ClientRecord struct {
	ID             string
	LastMutationID int64
	ExpireAt       int64

	status ClientStatus
}

// Status reports the record's dirty-tracking state within this cycle.
func (r *ClientRecord) Status() ClientStatus {
	return r.status
}

// ClientGroup is the in-memory view of one client group, scoped to a single
// push/pull request.
type ClientGroup struct {
	ID          string
	OwnerUserID string
	Clients     map[string]*ClientRecord
}

// Tracker loads and saves client groups against the durable store.
type Tracker struct {
	store storage.Store
	ttl   time.Duration
	now   func() time.Time
}

// New creates a Tracker with the default TTL.
func New(store storage.Store) *Tracker {
	return &Tracker{
		store: store,
		ttl:   DefaultTTL,
		now:   time.Now,
	}
}

func (t *Tracker) expireAt() int64 {
	return t.now().Add(t.ttl).Unix()
}

// Load reads every device record of a group. It returns storage.ErrNotFound
// if the group has never been saved; the caller then creates a fresh one.
func (t *Tracker) Load(ctx context.Context, groupID string) (*ClientGroup, error) {
	ownerUserID, clients, err := t.store.GetClientGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	cg := &ClientGroup{
		ID:          groupID,
		OwnerUserID: ownerUserID,
		Clients:     make(map[string]*ClientRecord, len(clients)),
	}
	for _, c := range clients {
		cg.Clients[c.ID] = &ClientRecord{
			ID:             c.ID,
			LastMutationID: c.LastMutationID,
			ExpireAt:       c.ExpireAt,
			status:         StatusFound,
		}
	}
	return cg, nil
}

// CreateGroup initializes an empty in-memory group owned by ownerUserID.
// Creating a group that is already loaded is tolerated as a no-op warning,
// not an error, because client retries may race; the loaded group wins.
func (t *Tracker) CreateGroup(loaded *ClientGroup, groupID, ownerUserID string) *ClientGroup {
	if loaded != nil {
		slog.Warn("client group already loaded, ignoring create",
			"client_group_id", groupID,
			"owner_user_id", ownerUserID,
		)
		return loaded
	}
	return &ClientGroup{
		ID:          groupID,
		OwnerUserID: ownerUserID,
		Clients:     make(map[string]*ClientRecord),
	}
}

// EnsureClient records that seenMutationID from clientID has been applied.
//
// Unknown clients get a New record with a fresh TTL. Known records move to
// Changed and take the maximum of the stored and observed mutation ids, so
// the cursor never regresses under reordering. The TTL is refreshed only on
// the Found -> Changed transition: a record already dirty this cycle keeps
// the expiry from its first refresh.
func (t *Tracker) EnsureClient(cg *ClientGroup, clientID string, seenMutationID int64) {
	rec, ok := cg.Clients[clientID]
	if !ok {
		cg.Clients[clientID] = &ClientRecord{
			ID:             clientID,
			LastMutationID: seenMutationID,
			ExpireAt:       t.expireAt(),
			status:         StatusNew,
		}
		return
	}

	if seenMutationID > rec.LastMutationID {
		rec.LastMutationID = seenMutationID
	}
	if rec.status == StatusFound {
		rec.ExpireAt = t.expireAt()
		rec.status = StatusChanged
	}
}

// LastMutationIDs returns each client's last applied mutation id. The
// reconciliation loop uses it to filter a push batch down to unseen
// mutations per client.
func (t *Tracker) LastMutationIDs(cg *ClientGroup) map[string]int64 {
	last := make(map[string]int64, len(cg.Clients))
	for id, rec := range cg.Clients {
		last[id] = rec.LastMutationID
	}
	return last
}

// Save persists every record touched this cycle: New records are inserted,
// Changed records are updated, Found records are left alone. Each record is
// written independently so one failed write never rolls back its siblings;
// failures are joined and surfaced so the caller can have the affected
// client retry (the retry is duplicate-safe because the stored
// LastMutationID, not write success, decides what is already applied).
//
// Save must run exactly once per push, after mutator application succeeds.
func (t *Tracker) Save(ctx context.Context, cg *ClientGroup) error {
	if cg == nil {
		return nil
	}
	if err := t.store.PutClientGroup(ctx, cg.ID, cg.OwnerUserID); err != nil {
		return err
	}

	var errs []error
	for _, rec := range cg.Clients {
		var err error
		switch rec.status {
		case StatusFound:
			continue
		case StatusNew:
			err = t.store.InsertClient(ctx, models.Client{
				GroupID:        cg.ID,
				ID:             rec.ID,
				LastMutationID: rec.LastMutationID,
				ExpireAt:       rec.ExpireAt,
			})
		case StatusChanged:
			err = t.store.UpdateClient(ctx, models.Client{
				GroupID:        cg.ID,
				ID:             rec.ID,
				LastMutationID: rec.LastMutationID,
				ExpireAt:       rec.ExpireAt,
			})
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("client %s: %w", rec.ID, err))
		}
	}
	return errors.Join(errs...)
}
