// Package service implements the push/pull reconciliation protocol on top
// of the tracker and ledger.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mmynk/splitsync/internal/ledger"
	"github.com/mmynk/splitsync/internal/models"
	"github.com/mmynk/splitsync/internal/storage"
	"github.com/mmynk/splitsync/internal/tracker"
)

// ErrClientStateNotFound signals that the server no longer knows the state
// the client last pulled (for example after the server lost its database).
// The client should clear its replica and resync from scratch.
var ErrClientStateNotFound = errors.New("ClientStateNotFound")

// ErrVersionNotSupported signals a pull protocol version this server does not
// speak.
var ErrVersionNotSupported = errors.New("VersionNotSupported")

// SyncService replays push batches and serves pulls.
//
// Pushes for the same client group are serialized through a per-group lock:
// two concurrent replays of the same group could otherwise double-credit
// balances between the duplicate check and the ledger commit. Different
// groups replay concurrently.
type SyncService struct {
	store   storage.Store
	tracker *tracker.Tracker
	ledger  *ledger.Ledger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSyncService creates a SyncService over the given store and ledger.
func NewSyncService(store storage.Store, led *ledger.Ledger) *SyncService {
	return &SyncService{
		store:   store,
		tracker: tracker.New(store),
		ledger:  led,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *SyncService) groupLock(groupID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[groupID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[groupID] = l
	}
	return l
}

// Push replays a batch of client mutations.
//
// Mutations the tracker has already seen are skipped, the rest are applied
// in ascending id order per client. Validation failures are dropped and
// marked seen so clients do not retry them forever; storage failures leave
// the cursor untouched and halt the batch so the client resends. The
// tracker is saved once, after the ledger effects committed, never before.
func (s *SyncService) Push(ctx context.Context, ownerUserID string, req models.PushRequest) (models.PushResponse, error) {
	start := time.Now()
	defer func() { pushDuration.Observe(time.Since(start).Seconds()) }()

	lock := s.groupLock(req.ClientGroupID)
	lock.Lock()
	defer lock.Unlock()

	cg, err := s.tracker.Load(ctx, req.ClientGroupID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return models.PushResponse{}, fmt.Errorf("failed to load client group: %w", err)
		}
		slog.Info("creating new client group",
			"client_group_id", req.ClientGroupID,
			"owner_user_id", ownerUserID,
		)
		cg = s.tracker.CreateGroup(nil, req.ClientGroupID, ownerUserID)
	}
	last := s.tracker.LastMutationIDs(cg)

	mutations := make([]models.Mutation, len(req.Mutations))
	copy(mutations, req.Mutations)
	sort.SliceStable(mutations, func(i, j int) bool {
		return mutations[i].ID < mutations[j].ID
	})

	resp := models.PushResponse{Results: make([]models.MutationResult, 0, len(mutations))}
	halted := false
	for _, m := range mutations {
		result := models.MutationResult{ID: m.ID, ClientID: m.ClientID, Name: m.Name}

		switch {
		case halted:
			result.Status = models.ResultRetry

		case m.ID <= last[m.ClientID]:
			result.Status = models.ResultSkipped

		default:
			err := s.apply(ctx, ownerUserID, m)
			switch {
			case err == nil:
				result.Status = models.ResultApplied
				resp.Applied++
				s.tracker.EnsureClient(cg, m.ClientID, m.ID)
				last[m.ClientID] = m.ID

			case ledger.IsValidation(err):
				slog.Warn("dropping invalid mutation",
					"client_group_id", req.ClientGroupID,
					"client_id", m.ClientID,
					"mutation_id", m.ID,
					"mutation", m.Name,
					"error", err,
				)
				result.Status = models.ResultRejected
				result.Error = err.Error()
				// Mark seen so the client stops resending it.
				s.tracker.EnsureClient(cg, m.ClientID, m.ID)
				last[m.ClientID] = m.ID

			case errors.Is(err, ledger.ErrInvariantViolation):
				slog.Error("halting replay: ledger invariant violated",
					"client_group_id", req.ClientGroupID,
					"client_id", m.ClientID,
					"mutation_id", m.ID,
					"mutation", m.Name,
					"error", err,
				)
				result.Status = models.ResultRetry
				result.Error = err.Error()
				halted = true

			default:
				slog.Warn("mutation failed, client will retry",
					"client_group_id", req.ClientGroupID,
					"client_id", m.ClientID,
					"mutation_id", m.ID,
					"mutation", m.Name,
					"error", err,
				)
				result.Status = models.ResultRetry
				result.Error = err.Error()
				halted = true
			}
		}

		mutationsTotal.WithLabelValues(result.Status).Inc()
		resp.Results = append(resp.Results, result)
	}

	if err := s.tracker.Save(ctx, cg); err != nil {
		// The affected clients' cursors were not advanced; their next
		// push is a duplicate-safe retry.
		return resp, fmt.Errorf("failed to save client group: %w", err)
	}
	return resp, nil
}

// apply dispatches one unseen mutation to its ledger mutator. Undecodable
// arguments and unknown mutation names are validation failures: dropped,
// never retried.
func (s *SyncService) apply(ctx context.Context, ownerUserID string, m models.Mutation) error {
	switch m.Name {
	case models.MutationAddExpense:
		var e models.Expense
		if err := json.Unmarshal(m.Args, &e); err != nil {
			return &ledger.ValidationError{Reason: fmt.Sprintf("bad addExpense args: %v", err)}
		}
		if e.GroupID == "" {
			return &ledger.ValidationError{Reason: "addExpense requires a group id"}
		}
		return s.ledger.AddExpense(ctx, e.GroupID, ownerUserID, e)

	case models.MutationDeleteExpense:
		var args models.DeleteExpenseArgs
		if err := json.Unmarshal(m.Args, &args); err != nil {
			return &ledger.ValidationError{Reason: fmt.Sprintf("bad deleteExpense args: %v", err)}
		}
		if args.GroupID == "" {
			return &ledger.ValidationError{Reason: "deleteExpense requires a group id"}
		}
		return s.ledger.DeleteExpense(ctx, args.GroupID, args.ID)

	case models.MutationAddUser:
		var args models.AddUserArgs
		if err := json.Unmarshal(m.Args, &args); err != nil {
			return &ledger.ValidationError{Reason: fmt.Sprintf("bad addUser args: %v", err)}
		}
		if args.GroupID == "" {
			return &ledger.ValidationError{Reason: "addUser requires a group id"}
		}
		return s.ledger.AddUser(ctx, args.GroupID, models.User{ID: args.ID, Name: args.Name})

	default:
		return &ledger.ValidationError{Reason: fmt.Sprintf("unknown mutation %q", m.Name)}
	}
}

// Pull returns the authoritative state for the requesting user's groups: a
// cookie (the aggregate state version), the per-client sync cursors of the
// requesting client group, and a full-state patch. Pull never mutates
// tracking state.
func (s *SyncService) Pull(ctx context.Context, ownerUserID string, req models.PullRequest) (models.PullResponse, error) {
	pullsTotal.Inc()

	if req.PullVersion > 1 {
		return models.PullResponse{}, ErrVersionNotSupported
	}

	groups, err := s.store.ListGroupsForUser(ctx, ownerUserID)
	if err != nil {
		return models.PullResponse{}, fmt.Errorf("failed to list groups: %w", err)
	}

	var cookie int64
	patch := []models.PatchOperation{models.NewClearOp()}
	for _, groupID := range groups {
		version, err := s.store.Version(ctx, groupID)
		if err != nil {
			return models.PullResponse{}, err
		}
		cookie += version

		users, err := s.store.ListUsers(ctx, groupID)
		if err != nil {
			return models.PullResponse{}, err
		}
		for _, u := range users {
			patch = append(patch, models.NewPutOp(models.UserKey(groupID, u.ID), u))
		}

		expenses, err := s.store.ListExpenses(ctx, groupID)
		if err != nil {
			return models.PullResponse{}, err
		}
		for _, e := range expenses {
			patch = append(patch, models.NewPutOp(models.ExpenseKey(groupID, e.ID), e))
		}
	}

	// A cookie ahead of the server means the state it was minted against
	// is gone; the client must resync from scratch.
	if req.Cookie > cookie {
		return models.PullResponse{}, ErrClientStateNotFound
	}

	changes := make(map[string]int64)
	cg, err := s.tracker.Load(ctx, req.ClientGroupID)
	if err == nil {
		changes = s.tracker.LastMutationIDs(cg)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.PullResponse{}, fmt.Errorf("failed to load client group: %w", err)
	}

	pullPatchOps.Observe(float64(len(patch)))
	return models.PullResponse{
		Cookie:                cookie,
		LastMutationIDChanges: changes,
		Patch:                 patch,
	}, nil
}
