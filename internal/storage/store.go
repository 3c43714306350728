// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitsync/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
// Callers are expected to recover by creating the record.
var ErrNotFound = errors.New("not found")

// Tx is the write transaction handed to ledger mutators. All reads and
// writes inside one Tx observe a consistent snapshot of a single group;
// nothing becomes visible to readers until the transaction commits.
type Tx interface {
	// Users returns every balance row of the group in user-id order.
	Users() ([]models.User, error)

	// PutUser inserts or replaces one balance row.
	PutUser(u models.User) error

	// PutExpense inserts or replaces one expense.
	PutExpense(e models.Expense) error

	// DeleteExpense removes an expense. Deleting an absent expense is a
	// no-op so replayed deletes stay idempotent.
	DeleteExpense(id string) error

	// BumpVersion increments and returns the group's state version.
	BumpVersion() (int64, error)
}

// Store defines the interface for sync and ledger persistence.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the tracker, ledger, or service layers.
type Store interface {
	// GetClientGroup reads a client group's owner and device records.
	// Returns ErrNotFound if the group has never been saved.
	GetClientGroup(ctx context.Context, groupID string) (ownerUserID string, clients []models.Client, err error)

	// PutClientGroup persists the group row. The owner is immutable:
	// writing an existing group id leaves the stored owner untouched.
	PutClientGroup(ctx context.Context, groupID, ownerUserID string) error

	// InsertClient writes a device record seen for the first time.
	InsertClient(ctx context.Context, c models.Client) error

	// UpdateClient rewrites the cursor of a known device record.
	UpdateClient(ctx context.Context, c models.Client) error

	// Update runs fn inside one atomic transaction scoped to groupID.
	// fn returning an error rolls every write back; that error is
	// returned unchanged so callers can classify it.
	Update(ctx context.Context, groupID string, fn func(tx Tx) error) error

	// ListUsers returns the group's balance rows in user-id order.
	ListUsers(ctx context.Context, groupID string) ([]models.User, error)

	// ListExpenses returns the group's expenses in creation order.
	ListExpenses(ctx context.Context, groupID string) ([]models.Expense, error)

	// ListGroupsForUser returns the ids of every group the user is a
	// member of.
	ListGroupsForUser(ctx context.Context, userID string) ([]string, error)

	// Version returns the group's current state version (0 if the group
	// has never been written).
	Version(ctx context.Context, groupID string) (int64, error)

	// Close releases any resources held by the store.
	Close() error
}
