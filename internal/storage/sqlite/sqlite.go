// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/splitsync/internal/models"
	"github.com/mmynk/splitsync/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Wait for locks instead of failing while a sibling push commits
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Update runs fn inside one transaction scoped to a single group.
// A non-nil error from fn rolls back every write and is returned unchanged
// so the caller can tell validation failures apart from storage failures.
func (s *SQLiteStore) Update(ctx context.Context, groupID string, fn func(tx storage.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	gtx := &groupTx{ctx: ctx, tx: tx, groupID: groupID}
	if err := fn(gtx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// groupTx implements storage.Tx over one *sql.Tx, pinned to a group.
type groupTx struct {
	ctx     context.Context
	tx      *sql.Tx
	groupID string
}

var _ storage.Tx = (*groupTx)(nil)

func (t *groupTx) Users() ([]models.User, error) {
	return scanUsers(t.ctx, t.tx, t.groupID)
}

func (t *groupTx) PutUser(u models.User) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO users (group_id, id, name, owed) VALUES (?, ?, ?, ?)
		 ON CONFLICT (group_id, id) DO UPDATE SET name = excluded.name, owed = excluded.owed`,
		t.groupID, u.ID, u.Name, u.Owed,
	)
	if err != nil {
		return fmt.Errorf("failed to put user: %w", err)
	}
	return nil
}

func (t *groupTx) PutExpense(e models.Expense) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO expenses (group_id, id, description, amount, paid_by_user_id, status, paid_on, created_at, split_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (group_id, id) DO UPDATE SET
		   description = excluded.description,
		   amount = excluded.amount,
		   paid_by_user_id = excluded.paid_by_user_id,
		   status = excluded.status,
		   paid_on = excluded.paid_on,
		   split_id = excluded.split_id`,
		t.groupID, e.ID, e.Description, e.Amount, e.PaidByUserID, e.Status, e.PaidOn, e.CreatedAt, e.SplitID,
	)
	if err != nil {
		return fmt.Errorf("failed to put expense: %w", err)
	}
	return nil
}

func (t *groupTx) DeleteExpense(id string) error {
	_, err := t.tx.ExecContext(t.ctx,
		"DELETE FROM expenses WHERE group_id = ? AND id = ?",
		t.groupID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

func (t *groupTx) BumpVersion() (int64, error) {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO group_versions (group_id, version) VALUES (?, 1)
		 ON CONFLICT (group_id) DO UPDATE SET version = version + 1`,
		t.groupID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to bump version: %w", err)
	}

	var version int64
	err = t.tx.QueryRowContext(t.ctx,
		"SELECT version FROM group_versions WHERE group_id = ?",
		t.groupID,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read version: %w", err)
	}
	return version, nil
}
