package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/splitsync/internal/models"
)

// queryer is satisfied by both *sql.DB and *sql.Tx so the same scan helpers
// serve snapshot reads and in-transaction reads.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanUsers(ctx context.Context, q queryer, groupID string) ([]models.User, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, name, owed FROM users WHERE group_id = ? ORDER BY id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u := models.User{GroupID: groupID}
		if err := rows.Scan(&u.ID, &u.Name, &u.Owed); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// ListUsers returns the group's balance rows in user-id order.
func (s *SQLiteStore) ListUsers(ctx context.Context, groupID string) ([]models.User, error) {
	return scanUsers(ctx, s.db, groupID)
}

// ListExpenses returns the group's expenses in creation order.
func (s *SQLiteStore) ListExpenses(ctx context.Context, groupID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description, amount, paid_by_user_id, status, paid_on, created_at, split_id
		 FROM expenses WHERE group_id = ? ORDER BY created_at, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		e := models.Expense{GroupID: groupID}
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount, &e.PaidByUserID, &e.Status, &e.PaidOn, &e.CreatedAt, &e.SplitID); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// ListGroupsForUser returns the ids of every group the user belongs to.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT group_id FROM users WHERE id = ? ORDER BY group_id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get groups for user: %w", err)
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var groupID string
		if err := rows.Scan(&groupID); err != nil {
			return nil, fmt.Errorf("failed to scan group id: %w", err)
		}
		groups = append(groups, groupID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// Version returns the group's current state version, 0 if never written.
func (s *SQLiteStore) Version(ctx context.Context, groupID string) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx,
		"SELECT version FROM group_versions WHERE group_id = ?",
		groupID,
	).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}
