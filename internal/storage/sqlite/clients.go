package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/splitsync/internal/models"
	"github.com/mmynk/splitsync/internal/storage"
)

// GetClientGroup reads a client group's owner and all of its device records.
func (s *SQLiteStore) GetClientGroup(ctx context.Context, groupID string) (string, []models.Client, error) {
	var ownerUserID string
	err := s.db.QueryRowContext(ctx,
		"SELECT owner_user_id FROM client_groups WHERE id = ?",
		groupID,
	).Scan(&ownerUserID)
	if err == sql.ErrNoRows {
		return "", nil, fmt.Errorf("client group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to get client group: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, last_mutation_id, expire_at FROM clients WHERE client_group_id = ? ORDER BY id",
		groupID,
	)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		c := models.Client{GroupID: groupID}
		if err := rows.Scan(&c.ID, &c.LastMutationID, &c.ExpireAt); err != nil {
			return "", nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return "", nil, fmt.Errorf("failed to iterate clients: %w", err)
	}

	return ownerUserID, clients, nil
}

// PutClientGroup persists the group row. The stored owner never changes once
// written, matching the immutability of the group's owner.
func (s *SQLiteStore) PutClientGroup(ctx context.Context, groupID, ownerUserID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO client_groups (id, owner_user_id) VALUES (?, ?) ON CONFLICT (id) DO NOTHING",
		groupID, ownerUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to put client group: %w", err)
	}
	return nil
}

// InsertClient writes a device record seen for the first time.
func (s *SQLiteStore) InsertClient(ctx context.Context, c models.Client) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO clients (client_group_id, id, last_mutation_id, expire_at) VALUES (?, ?, ?, ?)",
		c.GroupID, c.ID, c.LastMutationID, c.ExpireAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert client: %w", err)
	}
	return nil
}

// UpdateClient rewrites the cursor of a known device record.
func (s *SQLiteStore) UpdateClient(ctx context.Context, c models.Client) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE clients SET last_mutation_id = ?, expire_at = ? WHERE client_group_id = ? AND id = ?",
		c.LastMutationID, c.ExpireAt, c.GroupID, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return nil
}
