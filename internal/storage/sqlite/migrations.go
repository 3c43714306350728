package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
const schema = `
CREATE TABLE IF NOT EXISTS client_groups (
    id TEXT PRIMARY KEY,
    owner_user_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS clients (
    client_group_id TEXT NOT NULL,
    id TEXT NOT NULL,
    last_mutation_id INTEGER NOT NULL,
    expire_at INTEGER NOT NULL,
    PRIMARY KEY (client_group_id, id),
    FOREIGN KEY (client_group_id) REFERENCES client_groups(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS users (
    group_id TEXT NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    owed INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (group_id, id)
);

CREATE TABLE IF NOT EXISTS expenses (
    group_id TEXT NOT NULL,
    id TEXT NOT NULL,
    description TEXT NOT NULL,
    amount INTEGER NOT NULL,
    paid_by_user_id TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'unpaid',
    paid_on INTEGER,
    created_at INTEGER NOT NULL,
    split_id TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (group_id, id)
);

CREATE TABLE IF NOT EXISTS group_versions (
    group_id TEXT PRIMARY KEY,
    version INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_clients_expire_at ON clients(expire_at);
CREATE INDEX IF NOT EXISTS idx_users_id ON users(id);
CREATE INDEX IF NOT EXISTS idx_expenses_created_at ON expenses(group_id, created_at);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
