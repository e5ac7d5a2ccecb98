package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS items (
    id               TEXT PRIMARY KEY,
    label            TEXT,
    image            BLOB,
    image_mime       TEXT,
    is_in_laundry    INTEGER NOT NULL DEFAULT 0 CHECK (is_in_laundry IN (0, 1)),
    times_in_laundry INTEGER NOT NULL DEFAULT 0 CHECK (times_in_laundry >= 0),
    timestamp        INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_timestamp ON items(timestamp);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at INTEGER NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
