package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RevokeSession records a session token's ID so it is rejected until it
// expires on its own. Revocations that have outlived their token are purged.
func RevokeSession(ctx context.Context, db *sql.DB, jti string, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		jti, expiresAt.UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}

	if _, err := db.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, time.Now().UTC().Unix(),
	); err != nil {
		return fmt.Errorf("purging expired revocations: %w", err)
	}
	return nil
}

// IsSessionRevoked reports whether the session token with the given ID was revoked.
func IsSessionRevoked(ctx context.Context, db *sql.DB, jti string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, jti,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking session revocation: %w", err)
	}
	return count > 0, nil
}
