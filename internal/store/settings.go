package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// Keys in the settings table. Currently only the token-signing secret
// lives here; anything else a deployment needs to persist goes through
// the same table.
const jwtSecretKey = "jwt_secret"

// GetJWTSecret returns the persisted token-signing secret, generating
// and storing one on first call. INSERT OR IGNORE + re-SELECT keeps
// concurrent first starts from racing: whichever insert lands first
// wins and every caller reads the same value back.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		jwtSecretKey, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt secret: %w", err)
	}

	var secret string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, jwtSecretKey,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("reading jwt secret: %w", err)
	}

	return secret, nil
}
