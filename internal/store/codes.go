package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/alaf-team/alaf/internal/model"
)

// CodeExpiry is how long a signup verification code stays usable.
const CodeExpiry = 10 * time.Minute

// CreateVerificationCode generates a 6-digit signup code for an email,
// replacing any earlier code, and returns it for delivery.
func CreateVerificationCode(ctx context.Context, db *sql.DB, email string, now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generating verification code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())

	_, err = db.ExecContext(ctx,
		`INSERT OR REPLACE INTO verification_codes (email, code, expires_at, verified)
		 VALUES (?, ?, ?, 0)`,
		email, code, now.UTC().Add(CodeExpiry),
	)
	if err != nil {
		return "", fmt.Errorf("storing verification code: %w", err)
	}

	// Opportunistically clean up expired codes.
	_, _ = db.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE expires_at < ? AND verified = 0`, now.UTC(),
	)

	return code, nil
}

// VerifyCode checks a submitted code and marks the email as verified.
func VerifyCode(ctx context.Context, db *sql.DB, email, code string, now time.Time) error {
	var stored string
	var expiresAt time.Time
	err := db.QueryRowContext(ctx,
		`SELECT code, expires_at FROM verification_codes WHERE email = ?`, email,
	).Scan(&stored, &expiresAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: no verification code requested for this email", model.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("checking verification code: %w", err)
	}

	if !expiresAt.After(now.UTC()) {
		return fmt.Errorf("%w: verification code expired", model.ErrValidation)
	}
	if stored != code {
		return fmt.Errorf("%w: verification code mismatch", model.ErrValidation)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE verification_codes SET verified = 1 WHERE email = ?`, email,
	)
	if err != nil {
		return fmt.Errorf("marking email verified: %w", err)
	}
	return nil
}

// ConsumeVerification checks that an email was verified and removes the
// record, so one code admits one registration.
func ConsumeVerification(ctx context.Context, db *sql.DB, email string) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE email = ? AND verified = 1`, email,
	)
	if err != nil {
		return fmt.Errorf("consuming verification: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("consuming verification: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: email not verified", model.ErrValidation)
	}
	return nil
}
