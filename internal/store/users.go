package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alaf-team/alaf/internal/model"
)

// CreateUser creates a new user account. The email must not belong to an
// active account.
func CreateUser(ctx context.Context, db *sql.DB, name, email, passwordHash, phoneNumber, role string) (*model.User, error) {
	existing, err := GetUserByEmail(ctx, db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.DeletedAt == nil {
		return nil, fmt.Errorf("%w: email already registered", model.ErrConflict)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, phone_number, role) VALUES (?, ?, ?, ?, ?)`,
		name, email, passwordHash, phoneNumber, role,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u := &model.User{}
	var phone sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, phone_number, role, created_at, deleted_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &phone, &u.Role, &u.CreatedAt, &u.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	u.PhoneNumber = phone.String
	return u, nil
}

// GetUserByEmail returns a user by email (including soft-deleted for auth checks).
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*model.User, error) {
	u := &model.User{}
	var phone sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, phone_number, role, created_at, deleted_at
		 FROM users WHERE email = ? ORDER BY deleted_at IS NULL DESC LIMIT 1`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &phone, &u.Role, &u.CreatedAt, &u.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	u.PhoneNumber = phone.String
	return u, nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}
