package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alaf-team/alaf/internal/model"
)

// CreatePlace creates a found-location node.
func CreatePlace(ctx context.Context, db *sql.DB, name string) (*model.Place, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: place name required", model.ErrValidation)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO places (name) VALUES (?)`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("creating place: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting place id: %w", err)
	}

	return GetPlace(ctx, db, id)
}

// GetPlace returns a place by ID, or nil if unknown.
func GetPlace(ctx context.Context, db *sql.DB, id int64) (*model.Place, error) {
	p := &model.Place{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM places WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting place: %w", err)
	}
	return p, nil
}

// ListPlaces returns all places in insertion order.
func ListPlaces(ctx context.Context, db *sql.DB) ([]model.Place, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, created_at FROM places ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing places: %w", err)
	}
	defer rows.Close()

	var places []model.Place
	for rows.Next() {
		var p model.Place
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning place: %w", err)
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

// SeedPlaces inserts the given place names if not already present.
func SeedPlaces(ctx context.Context, db *sql.DB, names []string) error {
	for _, name := range names {
		_, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO places (name) VALUES (?)`, name,
		)
		if err != nil {
			return fmt.Errorf("seeding place %q: %w", name, err)
		}
	}
	return nil
}
