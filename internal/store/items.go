package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/alaf-team/alaf/internal/category"
	"github.com/alaf-team/alaf/internal/model"
)

// RegisterItemParams holds the fields of a found-item registration.
type RegisterItemParams struct {
	Name          string
	Description   string
	CategoryID    int
	FoundDate     string
	PlaceID       int64
	DetailAddress string
	ReporterID    *int64
}

// ItemFilter narrows and orders an item listing.
type ItemFilter struct {
	Category string // group or leaf category name; empty matches all
	Query    string // case-insensitive name substring
	Sort     string // model.ItemSortDate (default) or model.ItemSortViews
}

const itemColumns = `i.id, i.name, i.description, i.category_id, i.found_date,
	        i.place_id, p.name, i.detail_address, i.image_mime, i.status,
	        i.view_count, i.reporter_id, i.created_at, i.updated_at`

// RegisterItem validates and creates a found item in status "stored".
func RegisterItem(ctx context.Context, db *sql.DB, p RegisterItemParams) (*model.Item, error) {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return nil, fmt.Errorf("%w: name required", model.ErrValidation)
	case strings.TrimSpace(p.FoundDate) == "":
		return nil, fmt.Errorf("%w: found_date required", model.ErrValidation)
	case p.PlaceID <= 0:
		return nil, fmt.Errorf("%w: place_id required", model.ErrValidation)
	case strings.TrimSpace(p.DetailAddress) == "":
		return nil, fmt.Errorf("%w: detail_address required", model.ErrValidation)
	}

	if !category.Valid(p.CategoryID) {
		p.CategoryID = category.DefaultID
	}

	place, err := GetPlace(ctx, db, p.PlaceID)
	if err != nil {
		return nil, err
	}
	if place == nil {
		return nil, fmt.Errorf("%w: unknown place %d", model.ErrValidation, p.PlaceID)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, description, category_id, found_date, place_id, detail_address, reporter_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.CategoryID, p.FoundDate, p.PlaceID, p.DetailAddress, p.ReporterID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+`
		 FROM items i JOIN places p ON p.id = i.place_id
		 WHERE i.id = ?`, id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns items matching the filter. Sorting is by found date
// (newest first) or view count (highest first); ties fall back to
// insertion order so results are stable.
func ListItems(ctx context.Context, db *sql.DB, filter ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + `
	          FROM items i JOIN places p ON p.id = i.place_id
	          WHERE 1=1`
	var args []any

	if filter.Category != "" {
		ids := category.Expand(filter.Category)
		if len(ids) == 0 {
			return []model.Item{}, nil
		}
		query += ` AND i.category_id IN (?` + strings.Repeat(", ?", len(ids)-1) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		query += ` AND instr(lower(i.name), lower(?)) > 0`
		args = append(args, q)
	}

	if filter.Sort == model.ItemSortViews {
		query += ` ORDER BY i.view_count DESC, i.id ASC`
	} else {
		query += ` ORDER BY i.found_date DESC, i.id ASC`
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// ListItemsByReporter returns the items a user registered, newest first.
func ListItemsByReporter(ctx context.Context, db *sql.DB, userID int64) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+`
		 FROM items i JOIN places p ON p.id = i.place_id
		 WHERE i.reporter_id = ?
		 ORDER BY i.created_at DESC, i.id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items by reporter: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// IncrementViewCount bumps an item's view counter. Detail reads call this;
// the list endpoint does not.
func IncrementViewCount(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET view_count = view_count + 1 WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("incrementing view count: %w", err)
	}
	return nil
}

// SetItemAvailability toggles an item between stored and claim_pending.
// Only the claim workflow calls this. A resolved item is immutable here.
func SetItemAvailability(ctx context.Context, db *sql.DB, id int64, available bool) error {
	status := model.ItemStatusClaimPending
	if available {
		status = model.ItemStatusStored
	}

	result, err := db.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status != ?`,
		status, id, model.ItemStatusResolved,
	)
	if err != nil {
		return fmt.Errorf("setting item availability: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("setting item availability: %w", err)
	}
	if n == 0 {
		if _, err := GetItem(ctx, db, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: item %d is resolved", model.ErrInvalidTransition, id)
	}
	return nil
}

// SetItemImage sets an item's image data.
func SetItemImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetItemImage returns an item's image data and MIME type.
func GetItemImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("item %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var description, imageMime sql.NullString
	err := row.Scan(&item.ID, &item.Name, &description, &item.CategoryID, &item.FoundDate,
		&item.PlaceID, &item.Address, &item.DetailAddress, &imageMime, &item.Status,
		&item.ViewCount, &item.ReporterID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.ImageMime = imageMime.String
	item.CategoryName = category.Name(item.CategoryID)
	item.IsAvailable = item.Status == model.ItemStatusStored
	if item.ImageMime != "" {
		item.ImageURL = fmt.Sprintf("/api/items/%d/image", item.ID)
	}
	return item, nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
