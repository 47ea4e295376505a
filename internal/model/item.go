package model

import "time"

// Item represents a found physical object recorded in the system.
// Items are never deleted; they only move through statuses, driven by
// the claim workflow.
type Item struct {
	ID            int64     `json:"item_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	CategoryID    int       `json:"category_id"`
	CategoryName  string    `json:"category_name,omitempty"`
	FoundDate     string    `json:"found_date"`
	PlaceID       int64     `json:"place_id"`
	Address       string    `json:"address,omitempty"`
	DetailAddress string    `json:"detail_address"`
	ImageMime     string    `json:"-"`
	ImageURL      string    `json:"image_url,omitempty"`
	Status        string    `json:"status"`
	IsAvailable   bool      `json:"is_available"`
	ViewCount     int64     `json:"views"`
	ReporterID    *int64    `json:"reporter_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Item statuses. Availability is derived: an item is available for a new
// claim only while it is "stored".
const (
	ItemStatusStored       = "stored"
	ItemStatusClaimPending = "claim_pending"
	ItemStatusResolved     = "resolved"
)

// Item list sort orders.
const (
	ItemSortDate  = "date"
	ItemSortViews = "views"
)
