package model

import "time"

// Place represents a fixed found-location node offered by the register
// form (e.g. a building or hall). Free-text detail lives on the item.
type Place struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
