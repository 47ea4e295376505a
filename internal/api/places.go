package api

import (
	"database/sql"
	"net/http"

	"github.com/alaf-team/alaf/internal/model"
	"github.com/alaf-team/alaf/internal/store"
)

// PlacesHandler serves the found-location nodes the register form offers.
type PlacesHandler struct {
	DB *sql.DB
}

// List handles GET /api/places.
func (h *PlacesHandler) List(w http.ResponseWriter, r *http.Request) {
	places, err := store.ListPlaces(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list places")
		return
	}
	if places == nil {
		places = []model.Place{}
	}
	jsonResponse(w, http.StatusOK, places)
}
