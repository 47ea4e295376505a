package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/alaf-team/alaf/internal/imaging"
	"github.com/alaf-team/alaf/internal/model"
	"github.com/alaf-team/alaf/internal/store"
)

// lockMessage is shown on an item detail while a claim holds the item.
const lockMessage = "현재 다른 사용자가 회수 신청하여 48시간 동안 선점 중입니다."

// maxUploadSize limits item and proof photo uploads.
const maxUploadSize = 5 << 20 // 5 MB

// ItemsHandler handles found-item endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

// itemDetail decorates an item with the client-facing lock message.
type itemDetail struct {
	*model.Item
	LockMessage string `json:"lock_message,omitempty"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.ItemFilter{
		Category: r.URL.Query().Get("category"),
		Query:    r.URL.Query().Get("q"),
		Sort:     r.URL.Query().Get("sort"),
	}

	items, err := store.ListItems(r.Context(), h.DB, filter)
	if err != nil {
		storeError(w, err, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	// Clear any lapsed claim first so availability is current.
	if _, err := store.ListPendingClaims(r.Context(), h.DB, time.Now()); err != nil {
		storeError(w, err, "failed to refresh claims")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get item")
		return
	}

	if err := store.IncrementViewCount(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "failed to count view")
		return
	}
	item.ViewCount++

	detail := itemDetail{Item: item}
	if item.Status == model.ItemStatusClaimPending {
		detail.LockMessage = lockMessage
	}
	jsonResponse(w, http.StatusOK, detail)
}

// Create handles POST /api/items. Registration is open: the kiosk posts
// without an account, the web client posts with one.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	categoryID, _ := strconv.Atoi(r.FormValue("category_id"))
	placeID, _ := strconv.ParseInt(r.FormValue("place_id"), 10, 64)

	params := store.RegisterItemParams{
		Name:          r.FormValue("name"),
		Description:   r.FormValue("description"),
		CategoryID:    categoryID,
		FoundDate:     r.FormValue("found_date"),
		PlaceID:       placeID,
		DetailAddress: r.FormValue("detail_address"),
	}
	if claims := GetClaims(r.Context()); claims != nil {
		params.ReporterID = &claims.UserID
	}

	item, err := store.RegisterItem(r.Context(), h.DB, params)
	if err != nil {
		storeError(w, err, "failed to register item")
		return
	}

	if file, _, err := r.FormFile("image"); err == nil {
		defer file.Close()

		processed, err := imaging.Process(file)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := store.SetItemImage(r.Context(), h.DB, item.ID, processed.Data, processed.MIME); err != nil {
			storeError(w, err, "failed to save image")
			return
		}
		item, err = store.GetItem(r.Context(), h.DB, item.ID)
		if err != nil {
			storeError(w, err, "failed to reload item")
			return
		}
	}

	jsonResponse(w, http.StatusCreated, item)
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// Mine handles GET /api/items/mine.
func (h *ItemsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	items, err := store.ListItemsByReporter(r.Context(), h.DB, claims.UserID)
	if err != nil {
		storeError(w, err, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}
