package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alaf-team/alaf/internal/model"
	"github.com/alaf-team/alaf/internal/store"
)

// AdminHandler handles the adjudication endpoints.
type AdminHandler struct {
	DB *sql.DB
}

type processRequest struct {
	Action string `json:"action"`
}

// List handles GET /api/admin/requests: the adjudication queue, pending
// non-expired claims paired with their items, oldest first.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := store.ListPendingClaims(r.Context(), h.DB, time.Now())
	if err != nil {
		storeError(w, err, "failed to list pending claims")
		return
	}
	if requests == nil {
		requests = []model.AdminRequest{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// Process handles POST /api/admin/requests/{id}/process: the binary
// approve/reject decision on a pending claim.
func (h *AdminHandler) Process(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req processRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var resolvedBy *int64
	if claims := GetClaims(r.Context()); claims != nil {
		resolvedBy = &claims.UserID
	}

	claim, err := store.ResolveClaim(r.Context(), h.DB, id, req.Action, resolvedBy, time.Now())
	if err != nil {
		storeError(w, err, "failed to process claim")
		return
	}

	slog.Info("claim processed", "claim", claim.ID, "item", claim.ItemID, "action", req.Action)
	jsonResponse(w, http.StatusOK, claim)
}

// ProofImage handles GET /api/admin/requests/{id}/image.
func (h *AdminHandler) ProofImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	data, mime, err := store.GetClaimProofImage(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get proof image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no proof image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
