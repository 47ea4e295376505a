package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alaf-team/alaf/internal/imaging"
	"github.com/alaf-team/alaf/internal/model"
	"github.com/alaf-team/alaf/internal/store"
)

// ClaimsHandler handles recovery-request endpoints.
type ClaimsHandler struct {
	DB *sql.DB
}

// Create handles POST /api/requests: a user files a claim with proof
// against an available item.
func (h *ClaimsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	itemID, err := strconv.ParseInt(r.FormValue("item_id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	params := store.FileClaimParams{
		ItemID:             itemID,
		RequesterID:        &claims.UserID,
		RequesterName:      claims.Name,
		RequesterEmail:     claims.Email,
		ProofDetailAddress: r.FormValue("proof_detail_address"),
		ProofDescription:   r.FormValue("proof_description"),
	}

	claim, err := store.FileClaim(r.Context(), h.DB, params, time.Now())
	if err != nil {
		storeError(w, err, "failed to file claim")
		return
	}

	if file, _, err := r.FormFile("image"); err == nil {
		defer file.Close()

		processed, err := imaging.Process(file)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := store.SetClaimProofImage(r.Context(), h.DB, claim.ID, processed.Data, processed.MIME); err != nil {
			storeError(w, err, "failed to save proof image")
			return
		}
	}

	slog.Info("claim filed", "claim", claim.ID, "item", claim.ItemID, "requester", claim.RequesterEmail)
	jsonResponse(w, http.StatusCreated, claim)
}

// Mine handles GET /api/requests/mine.
func (h *ClaimsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	list, err := store.ListClaimsByRequester(r.Context(), h.DB, claims.UserID, time.Now())
	if err != nil {
		storeError(w, err, "failed to list claims")
		return
	}
	if list == nil {
		list = []model.Claim{}
	}
	jsonResponse(w, http.StatusOK, list)
}
