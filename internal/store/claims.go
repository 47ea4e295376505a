package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/alaf-team/alaf/internal/model"
)

// ClaimWindow is the exclusivity window: how long a pending claim blocks
// other claims on the same item before it lapses.
const ClaimWindow = 48 * time.Hour

// FileClaimParams holds the fields of a recovery request.
type FileClaimParams struct {
	ItemID             int64
	RequesterID        *int64
	RequesterName      string
	RequesterEmail     string
	ProofDetailAddress string
	ProofDescription   string
}

const claimColumns = `id, item_id, requester_id, requester_name, requester_email,
	        proof_detail_address, proof_description, proof_image_mime, status,
	        created_at, expires_at, resolved_at, resolved_by`

// FileClaim creates a pending claim against an available item and marks
// the item unavailable, in a single transaction. Concurrent filings
// against the same item serialize on a guarded status update: only the
// caller that observes the item as stored wins, everyone else gets
// model.ErrConflict.
func FileClaim(ctx context.Context, db *sql.DB, p FileClaimParams, now time.Time) (*model.Claim, error) {
	switch {
	case strings.TrimSpace(p.RequesterName) == "":
		return nil, fmt.Errorf("%w: requester name required", model.ErrValidation)
	case strings.TrimSpace(p.RequesterEmail) == "":
		return nil, fmt.Errorf("%w: requester email required", model.ErrValidation)
	case strings.TrimSpace(p.ProofDetailAddress) == "":
		return nil, fmt.Errorf("%w: proof_detail_address required", model.ErrValidation)
	case strings.TrimSpace(p.ProofDescription) == "":
		return nil, fmt.Errorf("%w: proof_description required", model.ErrValidation)
	}

	now = now.UTC()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// A lapsed pending claim no longer blocks; void it first.
	if err := expireClaims(ctx, tx, p.ItemID, now); err != nil {
		return nil, err
	}

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM items WHERE id = ?`, p.ItemID,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %d: %w", p.ItemID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking item status: %w", err)
	}
	if status == model.ItemStatusResolved {
		return nil, fmt.Errorf("%w: item %d already resolved", model.ErrConflict, p.ItemID)
	}

	// Compare-and-set on the item status. Zero rows means another claim
	// holds the item.
	result, err := tx.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		model.ItemStatusClaimPending, p.ItemID, model.ItemStatusStored,
	)
	if err != nil {
		return nil, fmt.Errorf("locking item: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("locking item: %w", err)
	} else if n == 0 {
		return nil, fmt.Errorf("%w: item %d already has a pending claim", model.ErrConflict, p.ItemID)
	}

	result, err = tx.ExecContext(ctx,
		`INSERT INTO claims (item_id, requester_id, requester_name, requester_email,
		                     proof_detail_address, proof_description, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ItemID, p.RequesterID, p.RequesterName, p.RequesterEmail,
		p.ProofDetailAddress, p.ProofDescription, now, now.Add(ClaimWindow),
	)
	if err != nil {
		return nil, fmt.Errorf("creating claim: %w", err)
	}

	claimID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting claim id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing claim: %w", err)
	}

	return GetClaim(ctx, db, claimID)
}

// GetClaim returns a claim by ID.
func GetClaim(ctx context.Context, db *sql.DB, id int64) (*model.Claim, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+claimColumns+` FROM claims WHERE id = ?`, id,
	)
	claim, err := scanClaim(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("claim %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting claim: %w", err)
	}
	return claim, nil
}

// ResolveClaim applies an admin decision to a pending claim. Approval
// resolves the item permanently; rejection makes it available again. The
// claim update is a compare-and-set on its status, so when two admins
// race, the loser gets model.ErrInvalidTransition instead of silently
// overwriting the decision.
func ResolveClaim(ctx context.Context, db *sql.DB, claimID int64, action string, resolvedBy *int64, now time.Time) (*model.Claim, error) {
	if action != model.ClaimActionApprove && action != model.ClaimActionReject {
		return nil, fmt.Errorf("%w: unknown action %q", model.ErrValidation, action)
	}

	now = now.UTC()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var itemID int64
	var status string
	var expiresAt time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT item_id, status, expires_at FROM claims WHERE id = ?`, claimID,
	).Scan(&itemID, &status, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("claim %d: %w", claimID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking claim status: %w", err)
	}

	if status == model.ClaimStatusPending && !expiresAt.After(now) {
		// The window lapsed without a decision: void the claim and
		// restore the item before reporting the failure.
		if err := expireClaims(ctx, tx, itemID, now); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("committing expiry: %w", err)
		}
		return nil, fmt.Errorf("%w: claim %d expired", model.ErrInvalidTransition, claimID)
	}
	if status != model.ClaimStatusPending {
		return nil, fmt.Errorf("%w: claim %d already %s", model.ErrInvalidTransition, claimID, status)
	}

	claimStatus := model.ClaimStatusRejected
	itemStatus := model.ItemStatusStored
	if action == model.ClaimActionApprove {
		claimStatus = model.ClaimStatusApproved
		itemStatus = model.ItemStatusResolved
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE claims SET status = ?, resolved_at = ?, resolved_by = ?
		 WHERE id = ? AND status = ?`,
		claimStatus, now, resolvedBy, claimID, model.ClaimStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("resolving claim: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("resolving claim: %w", err)
	} else if n == 0 {
		return nil, fmt.Errorf("%w: claim %d already resolved", model.ErrInvalidTransition, claimID)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		itemStatus, itemID, model.ItemStatusClaimPending,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing resolution: %w", err)
	}

	return GetClaim(ctx, db, claimID)
}

// ListPendingClaims returns the adjudication queue: pending, non-expired
// claims joined with their items, oldest first so no claim starves.
// Lapsed claims are voided before the listing.
func ListPendingClaims(ctx context.Context, db *sql.DB, now time.Time) ([]model.AdminRequest, error) {
	now = now.UTC()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := expireClaims(ctx, tx, 0, now); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT c.id, c.item_id, i.name, p.name, i.detail_address,
		        COALESCE(i.description, ''), i.image_mime,
		        c.requester_name, c.requester_email,
		        c.proof_detail_address, c.proof_description, c.proof_image_mime,
		        c.created_at, c.expires_at
		 FROM claims c
		 JOIN items i ON i.id = c.item_id
		 JOIN places p ON p.id = i.place_id
		 WHERE c.status = ? AND c.expires_at > ?
		 ORDER BY c.created_at ASC, c.id ASC`,
		model.ClaimStatusPending, now,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pending claims: %w", err)
	}
	defer rows.Close()

	var requests []model.AdminRequest
	for rows.Next() {
		var r model.AdminRequest
		var itemMime, proofMime sql.NullString
		if err := rows.Scan(&r.RequestID, &r.ItemID, &r.ItemName, &r.OriginalAddress,
			&r.OriginalDetailAddress, &r.OriginalDesc, &itemMime,
			&r.RequesterName, &r.RequesterEmail,
			&r.ProofDetailAddress, &r.ProofDescription, &proofMime,
			&r.CreatedAt, &r.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scanning pending claim: %w", err)
		}
		if itemMime.String != "" {
			r.OriginalImage = fmt.Sprintf("/api/items/%d/image", r.ItemID)
		}
		if proofMime.String != "" {
			r.ProofImageURL = fmt.Sprintf("/api/admin/requests/%d/image", r.RequestID)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing expiry sweep: %w", err)
	}
	return requests, nil
}

// ListClaimsByRequester returns a user's claims, newest first, after
// voiding any of their lapsed pending claims.
func ListClaimsByRequester(ctx context.Context, db *sql.DB, userID int64, now time.Time) ([]model.Claim, error) {
	now = now.UTC()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := expireClaims(ctx, tx, 0, now); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT `+claimColumns+` FROM claims
		 WHERE requester_id = ?
		 ORDER BY created_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing claims by requester: %w", err)
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		claims = append(claims, *claim)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing expiry sweep: %w", err)
	}
	return claims, nil
}

// SetClaimProofImage sets a claim's proof image data.
func SetClaimProofImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE claims SET proof_image = ?, proof_image_mime = ? WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting claim proof image: %w", err)
	}
	return nil
}

// GetClaimProofImage returns a claim's proof image data and MIME type.
func GetClaimProofImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT proof_image, proof_image_mime FROM claims WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("claim %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting claim proof image: %w", err)
	}
	return image, mime.String, nil
}

// expireClaims voids pending claims whose window has lapsed: the item
// becomes available again and the claim collapses to rejected with no
// resolver. itemID scopes the sweep to one item; zero sweeps all.
func expireClaims(ctx context.Context, tx *sql.Tx, itemID int64, now time.Time) error {
	itemFilter := ``
	args := []any{model.ItemStatusClaimPending, model.ClaimStatusPending, now}
	if itemID > 0 {
		itemFilter = ` AND item_id = ?`
		args = append(args, itemID)
	}

	// Restore items first, while the lapsed claims are still pending.
	_, err := tx.ExecContext(ctx,
		`UPDATE items SET status = 'stored', updated_at = CURRENT_TIMESTAMP
		 WHERE status = ? AND id IN (
		     SELECT item_id FROM claims
		     WHERE status = ? AND expires_at <= ?`+itemFilter+`
		 )`, args...,
	)
	if err != nil {
		return fmt.Errorf("restoring items for expired claims: %w", err)
	}

	args = []any{now, model.ClaimStatusPending, now}
	if itemID > 0 {
		args = append(args, itemID)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE claims SET status = 'rejected', resolved_at = ?
		 WHERE status = ? AND expires_at <= ?`+itemFilter,
		args...,
	)
	if err != nil {
		return fmt.Errorf("expiring claims: %w", err)
	}
	return nil
}

func scanClaim(row rowScanner) (*model.Claim, error) {
	c := &model.Claim{}
	var proofMime sql.NullString
	err := row.Scan(&c.ID, &c.ItemID, &c.RequesterID, &c.RequesterName, &c.RequesterEmail,
		&c.ProofDetailAddress, &c.ProofDescription, &proofMime, &c.Status,
		&c.CreatedAt, &c.ExpiresAt, &c.ResolvedAt, &c.ResolvedBy)
	if err != nil {
		return nil, err
	}
	c.ProofImageMime = proofMime.String
	if c.ProofImageMime != "" {
		c.ProofImageURL = fmt.Sprintf("/api/admin/requests/%d/image", c.ID)
	}
	return c, nil
}
