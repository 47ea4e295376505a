package model

import "time"

// Claim represents a recovery request: a user asserting ownership of an
// item, with submitted proof. While a claim is pending the item is locked
// for everyone else until the claim is resolved or the exclusivity window
// runs out.
type Claim struct {
	ID                 int64      `json:"request_id"`
	ItemID             int64      `json:"item_id"`
	RequesterID        *int64     `json:"requester_id,omitempty"`
	RequesterName      string     `json:"requester_name"`
	RequesterEmail     string     `json:"requester_email"`
	ProofDetailAddress string     `json:"proof_detail_address"`
	ProofDescription   string     `json:"proof_description"`
	ProofImageMime     string     `json:"-"`
	ProofImageURL      string     `json:"proof_image_url,omitempty"`
	Status             string     `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
	ExpiresAt          time.Time  `json:"expires_at"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy         *int64     `json:"resolved_by,omitempty"`
}

// Claim statuses. Approved and rejected are terminal; an expired pending
// claim collapses to rejected with no resolver recorded.
const (
	ClaimStatusPending  = "pending"
	ClaimStatusApproved = "approved"
	ClaimStatusRejected = "rejected"
)

// Resolution actions accepted by the admin endpoint.
const (
	ClaimActionApprove = "APPROVE"
	ClaimActionReject  = "REJECT"
)

// AdminRequest is a pending claim joined with its item, shaped as the
// paired original-vs-claimed evidence row the adjudication screen shows.
type AdminRequest struct {
	RequestID             int64     `json:"request_id"`
	ItemID                int64     `json:"item_id"`
	ItemName              string    `json:"item_name"`
	OriginalAddress       string    `json:"original_address"`
	OriginalDetailAddress string    `json:"original_detail_address"`
	OriginalDesc          string    `json:"original_desc"`
	OriginalImage         string    `json:"original_image,omitempty"`
	RequesterName         string    `json:"requester_name"`
	RequesterEmail        string    `json:"requester_email"`
	ProofDetailAddress    string    `json:"proof_detail_address"`
	ProofDescription      string    `json:"proof_description"`
	ProofImageURL         string    `json:"proof_image_url,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	ExpiresAt             time.Time `json:"expires_at"`
}
