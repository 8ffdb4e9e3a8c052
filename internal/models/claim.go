package models

import "time"

// ClaimStatus is the adjudication outcome recorded on a claim
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "PENDING"
	ClaimApproved ClaimStatus = "APPROVED"
)

// Claim links a lost report to a found report (PostgreSQL)
type Claim struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	LostItemID    uint        `json:"lost_item_id" gorm:"index;not null"`
	FoundItemID   uint        `json:"found_item_id" gorm:"index;not null"`
	ClaimantEmail string      `json:"claimant_email" gorm:"size:320"`
	PickupCode    *string     `json:"pickup_code,omitempty" gorm:"size:16"` // set iff Status is APPROVED
	Status        ClaimStatus `json:"status" gorm:"size:16;index;not null"`
	CreatedAt     time.Time   `json:"created_at"`
}

// StartClaimRequest defines the request body for /items/claim/start
type StartClaimRequest struct {
	FoundItemID uint `json:"foundItemId" validate:"required"`
}

// VerifyClaimRequest defines the request body for /items/claim/verify
type VerifyClaimRequest struct {
	FoundItemID    uint   `json:"foundItemId" validate:"required"`
	LostItemID     uint   `json:"lostItemId" validate:"required"`
	ClaimantAnswer string `json:"claimantAnswer" validate:"required,max=1000"`
}

// ClaimResult is returned to the claimant after adjudication
type ClaimResult struct {
	Verified   bool    `json:"verified"`
	PickupCode *string `json:"pickupCode,omitempty"`
	ClaimID    uint    `json:"claimId"`
	Message    string  `json:"message,omitempty"`
}

// ApprovedClaim is the outcome of the atomic approval transaction
type ApprovedClaim struct {
	Claim        Claim
	UpdatedFound Item
	UpdatedLost  Item
}
