package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Adjudication is the audit record of one claim verdict (MongoDB)
type Adjudication struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ClaimID     uint               `json:"claim_id,omitempty" bson:"claim_id,omitempty"`
	FoundItemID uint               `json:"found_item_id" bson:"found_item_id"`
	LostItemID  uint               `json:"lost_item_id" bson:"lost_item_id"`
	ClaimantID  string             `json:"claimant_id" bson:"claimant_id"`
	Provider    string             `json:"provider,omitempty" bson:"provider,omitempty"` // empty when every provider failed
	RawVerdict  string             `json:"raw_verdict,omitempty" bson:"raw_verdict,omitempty"`
	Decision    string             `json:"decision" bson:"decision"` // approve or review
	Outcome     string             `json:"outcome" bson:"outcome"`
	Errors      []string           `json:"errors,omitempty" bson:"errors,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}
