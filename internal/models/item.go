package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// ItemStatus is the lifecycle state of an item report
type ItemStatus string

const (
	StatusLost     ItemStatus = "lost"
	StatusFound    ItemStatus = "found"
	StatusClaimed  ItemStatus = "claimed"
	StatusReunited ItemStatus = "reunited"
	StatusReturned ItemStatus = "returned"
)

// Item represents a lost or found item report (PostgreSQL, pgvector)
type Item struct {
	ID                   uint            `json:"id" gorm:"primaryKey"`
	UserID               *string         `json:"user_id,omitempty" gorm:"size:128;index"` // nil for anonymous legacy reports
	Status               ItemStatus      `json:"status" gorm:"size:16;index;not null"`
	Description          string          `json:"description" gorm:"not null"`
	University           string          `json:"university"`
	Location             string          `json:"location"`
	Latitude             *float64        `json:"latitude,omitempty"`
	Longitude            *float64        `json:"longitude,omitempty"`
	ItemDate             time.Time       `json:"item_date" gorm:"type:date;index"`
	ImageURL             string          `json:"image_url"`
	Embedding            pgvector.Vector `json:"-" gorm:"type:vector(512);not null"`
	VerificationQuestion *string         `json:"verification_question,omitempty"`
	VerificationAnswer   *string         `json:"-"` // never leaves the server
	CreatedAt            time.Time       `json:"created_at"`
}

// OwnedBy reports whether the item belongs to the given user
func (i *Item) OwnedBy(userID string) bool {
	return i.UserID != nil && *i.UserID == userID
}

// Candidate is a ranked potential match produced by the matcher
type Candidate struct {
	ItemID      uint      `json:"id"`
	UserID      *string   `json:"-"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	ItemDate    time.Time `json:"item_date"`
	ImageURL    string    `json:"image_url"`
	Distance    float64   `json:"distance"`
}

// ReportItemRequest is the multipart form submitted to /items/report and /items/search
type ReportItemRequest struct {
	Status               string `form:"status" validate:"required,oneof=lost found"`
	Description          string `form:"description" validate:"required,min=3,max=1000"`
	University           string `form:"university" validate:"required,max=200"`
	CustomLocation       string `form:"customLocation" validate:"required,max=300"`
	Lat                  string `form:"lat" validate:"omitempty,latitude"`
	Lng                  string `form:"lng" validate:"omitempty,longitude"`
	Date                 string `form:"date" validate:"required,datetime=2006-01-02"`
	VerificationQuestion string `form:"verification_question" validate:"required_with=VerificationAnswer,omitempty,max=500"`
	VerificationAnswer   string `form:"verification_answer" validate:"required_with=VerificationQuestion,omitempty,max=500"`
}
