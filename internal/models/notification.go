package models

import "time"

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"size:128;index;not null"`
	Message     string    `json:"message" gorm:"not null"`
	LostItemID  *uint     `json:"lost_item_id,omitempty" gorm:"index"`
	FoundItemID *uint     `json:"found_item_id,omitempty" gorm:"index"`
	IsRead      bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

// NotificationView adds the display fields derived from the message at read time
type NotificationView struct {
	Notification
	Category string `json:"category"`
	Icon     string `json:"icon"`
	TimeAgo  string `json:"time_ago"`
}

// NotificationFilter narrows a notification listing
type NotificationFilter struct {
	Limit  int
	Offset int
	IsRead *bool
}

// MarkReadRequest defines the request body for /notifications/mark-read
type MarkReadRequest struct {
	NotificationID uint `json:"notificationId" validate:"required"`
}
