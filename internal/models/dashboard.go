package models

import "time"

// DashboardStats summarises a user's reports
type DashboardStats struct {
	ActiveReports    int64 `json:"active_reports"`
	ItemsWithMatches int64 `json:"items_with_matches"`
	ItemsResolved    int64 `json:"items_resolved"`
}

// ReportSummary is an item row decorated for the dashboard tables
type ReportSummary struct {
	ID            uint       `json:"report_id"`
	Status        ItemStatus `json:"status"`
	Description   string     `json:"item_description"`
	ItemDate      time.Time  `json:"item_date"`
	ImageURL      string     `json:"image_url"`
	DisplayStatus string     `json:"display_status"`
	StatusClass   string     `json:"status_class"`
}

// Activity is a recent notification rendered for the activity feed
type Activity struct {
	Details       string    `json:"details"`
	CreatedAt     time.Time `json:"created_at"`
	ActivityClass string    `json:"activity_class"`
	Icon          string    `json:"icon"`
	TimeAgo       string    `json:"time_ago"`
}
