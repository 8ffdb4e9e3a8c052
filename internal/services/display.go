package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/reunite-ai/backend/internal/models"
)

// Classify derives the category tag and icon shown next to a notification.
// The rules are evaluated top-down and matched case-insensitively.
func Classify(message string) (category, icon string) {
	msg := strings.ToLower(message)
	has := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(msg, s) {
				return true
			}
		}
		return false
	}

	switch {
	case has("match", "potential match"):
		category = "matches"
	case has("filed", "reported"):
		category = "filed"
	case has("claim", "pending"):
		category = "claim"
	case has("reunited", "pickup code"):
		category = "reunited"
	}

	switch {
	case has("match", "potential match"):
		icon = "fa-solid fa-link"
	case has("filed", "reported"):
		icon = "fa-solid fa-check"
	case has("claim", "pending review"):
		icon = "fa-solid fa-user-check"
	case has("reunited", "pickup code"):
		icon = "fa-solid fa-handshake"
	default:
		icon = "fa-solid fa-bell"
	}
	return category, icon
}

// TimeAgo renders the coarse relative age used across the dashboard
func TimeAgo(created, now time.Time) string {
	hours := int(now.Sub(created) / time.Hour)
	if hours < 1 {
		return "Just now"
	}
	if hours < 24 {
		return fmt.Sprintf("%d hours ago", hours)
	}
	return fmt.Sprintf("%d days ago", hours/24)
}

// ViewNotification attaches the derived display fields
func ViewNotification(n models.Notification, now time.Time) models.NotificationView {
	category, icon := Classify(n.Message)
	return models.NotificationView{
		Notification: n,
		Category:     category,
		Icon:         icon,
		TimeAgo:      TimeAgo(n.CreatedAt, now),
	}
}

// reportDisplay maps an item status to the label and CSS class of the recent reports table
func reportDisplay(status models.ItemStatus) (string, string) {
	switch status {
	case models.StatusLost:
		return "Searching", "searching"
	case models.StatusFound:
		return "Found", "matches"
	case models.StatusClaimed:
		return "Claim Approved", "pending"
	case models.StatusReunited:
		return "Reunited", "resolved"
	default:
		return "Unknown", ""
	}
}

func lostReportDisplay(status models.ItemStatus) (string, string) {
	switch status {
	case models.StatusLost:
		return "Searching", "searching"
	case models.StatusReunited:
		return "Reunited", "resolved"
	default:
		return "Unknown", "unknown"
	}
}

func foundReportDisplay(status models.ItemStatus) (string, string) {
	switch status {
	case models.StatusFound:
		return "Awaiting Owner", "searching"
	case models.StatusClaimed:
		return "Claim Pending", "pending"
	case models.StatusReturned:
		return "Returned", "resolved"
	default:
		return "Unknown", "unknown"
	}
}
