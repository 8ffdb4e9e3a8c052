package services

import (
	"testing"
	"time"

	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		age  time.Duration
		want string
	}{
		{0, "Just now"},
		{30 * time.Minute, "Just now"},
		{59*time.Minute + 59*time.Second, "Just now"},
		{time.Hour, "1 hours ago"},
		{5 * time.Hour, "5 hours ago"},
		{23*time.Hour + 59*time.Minute, "23 hours ago"},
		{24 * time.Hour, "1 days ago"},
		{50 * time.Hour, "2 days ago"},
		{30 * 24 * time.Hour, "30 days ago"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeAgo(now.Add(-tt.age), now))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		msg      string
		category string
		icon     string
	}{
		{"We found a potential match for your lost item", "matches", "fa-solid fa-link"},
		{"Your report was filed", "filed", "fa-solid fa-check"},
		{"You REPORTED a found item", "filed", "fa-solid fa-check"},
		{"A claim on the item you found is pending review by our team.", "claim", "fa-solid fa-user-check"},
		{"Your request is pending", "claim", "fa-solid fa-bell"},
		{"You have been reunited with your item", "reunited", "fa-solid fa-handshake"},
		{"Your pickup code is R-AI-1234", "reunited", "fa-solid fa-handshake"},
		{"Welcome aboard", "", "fa-solid fa-bell"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			category, icon := Classify(tt.msg)
			assert.Equal(t, tt.category, category)
			assert.Equal(t, tt.icon, icon)
		})
	}
}

func TestReportDisplay(t *testing.T) {
	label, class := reportDisplay(models.StatusClaimed)
	assert.Equal(t, "Claim Approved", label)
	assert.Equal(t, "pending", class)

	label, class = lostReportDisplay(models.StatusFound)
	assert.Equal(t, "Unknown", label)
	assert.Equal(t, "unknown", class)

	label, class = foundReportDisplay(models.StatusFound)
	assert.Equal(t, "Awaiting Owner", label)
	assert.Equal(t, "searching", class)

	label, class = reportDisplay(models.StatusReturned)
	assert.Equal(t, "Unknown", label)
	assert.Empty(t, class)
}
