package services

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/anonto42/reunite-ai/backend/internal/repositories"
	"golang.org/x/sync/errgroup"
)

const (
	recentReportsLimit  = 5
	recentActivityLimit = 3
)

// Overview is the payload of the main dashboard page
type Overview struct {
	Stats          models.DashboardStats  `json:"stats"`
	RecentReports  []models.ReportSummary `json:"recent_reports"`
	RecentActivity []models.Activity      `json:"recent_activity"`
}

// DashboardService assembles the read-only dashboard views
type DashboardService struct {
	repo repositories.DashboardRepository
	now  func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(repo repositories.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo, now: time.Now}
}

// Overview loads stats, recent reports and recent activity concurrently
func (s *DashboardService) Overview(ctx context.Context, userID string) (*Overview, error) {
	var (
		stats         *models.DashboardStats
		items         []models.Item
		notifications []models.Notification
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = s.repo.CountStats(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		items, err = s.repo.RecentItems(gctx, userID, recentReportsLimit)
		return err
	})
	g.Go(func() (err error) {
		notifications, err = s.repo.RecentNotifications(gctx, userID, recentActivityLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	now := s.now()
	activity := make([]models.Activity, len(notifications))
	for i, n := range notifications {
		class, icon := Classify(n.Message)
		activity[i] = models.Activity{
			Details:       n.Message,
			CreatedAt:     n.CreatedAt,
			ActivityClass: class,
			Icon:          icon,
			TimeAgo:       TimeAgo(n.CreatedAt, now),
		}
	}

	return &Overview{
		Stats:          *stats,
		RecentReports:  summarize(items, reportDisplay),
		RecentActivity: activity,
	}, nil
}

func (s *DashboardService) LostReports(ctx context.Context, userID string) ([]models.ReportSummary, error) {
	items, err := s.repo.ItemsByStatus(ctx, userID, models.StatusLost, models.StatusReunited)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return summarize(items, lostReportDisplay), nil
}

func (s *DashboardService) FoundReports(ctx context.Context, userID string) ([]models.ReportSummary, error) {
	items, err := s.repo.ItemsByStatus(ctx, userID, models.StatusFound, models.StatusClaimed, models.StatusReturned)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return summarize(items, foundReportDisplay), nil
}

func summarize(items []models.Item, display func(models.ItemStatus) (string, string)) []models.ReportSummary {
	out := make([]models.ReportSummary, len(items))
	for i, it := range items {
		label, class := display(it.Status)
		out[i] = models.ReportSummary{
			ID:            it.ID,
			Status:        it.Status,
			Description:   it.Description,
			ItemDate:      it.ItemDate,
			ImageURL:      it.ImageURL,
			DisplayStatus: label,
			StatusClass:   class,
		}
	}
	return out
}
