package repositories

import (
	"context"

	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// DashboardRepository serves the aggregate read views of the dashboard
type DashboardRepository interface {
	CountStats(ctx context.Context, userID string) (*models.DashboardStats, error)
	RecentItems(ctx context.Context, userID string, limit int) ([]models.Item, error)
	ItemsByStatus(ctx context.Context, userID string, statuses ...models.ItemStatus) ([]models.Item, error)
	RecentNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error)
}

// PostgresDashboardRepository implements DashboardRepository on top of GORM
type PostgresDashboardRepository struct {
	db *gorm.DB
}

// NewPostgresDashboardRepository creates a new PostgresDashboardRepository
func NewPostgresDashboardRepository(db *gorm.DB) *PostgresDashboardRepository {
	return &PostgresDashboardRepository{db: db}
}

// CountStats counts active reports, reports with a pending claim and resolved reports
func (r *PostgresDashboardRepository) CountStats(ctx context.Context, userID string) (*models.DashboardStats, error) {
	db := r.db.WithContext(ctx)
	var stats models.DashboardStats

	if err := db.Model(&models.Item{}).
		Where("user_id = ? AND status IN ?", userID, []models.ItemStatus{models.StatusLost, models.StatusFound}).
		Count(&stats.ActiveReports).Error; err != nil {
		return nil, errors.Wrap(err, "failed to count active reports")
	}

	var lostWithClaims, foundWithClaims int64
	if err := db.Table("claims").
		Joins("JOIN items ON claims.lost_item_id = items.id").
		Where("items.user_id = ? AND claims.status = ?", userID, models.ClaimPending).
		Distinct("claims.lost_item_id").
		Count(&lostWithClaims).Error; err != nil {
		return nil, errors.Wrap(err, "failed to count lost items with pending claims")
	}
	if err := db.Table("claims").
		Joins("JOIN items ON claims.found_item_id = items.id").
		Where("items.user_id = ? AND claims.status = ?", userID, models.ClaimPending).
		Distinct("claims.found_item_id").
		Count(&foundWithClaims).Error; err != nil {
		return nil, errors.Wrap(err, "failed to count found items with pending claims")
	}
	stats.ItemsWithMatches = lostWithClaims + foundWithClaims

	if err := db.Model(&models.Item{}).
		Where("user_id = ? AND status IN ?", userID, []models.ItemStatus{models.StatusClaimed, models.StatusReunited}).
		Count(&stats.ItemsResolved).Error; err != nil {
		return nil, errors.Wrap(err, "failed to count resolved reports")
	}

	return &stats, nil
}

func (r *PostgresDashboardRepository) RecentItems(ctx context.Context, userID string, limit int) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Omit("embedding").
		Where("user_id = ?", userID).
		Order("item_date DESC").Order("id DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recent items")
	}
	return items, nil
}

func (r *PostgresDashboardRepository) ItemsByStatus(ctx context.Context, userID string, statuses ...models.ItemStatus) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Omit("embedding").
		Where("user_id = ? AND status IN ?", userID, statuses).
		Order("item_date DESC").Order("id DESC").
		Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list items by status")
	}
	return items, nil
}

func (r *PostgresDashboardRepository) RecentNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recent notifications")
	}
	return notifications, nil
}
