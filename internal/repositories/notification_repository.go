package repositories

import (
	"context"

	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	CreateNotifications(ctx context.Context, notifications []models.Notification) error
	GetByUserID(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, int64, error)
	GetUnreadCount(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, notificationID uint, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return errors.Wrap(err, "failed to create notification")
	}
	return nil
}

// CreateNotifications writes all rows with a single multi-row insert
func (r *postgresNotificationRepository) CreateNotifications(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&notifications).Error; err != nil {
		return errors.Wrap(err, "failed to create notifications")
	}
	return nil
}

func (r *postgresNotificationRepository) GetByUserID(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
		if filter.IsRead != nil {
			q = q.Where("is_read = ?", *filter.IsRead)
		}
		return q
	}

	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count notifications")
	}

	err := scoped().Order("created_at DESC").Order("id DESC").
		Offset(filter.Offset).Limit(filter.Limit).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list notifications")
	}
	return notifications, total, nil
}

func (r *postgresNotificationRepository) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count unread notifications")
	}
	return count, nil
}

// MarkAsRead enforces ownership in the update predicate itself
func (r *postgresNotificationRepository) MarkAsRead(ctx context.Context, notificationID uint, userID string) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to mark notification read")
	}
	if res.RowsAffected == 0 {
		return ErrNotFoundOrNotOwned
	}
	return nil
}

func (r *postgresNotificationRepository) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "failed to mark notifications read")
	}
	return res.RowsAffected, nil
}
