package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anonto42/reunite-ai/backend/internal/metrics"
	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/anonto42/reunite-ai/backend/internal/repositories"
)

const (
	defaultNotificationLimit = 100
	maxNotificationLimit     = 100
	maxDescriptionInMessage  = 80
)

// NotifyArgs describes a single notification to create
type NotifyArgs struct {
	UserID      string
	Message     string
	LostItemID  *uint
	FoundItemID *uint
}

// Notifier is what the intake and claim flows need from the dispatcher
type Notifier interface {
	Notify(ctx context.Context, args NotifyArgs) error
	NotifyBatch(ctx context.Context, batch []NotifyArgs) error
}

// Dispatcher creates notifications, tracks read state and runs match discovery
type Dispatcher struct {
	repo    repositories.NotificationRepository
	finder  CandidateFinder
	metrics metrics.Recorder
	now     func() time.Time
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(repo repositories.NotificationRepository, finder CandidateFinder, rec metrics.Recorder) *Dispatcher {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Dispatcher{repo: repo, finder: finder, metrics: rec, now: time.Now}
}

// Notify writes one notification and reports failure to the caller for logging
func (d *Dispatcher) Notify(ctx context.Context, args NotifyArgs) error {
	n := toNotification(args)
	if err := d.repo.CreateNotification(ctx, &n); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	d.metrics.NotificationsDispatched("single", 1)
	return nil
}

// NotifyBatch writes all notifications in one multi-row insert; an empty batch is a no-op
func (d *Dispatcher) NotifyBatch(ctx context.Context, batch []NotifyArgs) error {
	if len(batch) == 0 {
		return nil
	}
	rows := make([]models.Notification, len(batch))
	for i, args := range batch {
		rows[i] = toNotification(args)
	}
	if err := d.repo.CreateNotifications(ctx, rows); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	d.metrics.NotificationsDispatched("batch", len(rows))
	return nil
}

// DiscoverMatches searches lost reports similar to a new found report and notifies
// each candidate's owner. It returns the number of notifications written.
func (d *Dispatcher) DiscoverMatches(ctx context.Context, found *models.Item) (int, error) {
	candidates, err := d.finder.FindCandidates(ctx, found.Embedding.Slice(), found.Description, models.StatusLost)
	if err != nil {
		return 0, fmt.Errorf("finding lost candidates for item %d: %w", found.ID, err)
	}

	batch := make([]NotifyArgs, 0, len(candidates))
	for _, c := range candidates {
		if c.UserID == nil || found.OwnedBy(*c.UserID) {
			continue
		}
		lostID, foundID := c.ItemID, found.ID
		batch = append(batch, NotifyArgs{
			UserID:      *c.UserID,
			Message:     potentialMatchMessage(c.Description),
			LostItemID:  &lostID,
			FoundItemID: &foundID,
		})
	}

	if err := d.NotifyBatch(ctx, batch); err != nil {
		return 0, err
	}
	slog.Info("match discovery completed", "found_item_id", found.ID, "candidates", len(candidates), "notified", len(batch))
	return len(batch), nil
}

// List returns a page of the user's notifications, newest first, with display fields
func (d *Dispatcher) List(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.NotificationView, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultNotificationLimit
	}
	if filter.Limit > maxNotificationLimit {
		filter.Limit = maxNotificationLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	rows, total, err := d.repo.GetByUserID(ctx, userID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	now := d.now()
	views := make([]models.NotificationView, len(rows))
	for i, n := range rows {
		views[i] = ViewNotification(n, now)
	}
	return views, total, nil
}

func (d *Dispatcher) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := d.repo.GetUnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return count, nil
}

// MarkRead flips a single notification owned by userID
func (d *Dispatcher) MarkRead(ctx context.Context, notificationID uint, userID string) error {
	err := d.repo.MarkAsRead(ctx, notificationID, userID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFoundOrNotOwned):
		return ErrNotFoundOrNotOwned
	default:
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
}

// MarkAllRead is idempotent: with no unread rows it succeeds without changes
func (d *Dispatcher) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	updated, err := d.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return updated, nil
}

func toNotification(args NotifyArgs) models.Notification {
	return models.Notification{
		UserID:      args.UserID,
		Message:     args.Message,
		LostItemID:  args.LostItemID,
		FoundItemID: args.FoundItemID,
	}
}

func potentialMatchMessage(lostDescription string) string {
	desc := []rune(lostDescription)
	if len(desc) > maxDescriptionInMessage {
		desc = append(desc[:maxDescriptionInMessage], '…')
	}
	return fmt.Sprintf("We found a potential match for your lost item \"%s\". Take a look and start a claim if it's yours.", string(desc))
}
