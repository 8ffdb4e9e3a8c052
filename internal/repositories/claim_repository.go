package repositories

import (
	"context"

	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ClaimRepository defines the interface for claim operations
type ClaimRepository interface {
	CreatePendingClaim(ctx context.Context, lostItemID, foundItemID uint, claimantEmail string) (*models.Claim, error)
	// ApproveClaim inserts an APPROVED claim and flips both item statuses in one transaction.
	ApproveClaim(ctx context.Context, lostItemID, foundItemID uint, claimantEmail, pickupCode string) (*models.ApprovedClaim, error)
}

// PostgresClaimRepository implements ClaimRepository on top of GORM
type PostgresClaimRepository struct {
	db *gorm.DB
}

// NewPostgresClaimRepository creates a new PostgresClaimRepository
func NewPostgresClaimRepository(db *gorm.DB) *PostgresClaimRepository {
	return &PostgresClaimRepository{db: db}
}

// CreatePendingClaim records a claim awaiting manual review
func (r *PostgresClaimRepository) CreatePendingClaim(ctx context.Context, lostItemID, foundItemID uint, claimantEmail string) (*models.Claim, error) {
	claim := &models.Claim{
		LostItemID:    lostItemID,
		FoundItemID:   foundItemID,
		ClaimantEmail: claimantEmail,
		Status:        models.ClaimPending,
	}
	if err := r.db.WithContext(ctx).Create(claim).Error; err != nil {
		return nil, errors.Wrap(err, "failed to create pending claim")
	}
	return claim, nil
}

// ApproveClaim runs the double-claim guard and all writes in a single transaction.
// Both items are flipped with conditional updates so that a concurrent approval
// blocked on either row observes zero affected rows once the first one commits.
func (r *PostgresClaimRepository) ApproveClaim(ctx context.Context, lostItemID, foundItemID uint, claimantEmail, pickupCode string) (*models.ApprovedClaim, error) {
	var result models.ApprovedClaim

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := loadItem(tx, foundItemID)
		if err != nil {
			return err
		}
		lost, err := loadItem(tx, lostItemID)
		if err != nil {
			return err
		}

		switch found.Status {
		case models.StatusFound:
		case models.StatusClaimed, models.StatusReturned:
			return ErrAlreadyClaimed
		default:
			return ErrNotFound
		}
		switch lost.Status {
		case models.StatusLost:
		case models.StatusReunited:
			return ErrAlreadyClaimed
		default:
			return ErrNotFound
		}

		res := tx.Model(&models.Item{}).
			Where("id = ? AND status = ?", foundItemID, models.StatusFound).
			Update("status", models.StatusClaimed)
		if res.Error != nil {
			return errors.Wrap(res.Error, "failed to mark found item claimed")
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyClaimed
		}

		res = tx.Model(&models.Item{}).
			Where("id = ? AND status = ?", lostItemID, models.StatusLost).
			Update("status", models.StatusReunited)
		if res.Error != nil {
			return errors.Wrap(res.Error, "failed to mark lost item reunited")
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyClaimed
		}

		code := pickupCode
		claim := models.Claim{
			LostItemID:    lostItemID,
			FoundItemID:   foundItemID,
			ClaimantEmail: claimantEmail,
			PickupCode:    &code,
			Status:        models.ClaimApproved,
		}
		if err := tx.Create(&claim).Error; err != nil {
			return errors.Wrap(err, "failed to create approved claim")
		}

		found.Status = models.StatusClaimed
		lost.Status = models.StatusReunited
		result = models.ApprovedClaim{Claim: claim, UpdatedFound: *found, UpdatedLost: *lost}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func loadItem(tx *gorm.DB, id uint) (*models.Item, error) {
	var item models.Item
	if err := tx.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "failed to load item %d", id)
	}
	return &item, nil
}
