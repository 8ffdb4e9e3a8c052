package repositories

import (
	"context"
	"strings"

	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// MatchMode controls how lexical terms are combined in the full-text prefilter
type MatchMode string

const (
	MatchAll MatchMode = "all"
	MatchAny MatchMode = "any"
)

// ItemRepository defines the interface for item report operations
type ItemRepository interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id uint) (*models.Item, error)
	// LexicalCandidates returns ids of items in the given status whose description matches the terms.
	LexicalCandidates(ctx context.Context, status models.ItemStatus, terms []string, mode MatchMode) ([]uint, error)
	// RankByDistance returns the given items ordered by cosine distance to the query vector, nearest first.
	RankByDistance(ctx context.Context, ids []uint, query []float32) ([]models.Candidate, error)
}

// PostgresItemRepository implements ItemRepository for PostgreSQL with pgvector
type PostgresItemRepository struct {
	db *gorm.DB
}

// NewPostgresItemRepository creates a new PostgresItemRepository
func NewPostgresItemRepository(db *gorm.DB) *PostgresItemRepository {
	return &PostgresItemRepository{db: db}
}

// CreateItem inserts a new item report
func (r *PostgresItemRepository) CreateItem(ctx context.Context, item *models.Item) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return errors.Wrap(err, "failed to create item")
	}
	return nil
}

// GetItemByID retrieves an item report by id
func (r *PostgresItemRepository) GetItemByID(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "failed to get item %d", id)
	}
	return &item, nil
}

// LexicalCandidates runs the full-text prefilter. Terms are expected to be pre-cleaned alphanumerics.
func (r *PostgresItemRepository) LexicalCandidates(ctx context.Context, status models.ItemStatus, terms []string, mode MatchMode) ([]uint, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	op := " & "
	if mode == MatchAny {
		op = " | "
	}

	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("status = ?", status).
		Where("to_tsvector('english', description) @@ to_tsquery('english', ?)", strings.Join(terms, op)).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to run lexical prefilter")
	}
	return ids, nil
}

// RankByDistance orders the candidate ids by pgvector cosine distance (<=>)
func (r *PostgresItemRepository) RankByDistance(ctx context.Context, ids []uint, query []float32) ([]models.Candidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var candidates []models.Candidate
	err := r.db.WithContext(ctx).Model(&models.Item{}).
		Select("id AS item_id, user_id, description, location, item_date, image_url, embedding <=> ? AS distance", pgvector.NewVector(query)).
		Where("id IN ?", ids).
		Order("distance ASC").
		Scan(&candidates).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to rank candidates by distance")
	}
	return candidates, nil
}
