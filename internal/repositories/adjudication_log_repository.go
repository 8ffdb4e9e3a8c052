package repositories

import (
	"context"
	"time"

	"github.com/anonto42/reunite-ai/backend/internal/models"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AdjudicationLogRepository stores claim verdicts for manual reviewers
type AdjudicationLogRepository interface {
	Record(ctx context.Context, entry *models.Adjudication) error
	ListByFoundItem(ctx context.Context, foundItemID uint, limit int64) ([]models.Adjudication, error)
}

type mongoAdjudicationLogRepository struct {
	collection *mongo.Collection
}

// NewMongoAdjudicationLogRepository stores entries in the "adjudications" collection
func NewMongoAdjudicationLogRepository(db *mongo.Database) AdjudicationLogRepository {
	return &mongoAdjudicationLogRepository{collection: db.Collection("adjudications")}
}

func (r *mongoAdjudicationLogRepository) Record(ctx context.Context, entry *models.Adjudication) error {
	entry.ID = primitive.NewObjectID()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return errors.Wrap(err, "failed to record adjudication")
	}
	return nil
}

func (r *mongoAdjudicationLogRepository) ListByFoundItem(ctx context.Context, foundItemID uint, limit int64) ([]models.Adjudication, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"found_item_id": foundItemID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list adjudications")
	}
	defer cursor.Close(ctx)

	var entries []models.Adjudication
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, errors.Wrap(err, "failed to decode adjudications")
	}
	return entries, nil
}

type noopAdjudicationLogRepository struct{}

// NewNoopAdjudicationLogRepository is used when no MongoDB is configured
func NewNoopAdjudicationLogRepository() AdjudicationLogRepository {
	return noopAdjudicationLogRepository{}
}

func (noopAdjudicationLogRepository) Record(context.Context, *models.Adjudication) error { return nil }

func (noopAdjudicationLogRepository) ListByFoundItem(context.Context, uint, int64) ([]models.Adjudication, error) {
	return nil, nil
}
