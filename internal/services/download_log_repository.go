package services

import (
	"context"
	"time"

	"github.com/agencia-digital/app-leads/internal/models"
	"github.com/agencia-digital/app-leads/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DownloadLogRepository appends download log entries
type DownloadLogRepository struct {
	collection *mongo.Collection
}

func NewDownloadLogRepository(db *mongo.Database, collection string) *DownloadLogRepository {
	return &DownloadLogRepository{collection: db.Collection(collection)}
}

func (r *DownloadLogRepository) Append(ctx context.Context, entry *models.DownloadLogEntry) error {
	ctx, span, done := utils.TraceDatabaseOperation(ctx, "insert", r.collection.Name(), nil)
	defer done()

	if entry.DownloadedAt.IsZero() {
		entry.DownloadedAt = time.Now()
	}
	entry.DownloadedAt = entry.DownloadedAt.UTC()

	result, err := r.collection.InsertOne(ctx, entry)
	recordDBOperation("insert", err)
	if err != nil {
		utils.RecordError(span, err)
		return storageError("append download log", err)
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		entry.ID = id
	}
	return nil
}
