package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/agencia-digital/app-leads/internal/models"
	"github.com/agencia-digital/app-leads/internal/observability"
	"github.com/agencia-digital/app-leads/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// LeadRepository persists leads in MongoDB. I/O failures are returned
// wrapped in models.ErrStorage and never retried here.
type LeadRepository struct {
	collection *mongo.Collection
	logger     *logging.SafeLogger
	now        func() time.Time
}

// NewLeadRepository creates a repository over the named collection
func NewLeadRepository(db *mongo.Database, collection string, logger *logging.SafeLogger) *LeadRepository {
	return &LeadRepository{
		collection: db.Collection(collection),
		logger:     logger,
		now:        time.Now,
	}
}

func recordDBOperation(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	observability.DatabaseOperations.WithLabelValues(operation, status).Inc()
}

func storageError(operation string, err error) error {
	return fmt.Errorf("%w: %s: %v", models.ErrStorage, operation, err)
}

// Insert stamps and stores a new lead. The status is always forced to new.
// A lead whose (source, external_id) already exists returns ErrDuplicateLead.
func (r *LeadRepository) Insert(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	ctx, span, done := utils.TraceDatabaseOperation(ctx, "insert", r.collection.Name(), nil)
	defer done()

	lead.ID = primitive.NilObjectID
	lead.BeforeCreate(r.now().UTC())
	if err := lead.Validate(); err != nil {
		return nil, err
	}

	result, err := r.collection.InsertOne(ctx, lead)
	recordDBOperation("insert", err)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s/%s", models.ErrDuplicateLead, lead.Source, lead.ExternalID)
		}
		utils.RecordError(span, err)
		r.logger.Error("failed to insert lead", zap.String("source", string(lead.Source)), zap.Error(err))
		return nil, storageError("insert lead", err)
	}

	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		lead.ID = id
	}
	utils.AddSpanAttribute(span, "lead.id", lead.ID.Hex())
	return lead, nil
}

func filterDocument(filter models.LeadFilter) bson.M {
	n := filter.Normalized()
	doc := bson.M{}
	if n.Status != "" {
		doc["status"] = n.Status
	}
	if n.Source != "" {
		doc["source"] = n.Source
	}
	return doc
}

// List returns leads newest first. With query.All the whole filtered set is
// returned as a single page.
func (r *LeadRepository) List(ctx context.Context, query models.LeadListQuery) (*models.LeadListResponse, error) {
	filter := filterDocument(query.Filter)
	ctx, span, done := utils.TraceDatabaseOperation(ctx, "find", r.collection.Name(), filter)
	defer done()

	total, err := r.collection.CountDocuments(ctx, filter)
	recordDBOperation("count", err)
	if err != nil {
		utils.RecordError(span, err)
		r.logger.Error("failed to count leads", zap.Error(err))
		return nil, storageError("count leads", err)
	}

	page, pageSize := normalizePage(query.Page, query.PageSize)
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if !query.All {
		findOpts.SetSkip(int64((page - 1) * pageSize)).SetLimit(int64(pageSize))
	}

	cursor, err := r.collection.Find(ctx, filter, findOpts)
	recordDBOperation("find", err)
	if err != nil {
		utils.RecordError(span, err)
		r.logger.Error("failed to list leads", zap.Error(err))
		return nil, storageError("list leads", err)
	}
	defer cursor.Close(ctx)

	leads := make([]models.Lead, 0)
	if err := cursor.All(ctx, &leads); err != nil {
		utils.RecordError(span, err)
		r.logger.Error("failed to decode leads", zap.Error(err))
		return nil, storageError("decode leads", err)
	}

	pagination := models.PaginationInfo{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: models.TotalPages(total, pageSize),
	}
	if query.All {
		pagination = models.PaginationInfo{Page: 1, PageSize: len(leads), Total: total, TotalPages: 1}
		if total == 0 {
			pagination.TotalPages = 0
		}
	}

	return &models.LeadListResponse{Leads: leads, Pagination: pagination}, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func parseLeadID(id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid lead id %q", models.ErrValidation, id)
	}
	return objectID, nil
}

// Get loads a lead by id
func (r *LeadRepository) Get(ctx context.Context, id string) (*models.Lead, error) {
	objectID, err := parseLeadID(id)
	if err != nil {
		return nil, err
	}

	ctx, span, done := utils.TraceDatabaseOperation(ctx, "find_one", r.collection.Name(), bson.M{"_id": objectID})
	defer done()

	var lead models.Lead
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&lead)
	if errors.Is(err, mongo.ErrNoDocuments) {
		recordDBOperation("find_one", nil)
		return nil, models.ErrLeadNotFound
	}
	recordDBOperation("find_one", err)
	if err != nil {
		utils.RecordError(span, err)
		r.logger.Error("failed to get lead", zap.String("lead_id", id), zap.Error(err))
		return nil, storageError("get lead", err)
	}
	return &lead, nil
}

// FindByExternalID looks up a lead by its provider id. It returns nil and no
// error when none exists.
func (r *LeadRepository) FindByExternalID(ctx context.Context, source models.LeadSource, externalID string) (*models.Lead, error) {
	filter := bson.M{"source": source, "external_id": externalID}
	ctx, span, done := utils.TraceDatabaseOperation(ctx, "find_one", r.collection.Name(), filter)
	defer done()

	var lead models.Lead
	err := r.collection.FindOne(ctx, filter).Decode(&lead)
	if errors.Is(err, mongo.ErrNoDocuments) {
		recordDBOperation("find_one", nil)
		return nil, nil
	}
	recordDBOperation("find_one", err)
	if err != nil {
		utils.RecordError(span, err)
		return nil, storageError("find lead by external id", err)
	}
	return &lead, nil
}

// updateDocument builds the $set document of a partial update
func updateDocument(patch models.UpdateLeadRequest, now time.Time) (bson.M, error) {
	set := bson.M{"updated_at": now}

	if patch.Status != nil {
		status := models.LeadStatus(strings.TrimSpace(*patch.Status))
		if !status.IsValid() {
			return nil, fmt.Errorf("%w: unknown lead status %q", models.ErrValidation, *patch.Status)
		}
		set["status"] = status
	}
	if patch.Notes != nil {
		set["notes"] = *patch.Notes
	}
	if patch.Name != nil {
		set["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		set["email"] = strings.TrimSpace(*patch.Email)
	}
	if patch.Phone != nil {
		set["phone"] = strings.TrimSpace(*patch.Phone)
	}
	if patch.Company != nil {
		set["company"] = strings.TrimSpace(*patch.Company)
	}
	return set, nil
}

// Update merges the given fields into a lead and returns the stored result.
// id and created_at are never modified.
func (r *LeadRepository) Update(ctx context.Context, id string, patch models.UpdateLeadRequest) (*models.Lead, error) {
	objectID, err := parseLeadID(id)
	if err != nil {
		return nil, err
	}
	set, err := updateDocument(patch, r.now().UTC())
	if err != nil {
		return nil, err
	}

	ctx, span, done := utils.TraceDatabaseOperation(ctx, "update", r.collection.Name(), bson.M{"_id": objectID})
	defer done()

	var lead models.Lead
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&lead)
	if errors.Is(err, mongo.ErrNoDocuments) {
		recordDBOperation("update", nil)
		return nil, models.ErrLeadNotFound
	}
	recordDBOperation("update", err)
	if err != nil {
		utils.RecordError(span, err)
		r.logger.Error("failed to update lead", zap.String("lead_id", id), zap.Error(err))
		return nil, storageError("update lead", err)
	}
	return &lead, nil
}
