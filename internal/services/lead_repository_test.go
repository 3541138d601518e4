package services

import (
	"context"
	"testing"
	"time"

	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/agencia-digital/app-leads/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func newTestLeadRepository(t *testing.T) *LeadRepository {
	t.Helper()
	db := setupMongo(t)
	repo := NewLeadRepository(db, "leads", logging.Logger)

	_, err := repo.collection.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "source", Value: 1}, {Key: "external_id", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"external_id": bson.M{"$type": "string"}}),
	})
	require.NoError(t, err)
	return repo
}

func TestLeadRepository_InsertAndGet(t *testing.T) {
	repo := newTestLeadRepository(t)
	ctx := context.Background()

	lead, err := repo.Insert(ctx, &models.Lead{
		Name:     "Ana",
		Email:    "ana@x.com",
		Source:   models.LeadSourceMetaAds,
		Status:   models.LeadStatusConverted,
		Campaign: &models.Campaign{Platform: "meta", CampaignName: "Spring"},
	})
	require.NoError(t, err)
	assert.False(t, lead.ID.IsZero())
	assert.Equal(t, models.LeadStatusNew, lead.Status)
	assert.False(t, lead.CreatedAt.IsZero())

	got, err := repo.Get(ctx, lead.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, "Spring", got.Campaign.CampaignName)

	_, err = repo.Get(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, models.ErrLeadNotFound)

	_, err = repo.Get(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestLeadRepository_InsertRejectsUnknownSource(t *testing.T) {
	repo := newTestLeadRepository(t)

	_, err := repo.Insert(context.Background(), &models.Lead{Email: "a@x.com", Source: "billboard"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestLeadRepository_DuplicateExternalID(t *testing.T) {
	repo := newTestLeadRepository(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, &models.Lead{Source: models.LeadSourceMetaAds, ExternalID: "L1"})
	require.NoError(t, err)

	_, err = repo.Insert(ctx, &models.Lead{Source: models.LeadSourceMetaAds, ExternalID: "L1"})
	assert.ErrorIs(t, err, models.ErrDuplicateLead)

	_, err = repo.Insert(ctx, &models.Lead{Source: models.LeadSourceGoogleAds, ExternalID: "L1"})
	assert.NoError(t, err)

	// leads without external id never collide
	_, err = repo.Insert(ctx, &models.Lead{Source: models.LeadSourceWebsite, Email: "a@x.com"})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, &models.Lead{Source: models.LeadSourceWebsite, Email: "b@x.com"})
	require.NoError(t, err)

	found, err := repo.FindByExternalID(ctx, models.LeadSourceMetaAds, "L1")
	require.NoError(t, err)
	require.NotNil(t, found)

	missing, err := repo.FindByExternalID(ctx, models.LeadSourceMetaAds, "L2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLeadRepository_List(t *testing.T) {
	repo := newTestLeadRepository(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sources := []models.LeadSource{
		models.LeadSourceWebsite, models.LeadSourceMetaAds, models.LeadSourceWebsite,
		models.LeadSourceGoogleAds, models.LeadSourceWebsite,
	}
	ids := make([]string, len(sources))
	for i, source := range sources {
		at := base.Add(time.Duration(i) * time.Minute)
		repo.now = func() time.Time { return at }
		lead, err := repo.Insert(ctx, &models.Lead{Email: "x@x.com", Source: source})
		require.NoError(t, err)
		ids[i] = lead.ID.Hex()
	}

	page, err := repo.List(ctx, models.LeadListQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	require.Len(t, page.Leads, 2)
	assert.Equal(t, ids[4], page.Leads[0].ID.Hex(), "newest first")
	assert.Equal(t, ids[3], page.Leads[1].ID.Hex())

	last, err := repo.List(ctx, models.LeadListQuery{Page: 3, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, last.Leads, 1)
	assert.Equal(t, ids[0], last.Leads[0].ID.Hex())

	websites, err := repo.List(ctx, models.LeadListQuery{Filter: models.LeadFilter{Source: "website", Status: "all"}, All: true})
	require.NoError(t, err)
	assert.Len(t, websites.Leads, 3)
	assert.Equal(t, int64(3), websites.Pagination.Total)

	none, err := repo.List(ctx, models.LeadListQuery{Filter: models.LeadFilter{Source: "website", Status: "lost"}})
	require.NoError(t, err)
	assert.Empty(t, none.Leads)
	assert.NotNil(t, none.Leads)
	assert.Equal(t, 0, none.Pagination.TotalPages)
}

func TestLeadRepository_Update(t *testing.T) {
	repo := newTestLeadRepository(t)
	ctx := context.Background()

	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return created }
	lead, err := repo.Insert(ctx, &models.Lead{Email: "a@x.com", Source: models.LeadSourceWebsite})
	require.NoError(t, err)

	updatedAt := created.Add(time.Hour)
	repo.now = func() time.Time { return updatedAt }
	status := "contacted"
	notes := "left voicemail"
	updated, err := repo.Update(ctx, lead.ID.Hex(), models.UpdateLeadRequest{Status: &status, Notes: &notes})
	require.NoError(t, err)

	assert.Equal(t, lead.ID, updated.ID)
	assert.Equal(t, models.LeadStatusContacted, updated.Status)
	assert.Equal(t, "left voicemail", updated.Notes)
	assert.Equal(t, "a@x.com", updated.Email)
	assert.True(t, created.Equal(updated.CreatedAt))
	assert.True(t, updatedAt.Equal(updated.UpdatedAt))

	bad := "archived"
	_, err = repo.Update(ctx, lead.ID.Hex(), models.UpdateLeadRequest{Status: &bad})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = repo.Update(ctx, primitive.NewObjectID().Hex(), models.UpdateLeadRequest{Status: &status})
	assert.ErrorIs(t, err, models.ErrLeadNotFound)
}

func TestDownloadLogRepository_Append(t *testing.T) {
	db := setupMongo(t)
	repo := NewDownloadLogRepository(db, "download_logs")
	ctx := context.Background()

	entry := &models.DownloadLogEntry{Name: "Ana", Phone: "5521987654321", Asset: "ebook.pdf"}
	require.NoError(t, repo.Append(ctx, entry))
	assert.False(t, entry.ID.IsZero())
	assert.False(t, entry.DownloadedAt.IsZero())

	count, err := db.Collection("download_logs").CountDocuments(ctx, bson.M{"phone": "5521987654321"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUpdateDocument(t *testing.T) {
	now := time.Now()
	name := "  Bia "
	set, err := updateDocument(models.UpdateLeadRequest{Name: &name}, now)
	require.NoError(t, err)
	assert.Equal(t, bson.M{"updated_at": now, "name": "Bia"}, set)
	assert.NotContains(t, set, "created_at")
	assert.NotContains(t, set, "_id")
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, DefaultPageSize},
		{-3, 10, 1, 10},
		{2, 500, 2, MaxPageSize},
		{4, 25, 4, 25},
	}
	for _, tt := range tests {
		page, size := normalizePage(tt.page, tt.size)
		assert.Equal(t, tt.wantPage, page)
		assert.Equal(t, tt.wantSize, size)
	}
}

func TestFilterDocument(t *testing.T) {
	assert.Equal(t, bson.M{}, filterDocument(models.LeadFilter{Status: "all", Source: ""}))
	assert.Equal(t, bson.M{"status": "new", "source": "website"}, filterDocument(models.LeadFilter{Status: "new", Source: "website"}))
}
