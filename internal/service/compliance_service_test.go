package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/compliance-review-api/internal/models"
	"github.com/noah-isme/compliance-review-api/internal/repository"
	appErrors "github.com/noah-isme/compliance-review-api/pkg/errors"
	"github.com/noah-isme/compliance-review-api/pkg/export"
)

type overviewStoreStub struct {
	startup *models.StartupFolder
	folders []models.Folder
	counts  []repository.FolderStatusCount
	loads   int
}

func (s *overviewStoreStub) GetStartupFolder(_ context.Context, id string) (*models.StartupFolder, error) {
	s.loads++
	if s.startup == nil || s.startup.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.startup, nil
}

func (s *overviewStoreStub) ListFoldersByStartup(context.Context, string) ([]models.Folder, error) {
	return s.folders, nil
}

func (s *overviewStoreStub) CountDocumentsByStatus(context.Context, string) ([]repository.FolderStatusCount, error) {
	return s.counts, nil
}

// memoryCacheRepo stores JSON payloads like the Redis repository does.
type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	deleted []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (r *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = raw
	return nil
}

func (r *memoryCacheRepo) Delete(_ context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range keys {
		delete(r.entries, key)
		r.deleted = append(r.deleted, key)
	}
	return nil
}

func overviewFixture() *overviewStoreStub {
	worker := "w-1"
	updated := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	return &overviewStoreStub{
		startup: &models.StartupFolder{ID: "sf-1", CompanyName: "Acme Contracting"},
		folders: []models.Folder{
			{ID: "f-basic", StartupFolderID: "sf-1", Category: models.CategoryBasicInformation, Status: models.ReviewStatusApproved, UpdatedAt: updated},
			{ID: "f-pers", StartupFolderID: "sf-1", Category: models.CategoryPersonnel, OwnerKey: &worker, Status: models.ReviewStatusSubmitted, UpdatedAt: updated},
			{ID: "f-env", StartupFolderID: "sf-1", Category: models.CategoryEnvironmental, Status: models.ReviewStatusDraft, UpdatedAt: updated},
		},
		counts: []repository.FolderStatusCount{
			{FolderID: "f-basic", Status: models.ReviewStatusApproved, Total: 3},
			{FolderID: "f-pers", Status: models.ReviewStatusSubmitted, Total: 1},
			{FolderID: "f-pers", Status: models.ReviewStatusApproved, Total: 1},
			{FolderID: "f-pers", Status: models.ReviewStatusExpired, Total: 2},
		},
	}
}

func TestComplianceOverview(t *testing.T) {
	store := overviewFixture()
	svc := NewComplianceService(store, nil, nil, nil)

	overview, hit, err := svc.Overview(context.Background(), "sf-1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "Acme Contracting", overview.CompanyName)
	assert.Equal(t, models.ReviewStatusSubmitted, overview.OverallStatus)
	require.Len(t, overview.Folders, 3)

	pers := overview.Folders[1]
	assert.Equal(t, "Personnel", pers.CategoryLabel)
	assert.Equal(t, 4, pers.TotalDocuments)
	assert.Equal(t, 2, pers.DocumentCounts[models.ReviewStatusExpired])

	env := overview.Folders[2]
	assert.Equal(t, 0, env.TotalDocuments)
	assert.NotNil(t, env.DocumentCounts)
}

func TestComplianceOverviewNotFound(t *testing.T) {
	svc := NewComplianceService(overviewFixture(), nil, nil, nil)
	_, _, err := svc.Overview(context.Background(), "sf-unknown")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestComplianceOverviewCachesUntilInvalidated(t *testing.T) {
	store := overviewFixture()
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	svc := NewComplianceService(store, nil, cache, nil)
	ctx := context.Background()

	_, hit, err := svc.Overview(ctx, "sf-1")
	require.NoError(t, err)
	assert.False(t, hit)

	cached, hit, err := svc.Overview(ctx, "sf-1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, models.ReviewStatusSubmitted, cached.OverallStatus)
	assert.Equal(t, 1, store.loads)

	require.NoError(t, svc.InvalidateOverview(ctx, "sf-1"))
	assert.Equal(t, []string{"compliance:overview:sf-1"}, repo.deleted)

	_, hit, err = svc.Overview(ctx, "sf-1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, store.loads)
}

func TestOverallStatus(t *testing.T) {
	cases := []struct {
		name     string
		statuses []models.ReviewStatus
		want     models.ReviewStatus
	}{
		{name: "no folders", want: draft},
		{name: "all approved", statuses: []models.ReviewStatus{approved, approved}, want: approved},
		{name: "awaiting review", statuses: []models.ReviewStatus{approved, submitted, draft}, want: submitted},
		{name: "incomplete", statuses: []models.ReviewStatus{approved, draft}, want: draft},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, OverallStatus(tc.statuses))
		})
	}
}

func TestComplianceExportCSV(t *testing.T) {
	svc := NewComplianceService(overviewFixture(), nil, nil, nil)

	file, err := svc.Export(context.Background(), "sf-1", export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "compliance-sf-1.csv", file.Name)

	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Category,Owner,Status,Approved,Submitted,Draft,Other,Total,Updated", lines[0])
	assert.Equal(t, "Personnel,w-1,SUBMITTED,1,1,0,2,4,2026-05-01T08:00:00Z", lines[2])
}

func TestComplianceCategories(t *testing.T) {
	svc := NewComplianceService(overviewFixture(), nil, nil, nil)
	specs := svc.Categories()
	require.Len(t, specs, len(DefaultCategorySpecs))
	assert.Equal(t, models.CategoryBasicInformation, specs[0].Category)
}
