package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/compliance-review-api/internal/dto"
	"github.com/noah-isme/compliance-review-api/internal/models"
	"github.com/noah-isme/compliance-review-api/internal/repository"
	appErrors "github.com/noah-isme/compliance-review-api/pkg/errors"
	"github.com/noah-isme/compliance-review-api/pkg/export"
)

type overviewStore interface {
	GetStartupFolder(ctx context.Context, id string) (*models.StartupFolder, error)
	ListFoldersByStartup(ctx context.Context, startupFolderID string) ([]models.Folder, error)
	CountDocumentsByStatus(ctx context.Context, startupFolderID string) ([]repository.FolderStatusCount, error)
}

// ComplianceService builds the company level read model over folder statuses.
type ComplianceService struct {
	store    overviewStore
	resolver *CategoryResolver
	cache    *CacheService
	logger   *zap.Logger
	now      func() time.Time
}

// NewComplianceService constructs the service. cache may be nil.
func NewComplianceService(store overviewStore, resolver *CategoryResolver, cache *CacheService, logger *zap.Logger) *ComplianceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = DefaultCategoryResolver()
	}
	return &ComplianceService{store: store, resolver: resolver, cache: cache, logger: logger, now: time.Now}
}

func overviewCacheKey(startupFolderID string) string {
	return "compliance:overview:" + startupFolderID
}

// Categories returns the category table.
func (s *ComplianceService) Categories() []models.CategorySpec {
	return s.resolver.Specs()
}

// Overview returns per folder status rows and the overall company status.
func (s *ComplianceService) Overview(ctx context.Context, startupFolderID string) (*dto.ComplianceOverview, bool, error) {
	var cached dto.ComplianceOverview
	if s.cache.Get(ctx, overviewCacheKey(startupFolderID), &cached) {
		return &cached, true, nil
	}

	sf, err := s.store.GetStartupFolder(ctx, startupFolderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "startup folder not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load startup folder")
	}
	folders, err := s.store.ListFoldersByStartup(ctx, startupFolderID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list folders")
	}
	counts, err := s.store.CountDocumentsByStatus(ctx, startupFolderID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count documents")
	}

	byFolder := make(map[string]map[models.ReviewStatus]int, len(folders))
	for _, c := range counts {
		if byFolder[c.FolderID] == nil {
			byFolder[c.FolderID] = make(map[models.ReviewStatus]int)
		}
		byFolder[c.FolderID][c.Status] += c.Total
	}

	overview := &dto.ComplianceOverview{
		StartupFolderID: sf.ID,
		CompanyName:     sf.CompanyName,
		Folders:         make([]dto.FolderSummary, 0, len(folders)),
		GeneratedAt:     s.now().UTC(),
	}
	statuses := make([]models.ReviewStatus, 0, len(folders))
	for _, f := range folders {
		docCounts := byFolder[f.ID]
		if docCounts == nil {
			docCounts = map[models.ReviewStatus]int{}
		}
		total := 0
		for _, n := range docCounts {
			total += n
		}
		overview.Folders = append(overview.Folders, dto.FolderSummary{
			FolderID:       f.ID,
			Category:       f.Category,
			CategoryLabel:  s.resolver.Label(f.Category),
			OwnerKey:       f.OwnerKey,
			Status:         f.Status,
			DocumentCounts: docCounts,
			TotalDocuments: total,
			UpdatedAt:      f.UpdatedAt,
		})
		statuses = append(statuses, f.Status)
	}
	overview.OverallStatus = OverallStatus(statuses)

	s.cache.Set(ctx, overviewCacheKey(startupFolderID), overview, 0)
	return overview, false, nil
}

// OverallStatus folds folder statuses into a company status: APPROVED when
// there is at least one folder and all are approved, DRAFT when no folder is
// awaiting review, SUBMITTED otherwise.
func OverallStatus(folderStatuses []models.ReviewStatus) models.ReviewStatus {
	if len(folderStatuses) == 0 {
		return models.ReviewStatusDraft
	}
	allApproved, anySubmitted := true, false
	for _, st := range folderStatuses {
		allApproved = allApproved && st == models.ReviewStatusApproved
		anySubmitted = anySubmitted || st == models.ReviewStatusSubmitted
	}
	switch {
	case allApproved:
		return models.ReviewStatusApproved
	case anySubmitted:
		return models.ReviewStatusSubmitted
	default:
		return models.ReviewStatusDraft
	}
}

// InvalidateOverview drops the cached overview of a startup folder.
func (s *ComplianceService) InvalidateOverview(ctx context.Context, startupFolderID string) error {
	return s.cache.Invalidate(ctx, overviewCacheKey(startupFolderID))
}

var overviewHeaders = []string{"Category", "Owner", "Status", "Approved", "Submitted", "Draft", "Other", "Total", "Updated"}

// Export renders the overview as CSV or PDF.
func (s *ComplianceService) Export(ctx context.Context, startupFolderID string, format export.Format) (*export.File, error) {
	overview, _, err := s.Overview(ctx, startupFolderID)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]string, 0, len(overview.Folders))
	for _, f := range overview.Folders {
		owner := ""
		if f.OwnerKey != nil {
			owner = *f.OwnerKey
		}
		other := f.TotalDocuments - f.DocumentCounts[models.ReviewStatusApproved] -
			f.DocumentCounts[models.ReviewStatusSubmitted] - f.DocumentCounts[models.ReviewStatusDraft]
		rows = append(rows, map[string]string{
			"Category":  f.CategoryLabel,
			"Owner":     owner,
			"Status":    string(f.Status),
			"Approved":  strconv.Itoa(f.DocumentCounts[models.ReviewStatusApproved]),
			"Submitted": strconv.Itoa(f.DocumentCounts[models.ReviewStatusSubmitted]),
			"Draft":     strconv.Itoa(f.DocumentCounts[models.ReviewStatusDraft]),
			"Other":     strconv.Itoa(other),
			"Total":     strconv.Itoa(f.TotalDocuments),
			"Updated":   f.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	file, err := export.Build(format, "compliance-"+startupFolderID, export.Dataset{
		Title:       "Compliance overview",
		Subtitle:    fmt.Sprintf("%s (overall %s)", overview.CompanyName, overview.OverallStatus),
		GeneratedAt: overview.GeneratedAt,
		Headers:     overviewHeaders,
		Rows:        rows,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return file, nil
}
