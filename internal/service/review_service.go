package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/compliance-review-api/internal/dto"
	"github.com/noah-isme/compliance-review-api/internal/models"
	"github.com/noah-isme/compliance-review-api/internal/repository"
	"github.com/noah-isme/compliance-review-api/pkg/config"
	appErrors "github.com/noah-isme/compliance-review-api/pkg/errors"
)

const (
	actionDocumentReview = "document_review"
	actionFolderReview   = "folder_review"
	actionStatusSync     = "document_status_sync"
	actionRecompute      = "folder_recompute"
)

type reviewStore interface {
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	GetFolder(ctx context.Context, id string) (*models.Folder, error)
	GetSingletonFolder(ctx context.Context, startupFolderID string, category models.Category) (*models.Folder, error)
	GetFolderByOwnerKey(ctx context.Context, startupFolderID string, category models.Category, ownerKey string) (*models.Folder, error)
	ListFolderDocuments(ctx context.Context, folderID string) ([]models.Document, error)
	WithinFolderTx(ctx context.Context, folderID string, fn func(repository.FolderTx, *models.Folder) error) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// FolderEventDispatcher schedules delivery of a committed folder event.
type FolderEventDispatcher interface {
	Dispatch(ctx context.Context, event models.FolderStatusEvent) error
}

type overviewInvalidator interface {
	InvalidateOverview(ctx context.Context, startupFolderID string) error
}

// ReviewService is the single entry point for review actions. Every action
// runs as one serializable transaction scoped to the affected folder; side
// effects (notification, audit, cache invalidation) happen after commit.
type ReviewService struct {
	store      reviewStore
	audit      auditLogger
	resolver   *CategoryResolver
	aggregator *StatusAggregator
	propagator *CascadePropagator
	dispatcher FolderEventDispatcher
	overview   overviewInvalidator
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger

	maxAttempts  int
	retryBackoff time.Duration
	now          func() time.Time
}

// ReviewServiceOption configures the service.
type ReviewServiceOption func(*ReviewService)

// WithCategoryResolver overrides the category table.
func WithCategoryResolver(resolver *CategoryResolver) ReviewServiceOption {
	return func(s *ReviewService) {
		if resolver != nil {
			s.resolver = resolver
		}
	}
}

// WithEmptyFolderPolicy selects how empty folders aggregate.
func WithEmptyFolderPolicy(policy string) ReviewServiceOption {
	return func(s *ReviewService) {
		s.aggregator = NewStatusAggregator(policy)
		s.propagator = NewCascadePropagator(s.aggregator)
	}
}

// WithFolderEventDispatcher sets the post-commit notification dispatcher.
func WithFolderEventDispatcher(dispatcher FolderEventDispatcher) ReviewServiceOption {
	return func(s *ReviewService) {
		s.dispatcher = dispatcher
	}
}

// WithOverviewInvalidator drops cached overviews after committed actions.
func WithOverviewInvalidator(invalidator overviewInvalidator) ReviewServiceOption {
	return func(s *ReviewService) {
		s.overview = invalidator
	}
}

// WithReviewMetrics attaches Prometheus instrumentation.
func WithReviewMetrics(metrics *MetricsService) ReviewServiceOption {
	return func(s *ReviewService) {
		s.metrics = metrics
	}
}

// WithReviewRetry bounds the retries of a conflicting folder transaction.
func WithReviewRetry(maxAttempts int, initialBackoff time.Duration) ReviewServiceOption {
	return func(s *ReviewService) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		if initialBackoff > 0 {
			s.retryBackoff = initialBackoff
		}
	}
}

// WithReviewClock overrides the time source.
func WithReviewClock(now func() time.Time) ReviewServiceOption {
	return func(s *ReviewService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewReviewService constructs the coordinator with defaults.
func NewReviewService(store reviewStore, audit auditLogger, logger *zap.Logger, opts ...ReviewServiceOption) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	aggregator := NewStatusAggregator(config.EmptyFolderReject)
	svc := &ReviewService{
		store:        store,
		audit:        audit,
		resolver:     DefaultCategoryResolver(),
		aggregator:   aggregator,
		propagator:   NewCascadePropagator(aggregator),
		validator:    validator.New(),
		logger:       logger,
		maxAttempts:  3,
		retryBackoff: 25 * time.Millisecond,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// ReviewDocument applies a reviewer decision to one document and re-derives
// its folder status from the sibling snapshot read inside the same transaction.
func (s *ReviewService) ReviewDocument(ctx context.Context, documentID string, req dto.ReviewDocumentRequest, reviewerID string) (*dto.DocumentReviewResult, error) {
	start := time.Now()
	result, err := s.reviewDocument(ctx, documentID, req, reviewerID)
	s.observe(actionDocumentReview, start, err)
	return result, err
}

func (s *ReviewService) reviewDocument(ctx context.Context, documentID string, req dto.ReviewDocumentRequest, reviewerID string) (*dto.DocumentReviewResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if strings.TrimSpace(reviewerID) == "" {
		return nil, appErrors.ErrUnauthorized
	}
	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := documentDecisionAllowed(doc.Status, req.Decision); err != nil {
		return nil, err
	}
	folder, err := s.resolveFolder(ctx, doc)
	if err != nil {
		return nil, err
	}

	target := models.ReviewStatusApproved
	if req.Decision == models.DecisionReject {
		target = models.ReviewStatusRejected
	}
	notes := optionalString(req.Notes)

	var (
		outcome  AggregateOutcome
		previous models.ReviewStatus
		locked   models.Folder
	)
	err = s.runFolderTx(ctx, actionDocumentReview, folder.ID, func(tx repository.FolderTx, lf *models.Folder) error {
		current, err := s.lockedDocument(ctx, tx, doc.ID, lf.ID)
		if err != nil {
			return err
		}
		if err := documentDecisionAllowed(current.Status, req.Decision); err != nil {
			return err
		}
		reviewedAt := s.now().UTC()
		if err := tx.UpdateDocumentStatus(ctx, repository.UpdateDocumentStatusParams{
			DocumentID: current.ID,
			Status:     target,
			ReviewedBy: &reviewerID,
			Notes:      notes,
			ReviewedAt: &reviewedAt,
		}); err != nil {
			return err
		}
		out, err := s.recompute(ctx, tx, lf)
		if err != nil {
			return err
		}
		outcome, previous, locked = out, current.Status, *lf
		return nil
	})
	if err != nil {
		return nil, s.txError(err, "failed to review document")
	}

	result := &dto.DocumentReviewResult{
		DocumentID:     doc.ID,
		Status:         target,
		FolderID:       locked.ID,
		FolderStatus:   outcome.Status,
		FolderChanged:  outcome.Changed,
		PreviousFolder: outcome.Previous,
		Event:          outcome.Event,
	}
	result.Warnings = s.afterCommit(ctx, &locked, outcome, &models.AuditLog{
		UserID:     &reviewerID,
		Action:     models.AuditActionDocumentReview,
		Resource:   "document",
		ResourceID: &result.DocumentID,
		OldValues:  auditJSON(map[string]interface{}{"status": previous, "folderStatus": outcome.Previous}),
		NewValues:  auditJSON(map[string]interface{}{"status": target, "folderStatus": outcome.Status, "decision": req.Decision, "notes": req.Notes}),
	})
	return result, nil
}

// ReviewFolder cascades a bulk decision over every submitted document of a
// folder and writes the derived folder status.
func (s *ReviewService) ReviewFolder(ctx context.Context, folderID string, req dto.ReviewFolderRequest, reviewerID string) (*dto.FolderReviewResult, error) {
	start := time.Now()
	result, err := s.reviewFolder(ctx, folderID, req, reviewerID)
	s.observe(actionFolderReview, start, err)
	return result, err
}

func (s *ReviewService) reviewFolder(ctx context.Context, folderID string, req dto.ReviewFolderRequest, reviewerID string) (*dto.FolderReviewResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if strings.TrimSpace(reviewerID) == "" {
		return nil, appErrors.ErrUnauthorized
	}
	folder, err := s.loadFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolver.RefForFolder(folder); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "folder category is misconfigured")
	}
	docs, err := s.store.ListFolderDocuments(ctx, folder.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load folder documents")
	}
	if _, err := s.propagator.Plan(folder, docs, req.Decision); err != nil {
		return nil, err
	}

	var (
		plan   *CascadePlan
		locked models.Folder
	)
	err = s.runFolderTx(ctx, actionFolderReview, folder.ID, func(tx repository.FolderTx, lf *models.Folder) error {
		members, err := tx.ListSiblingDocuments(ctx, lf.ID)
		if err != nil {
			return err
		}
		p, err := s.propagator.Plan(lf, members, req.Decision)
		if err != nil {
			return err
		}
		reviewedAt := s.now().UTC()
		for _, change := range p.Changes {
			if err := tx.UpdateDocumentStatus(ctx, repository.UpdateDocumentStatusParams{
				DocumentID: change.DocumentID,
				Status:     change.To,
				ReviewedBy: &reviewerID,
				ReviewedAt: &reviewedAt,
			}); err != nil {
				return err
			}
		}
		if p.Folder.Changed {
			if _, err := tx.UpdateFolderStatus(ctx, lf.ID, p.Folder.Status); err != nil {
				return err
			}
		}
		plan, locked = p, *lf
		return nil
	})
	if err != nil {
		return nil, s.txError(err, "failed to review folder")
	}

	result := folderResult(&locked, plan.Folder, plan.Changes)
	result.Warnings = s.afterCommit(ctx, &locked, plan.Folder, &models.AuditLog{
		UserID:     &reviewerID,
		Action:     models.AuditActionFolderReview,
		Resource:   "folder",
		ResourceID: &result.FolderID,
		OldValues:  auditJSON(map[string]interface{}{"status": plan.Folder.Previous}),
		NewValues:  auditJSON(map[string]interface{}{"status": plan.Folder.Status, "decision": req.Decision, "documents": plan.Changes}),
	})
	return result, nil
}

// SyncDocumentStatus moves a document to EXPIRED or TO_UPDATE on behalf of an
// external scheduler and re-derives its folder.
func (s *ReviewService) SyncDocumentStatus(ctx context.Context, documentID string, req dto.SyncDocumentStatusRequest, actorID string) (*dto.DocumentReviewResult, error) {
	start := time.Now()
	result, err := s.syncDocumentStatus(ctx, documentID, req, actorID)
	s.observe(actionStatusSync, start, err)
	return result, err
}

func (s *ReviewService) syncDocumentStatus(ctx context.Context, documentID string, req dto.SyncDocumentStatusRequest, actorID string) (*dto.DocumentReviewResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	doc, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status == req.Status {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("document is already %s", req.Status))
	}
	folder, err := s.resolveFolder(ctx, doc)
	if err != nil {
		return nil, err
	}

	var (
		outcome  AggregateOutcome
		previous models.ReviewStatus
		locked   models.Folder
	)
	err = s.runFolderTx(ctx, actionStatusSync, folder.ID, func(tx repository.FolderTx, lf *models.Folder) error {
		current, err := s.lockedDocument(ctx, tx, doc.ID, lf.ID)
		if err != nil {
			return err
		}
		if current.Status == req.Status {
			return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("document is already %s", req.Status))
		}
		if err := tx.UpdateDocumentStatus(ctx, repository.UpdateDocumentStatusParams{DocumentID: current.ID, Status: req.Status}); err != nil {
			return err
		}
		out, err := s.recompute(ctx, tx, lf)
		if err != nil {
			return err
		}
		outcome, previous, locked = out, current.Status, *lf
		return nil
	})
	if err != nil {
		return nil, s.txError(err, "failed to sync document status")
	}

	result := &dto.DocumentReviewResult{
		DocumentID:     doc.ID,
		Status:         req.Status,
		FolderID:       locked.ID,
		FolderStatus:   outcome.Status,
		FolderChanged:  outcome.Changed,
		PreviousFolder: outcome.Previous,
		Event:          outcome.Event,
	}
	result.Warnings = s.afterCommit(ctx, &locked, outcome, &models.AuditLog{
		UserID:     optionalString(actorID),
		Action:     models.AuditActionDocumentStatusSync,
		Resource:   "document",
		ResourceID: &result.DocumentID,
		OldValues:  auditJSON(map[string]interface{}{"status": previous, "folderStatus": outcome.Previous}),
		NewValues:  auditJSON(map[string]interface{}{"status": req.Status, "folderStatus": outcome.Status}),
	})
	return result, nil
}

// RecomputeFolder re-derives a folder's status from its documents, writing
// only when the stored value is stale.
func (s *ReviewService) RecomputeFolder(ctx context.Context, folderID string, actorID string) (*dto.FolderReviewResult, error) {
	start := time.Now()
	result, err := s.recomputeFolder(ctx, folderID, actorID)
	s.observe(actionRecompute, start, err)
	return result, err
}

func (s *ReviewService) recomputeFolder(ctx context.Context, folderID string, actorID string) (*dto.FolderReviewResult, error) {
	folder, err := s.loadFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}

	var (
		outcome AggregateOutcome
		locked  models.Folder
	)
	err = s.runFolderTx(ctx, actionRecompute, folder.ID, func(tx repository.FolderTx, lf *models.Folder) error {
		out, err := s.recompute(ctx, tx, lf)
		if err != nil {
			return err
		}
		outcome, locked = out, *lf
		return nil
	})
	if err != nil {
		return nil, s.txError(err, "failed to recompute folder")
	}

	result := folderResult(&locked, outcome, nil)
	if !outcome.Changed {
		return result, nil
	}
	result.Warnings = s.afterCommit(ctx, &locked, outcome, &models.AuditLog{
		UserID:     optionalString(actorID),
		Action:     models.AuditActionFolderRecompute,
		Resource:   "folder",
		ResourceID: &result.FolderID,
		OldValues:  auditJSON(map[string]interface{}{"status": outcome.Previous}),
		NewValues:  auditJSON(map[string]interface{}{"status": outcome.Status}),
	})
	return result, nil
}

// GetFolder returns a folder with its documents.
func (s *ReviewService) GetFolder(ctx context.Context, folderID string) (*dto.FolderDetail, error) {
	folder, err := s.loadFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	spec, err := s.resolver.Resolve(folder.Category)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "folder category is misconfigured")
	}
	docs, err := s.store.ListFolderDocuments(ctx, folder.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load folder documents")
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return &dto.FolderDetail{Folder: *folder, CategoryLabel: spec.Label, Kind: string(spec.Kind), Documents: docs}, nil
}

// recompute reads the sibling snapshot inside the transaction, derives the
// folder status and writes it when it changed.
func (s *ReviewService) recompute(ctx context.Context, tx repository.FolderTx, folder *models.Folder) (AggregateOutcome, error) {
	siblings, err := tx.ListSiblingDocuments(ctx, folder.ID)
	if err != nil {
		return AggregateOutcome{}, err
	}
	statuses := make([]models.ReviewStatus, len(siblings))
	for i, doc := range siblings {
		statuses[i] = doc.Status
	}
	out := s.aggregator.Derive(folder.Status, statuses)
	if out.Changed {
		if _, err := tx.UpdateFolderStatus(ctx, folder.ID, out.Status); err != nil {
			return AggregateOutcome{}, err
		}
	}
	return out, nil
}

// runFolderTx executes fn in a folder transaction, retrying serialization
// conflicts with bounded exponential backoff. fn must be safe to re-run.
func (s *ReviewService) runFolderTx(ctx context.Context, action, folderID string, fn func(repository.FolderTx, *models.Folder) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retryBackoff
	policy.MaxInterval = 40 * s.retryBackoff
	policy.MaxElapsedTime = 0

	attempt := func() error {
		err := s.store.WithinFolderTx(ctx, folderID, fn)
		if err == nil || errors.Is(err, repository.ErrSerializationFailure) {
			return err
		}
		return backoff.Permanent(err)
	}
	onRetry := func(err error, wait time.Duration) {
		s.metrics.RecordReviewRetry(action)
		s.logger.Debug("retrying folder transaction",
			zap.String("action", action),
			zap.String("folder_id", folderID),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	bounded := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(s.maxAttempts-1)), ctx)
	err := backoff.RetryNotify(attempt, bounded, onRetry)
	if err != nil && errors.Is(err, repository.ErrSerializationFailure) {
		s.logger.Warn("folder transaction conflict persisted", zap.String("action", action), zap.String("folder_id", folderID), zap.Int("attempts", s.maxAttempts))
		return appErrors.Wrap(err, appErrors.ErrConcurrencyConflict.Code, appErrors.ErrConcurrencyConflict.Status, appErrors.ErrConcurrencyConflict.Message)
	}
	return err
}

func (s *ReviewService) txError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "folder or document no longer exists")
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return appErrors.Wrap(err, appErrors.ErrConcurrencyConflict.Code, appErrors.ErrConcurrencyConflict.Status, "review interrupted before commit")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// afterCommit runs the side effects of a committed action. None of them can
// fail the action; notification problems are returned as warnings.
func (s *ReviewService) afterCommit(ctx context.Context, folder *models.Folder, outcome AggregateOutcome, entry *models.AuditLog) []string {
	var warnings []string
	if outcome.Event != nil {
		s.metrics.RecordFolderEvent(string(*outcome.Event))
		if s.dispatcher != nil {
			event := s.folderEvent(folder, outcome)
			if err := s.dispatcher.Dispatch(ctx, event); err != nil {
				s.logger.Warn("folder notification not dispatched",
					zap.String("folder_id", folder.ID),
					zap.String("event", string(event.Kind)),
					zap.Error(err),
				)
				warnings = append(warnings, fmt.Sprintf("notification for folder %s was not dispatched: %v", folder.ID, err))
			}
		}
	}
	s.emitAudit(ctx, entry)
	if s.overview != nil {
		if err := s.overview.InvalidateOverview(ctx, folder.StartupFolderID); err != nil {
			s.logger.Warn("failed to invalidate compliance overview", zap.String("startup_folder_id", folder.StartupFolderID), zap.Error(err))
		}
	}
	return warnings
}

// folderEvent draws recipients from the folder the action was applied to.
func (s *ReviewService) folderEvent(folder *models.Folder, outcome AggregateOutcome) models.FolderStatusEvent {
	return models.FolderStatusEvent{
		Kind:            *outcome.Event,
		FolderID:        folder.ID,
		StartupFolderID: folder.StartupFolderID,
		Category:        folder.Category,
		CategoryLabel:   s.resolver.Label(folder.Category),
		OwnerKey:        folder.OwnerKey,
		Recipients:      append([]string(nil), folder.Recipients...),
		PreviousStatus:  outcome.Previous,
		Status:          outcome.Status,
		OccurredAt:      s.now().UTC(),
	}
}

func (s *ReviewService) loadDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	return doc, nil
}

func (s *ReviewService) loadFolder(ctx context.Context, id string) (*models.Folder, error) {
	folder, err := s.store.GetFolder(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "folder not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load folder")
	}
	return folder, nil
}

// lockedDocument re-reads a document under the folder lock and checks it was
// not moved to another folder in the meantime.
func (s *ReviewService) lockedDocument(ctx context.Context, tx repository.FolderTx, documentID, folderID string) (*models.Document, error) {
	doc, err := tx.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, err
	}
	if doc.FolderID != folderID {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "document was moved to another folder")
	}
	return doc, nil
}

// resolveFolder locates the folder a document belongs to through its category
// and owner key and checks it is the folder the document row points at.
func (s *ReviewService) resolveFolder(ctx context.Context, doc *models.Document) (*models.Folder, error) {
	ref, err := s.resolver.RefFor(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "document category is misconfigured")
	}

	var folder *models.Folder
	if owner, ok := ref.OwnerKey(); ok {
		folder, err = s.store.GetFolderByOwnerKey(ctx, ref.StartupFolderID(), ref.Category(), owner)
	} else {
		folder, err = s.store.GetSingletonFolder(ctx, ref.StartupFolderID(), ref.Category())
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no folder for %s", ref))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve folder")
	}
	if folder.ID != doc.FolderID || !ref.Matches(folder) {
		return nil, appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("document %s is filed under folder %s but resolves to %s", doc.ID, doc.FolderID, folder.ID))
	}
	return folder, nil
}

func (s *ReviewService) observe(action string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = appErrors.FromError(err).Code
	}
	s.metrics.ObserveReview(action, outcome, time.Since(start))
}

func (s *ReviewService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "review-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.String("action", log.Action), zap.Error(err))
	}
}

// documentDecisionAllowed encodes which decisions apply to a document status.
// REJECT also revokes an earlier approval.
func documentDecisionAllowed(status models.ReviewStatus, decision models.ReviewDecision) error {
	switch {
	case status == models.ReviewStatusSubmitted:
		return nil
	case decision == models.DecisionReject && status == models.ReviewStatusApproved:
		return nil
	default:
		return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot %s a document in %s", strings.ToLower(string(decision)), status))
	}
}

func folderResult(folder *models.Folder, outcome AggregateOutcome, changes []dto.DocumentStatusChange) *dto.FolderReviewResult {
	if changes == nil {
		changes = []dto.DocumentStatusChange{}
	}
	return &dto.FolderReviewResult{
		FolderID:       folder.ID,
		FolderStatus:   outcome.Status,
		PreviousStatus: outcome.Previous,
		FolderChanged:  outcome.Changed,
		Documents:      changes,
		Event:          outcome.Event,
	}
}

func auditJSON(v interface{}) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return raw
}

func optionalString(value string) *string {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	return &v
}
