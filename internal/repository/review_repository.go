package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/compliance-review-api/internal/models"
	"github.com/noah-isme/compliance-review-api/pkg/database"
)

// ErrSerializationFailure marks a folder transaction Postgres aborted because
// a concurrent transaction won the race. Callers may retry the whole unit.
var ErrSerializationFailure = errors.New("folder transaction serialization failure")

const (
	folderColumns   = `id, startup_folder_id, category, owner_key, status, recipients, updated_at`
	documentColumns = `id, folder_id, startup_folder_id, category, owner_key, name, status, reviewed_by, review_notes, reviewed_at, updated_at`
)

// ReviewRepository is the Postgres document store used by the review workflow.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs the repository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// GetDocument fetches a document by id.
func (r *ReviewRepository) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetFolder fetches a folder by id.
func (r *ReviewRepository) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE id = $1`
	var folder models.Folder
	if err := r.db.GetContext(ctx, &folder, query, id); err != nil {
		return nil, err
	}
	return &folder, nil
}

// GetSingletonFolder returns the only folder of a singleton category.
func (r *ReviewRepository) GetSingletonFolder(ctx context.Context, startupFolderID string, category models.Category) (*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE startup_folder_id = $1 AND category = $2 AND owner_key IS NULL`
	var folder models.Folder
	if err := r.db.GetContext(ctx, &folder, query, startupFolderID, category); err != nil {
		return nil, err
	}
	return &folder, nil
}

// GetFolderByOwnerKey returns the folder of an owner keyed category for one owner.
func (r *ReviewRepository) GetFolderByOwnerKey(ctx context.Context, startupFolderID string, category models.Category, ownerKey string) (*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE startup_folder_id = $1 AND category = $2 AND owner_key = $3`
	var folder models.Folder
	if err := r.db.GetContext(ctx, &folder, query, startupFolderID, category, ownerKey); err != nil {
		return nil, err
	}
	return &folder, nil
}

// ListFolderDocuments returns every document in a folder ordered by name.
func (r *ReviewRepository) ListFolderDocuments(ctx context.Context, folderID string) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE folder_id = $1 ORDER BY name, id`
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, folderID); err != nil {
		return nil, fmt.Errorf("list folder documents: %w", err)
	}
	return docs, nil
}

// ListFoldersByStartup returns every folder of a startup folder.
func (r *ReviewRepository) ListFoldersByStartup(ctx context.Context, startupFolderID string) ([]models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE startup_folder_id = $1 ORDER BY category, owner_key NULLS FIRST`
	var folders []models.Folder
	if err := r.db.SelectContext(ctx, &folders, query, startupFolderID); err != nil {
		return nil, fmt.Errorf("list startup folders: %w", err)
	}
	return folders, nil
}

// GetStartupFolder fetches the root aggregate.
func (r *ReviewRepository) GetStartupFolder(ctx context.Context, id string) (*models.StartupFolder, error) {
	const query = `SELECT id, company_name, created_at FROM startup_folders WHERE id = $1`
	var sf models.StartupFolder
	if err := r.db.GetContext(ctx, &sf, query, id); err != nil {
		return nil, err
	}
	return &sf, nil
}

// FolderStatusCount is the number of documents in one status for one folder.
type FolderStatusCount struct {
	FolderID string              `db:"folder_id"`
	Status   models.ReviewStatus `db:"status"`
	Total    int                 `db:"total"`
}

// CountDocumentsByStatus groups document counts per folder and status for a startup folder.
func (r *ReviewRepository) CountDocumentsByStatus(ctx context.Context, startupFolderID string) ([]FolderStatusCount, error) {
	const query = `SELECT folder_id, status, COUNT(*) AS total FROM documents WHERE startup_folder_id = $1 GROUP BY folder_id, status`
	var counts []FolderStatusCount
	if err := r.db.SelectContext(ctx, &counts, query, startupFolderID); err != nil {
		return nil, fmt.Errorf("count documents by status: %w", err)
	}
	return counts, nil
}

// UpdateDocumentStatusParams holds values for a document status write.
type UpdateDocumentStatusParams struct {
	DocumentID string
	Status     models.ReviewStatus
	ReviewedBy *string
	Notes      *string
	ReviewedAt *time.Time
}

// FolderTx is the set of document store operations available while a folder
// row is locked.
type FolderTx interface {
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListSiblingDocuments(ctx context.Context, folderID string) ([]models.Document, error)
	UpdateDocumentStatus(ctx context.Context, params UpdateDocumentStatusParams) error
	UpdateFolderStatus(ctx context.Context, folderID string, status models.ReviewStatus) (bool, error)
}

// WithinFolderTx runs fn inside a serializable transaction holding the folder
// row lock. The locked folder is handed to fn. Serialization failures and
// deadlocks are reported as ErrSerializationFailure; a missing folder yields
// sql.ErrNoRows.
func (r *ReviewRepository) WithinFolderTx(ctx context.Context, folderID string, fn func(FolderTx, *models.Folder) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return classifyTxError(fmt.Errorf("begin folder transaction: %w", err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `SELECT ` + folderColumns + ` FROM folders WHERE id = $1 FOR UPDATE`
	var folder models.Folder
	if err = tx.GetContext(ctx, &folder, query, folderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return classifyTxError(fmt.Errorf("lock folder: %w", err))
	}

	if err = fn(&folderTx{tx: tx}, &folder); err != nil {
		return classifyTxError(err)
	}

	if err = tx.Commit(); err != nil {
		return classifyTxError(fmt.Errorf("commit folder transaction: %w", err))
	}
	return nil
}

func classifyTxError(err error) error {
	if database.IsRetryableTxError(err) {
		return fmt.Errorf("%w: %w", ErrSerializationFailure, err)
	}
	return err
}

type folderTx struct {
	tx *sqlx.Tx
}

func (t *folderTx) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	var doc models.Document
	if err := t.tx.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (t *folderTx) ListSiblingDocuments(ctx context.Context, folderID string) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE folder_id = $1 ORDER BY name, id`
	var docs []models.Document
	if err := t.tx.SelectContext(ctx, &docs, query, folderID); err != nil {
		return nil, fmt.Errorf("list sibling documents: %w", err)
	}
	return docs, nil
}

// UpdateDocumentStatus writes the document status. Review metadata is replaced
// only when a reviewer is given; status syncs leave it untouched.
func (t *folderTx) UpdateDocumentStatus(ctx context.Context, params UpdateDocumentStatusParams) error {
	var (
		query string
		args  []interface{}
	)
	if params.ReviewedBy != nil {
		query = `UPDATE documents SET status = $1, reviewed_by = $2, review_notes = $3, reviewed_at = $4, updated_at = $5 WHERE id = $6`
		args = []interface{}{params.Status, params.ReviewedBy, params.Notes, params.ReviewedAt, time.Now().UTC(), params.DocumentID}
	} else {
		query = `UPDATE documents SET status = $1, updated_at = $2 WHERE id = $3`
		args = []interface{}{params.Status, time.Now().UTC(), params.DocumentID}
	}
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document status rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateFolderStatus writes status only when it differs so repeated writes of
// the same derived status are no-ops. It reports whether a row changed.
func (t *folderTx) UpdateFolderStatus(ctx context.Context, folderID string, status models.ReviewStatus) (bool, error) {
	const query = `UPDATE folders SET status = $1, updated_at = $2 WHERE id = $3 AND status <> $1`
	res, err := t.tx.ExecContext(ctx, query, status, time.Now().UTC(), folderID)
	if err != nil {
		return false, fmt.Errorf("update folder status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update folder status rows: %w", err)
	}
	return affected > 0, nil
}
