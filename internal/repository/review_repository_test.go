package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/compliance-review-api/internal/models"
)

var (
	folderCols   = []string{"id", "startup_folder_id", "category", "owner_key", "status", "recipients", "updated_at"}
	documentCols = []string{"id", "folder_id", "startup_folder_id", "category", "owner_key", "name", "status", "reviewed_by", "review_notes", "reviewed_at", "updated_at"}
)

func newReviewRepoMock(t *testing.T) (*ReviewRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewReviewRepository(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func folderRow(id, status string) *sqlmock.Rows {
	return sqlmock.NewRows(folderCols).
		AddRow(id, "sf-1", "SAFETY_AND_HEALTH", nil, status, "{hse@acme.io}", time.Now())
}

func TestReviewRepositoryGetFolderByOwnerKey(t *testing.T) {
	repo, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows(folderCols).
		AddRow("folder-w1", "sf-1", "PERSONNEL", "w-1", "DRAFT", "{ops@acme.io,hr@acme.io}", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM folders WHERE startup_folder_id = $1 AND category = $2 AND owner_key = $3")).
		WithArgs("sf-1", models.CategoryPersonnel, "w-1").
		WillReturnRows(rows)

	folder, err := repo.GetFolderByOwnerKey(context.Background(), "sf-1", models.CategoryPersonnel, "w-1")
	require.NoError(t, err)
	require.NotNil(t, folder.OwnerKey)
	assert.Equal(t, "w-1", *folder.OwnerKey)
	assert.Equal(t, []string{"ops@acme.io", "hr@acme.io"}, []string(folder.Recipients))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryGetDocumentNotFound(t *testing.T) {
	repo, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM documents WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryCountDocumentsByStatus(t *testing.T) {
	repo, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"folder_id", "status", "total"}).
		AddRow("folder-1", "APPROVED", 2).
		AddRow("folder-1", "SUBMITTED", 1)
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY folder_id, status")).
		WithArgs("sf-1").
		WillReturnRows(rows)

	counts, err := repo.CountDocumentsByStatus(context.Background(), "sf-1")
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, 2, counts[0].Total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinFolderTxCommits(t *testing.T) {
	repo, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	reviewer := "reviewer-1"
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM folders WHERE id = $1 FOR UPDATE")).
		WithArgs("folder-1").
		WillReturnRows(folderRow("folder-1", "DRAFT"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET status = $1")).
		WithArgs(models.ReviewStatusApproved, &reviewer, nil, &now, sqlmock.AnyArg(), "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM documents WHERE folder_id = $1")).
		WithArgs("folder-1").
		WillReturnRows(sqlmock.NewRows(documentCols).
			AddRow("doc-1", "folder-1", "sf-1", "SAFETY_AND_HEALTH", nil, "Policy", "APPROVED", reviewer, nil, now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE folders SET status = $1, updated_at = $2 WHERE id = $3 AND status <> $1")).
		WithArgs(models.ReviewStatusApproved, sqlmock.AnyArg(), "folder-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var changed bool
	err := repo.WithinFolderTx(context.Background(), "folder-1", func(tx FolderTx, folder *models.Folder) error {
		assert.Equal(t, models.ReviewStatusDraft, folder.Status)
		if err := tx.UpdateDocumentStatus(context.Background(), UpdateDocumentStatusParams{
			DocumentID: "doc-1",
			Status:     models.ReviewStatusApproved,
			ReviewedBy: &reviewer,
			ReviewedAt: &now,
		}); err != nil {
			return err
		}
		docs, err := tx.ListSiblingDocuments(context.Background(), folder.ID)
		if err != nil {
			return err
		}
		require.Len(t, docs, 1)
		changed, err = tx.UpdateFolderStatus(context.Background(), folder.ID, models.ReviewStatusApproved)
		return err
	})
	require.NoError(t, err)
	assert.True(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinFolderTxIdempotentFolderWrite(t *testing.T) {
	repo, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("folder-1").
		WillReturnRows(folderRow("folder-1", "APPROVED"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE folders SET status")).
		WithArgs(models.ReviewStatusApproved, sqlmock.AnyArg(), "folder-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.WithinFolderTx(context.Background(), "folder-1", func(tx FolderTx, folder *models.Folder) error {
		changed, err := tx.UpdateFolderStatus(context.Background(), folder.ID, models.ReviewStatusApproved)
		assert.False(t, changed)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinFolderTxMissingFolder(t *testing.T) {
	repo, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	called := false
	err := repo.WithinFolderTx(context.Background(), "ghost", func(FolderTx, *models.Folder) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.False(t, called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinFolderTxRollsBackOnCallbackError(t *testing.T) {
	repo, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("folder-1").
		WillReturnRows(folderRow("folder-1", "DRAFT"))
	mock.ExpectRollback()

	boom := errors.New("invalid transition")
	err := repo.WithinFolderTx(context.Background(), "folder-1", func(FolderTx, *models.Folder) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrSerializationFailure)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinFolderTxClassifiesSerializationFailure(t *testing.T) {
	repo, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("folder-1").
		WillReturnRows(folderRow("folder-1", "DRAFT"))
	mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001"})

	err := repo.WithinFolderTx(context.Background(), "folder-1", func(FolderTx, *models.Folder) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrSerializationFailure)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDocumentStatusMissingRow(t *testing.T) {
	repo, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("folder-1").
		WillReturnRows(folderRow("folder-1", "DRAFT"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET status")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.WithinFolderTx(context.Background(), "folder-1", func(tx FolderTx, _ *models.Folder) error {
		return tx.UpdateDocumentStatus(context.Background(), UpdateDocumentStatusParams{DocumentID: "doc-x", Status: models.ReviewStatusExpired})
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
