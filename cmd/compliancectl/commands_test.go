package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/compliance-review-api/internal/dto"
	"github.com/noah-isme/compliance-review-api/internal/models"
	"github.com/noah-isme/compliance-review-api/internal/service"
	appErrors "github.com/noah-isme/compliance-review-api/pkg/errors"
)

type fakeActions struct {
	folder   *dto.FolderReviewResult
	document *dto.DocumentReviewResult
	err      error

	lastID     string
	lastActor  string
	lastStatus models.ReviewStatus
}

func (f *fakeActions) RecomputeFolder(_ context.Context, folderID string, actorID string) (*dto.FolderReviewResult, error) {
	f.lastID, f.lastActor = folderID, actorID
	return f.folder, f.err
}

func (f *fakeActions) SyncDocumentStatus(_ context.Context, documentID string, req dto.SyncDocumentStatusRequest, actorID string) (*dto.DocumentReviewResult, error) {
	f.lastID, f.lastActor, f.lastStatus = documentID, actorID, req.Status
	return f.document, f.err
}

func run(t *testing.T, actions *fakeActions, args ...string) (string, error) {
	t.Helper()
	closed := false
	open := func(context.Context) (reviewActions, func(), error) {
		return actions, func() { closed = true }, nil
	}
	root := newRootCommand(service.DefaultCategoryResolver(), open)
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	if actions != nil && len(args) > 0 && args[0] != "categories" && err == nil {
		assert.True(t, closed)
	}
	return out.String(), err
}

func TestCategoriesCommand(t *testing.T) {
	out, err := run(t, nil, "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "PERSONNEL")
	assert.Contains(t, out, "worker_id")
	assert.Contains(t, out, "SINGLETON")
}

func TestRecomputeCommand(t *testing.T) {
	actions := &fakeActions{folder: &dto.FolderReviewResult{
		FolderID:       "folder-1",
		PreviousStatus: models.ReviewStatusSubmitted,
		FolderStatus:   models.ReviewStatusApproved,
		FolderChanged:  true,
		Warnings:       []string{"notification for folder folder-1 was not dispatched"},
	}}
	out, err := run(t, actions, "recompute", "folder-1", "--actor", "ops-1")
	require.NoError(t, err)
	assert.Equal(t, "folder-1", actions.lastID)
	assert.Equal(t, "ops-1", actions.lastActor)
	assert.Contains(t, out, "folder folder-1: SUBMITTED -> APPROVED")
	assert.Contains(t, out, "warning: notification")
}

func TestRecomputeCommandUnchanged(t *testing.T) {
	actions := &fakeActions{folder: &dto.FolderReviewResult{FolderID: "folder-1", FolderStatus: models.ReviewStatusDraft}}
	out, err := run(t, actions, "recompute", "folder-1")
	require.NoError(t, err)
	assert.Equal(t, "compliancectl", actions.lastActor)
	assert.Contains(t, out, "already DRAFT")
}

func TestStatusCommands(t *testing.T) {
	cases := map[string]models.ReviewStatus{
		"expire":         models.ReviewStatusExpired,
		"mark-to-update": models.ReviewStatusToUpdate,
	}
	for use, status := range cases {
		t.Run(use, func(t *testing.T) {
			actions := &fakeActions{document: &dto.DocumentReviewResult{
				DocumentID:     "doc-1",
				Status:         status,
				FolderID:       "folder-1",
				PreviousFolder: models.ReviewStatusApproved,
				FolderStatus:   models.ReviewStatusDraft,
				FolderChanged:  true,
			}}
			out, err := run(t, actions, use, "doc-1")
			require.NoError(t, err)
			assert.Equal(t, status, actions.lastStatus)
			assert.Contains(t, out, "folder folder-1: APPROVED -> DRAFT")
		})
	}
}

func TestCommandErrors(t *testing.T) {
	_, err := run(t, &fakeActions{}, "recompute")
	assert.Error(t, err)

	actions := &fakeActions{err: appErrors.Clone(appErrors.ErrInvalidTransition, "document is already EXPIRED")}
	_, err = run(t, actions, "expire", "doc-1")
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	failing := func(context.Context) (reviewActions, func(), error) {
		return nil, nil, errors.New("connect postgres: refused")
	}
	root := newRootCommand(service.DefaultCategoryResolver(), failing)
	root.SetArgs([]string{"recompute", "folder-1"})
	root.SetOut(&bytes.Buffer{})
	assert.EqualError(t, root.ExecuteContext(context.Background()), "connect postgres: refused")
}
