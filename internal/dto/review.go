package dto

import "github.com/noah-isme/compliance-review-api/internal/models"

// ReviewDocumentRequest is a reviewer verdict on a single document.
type ReviewDocumentRequest struct {
	Decision models.ReviewDecision `json:"decision" validate:"required,oneof=APPROVE REJECT"`
	Notes    string                `json:"notes" validate:"max=2000"`
}

// ReviewFolderRequest is a bulk verdict applied to every submitted document of a folder.
type ReviewFolderRequest struct {
	Decision models.ReviewDecision `json:"decision" validate:"required,oneof=APPROVE REJECT"`
}

// SyncDocumentStatusRequest moves a document out of the review cycle on behalf of
// an external scheduler.
type SyncDocumentStatusRequest struct {
	Status models.ReviewStatus `json:"status" validate:"required,oneof=EXPIRED TO_UPDATE"`
}

// DocumentStatusChange records one document transition caused by a cascade.
type DocumentStatusChange struct {
	DocumentID string              `json:"documentId"`
	From       models.ReviewStatus `json:"from"`
	To         models.ReviewStatus `json:"to"`
}

// DocumentReviewResult describes the committed outcome of a single document action.
type DocumentReviewResult struct {
	DocumentID     string                  `json:"documentId"`
	Status         models.ReviewStatus     `json:"status"`
	FolderID       string                  `json:"folderId"`
	FolderStatus   models.ReviewStatus     `json:"folderStatus"`
	FolderChanged  bool                    `json:"folderRecomputed"`
	PreviousFolder models.ReviewStatus     `json:"previousFolderStatus"`
	Event          *models.FolderEventKind `json:"event,omitempty"`
	Warnings       []string                `json:"-"`
}

// FolderReviewResult describes the committed outcome of a folder level action.
type FolderReviewResult struct {
	FolderID       string                  `json:"folderId"`
	FolderStatus   models.ReviewStatus     `json:"folderStatus"`
	PreviousStatus models.ReviewStatus     `json:"previousFolderStatus"`
	FolderChanged  bool                    `json:"folderChanged"`
	Documents      []DocumentStatusChange  `json:"documents"`
	Event          *models.FolderEventKind `json:"event,omitempty"`
	Warnings       []string                `json:"-"`
}

// FolderDetail is a folder with its member documents.
type FolderDetail struct {
	Folder        models.Folder     `json:"folder"`
	CategoryLabel string            `json:"categoryLabel"`
	Kind          string            `json:"kind"`
	Documents     []models.Document `json:"documents"`
}
