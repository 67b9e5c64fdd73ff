package dto

import (
	"time"

	"github.com/noah-isme/compliance-review-api/internal/models"
)

// FolderSummary is one row of the startup folder compliance overview.
type FolderSummary struct {
	FolderID       string                      `json:"folderId"`
	Category       models.Category             `json:"category"`
	CategoryLabel  string                      `json:"categoryLabel"`
	OwnerKey       *string                     `json:"ownerKey,omitempty"`
	Status         models.ReviewStatus         `json:"status"`
	DocumentCounts map[models.ReviewStatus]int `json:"documentCounts"`
	TotalDocuments int                         `json:"totalDocuments"`
	UpdatedAt      time.Time                   `json:"updatedAt"`
}

// ComplianceOverview aggregates folder statuses for a contracting company.
type ComplianceOverview struct {
	StartupFolderID string              `json:"startupFolderId"`
	CompanyName     string              `json:"companyName"`
	OverallStatus   models.ReviewStatus `json:"overallStatus"`
	Folders         []FolderSummary     `json:"folders"`
	GeneratedAt     time.Time           `json:"generatedAt"`
}
