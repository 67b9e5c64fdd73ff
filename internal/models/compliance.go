package models

import "time"

// ReviewStatus captures the review lifecycle shared by documents and folders.
type ReviewStatus string

const (
	ReviewStatusDraft     ReviewStatus = "DRAFT"
	ReviewStatusSubmitted ReviewStatus = "SUBMITTED"
	ReviewStatusApproved  ReviewStatus = "APPROVED"
	ReviewStatusRejected  ReviewStatus = "REJECTED"
	ReviewStatusExpired   ReviewStatus = "EXPIRED"
	ReviewStatusToUpdate  ReviewStatus = "TO_UPDATE"
)

// ReviewStatuses lists every known status in display order.
var ReviewStatuses = []ReviewStatus{
	ReviewStatusDraft,
	ReviewStatusSubmitted,
	ReviewStatusApproved,
	ReviewStatusRejected,
	ReviewStatusExpired,
	ReviewStatusToUpdate,
}

// Valid reports whether the status is one of the known values.
func (s ReviewStatus) Valid() bool {
	for _, known := range ReviewStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ReviewDecision is the verdict a reviewer applies to a document or folder.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "APPROVE"
	DecisionReject  ReviewDecision = "REJECT"
)

// Valid reports whether the decision is supported.
func (d ReviewDecision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// Category identifies a compliance document category.
type Category string

const (
	CategoryBasicInformation Category = "BASIC_INFORMATION"
	CategorySafetyAndHealth  Category = "SAFETY_AND_HEALTH"
	CategoryEnvironmental    Category = "ENVIRONMENTAL"
	CategoryTechnical        Category = "TECHNICAL_SPECS"
	CategoryPersonnel        Category = "PERSONNEL"
	CategoryVehicles         Category = "VEHICLES"
)

// CollectionKind describes how folders of a category hang off a startup folder.
type CollectionKind string

const (
	CollectionSingleton  CollectionKind = "SINGLETON"
	CollectionOwnerKeyed CollectionKind = "OWNER_KEYED"
)

// CategorySpec is one row of the category resolution table.
type CategorySpec struct {
	Category   Category       `json:"category"`
	Label      string         `json:"label"`
	Kind       CollectionKind `json:"kind"`
	OwnerField string         `json:"ownerField,omitempty"`
}

// FolderEventKind classifies folder status transitions that notify recipients.
type FolderEventKind string

const (
	FolderEventCompleted FolderEventKind = "COMPLETED"
	FolderEventReopened  FolderEventKind = "REOPENED"
)

// FolderStatusEvent is emitted after a committed folder status change.
type FolderStatusEvent struct {
	Kind            FolderEventKind `json:"kind"`
	FolderID        string          `json:"folderId"`
	StartupFolderID string          `json:"startupFolderId"`
	Category        Category        `json:"category"`
	CategoryLabel   string          `json:"categoryLabel"`
	OwnerKey        *string         `json:"ownerKey,omitempty"`
	Recipients      []string        `json:"recipients"`
	PreviousStatus  ReviewStatus    `json:"previousStatus"`
	Status          ReviewStatus    `json:"status"`
	OccurredAt      time.Time       `json:"occurredAt"`
}
