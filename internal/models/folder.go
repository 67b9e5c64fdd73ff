package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// StartupFolder is the root compliance aggregate of a contracting company.
type StartupFolder struct {
	ID          string    `db:"id" json:"id"`
	CompanyName string    `db:"company_name" json:"companyName"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Folder groups the documents of one category, optionally keyed by an owner.
// Status is derived from the member documents and cached on the row.
type Folder struct {
	ID              string         `db:"id" json:"id"`
	StartupFolderID string         `db:"startup_folder_id" json:"startupFolderId"`
	Category        Category       `db:"category" json:"category"`
	OwnerKey        *string        `db:"owner_key" json:"ownerKey,omitempty"`
	Status          ReviewStatus   `db:"status" json:"status"`
	Recipients      pq.StringArray `db:"recipients" json:"recipients"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}

// Document is a single uploaded compliance artifact under review.
type Document struct {
	ID              string       `db:"id" json:"id"`
	FolderID        string       `db:"folder_id" json:"folderId"`
	StartupFolderID string       `db:"startup_folder_id" json:"startupFolderId"`
	Category        Category     `db:"category" json:"category"`
	OwnerKey        *string      `db:"owner_key" json:"ownerKey,omitempty"`
	Name            string       `db:"name" json:"name"`
	Status          ReviewStatus `db:"status" json:"status"`
	ReviewedBy      *string      `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewNotes     *string      `db:"review_notes" json:"reviewNotes,omitempty"`
	ReviewedAt      *time.Time   `db:"reviewed_at" json:"reviewedAt,omitempty"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updatedAt"`
}

// FolderRef addresses a folder instance by its natural key rather than its id.
// Build it with SingletonRef or OwnerKeyedRef; the zero value is invalid.
type FolderRef struct {
	kind            CollectionKind
	startupFolderID string
	category        Category
	ownerKey        string
}

// SingletonRef addresses the only folder of a category under a startup folder.
func SingletonRef(startupFolderID string, category Category) FolderRef {
	return FolderRef{kind: CollectionSingleton, startupFolderID: startupFolderID, category: category}
}

// OwnerKeyedRef addresses the folder of a category owned by ownerKey.
func OwnerKeyedRef(startupFolderID string, category Category, ownerKey string) FolderRef {
	return FolderRef{kind: CollectionOwnerKeyed, startupFolderID: startupFolderID, category: category, ownerKey: ownerKey}
}

// Kind returns the collection shape of the referenced folder.
func (r FolderRef) Kind() CollectionKind { return r.kind }

// StartupFolderID returns the owning startup folder.
func (r FolderRef) StartupFolderID() string { return r.startupFolderID }

// Category returns the referenced category.
func (r FolderRef) Category() Category { return r.category }

// OwnerKey returns the owner key for owner-keyed references.
func (r FolderRef) OwnerKey() (string, bool) {
	if r.kind != CollectionOwnerKeyed {
		return "", false
	}
	return r.ownerKey, true
}

// Matches reports whether folder is the instance this reference points at.
func (r FolderRef) Matches(folder *Folder) bool {
	if folder == nil || folder.StartupFolderID != r.startupFolderID || folder.Category != r.category {
		return false
	}
	switch r.kind {
	case CollectionSingleton:
		return folder.OwnerKey == nil
	case CollectionOwnerKeyed:
		return folder.OwnerKey != nil && *folder.OwnerKey == r.ownerKey
	default:
		return false
	}
}

func (r FolderRef) String() string {
	if r.kind == CollectionOwnerKeyed {
		return fmt.Sprintf("%s/%s/%s", r.startupFolderID, r.category, r.ownerKey)
	}
	return fmt.Sprintf("%s/%s", r.startupFolderID, r.category)
}
