package service

import (
	"github.com/noah-isme/compliance-review-api/internal/models"
	"github.com/noah-isme/compliance-review-api/pkg/config"
)

// AggregateOutcome is the folder status derived from a document snapshot.
type AggregateOutcome struct {
	Previous models.ReviewStatus
	Status   models.ReviewStatus
	Changed  bool
	// Event is set when the transition notifies folder recipients.
	Event *models.FolderEventKind
}

// StatusAggregator derives folder status bottom up from member documents.
// It holds no state besides the empty folder policy.
type StatusAggregator struct {
	approveEmpty bool
}

// NewStatusAggregator builds an aggregator for the configured empty folder
// policy (config.EmptyFolderReject or config.EmptyFolderApprove).
func NewStatusAggregator(emptyFolderPolicy string) *StatusAggregator {
	return &StatusAggregator{approveEmpty: emptyFolderPolicy == config.EmptyFolderApprove}
}

// ApprovesEmptyFolders reports whether an empty folder counts as complete.
func (a *StatusAggregator) ApprovesEmptyFolders() bool {
	return a.approveEmpty
}

// Derive applies the aggregation rule to statuses against the folder's current
// status. Rules, in order: every document APPROVED gives APPROVED; otherwise no
// document SUBMITTED gives DRAFT; otherwise the folder keeps its status.
func (a *StatusAggregator) Derive(current models.ReviewStatus, statuses []models.ReviewStatus) AggregateOutcome {
	return transition(current, a.derive(current, statuses))
}

func (a *StatusAggregator) derive(current models.ReviewStatus, statuses []models.ReviewStatus) models.ReviewStatus {
	if len(statuses) == 0 {
		if a.approveEmpty {
			return models.ReviewStatusApproved
		}
		return models.ReviewStatusDraft
	}

	allApproved, anySubmitted := true, false
	for _, s := range statuses {
		if s != models.ReviewStatusApproved {
			allApproved = false
		}
		if s == models.ReviewStatusSubmitted {
			anySubmitted = true
		}
	}

	switch {
	case allApproved:
		return models.ReviewStatusApproved
	case !anySubmitted:
		return models.ReviewStatusDraft
	default:
		return current
	}
}

func transition(previous, next models.ReviewStatus) AggregateOutcome {
	out := AggregateOutcome{Previous: previous, Status: next, Changed: previous != next}
	if !out.Changed {
		return out
	}
	var kind models.FolderEventKind
	switch next {
	case models.ReviewStatusApproved:
		kind = models.FolderEventCompleted
	case models.ReviewStatusDraft:
		kind = models.FolderEventReopened
	default:
		return out
	}
	out.Event = &kind
	return out
}
