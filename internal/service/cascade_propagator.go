package service

import (
	"fmt"

	"github.com/noah-isme/compliance-review-api/internal/dto"
	"github.com/noah-isme/compliance-review-api/internal/models"
	appErrors "github.com/noah-isme/compliance-review-api/pkg/errors"
)

// CascadePlan is the set of writes a bulk folder decision implies.
type CascadePlan struct {
	Changes []dto.DocumentStatusChange
	// Statuses holds every member status after the cascade, in document order.
	Statuses []models.ReviewStatus
	Folder   AggregateOutcome
}

// CascadePropagator computes top down document statuses for a folder decision.
type CascadePropagator struct {
	aggregator *StatusAggregator
}

// NewCascadePropagator builds a propagator sharing the aggregator's rules.
func NewCascadePropagator(aggregator *StatusAggregator) *CascadePropagator {
	return &CascadePropagator{aggregator: aggregator}
}

// Plan applies decision to docs without touching storage. APPROVE moves every
// SUBMITTED document to APPROVED; REJECT sends every SUBMITTED document back to
// DRAFT. Other documents keep their status. The folder status is then derived
// by the aggregator.
func (p *CascadePropagator) Plan(folder *models.Folder, docs []models.Document, decision models.ReviewDecision) (*CascadePlan, error) {
	var target models.ReviewStatus
	switch decision {
	case models.DecisionApprove:
		target = models.ReviewStatusApproved
	case models.DecisionReject:
		target = models.ReviewStatusDraft
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported decision %q", decision))
	}

	if len(docs) == 0 {
		return p.planEmpty(folder, decision)
	}

	plan := &CascadePlan{Statuses: make([]models.ReviewStatus, len(docs))}
	for i, doc := range docs {
		plan.Statuses[i] = doc.Status
		if doc.Status != models.ReviewStatusSubmitted {
			continue
		}
		plan.Statuses[i] = target
		plan.Changes = append(plan.Changes, dto.DocumentStatusChange{DocumentID: doc.ID, From: doc.Status, To: target})
	}
	if len(plan.Changes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "folder has no submitted documents to review")
	}

	plan.Folder = p.aggregator.Derive(folder.Status, plan.Statuses)
	return plan, nil
}

// planEmpty is the explicit empty folder branch. Under the reject policy an
// empty folder cannot be reviewed at all.
func (p *CascadePropagator) planEmpty(folder *models.Folder, decision models.ReviewDecision) (*CascadePlan, error) {
	if !p.aggregator.ApprovesEmptyFolders() {
		return nil, appErrors.Clone(appErrors.ErrEmptyFolder, fmt.Sprintf("folder %s has no documents", folder.ID))
	}
	next := models.ReviewStatusDraft
	if decision == models.DecisionApprove {
		next = models.ReviewStatusApproved
	}
	return &CascadePlan{Folder: transition(folder.Status, next)}, nil
}
