package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/compliance-review-api/internal/dto"
	"github.com/noah-isme/compliance-review-api/internal/middleware"
	appErrors "github.com/noah-isme/compliance-review-api/pkg/errors"
	"github.com/noah-isme/compliance-review-api/pkg/response"
)

type reviewService interface {
	ReviewDocument(ctx context.Context, documentID string, req dto.ReviewDocumentRequest, reviewerID string) (*dto.DocumentReviewResult, error)
	ReviewFolder(ctx context.Context, folderID string, req dto.ReviewFolderRequest, reviewerID string) (*dto.FolderReviewResult, error)
	SyncDocumentStatus(ctx context.Context, documentID string, req dto.SyncDocumentStatusRequest, actorID string) (*dto.DocumentReviewResult, error)
	RecomputeFolder(ctx context.Context, folderID string, actorID string) (*dto.FolderReviewResult, error)
	GetFolder(ctx context.Context, folderID string) (*dto.FolderDetail, error)
}

// ReviewHandler exposes document and folder review endpoints.
type ReviewHandler struct {
	service reviewService
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(service reviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// ReviewDocument godoc
// @Summary Approve or reject a submitted document
// @Tags Review
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.ReviewDocumentRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /documents/{id}/review [post]
func (h *ReviewHandler) ReviewDocument(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req dto.ReviewDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.service.ReviewDocument(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, result, result.Warnings)
}

// ReviewFolder godoc
// @Summary Apply a decision to every submitted document of a folder
// @Tags Review
// @Accept json
// @Produce json
// @Param id path string true "Folder ID"
// @Param payload body dto.ReviewFolderRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /folders/{id}/review [post]
func (h *ReviewHandler) ReviewFolder(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req dto.ReviewFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.service.ReviewFolder(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, result, result.Warnings)
}

// SyncDocumentStatus godoc
// @Summary Mark a document expired or awaiting update
// @Tags Review
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.SyncDocumentStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/status [post]
func (h *ReviewHandler) SyncDocumentStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req dto.SyncDocumentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.service.SyncDocumentStatus(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, result, result.Warnings)
}

// RecomputeFolder godoc
// @Summary Re-derive a folder status from its documents
// @Tags Review
// @Produce json
// @Param id path string true "Folder ID"
// @Success 200 {object} response.Envelope
// @Router /folders/{id}/recompute [post]
func (h *ReviewHandler) RecomputeFolder(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	result, err := h.service.RecomputeFolder(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, result, result.Warnings)
}

// GetFolder godoc
// @Summary Folder with its documents
// @Tags Review
// @Produce json
// @Param id path string true "Folder ID"
// @Success 200 {object} response.Envelope
// @Router /folders/{id} [get]
func (h *ReviewHandler) GetFolder(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	folderID := strings.TrimSpace(c.Param("id"))
	if folderID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "folder id is required"))
		return
	}
	detail, err := h.service.GetFolder(c.Request.Context(), folderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil, middleware.ExtractMeta(c))
}

func (h *ReviewHandler) actor(c *gin.Context) (string, bool) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return "", false
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return claims.UserID, true
}

func respond(c *gin.Context, data interface{}, warnings []string) {
	middleware.AddWarnings(c, warnings...)
	response.JSON(c, http.StatusOK, data, nil, middleware.ExtractMeta(c))
}
