package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/compliance-review-api/internal/dto"
	"github.com/noah-isme/compliance-review-api/internal/middleware"
	"github.com/noah-isme/compliance-review-api/internal/models"
	appErrors "github.com/noah-isme/compliance-review-api/pkg/errors"
	"github.com/noah-isme/compliance-review-api/pkg/export"
	"github.com/noah-isme/compliance-review-api/pkg/response"
)

type complianceService interface {
	Categories() []models.CategorySpec
	Overview(ctx context.Context, startupFolderID string) (*dto.ComplianceOverview, bool, error)
	Export(ctx context.Context, startupFolderID string, format export.Format) (*export.File, error)
}

// ComplianceHandler serves the company level compliance read model.
type ComplianceHandler struct {
	service complianceService
}

// NewComplianceHandler constructs the handler.
func NewComplianceHandler(service complianceService) *ComplianceHandler {
	return &ComplianceHandler{service: service}
}

// Categories godoc
// @Summary Document categories and their folder shape
// @Tags Compliance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /categories [get]
func (h *ComplianceHandler) Categories(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	response.OK(c, h.service.Categories(), nil)
}

// Overview godoc
// @Summary Folder statuses and overall status of a startup folder
// @Tags Compliance
// @Produce json
// @Param id path string true "Startup folder ID"
// @Success 200 {object} response.Envelope
// @Router /startup-folders/{id}/compliance [get]
func (h *ComplianceHandler) Overview(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	startupFolderID := strings.TrimSpace(c.Param("id"))
	if startupFolderID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "startup folder id is required"))
		return
	}
	overview, cacheHit, err := h.service.Overview(c.Request.Context(), startupFolderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, overview, nil, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export the compliance overview
// @Tags Compliance
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Startup folder ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /startup-folders/{id}/compliance/export [get]
func (h *ComplianceHandler) Export(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	file, err := h.service.Export(c.Request.Context(), strings.TrimSpace(c.Param("id")), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", file.Name))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Body)
}
