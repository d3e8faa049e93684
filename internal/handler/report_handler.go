package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/the-local-guys/testtag-api/internal/dto"
	"github.com/the-local-guys/testtag-api/internal/models"
	"github.com/the-local-guys/testtag-api/internal/service"
	appErrors "github.com/the-local-guys/testtag-api/pkg/errors"
	"github.com/the-local-guys/testtag-api/pkg/response"
)

type reportJobsService interface {
	CreateJob(ctx context.Context, req dto.ReportRequest, claims *models.JWTClaims) (*dto.ReportJobResponse, error)
	GetStatus(ctx context.Context, id string, claims *models.JWTClaims) (*dto.ReportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes report generation and download endpoints.
type ReportHandler struct {
	service reportJobsService
	logger  *zap.Logger
}

// NewReportHandler constructs handler.
func NewReportHandler(svc reportJobsService, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{service: svc, logger: logger}
}

// GenerateReport godoc
// @Summary Queue a session report
// @Description Render a session's compliance report as PDF or CSV in the background
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.ReportRequest true "Report request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/generate [post]
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ReportRequest
	if !bindJSON(c, &req, "invalid report request") {
		return
	}

	resp, err := h.service.CreateJob(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusAccepted, resp, nil)
}

// ReportStatus godoc
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/status/{id} [get]
func (h *ReportHandler) ReportStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	resp, err := h.service.GetStatus(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, resp, nil)
}

// DownloadReport godoc
// @Summary Download a rendered report
// @Description Stream the stored export file for a signed token
// @Tags Reports
// @Produce application/octet-stream
// @Param token path string true "Download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /export/{token} [get]
func (h *ReportHandler) DownloadReport(c *gin.Context) {
	download, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	contentType := "application/octet-stream"
	switch download.Format {
	case models.ReportFormatCSV:
		contentType = "text/csv"
	case models.ReportFormatPDF:
		contentType = "application/pdf"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, download.File); err != nil {
		h.logger.Warn("failed to stream report file", zap.Error(err))
	}
}
