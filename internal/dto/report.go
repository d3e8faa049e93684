package dto

import "github.com/the-local-guys/testtag-api/internal/models"

// ReportRequest asks for an export of one completed test session.
type ReportRequest struct {
	SessionID string              `json:"sessionId"`
	Format    models.ReportFormat `json:"format"`
}

// ReportJobResponse acknowledges an enqueued report job.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse reports job progress. ResultURL is only set once
// the job has finished; Error only when it failed.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
