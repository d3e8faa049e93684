package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/the-local-guys/testtag-api/internal/dto"
	"github.com/the-local-guys/testtag-api/internal/models"
	"github.com/the-local-guys/testtag-api/internal/repository"
	appErrors "github.com/the-local-guys/testtag-api/pkg/errors"
	"github.com/the-local-guys/testtag-api/pkg/jobs"
)

const reportJobType = "session_report"

type sessionAccessChecker interface {
	Get(ctx context.Context, id string) (*models.TestSession, error)
	CanAccessSession(session *models.TestSession, claims *models.JWTClaims) bool
}

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error)
}

// jobTransition builds the update params for a lifecycle state change.
func jobTransition(status models.ReportStatus, progress int) repository.UpdateReportJobParams {
	return repository.UpdateReportJobParams{Status: &status, Progress: &progress}
}

// withJobError attaches an error message to update params.
func withJobError(p repository.UpdateReportJobParams, msg string) repository.UpdateReportJobParams {
	p.ErrorMessage = &msg
	return p
}

// ReportServiceConfig tunes retention and the cleanup loop.
type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
	MaxRetries      int
}

// ReportService owns the report job lifecycle: creation, status queries,
// signed-URL downloads, restart recovery and artifact cleanup. The actual
// file generation happens in ReportWorker via the job queue.
type ReportService struct {
	repo     reportJobStore
	sessions sessionAccessChecker
	queue    jobDispatcher
	exporter *ExportService
	logger   *zap.Logger
	cfg      ReportServiceConfig
}

// ReportDownload is a resolved download: an open file handle plus the
// metadata the handler needs for response headers.
type ReportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ReportFormat
	ExpiresAt time.Time
}

func NewReportService(repo reportJobStore, sessions sessionAccessChecker, queue jobDispatcher, exporter *ExportService, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &ReportService{
		repo:     repo,
		sessions: sessions,
		queue:    queue,
		exporter: exporter,
		logger:   logger,
		cfg:      cfg,
	}
}

// CreateJob persists a queued job for the session and hands it to the
// queue. The caller must be able to access the session being exported.
func (s *ReportService) CreateJob(ctx context.Context, req dto.ReportRequest, claims *models.JWTClaims) (*dto.ReportJobResponse, error) {
	if req.SessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sessionId is required")
	}
	if !isValidFormat(req.Format) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}

	session, err := s.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if !s.sessions.CanAccessSession(session, claims) {
		return nil, appErrors.ErrForbidden
	}

	job := &models.ReportJob{
		Params:    models.ReportJobParams{SessionID: req.SessionID, Format: req.Format},
		Status:    models.ReportStatusQueued,
		CreatedBy: claims.UserID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Internal(err, "failed to create report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: reportJobType}); err != nil {
		// Mark the row failed so it is not replayed by startup recovery.
		now := time.Now().UTC()
		params := withJobError(jobTransition(models.ReportStatusFailed, 100), "failed to enqueue job")
		params.FinishedAt = &now
		_ = s.repo.Update(ctx, job.ID, params)
		return nil, appErrors.Internal(err, "failed to enqueue report job")
	}

	return &dto.ReportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus returns job progress. Without the reports:all capability a
// caller only sees jobs they created.
func (s *ReportService) GetStatus(ctx context.Context, id string, claims *models.JWTClaims) (*dto.ReportStatusResponse, error) {
	job, err := s.loadJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.CreatedBy != claims.UserID && !models.PermissionsFor(claims.Role).Has(models.PermReportsAll) {
		return nil, appErrors.ErrForbidden
	}

	resp := &dto.ReportStatusResponse{
		ID:        job.ID,
		Status:    job.Status,
		Progress:  job.Progress,
		ResultURL: job.ResultURL,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload verifies a signed download token and opens the artifact.
// The token must match the job's stored URL so that revoked or regenerated
// jobs invalidate old links.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	jobID, relPath, expiresAt, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}

	job, err := s.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	switch {
	case job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token):
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	case job.Status != models.ReportStatusFinished:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report not ready")
	}

	file, err := s.exporter.Open(relPath)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to open export file")
	}
	return &ReportDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Params.Format,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *ReportService) loadJob(ctx context.Context, id string) (*models.ReportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load report job")
	}
	return job, nil
}

// RecoverPendingJobs re-enqueues rows left in QUEUED, typically after a
// process restart dropped the in-memory queue.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued report jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: reportJobType}); err != nil {
			s.logger.Warn("failed to requeue pending job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

// StartCleanup runs a background loop purging artifacts of jobs finished
// longer than ResultTTL ago. It stops when ctx is cancelled.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(s.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ReportService) cleanupExpired(ctx context.Context) {
	const batchSize = 100
	cutoff := time.Now().Add(-s.cfg.ResultTTL)

	for {
		expired, err := s.repo.ListFinishedBefore(ctx, cutoff, batchSize)
		if err != nil {
			s.logger.Warn("cleanup list failed", zap.Error(err))
			return
		}
		for _, job := range expired {
			s.deleteArtifact(job)
		}
		if len(expired) < batchSize {
			break
		}
	}

	// Sweep the storage directory too, catching files whose rows are gone.
	if _, err := s.exporter.Cleanup(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("filesystem cleanup failed", zap.Error(err))
	}
}

// deleteArtifact removes the export file referenced by a job's result URL.
// Expired tokens are still parsed here since cleanup runs after expiry.
func (s *ReportService) deleteArtifact(job models.ReportJob) {
	if job.ResultURL == nil {
		return
	}
	token := extractToken(*job.ResultURL)
	if token == "" {
		return
	}
	_, relPath, _, err := s.exporter.ParseToken(token, true)
	if err != nil {
		return
	}
	if err := s.exporter.Delete(relPath); err != nil {
		s.logger.Warn("cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func isValidFormat(f models.ReportFormat) bool {
	return f == models.ReportFormatCSV || f == models.ReportFormatPDF
}

func extractToken(url string) string {
	if url == "" {
		return ""
	}
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

// ReportWorker turns queue jobs into export files, recording progress and
// retry outcomes on the job row.
type ReportWorker struct {
	repo       reportJobStore
	exporter   exportGenerator
	logger     *zap.Logger
	maxRetries int
}

func NewReportWorker(repo reportJobStore, exporter exportGenerator, maxRetries int, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ReportWorker{
		repo:       repo,
		exporter:   exporter,
		logger:     logger,
		maxRetries: maxRetries,
	}
}

// Handle generates the export for one job. A generation error on the final
// attempt marks the row FAILED; earlier attempts put it back to QUEUED so
// the queue's retry can pick it up.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if err := w.repo.Update(ctx, job.ID, jobTransition(models.ReportStatusProcessing, 10)); err != nil {
		return err
	}

	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		w.recordFailure(ctx, job, err)
		return err
	}

	now := time.Now().UTC()
	params := withJobError(jobTransition(models.ReportStatusFinished, 100), "")
	params.ResultURL = &result.URL
	params.FinishedAt = &now
	if err := w.repo.Update(ctx, job.ID, params); err != nil {
		w.logger.Warn("failed to mark job finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	return nil
}

func (w *ReportWorker) recordFailure(ctx context.Context, job jobs.Job, genErr error) {
	var params repository.UpdateReportJobParams
	if job.Attempt >= w.maxRetries {
		now := time.Now().UTC()
		params = withJobError(jobTransition(models.ReportStatusFailed, 100), genErr.Error())
		params.FinishedAt = &now
	} else {
		params = withJobError(jobTransition(models.ReportStatusQueued, 0), genErr.Error())
	}
	if err := w.repo.Update(ctx, job.ID, params); err != nil {
		w.logger.Warn("failed to record job failure", zap.String("job_id", job.ID), zap.Error(err))
	}
}
