package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/the-local-guys/testtag-api/internal/models"
	appErrors "github.com/the-local-guys/testtag-api/pkg/errors"
)

type sessionRepository interface {
	FindByID(ctx context.Context, id string) (*models.TestSession, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.TestSession, int, error)
	Create(ctx context.Context, session *models.TestSession) error
	Update(ctx context.Context, session *models.TestSession) error
	Delete(ctx context.Context, id string) error
}

type sessionResultLister interface {
	ListBySession(ctx context.Context, sessionID string) ([]models.TestResult, error)
}

type sessionAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateSessionRequest represents payload for starting a session.
type CreateSessionRequest struct {
	ClientName     string             `json:"client_name" validate:"required"`
	SiteContact    string             `json:"site_contact"`
	Address        string             `json:"address" validate:"required"`
	TechnicianName string             `json:"technician_name" validate:"required"`
	TestDate       string             `json:"test_date" validate:"required,datetime=2006-01-02"`
	Country        string             `json:"country" validate:"required"`
	ServiceType    models.ServiceType `json:"service_type" validate:"required,oneof=electrical emergency_exit_light fire_testing"`
}

// UpdateSessionRequest represents payload for editing session details.
type UpdateSessionRequest struct {
	ClientName     string             `json:"client_name" validate:"required"`
	SiteContact    string             `json:"site_contact"`
	Address        string             `json:"address" validate:"required"`
	TechnicianName string             `json:"technician_name" validate:"required"`
	TestDate       string             `json:"test_date" validate:"required,datetime=2006-01-02"`
	Country        string             `json:"country" validate:"required"`
	ServiceType    models.ServiceType `json:"service_type" validate:"required,oneof=electrical emergency_exit_light fire_testing"`
}

// SessionService manages test session lifecycle and assembles full session
// data for display and reporting.
type SessionService struct {
	sessions  sessionRepository
	results   sessionResultLister
	audit     sessionAuditLogger
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService creates an instance of SessionService.
func NewSessionService(sessions sessionRepository, results sessionResultLister, audit sessionAuditLogger, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SessionService{sessions: sessions, results: results, audit: audit, cache: cache, validator: validate, logger: logger}
}

func sessionCacheKey(sessionID string) string {
	return fmt.Sprintf("session:full:%s", sessionID)
}

func parseDateField(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}

// List returns paginated sessions. A caller without the sessions:all
// capability is restricted to their own sessions by the handler setting
// filter.UserID.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.TestSession, *models.Pagination, error) {
	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return sessions, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a session by ID.
func (s *SessionService) Get(ctx context.Context, id string) (*models.TestSession, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// GetFullSessionData assembles the session, its results sorted by numeric
// asset number, and the derived summary.
func (s *SessionService) GetFullSessionData(ctx context.Context, sessionID string) (*models.FullSessionData, error) {
	cacheKey := sessionCacheKey(sessionID)
	if s.cache.Enabled() {
		var cached models.FullSessionData
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	results, err := s.results.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session results")
	}

	models.SortResultsByAssetNumber(results)

	data := &models.FullSessionData{
		Session: *session,
		Results: results,
		Summary: models.Summarize(results),
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, data, 0); err != nil {
			s.logger.Warn("failed to cache session data", zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	return data, nil
}

// InvalidateSessionCache drops the cached aggregate after any write touching
// the session or its results.
func (s *SessionService) InvalidateSessionCache(ctx context.Context, sessionID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, sessionCacheKey(sessionID)); err != nil {
		s.logger.Warn("failed to invalidate session cache", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// Create starts a new session owned by the technician.
func (s *SessionService) Create(ctx context.Context, userID string, req CreateSessionRequest) (*models.TestSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create session payload")
	}

	testDate, err := parseDateField(req.TestDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "test_date must be YYYY-MM-DD")
	}

	session := &models.TestSession{
		UserID:         userID,
		ClientName:     req.ClientName,
		SiteContact:    req.SiteContact,
		Address:        req.Address,
		TechnicianName: req.TechnicianName,
		TestDate:       testDate,
		Country:        req.Country,
		ServiceType:    req.ServiceType,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	return session, nil
}

// Update edits session details and records an audit entry.
func (s *SessionService) Update(ctx context.Context, id string, req UpdateSessionRequest, actorID string, meta models.LoginRequest) (*models.TestSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update session payload")
	}

	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	testDate, err := parseDateField(req.TestDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "test_date must be YYYY-MM-DD")
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"client_name": session.ClientName, "test_date": session.TestDate})

	session.ClientName = req.ClientName
	session.SiteContact = req.SiteContact
	session.Address = req.Address
	session.TechnicianName = req.TechnicianName
	session.TestDate = testDate
	session.Country = req.Country
	session.ServiceType = req.ServiceType

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}

	s.InvalidateSessionCache(ctx, id)

	newPayload, _ := json.Marshal(map[string]interface{}{"client_name": session.ClientName, "test_date": session.TestDate})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionSessionUpdate,
		Resource:   "test_sessions",
		ResourceID: &session.ID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record session update audit log", zap.Error(err))
	}

	return session, nil
}

// Delete permanently removes a session and all its results.
func (s *SessionService) Delete(ctx context.Context, id string, actorID string, meta models.LoginRequest) error {
	session, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.sessions.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}

	s.InvalidateSessionCache(ctx, id)

	oldPayload, _ := json.Marshal(map[string]interface{}{"client_name": session.ClientName})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionSessionDelete,
		Resource:   "test_sessions",
		ResourceID: &session.ID,
		OldValues:  oldPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record session delete audit log", zap.Error(err))
	}

	return nil
}

// CanAccessSession resolves whether the actor may touch the session: owners
// always can, others need the sessions:all capability.
func (s *SessionService) CanAccessSession(session *models.TestSession, claims *models.JWTClaims) bool {
	if session.UserID == claims.UserID {
		return true
	}
	return models.PermissionsFor(claims.Role).Has(models.PermSessionsAll)
}
