package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/the-local-guys/testtag-api/internal/middleware"
	"github.com/the-local-guys/testtag-api/internal/models"
	"github.com/the-local-guys/testtag-api/internal/service"
)

type sessionRepoStub struct {
	sessions map[string]*models.TestSession
	deleted  []string
}

func (s *sessionRepoStub) FindByID(ctx context.Context, id string) (*models.TestSession, error) {
	if sess, ok := s.sessions[id]; ok {
		copied := *sess
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *sessionRepoStub) List(ctx context.Context, filter models.SessionFilter) ([]models.TestSession, int, error) {
	var out []models.TestSession
	for _, sess := range s.sessions {
		if filter.UserID != "" && sess.UserID != filter.UserID {
			continue
		}
		out = append(out, *sess)
	}
	return out, len(out), nil
}

func (s *sessionRepoStub) Create(ctx context.Context, session *models.TestSession) error {
	session.ID = "created-session"
	s.sessions[session.ID] = session
	return nil
}

func (s *sessionRepoStub) Update(ctx context.Context, session *models.TestSession) error {
	s.sessions[session.ID] = session
	return nil
}

func (s *sessionRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.sessions[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.sessions, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type resultListerStub struct {
	results map[string][]models.TestResult
}

func (s *resultListerStub) ListBySession(ctx context.Context, sessionID string) ([]models.TestResult, error) {
	return s.results[sessionID], nil
}

type auditLoggerStub struct {
	logs []models.AuditLog
}

func (s *auditLoggerStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, *log)
	return nil
}

func seededSessionHandler() (*SessionHandler, *sessionRepoStub) {
	repo := &sessionRepoStub{sessions: map[string]*models.TestSession{
		"sess-1": {
			ID:          "sess-1",
			UserID:      "tech-1",
			ClientName:  "Acme Warehousing",
			ServiceType: models.ServiceElectrical,
			TestDate:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}}
	lister := &resultListerStub{results: map[string][]models.TestResult{
		"sess-1": {
			{ID: "r1", SessionID: "sess-1", AssetNumber: "2", ItemName: "Drill", Result: models.OutcomePass, Frequency: models.FrequencyTwelveMonthly},
			{ID: "r2", SessionID: "sess-1", AssetNumber: "10", ItemName: "Kettle", Result: models.OutcomeFail, Frequency: models.FrequencySixMonthly},
		},
	}}
	svc := service.NewSessionService(repo, lister, &auditLoggerStub{}, nil, validator.New(), zap.NewNop())
	return NewSessionHandler(svc), repo
}

func withSessionParam(c *gin.Context, id string) {
	c.Params = gin.Params{{Key: "id", Value: id}}
}

func TestSessionHandlerGetReturnsOrderedResultsAndSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := seededSessionHandler()

	c, w := newGinContext(http.MethodGet, "/sessions/sess-1", nil)
	withSessionParam(c, "sess-1")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "tech-1", Role: models.RoleTechnician})

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.FullSessionData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Results, 2)
	require.Equal(t, "2", envelope.Data.Results[0].AssetNumber)
	require.Equal(t, "10", envelope.Data.Results[1].AssetNumber)
	require.Equal(t, 2, envelope.Data.Summary.TotalItems)
	require.Equal(t, 1, envelope.Data.Summary.FailedItems)
	require.Equal(t, 50, envelope.Data.Summary.PassRate)
}

func TestSessionHandlerGetForbiddenForOtherTechnician(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := seededSessionHandler()

	c, w := newGinContext(http.MethodGet, "/sessions/sess-1", nil)
	withSessionParam(c, "sess-1")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "tech-2", Role: models.RoleTechnician})

	handler.Get(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestSessionHandlerGetAllowsSupportCenter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := seededSessionHandler()

	c, w := newGinContext(http.MethodGet, "/sessions/sess-1", nil)
	withSessionParam(c, "sess-1")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1", Role: models.RoleSupportCenter})

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSessionHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := seededSessionHandler()

	c, w := newGinContext(http.MethodGet, "/sessions/missing", nil)
	withSessionParam(c, "missing")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "tech-1", Role: models.RoleTechnician})

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := seededSessionHandler()

	payload, _ := json.Marshal(service.CreateSessionRequest{
		ClientName:     "New Client",
		Address:        "12 Depot Rd",
		TechnicianName: "Jo Bloggs",
		TestDate:       "2024-05-10",
		Country:        "Australia",
		ServiceType:    models.ServiceFireTesting,
	})
	c, w := newGinContext(http.MethodPost, "/sessions", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "tech-1", Role: models.RoleTechnician})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, repo.sessions, "created-session")
	require.Equal(t, "tech-1", repo.sessions["created-session"].UserID)
}

func TestSessionHandlerDeleteCascades(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := seededSessionHandler()

	c, w := newGinContext(http.MethodDelete, "/sessions/sess-1", nil)
	withSessionParam(c, "sess-1")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "tech-1", Role: models.RoleTechnician})

	handler.Delete(c)
	// c.Status defers the write, so flush it into the recorder first.
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, []string{"sess-1"}, repo.deleted)
}

func TestSessionHandlerListScopesTechnicianToOwnSessions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := seededSessionHandler()
	repo.sessions["sess-2"] = &models.TestSession{ID: "sess-2", UserID: "tech-2", ServiceType: models.ServiceElectrical}

	c, w := newGinContext(http.MethodGet, "/sessions", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "tech-1", Role: models.RoleTechnician})

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.TestSession `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	require.Equal(t, "sess-1", envelope.Data[0].ID)
}
