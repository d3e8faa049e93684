package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/the-local-guys/testtag-api/internal/models"
	appErrors "github.com/the-local-guys/testtag-api/pkg/errors"
)

type mockSessionRepo struct {
	session    *models.TestSession
	findErr    error
	listed     []models.TestSession
	total      int
	created    *models.TestSession
	updated    *models.TestSession
	deletedID  string
	deleteErr  error
}

func (m *mockSessionRepo) FindByID(_ context.Context, id string) (*models.TestSession, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.session == nil || m.session.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.session, nil
}

func (m *mockSessionRepo) List(_ context.Context, _ models.SessionFilter) ([]models.TestSession, int, error) {
	return m.listed, m.total, nil
}

func (m *mockSessionRepo) Create(_ context.Context, session *models.TestSession) error {
	session.ID = "new-session-id"
	m.created = session
	return nil
}

func (m *mockSessionRepo) Update(_ context.Context, session *models.TestSession) error {
	m.updated = session
	return nil
}

func (m *mockSessionRepo) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedID = id
	return nil
}

type mockResultLister struct {
	results []models.TestResult
	err     error
}

func (m *mockResultLister) ListBySession(_ context.Context, _ string) ([]models.TestResult, error) {
	return m.results, m.err
}

type mockAuditLogger struct {
	logs []*models.AuditLog
}

func (m *mockAuditLogger) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func newSessionService(repo *mockSessionRepo, results *mockResultLister, audit *mockAuditLogger) *SessionService {
	return NewSessionService(repo, results, audit, nil, nil, zap.NewNop())
}

func TestSessionServiceGetFullSessionData(t *testing.T) {
	session := &models.TestSession{
		ID:          "sess-1",
		UserID:      "user-1",
		ClientName:  "Acme Warehousing",
		ServiceType: models.ServiceElectrical,
		TestDate:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	results := []models.TestResult{
		{ID: "r-3", AssetNumber: "10", Result: models.OutcomePass},
		{ID: "r-1", AssetNumber: "2", Result: models.OutcomeFail},
		{ID: "r-2", AssetNumber: "badge", Result: models.OutcomePass},
	}

	svc := newSessionService(&mockSessionRepo{session: session}, &mockResultLister{results: results}, &mockAuditLogger{})

	data, err := svc.GetFullSessionData(context.Background(), "sess-1")
	require.NoError(t, err)

	assert.Equal(t, "sess-1", data.Session.ID)
	// Non-numeric asset numbers sort as zero, ahead of real numbers.
	assert.Equal(t, []string{"badge", "2", "10"}, []string{data.Results[0].AssetNumber, data.Results[1].AssetNumber, data.Results[2].AssetNumber})
	assert.Equal(t, 3, data.Summary.TotalItems)
	assert.Equal(t, 2, data.Summary.PassedItems)
	assert.Equal(t, 1, data.Summary.FailedItems)
	assert.Equal(t, 67, data.Summary.PassRate)
}

func TestSessionServiceGetFullSessionDataNotFound(t *testing.T) {
	svc := newSessionService(&mockSessionRepo{}, &mockResultLister{}, &mockAuditLogger{})

	_, err := svc.GetFullSessionData(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSessionServiceCreate(t *testing.T) {
	repo := &mockSessionRepo{}
	svc := newSessionService(repo, &mockResultLister{}, &mockAuditLogger{})

	session, err := svc.Create(context.Background(), "user-1", CreateSessionRequest{
		ClientName:     "Acme Warehousing",
		Address:        "1 Dock Rd",
		TechnicianName: "Sam Rios",
		TestDate:       "2024-03-01",
		Country:        "Australia",
		ServiceType:    models.ServiceElectrical,
	})
	require.NoError(t, err)
	assert.Equal(t, "new-session-id", session.ID)
	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), session.TestDate)
}

func TestSessionServiceCreateRejectsUnknownServiceType(t *testing.T) {
	svc := newSessionService(&mockSessionRepo{}, &mockResultLister{}, &mockAuditLogger{})

	_, err := svc.Create(context.Background(), "user-1", CreateSessionRequest{
		ClientName:     "Acme Warehousing",
		Address:        "1 Dock Rd",
		TechnicianName: "Sam Rios",
		TestDate:       "2024-03-01",
		Country:        "Australia",
		ServiceType:    "plumbing",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSessionServiceDeleteAuditsAndReportsMissing(t *testing.T) {
	session := &models.TestSession{ID: "sess-1", UserID: "user-1", ClientName: "Acme"}
	repo := &mockSessionRepo{session: session}
	audit := &mockAuditLogger{}
	svc := newSessionService(repo, &mockResultLister{}, audit)

	err := svc.Delete(context.Background(), "sess-1", "admin-1", models.LoginRequest{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", repo.deletedID)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionSessionDelete, audit.logs[0].Action)

	err = svc.Delete(context.Background(), "other", "admin-1", models.LoginRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestSessionServiceCanAccessSession(t *testing.T) {
	svc := newSessionService(&mockSessionRepo{}, &mockResultLister{}, &mockAuditLogger{})
	session := &models.TestSession{ID: "sess-1", UserID: "owner-1"}

	assert.True(t, svc.CanAccessSession(session, &models.JWTClaims{UserID: "owner-1", Role: models.RoleTechnician}))
	assert.False(t, svc.CanAccessSession(session, &models.JWTClaims{UserID: "other", Role: models.RoleTechnician}))
	assert.True(t, svc.CanAccessSession(session, &models.JWTClaims{UserID: "other", Role: models.RoleSupportCenter}))
	assert.True(t, svc.CanAccessSession(session, &models.JWTClaims{UserID: "other", Role: models.RoleSuperAdmin}))
}
