package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-local-guys/testtag-api/internal/dto"
	"github.com/the-local-guys/testtag-api/internal/middleware"
	"github.com/the-local-guys/testtag-api/internal/models"
	"github.com/the-local-guys/testtag-api/internal/service"
	appErrors "github.com/the-local-guys/testtag-api/pkg/errors"
)

// stubReportService answers each handler call with canned funcs so tests
// only wire up the method under test.
type stubReportService struct {
	create   func(req dto.ReportRequest, claims *models.JWTClaims) (*dto.ReportJobResponse, error)
	status   func(id string, claims *models.JWTClaims) (*dto.ReportStatusResponse, error)
	download func(token string) (*service.ReportDownload, error)
}

func (s *stubReportService) CreateJob(_ context.Context, req dto.ReportRequest, claims *models.JWTClaims) (*dto.ReportJobResponse, error) {
	return s.create(req, claims)
}

func (s *stubReportService) GetStatus(_ context.Context, id string, claims *models.JWTClaims) (*dto.ReportStatusResponse, error) {
	return s.status(id, claims)
}

func (s *stubReportService) ResolveDownload(_ context.Context, token string) (*service.ReportDownload, error) {
	return s.download(token)
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func asTechnician(c *gin.Context) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "tech-1", Role: models.RoleTechnician})
}

func TestReportHandlerGenerateReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &stubReportService{
		create: func(req dto.ReportRequest, claims *models.JWTClaims) (*dto.ReportJobResponse, error) {
			assert.Equal(t, "sess-1", req.SessionID)
			assert.Equal(t, "tech-1", claims.UserID)
			return &dto.ReportJobResponse{ID: "job-1", Status: models.ReportStatusQueued}, nil
		},
	}
	h := NewReportHandler(svc, nil)

	payload, _ := json.Marshal(dto.ReportRequest{SessionID: "sess-1", Format: models.ReportFormatCSV})
	c, w := newGinContext(http.MethodPost, "/reports/generate", payload)
	asTechnician(c)

	h.GenerateReport(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "job-1")
}

func TestReportHandlerGenerateReportRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewReportHandler(&stubReportService{}, nil)

	payload, _ := json.Marshal(dto.ReportRequest{SessionID: "sess-1", Format: models.ReportFormatPDF})
	c, w := newGinContext(http.MethodPost, "/reports/generate", payload)

	h.GenerateReport(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportHandlerReportStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &stubReportService{
		status: func(id string, claims *models.JWTClaims) (*dto.ReportStatusResponse, error) {
			assert.Equal(t, "job-1", id)
			return &dto.ReportStatusResponse{ID: id, Status: models.ReportStatusFinished, Progress: 100}, nil
		},
	}
	h := NewReportHandler(svc, nil)

	c, w := newGinContext(http.MethodGet, "/reports/status/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	asTechnician(c)

	h.ReportStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "FINISHED")
}

func TestReportHandlerDownloadReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	file, err := os.CreateTemp(t.TempDir(), "report*.csv")
	require.NoError(t, err)
	_, _ = file.WriteString("asset,outcome\n")
	_, _ = file.Seek(0, 0)

	svc := &stubReportService{
		download: func(token string) (*service.ReportDownload, error) {
			assert.Equal(t, "tok-1", token)
			return &service.ReportDownload{
				File:      file,
				Filename:  "session-1.csv",
				Format:    models.ReportFormatCSV,
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
	h := NewReportHandler(svc, nil)

	c, w := newGinContext(http.MethodGet, "/export/tok-1", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok-1"}}

	h.DownloadReport(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "session-1.csv")
	assert.Equal(t, "asset,outcome\n", w.Body.String())
}

func TestReportHandlerDownloadReportInvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &stubReportService{
		download: func(string) (*service.ReportDownload, error) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
		},
	}
	h := NewReportHandler(svc, nil)

	c, w := newGinContext(http.MethodGet, "/export/bad", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad"}}

	h.DownloadReport(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}
