package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/the-local-guys/testtag-api/internal/models"
	appErrors "github.com/the-local-guys/testtag-api/pkg/errors"
)

type mockResultRepo struct {
	byID      map[string]*models.TestResult
	existing  map[string]bool
	createErr error
	created   []*models.TestResult
	updated   *models.TestResult
	deletedID string
}

func newMockResultRepo() *mockResultRepo {
	return &mockResultRepo{byID: map[string]*models.TestResult{}, existing: map[string]bool{}}
}

func tupleKey(assetNumber, itemName, location, classification string) string {
	return fmt.Sprintf("%s|%s|%s|%s", assetNumber, itemName, location, classification)
}

func (m *mockResultRepo) FindByID(_ context.Context, id string) (*models.TestResult, error) {
	r, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return r, nil
}

func (m *mockResultRepo) ListBySession(_ context.Context, _ string) ([]models.TestResult, error) {
	return nil, nil
}

func (m *mockResultRepo) ExistsMatching(_ context.Context, _, assetNumber, itemName, location, classification string) (bool, error) {
	return m.existing[tupleKey(assetNumber, itemName, location, classification)], nil
}

func (m *mockResultRepo) Create(_ context.Context, result *models.TestResult) error {
	if m.createErr != nil {
		return m.createErr
	}
	result.ID = fmt.Sprintf("result-%d", len(m.created)+1)
	m.created = append(m.created, result)
	m.existing[tupleKey(result.AssetNumber, result.ItemName, result.Location, result.Classification)] = true
	return nil
}

func (m *mockResultRepo) Update(_ context.Context, result *models.TestResult) error {
	m.updated = result
	return nil
}

func (m *mockResultRepo) Delete(_ context.Context, id string) error {
	m.deletedID = id
	return nil
}

type mockValidator struct {
	rejected map[string]error
}

func (m *mockValidator) ValidateAssetNumber(_ context.Context, _ string, candidate string, _ models.Frequency, _ string) error {
	if err, ok := m.rejected[candidate]; ok {
		return err
	}
	return nil
}

func newResultService(repo *mockResultRepo, assets *mockValidator, audit *mockAuditLogger) *ResultService {
	sessions := newSessionService(&mockSessionRepo{}, &mockResultLister{}, audit)
	return NewResultService(repo, assets, sessions, audit, nil, zap.NewNop())
}

func passRequest(assetNumber string) ResultRequest {
	return ResultRequest{
		AssetNumber:    assetNumber,
		ItemName:       "Extension Lead",
		Location:       "Workshop",
		Classification: "Class I",
		Result:         models.OutcomePass,
		Frequency:      models.FrequencyTwelveMonthly,
	}
}

func TestResultServiceCreate(t *testing.T) {
	repo := newMockResultRepo()
	svc := newResultService(repo, &mockValidator{}, &mockAuditLogger{})

	result, err := svc.Create(context.Background(), "sess-1", passRequest("5"))
	require.NoError(t, err)
	assert.Equal(t, "result-1", result.ID)
	assert.Equal(t, "sess-1", result.SessionID)
}

func TestResultServiceCreateRejectsBadAssetNumber(t *testing.T) {
	repo := newMockResultRepo()
	assets := &mockValidator{rejected: map[string]error{"99999": appErrors.ErrAssetOutOfBand}}
	svc := newResultService(repo, assets, &mockAuditLogger{})

	_, err := svc.Create(context.Background(), "sess-1", passRequest("99999"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAssetOutOfBand.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestResultServiceCreateBatchSkipsDuplicates(t *testing.T) {
	repo := newMockResultRepo()
	repo.existing[tupleKey("1", "Kettle", "Kitchen", "Class I")] = true
	svc := newResultService(repo, &mockValidator{}, &mockAuditLogger{})

	dup := passRequest("1")
	dup.ItemName = "Kettle"
	dup.Location = "Kitchen"
	dup.Classification = "Class I"

	outcome, err := svc.CreateBatch(context.Background(), "sess-1", []ResultRequest{dup, passRequest("2")})
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Created)
	assert.Equal(t, 1, outcome.Skipped)
	assert.Equal(t, 0, outcome.Failed)
	assert.True(t, outcome.Partial())
	assert.Equal(t, BatchItemSkipped, outcome.Items[0].Status)
	assert.Equal(t, BatchItemCreated, outcome.Items[1].Status)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "2", repo.created[0].AssetNumber)
}

func TestBatchOutcomePredicates(t *testing.T) {
	skippedOnly := BatchOutcome{Skipped: 2}
	assert.True(t, skippedOnly.OnlySkipped())
	assert.False(t, skippedOnly.AllFailed())

	failedOnly := BatchOutcome{Failed: 1}
	assert.True(t, failedOnly.AllFailed())
	assert.False(t, failedOnly.OnlySkipped())

	created := BatchOutcome{Created: 1, Skipped: 1}
	assert.True(t, created.Partial())
	assert.False(t, created.OnlySkipped())
}

func TestResultServiceCreateBatchCollectsFailures(t *testing.T) {
	repo := newMockResultRepo()
	assets := &mockValidator{rejected: map[string]error{"7": appErrors.ErrDuplicateAssetNumber}}
	svc := newResultService(repo, assets, &mockAuditLogger{})

	outcome, err := svc.CreateBatch(context.Background(), "sess-1", []ResultRequest{passRequest("7"), passRequest("8")})
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Created)
	assert.Equal(t, 1, outcome.Failed)
	assert.True(t, outcome.Partial())
	assert.Equal(t, BatchItemFailed, outcome.Items[0].Status)
	assert.Contains(t, outcome.Items[0].Error, "asset number")
	assert.Equal(t, BatchItemCreated, outcome.Items[1].Status)
}

func TestResultServiceCreateBatchEmpty(t *testing.T) {
	svc := newResultService(newMockResultRepo(), &mockValidator{}, &mockAuditLogger{})

	_, err := svc.CreateBatch(context.Background(), "sess-1", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResultServiceUpdateExcludesOwnRow(t *testing.T) {
	repo := newMockResultRepo()
	repo.byID["result-1"] = &models.TestResult{ID: "result-1", SessionID: "sess-1", AssetNumber: "3", Result: models.OutcomePass}
	audit := &mockAuditLogger{}
	svc := newResultService(repo, &mockValidator{}, audit)

	req := passRequest("3")
	req.Result = models.OutcomeFail
	reason := "earth continuity failed"
	req.FailureReason = &reason

	updated, err := svc.Update(context.Background(), "result-1", req, "user-1", models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeFail, updated.Result)
	require.NotNil(t, updated.FailureReason)
	assert.Equal(t, reason, *updated.FailureReason)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionResultUpdate, audit.logs[0].Action)
}

func TestResultServiceDeleteMissing(t *testing.T) {
	svc := newResultService(newMockResultRepo(), &mockValidator{}, &mockAuditLogger{})

	err := svc.Delete(context.Background(), "ghost", "user-1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
