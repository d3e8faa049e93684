package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/the-local-guys/testtag-api/internal/models"
	appErrors "github.com/the-local-guys/testtag-api/pkg/errors"
)

type resultRepository interface {
	FindByID(ctx context.Context, id string) (*models.TestResult, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.TestResult, error)
	ExistsMatching(ctx context.Context, sessionID, assetNumber, itemName, location, classification string) (bool, error)
	Create(ctx context.Context, result *models.TestResult) error
	Update(ctx context.Context, result *models.TestResult) error
	Delete(ctx context.Context, id string) error
}

type assetValidator interface {
	ValidateAssetNumber(ctx context.Context, sessionID, candidate string, frequency models.Frequency, excludeResultID string) error
}

// ResultRequest represents payload for recording or editing a test result.
type ResultRequest struct {
	AssetNumber    string             `json:"asset_number" validate:"required"`
	ItemName       string             `json:"item_name" validate:"required"`
	ItemType       string             `json:"item_type"`
	Location       string             `json:"location" validate:"required"`
	Classification string             `json:"classification" validate:"required"`
	Result         models.TestOutcome `json:"result" validate:"required,oneof=pass fail"`
	Frequency      models.Frequency   `json:"frequency" validate:"required,oneof=monthly threemonthly sixmonthly twelvemonthly twentyfourmonthly fiveyearly"`

	FailureReason *string `json:"failure_reason,omitempty"`
	ActionTaken   *string `json:"action_taken,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	PhotoData     *string `json:"photo_data,omitempty"`

	DischargeTest    *string `json:"discharge_test,omitempty"`
	SwitchingTest    *string `json:"switching_test,omitempty"`
	ManufacturerInfo *string `json:"manufacturer_info,omitempty"`
}

// BatchResultStatus classifies the outcome of one item in a batch submission.
type BatchResultStatus string

const (
	BatchItemCreated BatchResultStatus = "created"
	BatchItemSkipped BatchResultStatus = "skipped"
	BatchItemFailed  BatchResultStatus = "failed"
)

// BatchItemOutcome reports what happened to one submitted item.
type BatchItemOutcome struct {
	Index    int               `json:"index"`
	Status   BatchResultStatus `json:"status"`
	ResultID string            `json:"result_id,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// BatchOutcome aggregates a batch submission.
type BatchOutcome struct {
	Created int                `json:"created"`
	Skipped int                `json:"skipped"`
	Failed  int                `json:"failed"`
	Items   []BatchItemOutcome `json:"items"`
}

// Partial reports whether some items failed or were skipped while others
// were created.
func (b BatchOutcome) Partial() bool {
	return b.Created > 0 && (b.Failed > 0 || b.Skipped > 0)
}

// AllFailed reports whether the batch had real failures and created nothing.
// Skipped rows are idempotent resubmissions, not failures.
func (b BatchOutcome) AllFailed() bool {
	return b.Created == 0 && b.Failed > 0
}

// OnlySkipped reports whether every item matched an existing row.
func (b BatchOutcome) OnlySkipped() bool {
	return b.Created == 0 && b.Failed == 0 && b.Skipped > 0
}

// ResultService records test results against sessions, enforcing asset
// number rules on every write.
type ResultService struct {
	results   resultRepository
	assets    assetValidator
	sessions  *SessionService
	audit     sessionAuditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResultService creates an instance of ResultService.
func NewResultService(results resultRepository, assets assetValidator, sessions *SessionService, audit sessionAuditLogger, validate *validator.Validate, logger *zap.Logger) *ResultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ResultService{results: results, assets: assets, sessions: sessions, audit: audit, validator: validate, logger: logger}
}

// Get returns one result by ID.
func (s *ResultService) Get(ctx context.Context, id string) (*models.TestResult, error) {
	result, err := s.results.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "test result not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load test result")
	}
	return result, nil
}

// ListBySession returns a session's results ordered by numeric asset number.
func (s *ResultService) ListBySession(ctx context.Context, sessionID string) ([]models.TestResult, error) {
	results, err := s.results.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list test results")
	}
	models.SortResultsByAssetNumber(results)
	return results, nil
}

func (s *ResultService) buildResult(sessionID string, req ResultRequest) *models.TestResult {
	return &models.TestResult{
		SessionID:        sessionID,
		AssetNumber:      req.AssetNumber,
		ItemName:         req.ItemName,
		ItemType:         req.ItemType,
		Location:         req.Location,
		Classification:   req.Classification,
		Result:           req.Result,
		Frequency:        req.Frequency,
		FailureReason:    req.FailureReason,
		ActionTaken:      req.ActionTaken,
		Notes:            req.Notes,
		PhotoData:        req.PhotoData,
		DischargeTest:    req.DischargeTest,
		SwitchingTest:    req.SwitchingTest,
		ManufacturerInfo: req.ManufacturerInfo,
	}
}

// Create records a single result. The asset number must be valid for the
// item's cadence and unused within the session.
func (s *ResultService) Create(ctx context.Context, sessionID string, req ResultRequest) (*models.TestResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid test result payload")
	}

	if err := s.assets.ValidateAssetNumber(ctx, sessionID, req.AssetNumber, req.Frequency, ""); err != nil {
		return nil, err
	}

	result := s.buildResult(sessionID, req)
	if err := s.results.Create(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create test result")
	}

	s.sessions.InvalidateSessionCache(ctx, sessionID)
	return result, nil
}

// CreateBatch records a set of results in submission order. Items whose
// asset number, item name, location and classification all match an
// existing row in the session are skipped as duplicate submissions.
// Remaining items succeed or fail independently.
func (s *ResultService) CreateBatch(ctx context.Context, sessionID string, reqs []ResultRequest) (*BatchOutcome, error) {
	if len(reqs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "batch must contain at least one result")
	}

	outcome := &BatchOutcome{Items: make([]BatchItemOutcome, 0, len(reqs))}

	for i, req := range reqs {
		item := BatchItemOutcome{Index: i}

		if err := s.validator.Struct(req); err != nil {
			item.Status = BatchItemFailed
			item.Error = fmt.Sprintf("invalid payload: %v", err)
			outcome.Failed++
			outcome.Items = append(outcome.Items, item)
			continue
		}

		exists, err := s.results.ExistsMatching(ctx, sessionID, req.AssetNumber, req.ItemName, req.Location, req.Classification)
		if err != nil {
			item.Status = BatchItemFailed
			item.Error = "failed to check for duplicate submission"
			outcome.Failed++
			outcome.Items = append(outcome.Items, item)
			continue
		}
		if exists {
			item.Status = BatchItemSkipped
			outcome.Skipped++
			outcome.Items = append(outcome.Items, item)
			continue
		}

		if err := s.assets.ValidateAssetNumber(ctx, sessionID, req.AssetNumber, req.Frequency, ""); err != nil {
			item.Status = BatchItemFailed
			item.Error = appErrors.FromError(err).Message
			outcome.Failed++
			outcome.Items = append(outcome.Items, item)
			continue
		}

		result := s.buildResult(sessionID, req)
		if err := s.results.Create(ctx, result); err != nil {
			s.logger.Error("failed to create batch result", zap.Int("index", i), zap.Error(err))
			item.Status = BatchItemFailed
			item.Error = "failed to store result"
			outcome.Failed++
			outcome.Items = append(outcome.Items, item)
			continue
		}

		item.Status = BatchItemCreated
		item.ResultID = result.ID
		outcome.Created++
		outcome.Items = append(outcome.Items, item)
	}

	if outcome.Created > 0 {
		s.sessions.InvalidateSessionCache(ctx, sessionID)
	}

	return outcome, nil
}

// Update edits a result. The asset number may move only to another valid
// unused number in the item's cadence band; the row itself is carved out of
// the duplicate check.
func (s *ResultService) Update(ctx context.Context, id string, req ResultRequest, actorID string, meta models.LoginRequest) (*models.TestResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid test result payload")
	}

	result, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.assets.ValidateAssetNumber(ctx, result.SessionID, req.AssetNumber, req.Frequency, result.ID); err != nil {
		return nil, err
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"asset_number": result.AssetNumber, "result": result.Result})

	result.AssetNumber = req.AssetNumber
	result.ItemName = req.ItemName
	result.ItemType = req.ItemType
	result.Location = req.Location
	result.Classification = req.Classification
	result.Result = req.Result
	result.Frequency = req.Frequency
	result.FailureReason = req.FailureReason
	result.ActionTaken = req.ActionTaken
	result.Notes = req.Notes
	result.PhotoData = req.PhotoData
	result.DischargeTest = req.DischargeTest
	result.SwitchingTest = req.SwitchingTest
	result.ManufacturerInfo = req.ManufacturerInfo

	if err := s.results.Update(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update test result")
	}

	s.sessions.InvalidateSessionCache(ctx, result.SessionID)

	newPayload, _ := json.Marshal(map[string]interface{}{"asset_number": result.AssetNumber, "result": result.Result})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionResultUpdate,
		Resource:   "test_results",
		ResourceID: &result.ID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record result update audit log", zap.Error(err))
	}

	return result, nil
}

// Delete removes a result from its session.
func (s *ResultService) Delete(ctx context.Context, id string, actorID string, meta models.LoginRequest) error {
	result, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.results.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "test result not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete test result")
	}

	s.sessions.InvalidateSessionCache(ctx, result.SessionID)

	oldPayload, _ := json.Marshal(map[string]interface{}{"asset_number": result.AssetNumber, "item_name": result.ItemName})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionResultDelete,
		Resource:   "test_results",
		ResourceID: &result.ID,
		OldValues:  oldPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record result delete audit log", zap.Error(err))
	}

	return nil
}
