package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/the-local-guys/testtag-api/internal/models"
	appErrors "github.com/the-local-guys/testtag-api/pkg/errors"
)

type environmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Environment, error)
	ListByUser(ctx context.Context, userID string, serviceType *models.ServiceType) ([]models.Environment, error)
	Create(ctx context.Context, env *models.Environment) error
	Update(ctx context.Context, env *models.Environment) error
	Delete(ctx context.Context, id string) error
}

// EnvironmentRequest represents payload for saving an environment template.
type EnvironmentRequest struct {
	Name        string                  `json:"name" validate:"required"`
	ServiceType models.ServiceType      `json:"service_type" validate:"required,oneof=electrical emergency_exit_light fire_testing"`
	Items       models.EnvironmentItems `json:"items"`
}

// EnvironmentService manages per-user item preset templates.
type EnvironmentService struct {
	envs      environmentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnvironmentService creates an instance of EnvironmentService.
func NewEnvironmentService(envs environmentRepository, validate *validator.Validate, logger *zap.Logger) *EnvironmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EnvironmentService{envs: envs, validator: validate, logger: logger}
}

// List returns the user's environments, optionally filtered by service type.
func (s *EnvironmentService) List(ctx context.Context, userID string, serviceType *models.ServiceType) ([]models.Environment, error) {
	envs, err := s.envs.ListByUser(ctx, userID, serviceType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list environments")
	}
	return envs, nil
}

// Get returns one environment the user owns.
func (s *EnvironmentService) Get(ctx context.Context, id, userID string) (*models.Environment, error) {
	env, err := s.envs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "environment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load environment")
	}
	if env.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "environment belongs to another user")
	}
	return env, nil
}

// Create stores a new environment template for the user.
func (s *EnvironmentService) Create(ctx context.Context, userID string, req EnvironmentRequest) (*models.Environment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid environment payload")
	}

	env := &models.Environment{
		UserID:      userID,
		Name:        req.Name,
		ServiceType: req.ServiceType,
		Items:       req.Items,
	}
	if env.Items == nil {
		env.Items = models.EnvironmentItems{}
	}

	if err := s.envs.Create(ctx, env); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create environment")
	}
	return env, nil
}

// Update replaces an environment's name, service type and item presets.
func (s *EnvironmentService) Update(ctx context.Context, id, userID string, req EnvironmentRequest) (*models.Environment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid environment payload")
	}

	env, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	env.Name = req.Name
	env.ServiceType = req.ServiceType
	env.Items = req.Items
	if env.Items == nil {
		env.Items = models.EnvironmentItems{}
	}

	if err := s.envs.Update(ctx, env); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update environment")
	}
	return env, nil
}

// Delete removes an environment the user owns.
func (s *EnvironmentService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	if err := s.envs.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete environment")
	}
	return nil
}
