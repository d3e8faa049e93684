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

type formTypeRepository interface {
	FindByID(ctx context.Context, id string) (*models.CustomFormType, error)
	FindByCode(ctx context.Context, serviceType models.ServiceType, code string) (*models.CustomFormType, error)
	List(ctx context.Context, serviceType *models.ServiceType) ([]models.CustomFormType, error)
	Create(ctx context.Context, ft *models.CustomFormType) error
	Update(ctx context.Context, ft *models.CustomFormType) error
	Delete(ctx context.Context, id string) error
	ListItems(ctx context.Context, formTypeID string) ([]models.CustomFormItem, error)
	CreateItem(ctx context.Context, item *models.CustomFormItem) error
	DeleteItem(ctx context.Context, id string) error
}

// FormTypeRequest represents payload for defining a form type.
type FormTypeRequest struct {
	Code        string             `json:"code" validate:"required"`
	Name        string             `json:"name" validate:"required"`
	ServiceType models.ServiceType `json:"service_type" validate:"required,oneof=electrical emergency_exit_light fire_testing"`
}

// FormItemRequest represents payload for adding an entry under a form type.
type FormItemRequest struct {
	Code     string `json:"code" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Position int    `json:"position" validate:"gte=0"`
}

// FormTypeWithItems bundles a form type with its ordered entries.
type FormTypeWithItems struct {
	models.CustomFormType
	Items []models.CustomFormItem `json:"items"`
}

// FormTypeService manages the admin-curated form type catalogue.
type FormTypeService struct {
	formTypes formTypeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFormTypeService creates an instance of FormTypeService.
func NewFormTypeService(formTypes formTypeRepository, validate *validator.Validate, logger *zap.Logger) *FormTypeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &FormTypeService{formTypes: formTypes, validator: validate, logger: logger}
}

// List returns form types, optionally filtered by service type.
func (s *FormTypeService) List(ctx context.Context, serviceType *models.ServiceType) ([]models.CustomFormType, error) {
	formTypes, err := s.formTypes.List(ctx, serviceType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list form types")
	}
	return formTypes, nil
}

// Get returns a form type together with its entries.
func (s *FormTypeService) Get(ctx context.Context, id string) (*FormTypeWithItems, error) {
	ft, err := s.formTypes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "form type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form type")
	}

	items, err := s.formTypes.ListItems(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form type items")
	}

	return &FormTypeWithItems{CustomFormType: *ft, Items: items}, nil
}

// Create defines a new form type. Codes are unique within a service type.
func (s *FormTypeService) Create(ctx context.Context, req FormTypeRequest) (*models.CustomFormType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid form type payload")
	}

	existing, err := s.formTypes.FindByCode(ctx, req.ServiceType, req.Code)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check form type code")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "form type code already exists for this service type")
	}

	ft := &models.CustomFormType{Code: req.Code, Name: req.Name, ServiceType: req.ServiceType}
	if err := s.formTypes.Create(ctx, ft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create form type")
	}
	return ft, nil
}

// Update renames a form type or moves it to another service type.
func (s *FormTypeService) Update(ctx context.Context, id string, req FormTypeRequest) (*models.CustomFormType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid form type payload")
	}

	ft, err := s.formTypes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "form type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form type")
	}

	ft.Code = req.Code
	ft.Name = req.Name
	ft.ServiceType = req.ServiceType

	if err := s.formTypes.Update(ctx, ft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update form type")
	}
	return ft, nil
}

// Delete removes a form type and its entries.
func (s *FormTypeService) Delete(ctx context.Context, id string) error {
	if _, err := s.formTypes.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "form type not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form type")
	}
	if err := s.formTypes.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete form type")
	}
	return nil
}

// AddItem appends an entry to a form type.
func (s *FormTypeService) AddItem(ctx context.Context, formTypeID string, req FormItemRequest) (*models.CustomFormItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid form item payload")
	}

	if _, err := s.formTypes.FindByID(ctx, formTypeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "form type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form type")
	}

	item := &models.CustomFormItem{FormTypeID: formTypeID, Code: req.Code, Name: req.Name, Position: req.Position}
	if err := s.formTypes.CreateItem(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create form item")
	}
	return item, nil
}

// RemoveItem deletes one entry from a form type.
func (s *FormTypeService) RemoveItem(ctx context.Context, itemID string) error {
	if err := s.formTypes.DeleteItem(ctx, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "form item not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete form item")
	}
	return nil
}
