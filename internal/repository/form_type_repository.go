package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/the-local-guys/testtag-api/internal/models"
)

// FormTypeRepository provides database access for custom form type mappings.
type FormTypeRepository struct {
	db *sqlx.DB
}

// NewFormTypeRepository creates a new instance of FormTypeRepository.
func NewFormTypeRepository(db *sqlx.DB) *FormTypeRepository {
	return &FormTypeRepository{db: db}
}

// FindByID returns a form type by identifier.
func (r *FormTypeRepository) FindByID(ctx context.Context, id string) (*models.CustomFormType, error) {
	const query = `SELECT id, code, name, service_type, created_at, updated_at FROM custom_form_types WHERE id = $1 LIMIT 1`
	var ft models.CustomFormType
	if err := r.db.GetContext(ctx, &ft, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find form type by id: %w", err)
	}
	return &ft, nil
}

// FindByCode returns a form type by code within a service type.
func (r *FormTypeRepository) FindByCode(ctx context.Context, serviceType models.ServiceType, code string) (*models.CustomFormType, error) {
	const query = `SELECT id, code, name, service_type, created_at, updated_at FROM custom_form_types WHERE service_type = $1 AND code = $2 LIMIT 1`
	var ft models.CustomFormType
	if err := r.db.GetContext(ctx, &ft, query, serviceType, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find form type by code: %w", err)
	}
	return &ft, nil
}

// List returns form types, optionally filtered by service type.
func (r *FormTypeRepository) List(ctx context.Context, serviceType *models.ServiceType) ([]models.CustomFormType, error) {
	query := `SELECT id, code, name, service_type, created_at, updated_at FROM custom_form_types`
	var args []interface{}
	if serviceType != nil {
		query += ` WHERE service_type = $1`
		args = append(args, *serviceType)
	}
	query += ` ORDER BY code ASC`

	var types []models.CustomFormType
	if err := r.db.SelectContext(ctx, &types, query, args...); err != nil {
		return nil, fmt.Errorf("list form types: %w", err)
	}
	return types, nil
}

// Create inserts a new form type.
func (r *FormTypeRepository) Create(ctx context.Context, ft *models.CustomFormType) error {
	if ft.ID == "" {
		ft.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if ft.CreatedAt.IsZero() {
		ft.CreatedAt = now
	}
	ft.UpdatedAt = now

	const query = `INSERT INTO custom_form_types (id, code, name, service_type, created_at, updated_at)
VALUES (:id, :code, :name, :service_type, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, ft); err != nil {
		return fmt.Errorf("create form type: %w", err)
	}
	return nil
}

// Update updates mutable fields of a form type.
func (r *FormTypeRepository) Update(ctx context.Context, ft *models.CustomFormType) error {
	ft.UpdatedAt = time.Now().UTC()
	const query = `UPDATE custom_form_types SET code = :code, name = :name, service_type = :service_type, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, ft); err != nil {
		return fmt.Errorf("update form type: %w", err)
	}
	return nil
}

// Delete removes a form type and its items.
func (r *FormTypeRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM custom_form_types WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete form type: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListItems returns the items under a form type ordered by position.
func (r *FormTypeRepository) ListItems(ctx context.Context, formTypeID string) ([]models.CustomFormItem, error) {
	const query = `SELECT id, form_type_id, code, name, position, created_at, updated_at FROM custom_form_items WHERE form_type_id = $1 ORDER BY position ASC`
	var items []models.CustomFormItem
	if err := r.db.SelectContext(ctx, &items, query, formTypeID); err != nil {
		return nil, fmt.Errorf("list form items: %w", err)
	}
	return items, nil
}

// CreateItem inserts a new form item.
func (r *FormTypeRepository) CreateItem(ctx context.Context, item *models.CustomFormItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	const query = `INSERT INTO custom_form_items (id, form_type_id, code, name, position, created_at, updated_at)
VALUES (:id, :form_type_id, :code, :name, :position, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create form item: %w", err)
	}
	return nil
}

// DeleteItem removes a form item.
func (r *FormTypeRepository) DeleteItem(ctx context.Context, id string) error {
	const query = `DELETE FROM custom_form_items WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete form item: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
