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

// EnvironmentRepository provides database access for item preset templates.
type EnvironmentRepository struct {
	db *sqlx.DB
}

// NewEnvironmentRepository creates a new instance of EnvironmentRepository.
func NewEnvironmentRepository(db *sqlx.DB) *EnvironmentRepository {
	return &EnvironmentRepository{db: db}
}

// FindByID returns an environment by identifier.
func (r *EnvironmentRepository) FindByID(ctx context.Context, id string) (*models.Environment, error) {
	const query = `SELECT id, user_id, name, service_type, items, created_at, updated_at FROM environments WHERE id = $1 LIMIT 1`
	var env models.Environment
	if err := r.db.GetContext(ctx, &env, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find environment by id: %w", err)
	}
	return &env, nil
}

// ListByUser returns the environments owned by a user, optionally filtered
// by service type.
func (r *EnvironmentRepository) ListByUser(ctx context.Context, userID string, serviceType *models.ServiceType) ([]models.Environment, error) {
	query := `SELECT id, user_id, name, service_type, items, created_at, updated_at FROM environments WHERE user_id = $1`
	args := []interface{}{userID}
	if serviceType != nil {
		query += ` AND service_type = $2`
		args = append(args, *serviceType)
	}
	query += ` ORDER BY name ASC`

	var envs []models.Environment
	if err := r.db.SelectContext(ctx, &envs, query, args...); err != nil {
		return nil, fmt.Errorf("list environments: %w", err)
	}
	return envs, nil
}

// Create inserts a new environment.
func (r *EnvironmentRepository) Create(ctx context.Context, env *models.Environment) error {
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if env.CreatedAt.IsZero() {
		env.CreatedAt = now
	}
	env.UpdatedAt = now

	const query = `INSERT INTO environments (id, user_id, name, service_type, items, created_at, updated_at)
VALUES (:id, :user_id, :name, :service_type, :items, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, env); err != nil {
		return fmt.Errorf("create environment: %w", err)
	}
	return nil
}

// Update updates mutable fields of an environment.
func (r *EnvironmentRepository) Update(ctx context.Context, env *models.Environment) error {
	env.UpdatedAt = time.Now().UTC()
	const query = `UPDATE environments SET name = :name, service_type = :service_type, items = :items, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, env); err != nil {
		return fmt.Errorf("update environment: %w", err)
	}
	return nil
}

// Delete removes an environment permanently.
func (r *EnvironmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM environments WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete environment: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
