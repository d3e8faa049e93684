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

const resultColumns = `id, session_id, asset_number, item_name, item_type, location, classification, result, frequency, failure_reason, action_taken, notes, photo_data, discharge_test, switching_test, manufacturer_info, created_at, updated_at`

// ResultRepository provides database access for per-item test results.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a new instance of ResultRepository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// FindByID returns a result by identifier.
func (r *ResultRepository) FindByID(ctx context.Context, id string) (*models.TestResult, error) {
	query := fmt.Sprintf(`SELECT %s FROM test_results WHERE id = $1 LIMIT 1`, resultColumns)
	var result models.TestResult
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find result by id: %w", err)
	}
	return &result, nil
}

// ListBySession returns all results for a session in storage order.
func (r *ResultRepository) ListBySession(ctx context.Context, sessionID string) ([]models.TestResult, error) {
	query := fmt.Sprintf(`SELECT %s FROM test_results WHERE session_id = $1 ORDER BY created_at ASC`, resultColumns)
	var results []models.TestResult
	if err := r.db.SelectContext(ctx, &results, query, sessionID); err != nil {
		return nil, fmt.Errorf("list results for session: %w", err)
	}
	return results, nil
}

// ListAssetNumbers returns the asset numbers currently used within a session.
func (r *ResultRepository) ListAssetNumbers(ctx context.Context, sessionID string) ([]string, error) {
	const query = `SELECT asset_number FROM test_results WHERE session_id = $1`
	var numbers []string
	if err := r.db.SelectContext(ctx, &numbers, query, sessionID); err != nil {
		return nil, fmt.Errorf("list asset numbers for session: %w", err)
	}
	return numbers, nil
}

// FindAssetNumberOwner returns the ID of the result holding the asset number
// within a session, or sql.ErrNoRows when the number is free.
func (r *ResultRepository) FindAssetNumberOwner(ctx context.Context, sessionID, assetNumber string) (string, error) {
	const query = `SELECT id FROM test_results WHERE session_id = $1 AND asset_number = $2 LIMIT 1`
	var id string
	if err := r.db.GetContext(ctx, &id, query, sessionID, assetNumber); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("find asset number owner: %w", err)
	}
	return id, nil
}

// ExistsMatching reports whether a result with the same identity tuple
// already exists in the session. Batch resubmissions hit this check.
func (r *ResultRepository) ExistsMatching(ctx context.Context, sessionID, assetNumber, itemName, location, classification string) (bool, error) {
	const query = `SELECT COUNT(*) FROM test_results WHERE session_id = $1 AND asset_number = $2 AND item_name = $3 AND location = $4 AND classification = $5`
	var count int
	if err := r.db.GetContext(ctx, &count, query, sessionID, assetNumber, itemName, location, classification); err != nil {
		return false, fmt.Errorf("check duplicate result: %w", err)
	}
	return count > 0, nil
}

// Create inserts a new result.
func (r *ResultRepository) Create(ctx context.Context, result *models.TestResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if result.CreatedAt.IsZero() {
		result.CreatedAt = now
	}
	result.UpdatedAt = now

	const query = `INSERT INTO test_results (id, session_id, asset_number, item_name, item_type, location, classification, result, frequency, failure_reason, action_taken, notes, photo_data, discharge_test, switching_test, manufacturer_info, created_at, updated_at)
VALUES (:id, :session_id, :asset_number, :item_name, :item_type, :location, :classification, :result, :frequency, :failure_reason, :action_taken, :notes, :photo_data, :discharge_test, :switching_test, :manufacturer_info, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create result: %w", err)
	}
	return nil
}

// Update updates mutable fields of a result.
func (r *ResultRepository) Update(ctx context.Context, result *models.TestResult) error {
	result.UpdatedAt = time.Now().UTC()
	const query = `UPDATE test_results SET asset_number = :asset_number, item_name = :item_name, item_type = :item_type, location = :location, classification = :classification, result = :result, frequency = :frequency, failure_reason = :failure_reason, action_taken = :action_taken, notes = :notes, photo_data = :photo_data, discharge_test = :discharge_test, switching_test = :switching_test, manufacturer_info = :manufacturer_info, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("update result: %w", err)
	}
	return nil
}

// Delete removes a result permanently.
func (r *ResultRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM test_results WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
