package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/the-local-guys/testtag-api/internal/models"
)

const sessionColumns = `id, user_id, client_name, site_contact, address, technician_name, test_date, country, service_type, created_at, updated_at`

// SessionRepository provides database access for test sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new instance of SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// FindByID returns a session by identifier.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.TestSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM test_sessions WHERE id = $1 LIMIT 1`, sessionColumns)
	var session models.TestSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find session by id: %w", err)
	}
	return &session, nil
}

// List returns sessions based on filters with total count.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.TestSession, int, error) {
	baseQuery := `FROM test_sessions WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.ServiceType != nil {
		conditions = append(conditions, fmt.Sprintf("service_type = $%d", len(args)+1))
		args = append(args, *filter.ServiceType)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(client_name) LIKE $%d OR LOWER(address) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"test_date":   true,
		"client_name": true,
		"created_at":  true,
		"updated_at":  true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", sessionColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var sessions []models.TestSession
	if err := r.db.SelectContext(ctx, &sessions, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	return sessions, total, nil
}

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, session *models.TestSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	const query = `INSERT INTO test_sessions (id, user_id, client_name, site_contact, address, technician_name, test_date, country, service_type, created_at, updated_at)
VALUES (:id, :user_id, :client_name, :site_contact, :address, :technician_name, :test_date, :country, :service_type, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Update updates mutable fields of a session.
func (r *SessionRepository) Update(ctx context.Context, session *models.TestSession) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE test_sessions SET client_name = :client_name, site_contact = :site_contact, address = :address, technician_name = :technician_name, test_date = :test_date, country = :country, service_type = :service_type, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Delete removes a session and, via the FK cascade, all of its results.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM test_sessions WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
