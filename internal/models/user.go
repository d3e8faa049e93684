package models

import "time"

// UserRole is the access tier assigned to an account. Technicians only
// see their own sessions; support center and super admin see all.
type UserRole string

const (
	RoleTechnician    UserRole = "TECHNICIAN"
	RoleSupportCenter UserRole = "SUPPORT_CENTER"
	RoleSuperAdmin    UserRole = "SUPER_ADMIN"
)

// User is a row in the users table. PasswordHash never serialises.
type User struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter narrows and pages the user list.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination is the paging block attached to list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
