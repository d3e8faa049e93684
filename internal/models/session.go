package models

import "time"

// ServiceType identifies which compliance workflow a session belongs to.
type ServiceType string

const (
	ServiceElectrical         ServiceType = "electrical"
	ServiceEmergencyExitLight ServiceType = "emergency_exit_light"
	ServiceFireTesting        ServiceType = "fire_testing"
)

// ValidServiceType reports whether the value is a known service type.
func ValidServiceType(s ServiceType) bool {
	switch s {
	case ServiceElectrical, ServiceEmergencyExitLight, ServiceFireTesting:
		return true
	}
	return false
}

// TestSession represents one technician visit producing one compliance report.
type TestSession struct {
	ID             string      `db:"id" json:"id"`
	UserID         string      `db:"user_id" json:"user_id"`
	ClientName     string      `db:"client_name" json:"client_name"`
	SiteContact    string      `db:"site_contact" json:"site_contact"`
	Address        string      `db:"address" json:"address"`
	TechnicianName string      `db:"technician_name" json:"technician_name"`
	TestDate       time.Time   `db:"test_date" json:"test_date"`
	Country        string      `db:"country" json:"country"`
	ServiceType    ServiceType `db:"service_type" json:"service_type"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// SessionFilter captures list filtering for sessions.
type SessionFilter struct {
	UserID      string
	ServiceType *ServiceType
	Search      string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// FullSessionData bundles a session with its ordered results and summary,
// the shape both the API and report renderers consume.
type FullSessionData struct {
	Session TestSession   `json:"session"`
	Results []TestResult  `json:"results"`
	Summary ResultSummary `json:"summary"`
}
