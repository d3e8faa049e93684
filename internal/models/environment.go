package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EnvironmentItem is one reusable item preset inside an environment template.
type EnvironmentItem struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
}

// EnvironmentItems is the ordered preset list persisted as JSONB.
type EnvironmentItems []EnvironmentItem

// Value marshals the item list to JSON for persistence.
func (e EnvironmentItems) Value() (driver.Value, error) {
	if e == nil {
		e = EnvironmentItems{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal environment items: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the item list.
func (e *EnvironmentItems) Scan(value interface{}) error {
	if value == nil {
		*e = EnvironmentItems{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for EnvironmentItems", value)
	}
	if len(data) == 0 {
		*e = EnvironmentItems{}
		return nil
	}
	if err := json.Unmarshal(data, e); err != nil {
		return fmt.Errorf("unmarshal environment items: %w", err)
	}
	return nil
}

// Environment is a user-owned template of reusable item presets.
type Environment struct {
	ID          string           `db:"id" json:"id"`
	UserID      string           `db:"user_id" json:"user_id"`
	Name        string           `db:"name" json:"name"`
	ServiceType ServiceType      `db:"service_type" json:"service_type"`
	Items       EnvironmentItems `db:"items" json:"items"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}
