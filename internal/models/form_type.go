package models

import "time"

// CustomFormType is an admin-defined code/name mapping per service type,
// used to pre-populate item pickers in the client wizard.
type CustomFormType struct {
	ID          string      `db:"id" json:"id"`
	Code        string      `db:"code" json:"code"`
	Name        string      `db:"name" json:"name"`
	ServiceType ServiceType `db:"service_type" json:"service_type"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// CustomFormItem is one selectable entry under a form type.
type CustomFormItem struct {
	ID         string    `db:"id" json:"id"`
	FormTypeID string    `db:"form_type_id" json:"form_type_id"`
	Code       string    `db:"code" json:"code"`
	Name       string    `db:"name" json:"name"`
	Position   int       `db:"position" json:"position"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
