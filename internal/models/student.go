package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID           string    `db:"id" json:"id"`
	UserID       *string   `db:"user_id" json:"user_id,omitempty"`
	RollNumber   string    `db:"roll_number" json:"roll_number"`
	FullName     string    `db:"full_name" json:"full_name"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
