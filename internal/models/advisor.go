package models

import "time"

// AdvisorAssignment routes second-stage enrollment approvals for a student.
type AdvisorAssignment struct {
	StudentID  string    `db:"student_id" json:"student_id"`
	AdvisorID  string    `db:"advisor_id" json:"advisor_id"`
	AssignedBy string    `db:"assigned_by" json:"assigned_by"`
	AssignedAt time.Time `db:"assigned_at" json:"assigned_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// AdvisorAssignmentFilter scopes assignment listings.
type AdvisorAssignmentFilter struct {
	AdvisorID string
	StudentID string
}
