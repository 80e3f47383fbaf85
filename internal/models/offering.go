package models

import (
	"time"

	"github.com/lib/pq"
)

// OfferingStatus is the approval state of a course offering.
type OfferingStatus string

const (
	OfferingStatusPending   OfferingStatus = "pending"
	OfferingStatusApproved  OfferingStatus = "approved"
	OfferingStatusRejected  OfferingStatus = "rejected"
	OfferingStatusCompleted OfferingStatus = "completed"
)

// CourseOffering is one instance of a course taught in a semester by a faculty member.
type CourseOffering struct {
	ID                 string         `db:"id" json:"id"`
	CourseID           string         `db:"course_id" json:"course_id"`
	SemesterID         string         `db:"semester_id" json:"semester_id"`
	FacultyID          string         `db:"faculty_id" json:"faculty_id"`
	DepartmentID       string         `db:"department_id" json:"department_id"`
	AllowedDepartments pq.StringArray `db:"allowed_departments" json:"allowed_departments"`
	Status             OfferingStatus `db:"status" json:"status"`
	Reason             *string        `db:"reason" json:"reason,omitempty"`
	ProposedAt         time.Time      `db:"proposed_at" json:"proposed_at"`
	ReviewedAt         *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy         *string        `db:"reviewed_by" json:"reviewed_by,omitempty"`
	CompletedAt        *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// AllowsDepartment reports whether students of dept may request the offering.
// An empty list admits every department.
func (o *CourseOffering) AllowsDepartment(dept string) bool {
	if len(o.AllowedDepartments) == 0 || dept == o.DepartmentID {
		return true
	}
	for _, allowed := range o.AllowedDepartments {
		if allowed == dept {
			return true
		}
	}
	return false
}

// OfferingFilter scopes offering listings.
type OfferingFilter struct {
	SemesterID string
	CourseID   string
	FacultyID  string
	Status     OfferingStatus
	Page       int
	PageSize   int
}
