package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment request.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusPendingFaculty EnrollmentStatus = "pending_faculty"
	EnrollmentStatusPendingAdvisor EnrollmentStatus = "pending_advisor"
	EnrollmentStatusEnrolled       EnrollmentStatus = "enrolled"
	EnrollmentStatusRejected       EnrollmentStatus = "rejected"
	EnrollmentStatusWithdrawn      EnrollmentStatus = "withdrawn"
)

// Open reports whether the status still occupies the (student, offering) slot.
func (s EnrollmentStatus) Open() bool {
	switch s {
	case EnrollmentStatusPendingFaculty, EnrollmentStatusPendingAdvisor, EnrollmentStatusEnrolled:
		return true
	}
	return false
}

// EnrollmentType distinguishes how the course counts for the student.
type EnrollmentType string

const (
	EnrollmentTypeCredit        EnrollmentType = "credit"
	EnrollmentTypeMinor         EnrollmentType = "minor"
	EnrollmentTypeConcentration EnrollmentType = "concentration"
)

// Enrollment captures one student's request for one course offering.
type Enrollment struct {
	ID              string           `db:"id" json:"id"`
	StudentID       string           `db:"student_id" json:"student_id"`
	OfferingID      string           `db:"offering_id" json:"offering_id"`
	Type            EnrollmentType   `db:"type" json:"type"`
	Status          EnrollmentStatus `db:"status" json:"status"`
	RequestedAt     time.Time        `db:"requested_at" json:"requested_at"`
	FacultyActionAt *time.Time       `db:"faculty_action_at" json:"faculty_action_at,omitempty"`
	AdvisorActionAt *time.Time       `db:"advisor_action_at" json:"advisor_action_at,omitempty"`
	EnrolledAt      *time.Time       `db:"enrolled_at" json:"enrolled_at,omitempty"`
	RejectedAt      *time.Time       `db:"rejected_at" json:"rejected_at,omitempty"`
	WithdrawnAt     *time.Time       `db:"withdrawn_at" json:"withdrawn_at,omitempty"`
	RejectionReason *string          `db:"rejection_reason" json:"rejection_reason,omitempty"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID  string
	OfferingID string
	SemesterID string
	Status     EnrollmentStatus
	Page       int
	PageSize   int
}
