package models

import "time"

// GradeStatus is the approval state of a grade record.
type GradeStatus string

const (
	GradeStatusSubmitted GradeStatus = "submitted"
	GradeStatusApproved  GradeStatus = "approved"
)

// GradeRecord is one (student, offering, attempt) grade submission.
type GradeRecord struct {
	ID          string      `db:"id" json:"id"`
	StudentID   string      `db:"student_id" json:"student_id"`
	OfferingID  string      `db:"offering_id" json:"offering_id"`
	Attempt     int         `db:"attempt" json:"attempt"`
	Grade       string      `db:"grade" json:"grade"`
	Status      GradeStatus `db:"status" json:"status"`
	SubmittedBy string      `db:"submitted_by" json:"submitted_by"`
	SubmittedAt time.Time   `db:"submitted_at" json:"submitted_at"`
	ApprovedBy  *string     `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt  *time.Time  `db:"approved_at" json:"approved_at,omitempty"`
}

// GradeFilter allows querying of grade records.
type GradeFilter struct {
	StudentID  string
	OfferingID string
	SemesterID string
	Status     GradeStatus
}

// GradeScaleEntry maps a letter grade onto grade points.
type GradeScaleEntry struct {
	Grade           string  `db:"grade" json:"grade"`
	Points          float64 `db:"points" json:"points"`
	CountsTowardGPA bool    `db:"counts_toward_gpa" json:"counts_toward_gpa"`
}

// GradeScale indexes scale entries by letter.
type GradeScale map[string]GradeScaleEntry

// NewGradeScale builds a lookup from scale rows.
func NewGradeScale(entries []GradeScaleEntry) GradeScale {
	scale := make(GradeScale, len(entries))
	for _, entry := range entries {
		scale[entry.Grade] = entry
	}
	return scale
}
