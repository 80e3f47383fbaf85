package models

import "time"

// StandingRow is one enrollment of a student joined with what recomputation needs.
type StandingRow struct {
	EnrollmentID   string           `db:"enrollment_id"`
	OfferingID     string           `db:"offering_id"`
	CourseCode     string           `db:"course_code"`
	CourseTitle    string           `db:"course_title"`
	Credits        float64          `db:"credits"`
	Status         EnrollmentStatus `db:"status"`
	SemesterID     string           `db:"semester_id"`
	SemesterName   string           `db:"semester_name"`
	SemesterStart  time.Time        `db:"semester_start"`
	SemesterLocked bool             `db:"semester_locked"`
	Grade          *string          `db:"grade"`
}

// StandingCourse is a course line within a semester standing.
type StandingCourse struct {
	OfferingID  string           `json:"offering_id"`
	CourseCode  string           `json:"course_code"`
	CourseTitle string           `json:"course_title"`
	Credits     float64          `json:"credits"`
	Status      EnrollmentStatus `json:"status"`
	Grade       *string          `json:"grade,omitempty"`
	GradePoints float64          `json:"grade_points"`
	Counted     bool             `json:"counted"`
}

// SemesterStanding carries the per-semester aggregate.
type SemesterStanding struct {
	SemesterID      string           `json:"semester_id"`
	SemesterName    string           `json:"semester_name"`
	SGPA            float64          `json:"sgpa"`
	Credits         float64          `json:"credits"`
	EnrolledCredits float64          `json:"enrolled_credits"`
	CGPAAsOf        float64          `json:"cgpa_as_of"`
	Final           bool             `json:"final"`
	Courses         []StandingCourse `json:"courses"`
}

// AcademicStanding is the derived academic record of a student.
type AcademicStanding struct {
	StudentID  string             `db:"student_id" json:"student_id"`
	CGPA       float64            `db:"cgpa" json:"cgpa"`
	Credits    float64            `db:"credits" json:"credits"`
	Final      bool               `db:"final" json:"final"`
	Semesters  []SemesterStanding `db:"-" json:"per_semester"`
	ComputedAt time.Time          `db:"computed_at" json:"computed_at"`
}
