package models

import "time"

// Semester models an academic term. Once Locked it never unlocks.
type Semester struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	AcademicYear string     `db:"academic_year" json:"academic_year"`
	StartDate    time.Time  `db:"start_date" json:"start_date"`
	EndDate      time.Time  `db:"end_date" json:"end_date"`
	Locked       bool       `db:"locked" json:"locked"`
	LockedAt     *time.Time `db:"locked_at" json:"locked_at,omitempty"`
	LockedBy     *string    `db:"locked_by" json:"locked_by,omitempty"`
}

// SemesterFilter scopes semester listings.
type SemesterFilter struct {
	AcademicYear string
	Locked       *bool
}
