package dto

// ProposeOfferingRequest proposes a course offering for a semester.
type ProposeOfferingRequest struct {
	CourseID           string   `json:"course_id" validate:"required"`
	SemesterID         string   `json:"semester_id" validate:"required"`
	FacultyID          string   `json:"faculty_id"`
	DepartmentID       string   `json:"department_id" validate:"required"`
	AllowedDepartments []string `json:"allowed_departments"`
}
