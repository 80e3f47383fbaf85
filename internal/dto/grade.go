package dto

// SubmitGradeRequest records a grade for an enrolled student.
type SubmitGradeRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	OfferingID string `json:"offering_id" validate:"required"`
	Grade      string `json:"grade" validate:"required"`
	Attempt    int    `json:"attempt" validate:"omitempty,min=1"`
}
