package dto

// AssignAdvisorRequest assigns an advisor to a student by id or roll number.
type AssignAdvisorRequest struct {
	StudentID  string `json:"student_id" validate:"required_without=RollNumber"`
	RollNumber string `json:"roll_number" validate:"required_without=StudentID"`
	AdvisorID  string `json:"advisor_id" validate:"required"`
}

// Key identifies the row in bulk reports.
func (r AssignAdvisorRequest) Key() string {
	if r.StudentID != "" {
		return r.StudentID
	}
	return r.RollNumber
}
