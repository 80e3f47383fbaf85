package dto

import "github.com/noah-isme/academic-workflow-api/internal/models"

// RequestEnrollmentRequest creates a pending enrollment. StudentID defaults to
// the caller's own student record.
type RequestEnrollmentRequest struct {
	StudentID  string                `json:"student_id"`
	OfferingID string                `json:"offering_id" validate:"required"`
	Type       models.EnrollmentType `json:"type" validate:"omitempty,oneof=credit minor concentration"`
}
