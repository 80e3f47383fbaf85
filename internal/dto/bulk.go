package dto

import (
	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/internal/workflow"
)

// BulkTransitionRequest applies one status intent across many keys.
type BulkTransitionRequest struct {
	Kind   workflow.Kind
	Keys   []EntityKey
	Actor  models.Actor
	Status string
	Reason string
}

// BulkTransitionPayload is the HTTP body of a bulk transition.
type BulkTransitionPayload struct {
	IDs    []string    `json:"ids"`
	Keys   []EntityKey `json:"keys"`
	Status string      `json:"status" validate:"required"`
	Reason string      `json:"reason"`
}

// EntityKeys merges plain ids and composite keys preserving input order.
func (p BulkTransitionPayload) EntityKeys() []EntityKey {
	keys := make([]EntityKey, 0, len(p.IDs)+len(p.Keys))
	for _, id := range p.IDs {
		keys = append(keys, EntityKey{ID: id})
	}
	return append(keys, p.Keys...)
}

// BulkResult summarises partial outcomes of a bulk operation.
type BulkResult struct {
	SuccessCount int           `json:"success_count"`
	FailedCount  int           `json:"failed_count"`
	Failed       []BulkFailure `json:"failed"`
}

// BulkFailure captures one failed item. Row is zero based.
type BulkFailure struct {
	Row     int    `json:"row"`
	Key     string `json:"key"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BulkEnrollPayload enrolls students into an offering by roll number.
type BulkEnrollPayload struct {
	Type        models.EnrollmentType `json:"type" validate:"omitempty,oneof=credit minor concentration"`
	RollNumbers []string              `json:"roll_numbers" validate:"required,min=1"`
}

// BulkAdvisorPayload carries advisor assignments.
type BulkAdvisorPayload struct {
	Items []AssignAdvisorRequest `json:"items" validate:"required,min=1"`
}

// ImportStudentItem is one row of a student import.
type ImportStudentItem struct {
	Email        string `json:"email" validate:"required,email"`
	FullName     string `json:"full_name" validate:"required"`
	RollNumber   string `json:"roll_number" validate:"required"`
	DepartmentID string `json:"department_id" validate:"required"`
}

// ImportStudentsPayload carries rows of a student import.
type ImportStudentsPayload struct {
	Items []ImportStudentItem `json:"items" validate:"required,min=1"`
}
