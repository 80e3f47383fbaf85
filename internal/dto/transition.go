package dto

import (
	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/internal/workflow"
)

// EntityKey identifies a workflow record either by ID or, for enrollments,
// by the (student, offering) pair.
type EntityKey struct {
	ID         string `json:"id,omitempty"`
	StudentID  string `json:"student_id,omitempty"`
	OfferingID string `json:"offering_id,omitempty"`
}

// String renders the key for bulk reports and logs.
func (k EntityKey) String() string {
	if k.ID != "" {
		return k.ID
	}
	return k.StudentID + "/" + k.OfferingID
}

// Empty reports whether no identifying field is set.
func (k EntityKey) Empty() bool {
	return k.ID == "" && (k.StudentID == "" || k.OfferingID == "")
}

// TransitionRequest is a single status change intent.
type TransitionRequest struct {
	Kind   workflow.Kind
	Key    EntityKey
	Actor  models.Actor
	Status string
	Reason string
	// AcceptCurrent turns "already in Status" into a successful no-op.
	AcceptCurrent bool
}

// TransitionPayload is the HTTP body of a single transition.
type TransitionPayload struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason"`
}

// TransitionResult describes the committed outcome.
type TransitionResult struct {
	Kind    workflow.Kind `json:"kind"`
	ID      string        `json:"id"`
	From    string        `json:"from"`
	To      string        `json:"to"`
	Changed bool          `json:"changed"`
	Entity  interface{}   `json:"entity,omitempty"`
}
