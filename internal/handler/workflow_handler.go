package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-workflow-api/internal/dto"
	"github.com/noah-isme/academic-workflow-api/internal/workflow"
	"github.com/noah-isme/academic-workflow-api/pkg/response"
)

type transitionService interface {
	Transition(ctx context.Context, req dto.TransitionRequest) (*dto.TransitionResult, error)
}

type bulkTransitionService interface {
	Apply(ctx context.Context, req dto.BulkTransitionRequest) (*dto.BulkResult, error)
}

// WorkflowHandler exposes status transitions for every workflow kind.
type WorkflowHandler struct {
	transitions transitionService
	bulk        bulkTransitionService
}

// NewWorkflowHandler constructs WorkflowHandler.
func NewWorkflowHandler(transitions transitionService, bulk bulkTransitionService) *WorkflowHandler {
	return &WorkflowHandler{transitions: transitions, bulk: bulk}
}

// Transition godoc
// @Summary Transition a workflow record
// @Description Moves an enrollment, offering or grade to the requested status. The engine authorizes by role and ownership.
// @Tags Workflow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind path string true "enrollment, offering or grade"
// @Param id path string true "Record ID"
// @Param payload body dto.TransitionPayload true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /workflow/{kind}/{id}/transitions [post]
func (h *WorkflowHandler) Transition(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	kind, err := workflow.ParseKind(c.Param("kind"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var payload dto.TransitionPayload
	if !bindJSON(c, &payload) {
		return
	}
	result, err := h.transitions.Transition(c.Request.Context(), dto.TransitionRequest{
		Kind:   kind,
		Key:    dto.EntityKey{ID: c.Param("id")},
		Actor:  actor,
		Status: payload.Status,
		Reason: payload.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Bulk godoc
// @Summary Apply one transition to many records
// @Description Best effort: every key commits or fails independently. Failures are reported in input order.
// @Tags Workflow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind path string true "enrollment, offering or grade"
// @Param payload body dto.BulkTransitionPayload true "Keys and target status"
// @Success 200 {object} response.Envelope
// @Router /workflow/{kind}/bulk [post]
func (h *WorkflowHandler) Bulk(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	kind, err := workflow.ParseKind(c.Param("kind"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var payload dto.BulkTransitionPayload
	if !bindJSON(c, &payload) {
		return
	}
	result, err := h.bulk.Apply(c.Request.Context(), dto.BulkTransitionRequest{
		Kind:   kind,
		Keys:   payload.EntityKeys(),
		Actor:  actor,
		Status: payload.Status,
		Reason: payload.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
