package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-workflow-api/internal/dto"
	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/pkg/response"
)

type advisorService interface {
	List(ctx context.Context, actor models.Actor, filter models.AdvisorAssignmentFilter) ([]models.AdvisorAssignment, error)
	Assign(ctx context.Context, actor models.Actor, req dto.AssignAdvisorRequest) (*models.AdvisorAssignment, error)
}

type bulkAdvisorService interface {
	AssignAdvisors(ctx context.Context, actor models.Actor, items []dto.AssignAdvisorRequest) (*dto.BulkResult, error)
}

// AdvisorHandler exposes advisor assignment endpoints.
type AdvisorHandler struct {
	advisors advisorService
	bulk     bulkAdvisorService
}

// NewAdvisorHandler constructs AdvisorHandler.
func NewAdvisorHandler(advisors advisorService, bulk bulkAdvisorService) *AdvisorHandler {
	return &AdvisorHandler{advisors: advisors, bulk: bulk}
}

// List godoc
// @Summary List advisor assignments
// @Description Advisors only see their own advisees.
// @Tags Advisors
// @Produce json
// @Security BearerAuth
// @Param advisorId query string false "Filter by advisor"
// @Param studentId query string false "Filter by student"
// @Success 200 {object} response.Envelope
// @Router /advisors/assignments [get]
func (h *AdvisorHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	filter := models.AdvisorAssignmentFilter{AdvisorID: c.Query("advisorId"), StudentID: c.Query("studentId")}
	assignments, err := h.advisors.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Assign godoc
// @Summary Assign an advisor to a student
// @Tags Advisors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.AssignAdvisorRequest true "Assignment"
// @Success 200 {object} response.Envelope
// @Router /advisors/assignments [put]
func (h *AdvisorHandler) Assign(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.AssignAdvisorRequest
	if !bindJSON(c, &req) {
		return
	}
	assignment, err := h.advisors.Assign(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// BulkAssign godoc
// @Summary Assign advisors in bulk
// @Tags Advisors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.BulkAdvisorPayload true "Assignments"
// @Success 200 {object} response.Envelope
// @Router /advisors/assignments/bulk [post]
func (h *AdvisorHandler) BulkAssign(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var payload dto.BulkAdvisorPayload
	if !bindJSON(c, &payload) {
		return
	}
	result, err := h.bulk.AssignAdvisors(c.Request.Context(), actor, payload.Items)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
