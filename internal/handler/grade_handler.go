package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-workflow-api/internal/dto"
	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/pkg/response"
)

type gradeService interface {
	List(ctx context.Context, actor models.Actor, filter models.GradeFilter) ([]models.GradeRecord, error)
	Submit(ctx context.Context, actor models.Actor, req dto.SubmitGradeRequest) (*models.GradeRecord, error)
}

// GradeHandler exposes grade endpoints.
type GradeHandler struct {
	grades gradeService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades gradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// List godoc
// @Summary List grade records
// @Tags Grades
// @Produce json
// @Security BearerAuth
// @Param studentId query string false "Filter by student"
// @Param offeringId query string false "Filter by offering"
// @Param semesterId query string false "Filter by semester"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	filter := models.GradeFilter{
		StudentID:  c.Query("studentId"),
		OfferingID: c.Query("offeringId"),
		SemesterID: c.Query("semesterId"),
		Status:     models.GradeStatus(c.Query("status")),
	}
	grades, err := h.grades.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// Submit godoc
// @Summary Submit a grade
// @Tags Grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SubmitGradeRequest true "Grade payload"
// @Success 201 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Submit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.SubmitGradeRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.grades.Submit(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}
