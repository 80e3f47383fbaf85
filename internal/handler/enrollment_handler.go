package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-workflow-api/internal/dto"
	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/pkg/response"
)

type enrollmentService interface {
	List(ctx context.Context, actor models.Actor, filter models.EnrollmentFilter) ([]models.Enrollment, *models.Pagination, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Enrollment, error)
	Request(ctx context.Context, actor models.Actor, req dto.RequestEnrollmentRequest) (*models.Enrollment, error)
}

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param studentId query string false "Filter by student"
// @Param offeringId query string false "Filter by offering"
// @Param semesterId query string false "Filter by semester"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	filter := models.EnrollmentFilter{
		StudentID:  c.Query("studentId"),
		OfferingID: c.Query("offeringId"),
		SemesterID: c.Query("semesterId"),
		Status:     models.EnrollmentStatus(c.Query("status")),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "limit", 20),
	}
	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Get godoc
// @Summary Get enrollment
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	enrollment, err := h.enrollments.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Request godoc
// @Summary Request enrollment into an offering
// @Tags Enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.RequestEnrollmentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Request(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.RequestEnrollmentRequest
	if !bindJSON(c, &req) {
		return
	}
	enrollment, err := h.enrollments.Request(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}
