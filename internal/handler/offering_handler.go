package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-workflow-api/internal/dto"
	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/pkg/response"
)

type offeringService interface {
	List(ctx context.Context, filter models.OfferingFilter) ([]models.CourseOffering, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.CourseOffering, error)
	Propose(ctx context.Context, actor models.Actor, req dto.ProposeOfferingRequest) (*models.CourseOffering, error)
}

type rollEnrollmentService interface {
	EnrollByRollNumbers(ctx context.Context, actor models.Actor, offeringID string, kind models.EnrollmentType, rolls []string) (*dto.BulkResult, error)
}

// OfferingHandler exposes course offering endpoints.
type OfferingHandler struct {
	offerings offeringService
	bulk      rollEnrollmentService
}

// NewOfferingHandler constructs OfferingHandler.
func NewOfferingHandler(offerings offeringService, bulk rollEnrollmentService) *OfferingHandler {
	return &OfferingHandler{offerings: offerings, bulk: bulk}
}

// List godoc
// @Summary List course offerings
// @Tags Offerings
// @Produce json
// @Security BearerAuth
// @Param semesterId query string false "Filter by semester"
// @Param courseId query string false "Filter by course"
// @Param facultyId query string false "Filter by faculty"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /offerings [get]
func (h *OfferingHandler) List(c *gin.Context) {
	filter := models.OfferingFilter{
		SemesterID: c.Query("semesterId"),
		CourseID:   c.Query("courseId"),
		FacultyID:  c.Query("facultyId"),
		Status:     models.OfferingStatus(c.Query("status")),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "limit", 20),
	}
	offerings, pagination, err := h.offerings.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offerings, pagination)
}

// Get godoc
// @Summary Get course offering
// @Tags Offerings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id} [get]
func (h *OfferingHandler) Get(c *gin.Context) {
	offering, err := h.offerings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offering, nil)
}

// Propose godoc
// @Summary Propose a course offering
// @Tags Offerings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ProposeOfferingRequest true "Offering payload"
// @Success 201 {object} response.Envelope
// @Router /offerings [post]
func (h *OfferingHandler) Propose(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.ProposeOfferingRequest
	if !bindJSON(c, &req) {
		return
	}
	offering, err := h.offerings.Propose(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, offering)
}

// BulkEnroll godoc
// @Summary Enroll students into an offering by roll number
// @Description Best effort: each roll number succeeds or fails on its own.
// @Tags Offerings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offering ID"
// @Param payload body dto.BulkEnrollPayload true "Roll numbers"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id}/enrollments/bulk [post]
func (h *OfferingHandler) BulkEnroll(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var payload dto.BulkEnrollPayload
	if !bindJSON(c, &payload) {
		return
	}
	result, err := h.bulk.EnrollByRollNumbers(c.Request.Context(), actor, c.Param("id"), payload.Type, payload.RollNumbers)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
