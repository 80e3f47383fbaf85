package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/pkg/response"
)

type semesterService interface {
	List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, error)
	Lock(ctx context.Context, actor models.Actor, id string) (*models.Semester, error)
}

// SemesterHandler exposes semester endpoints.
type SemesterHandler struct {
	semesters semesterService
}

// NewSemesterHandler constructs SemesterHandler.
func NewSemesterHandler(semesters semesterService) *SemesterHandler {
	return &SemesterHandler{semesters: semesters}
}

// List godoc
// @Summary List semesters
// @Tags Semesters
// @Produce json
// @Security BearerAuth
// @Param academicYear query string false "Filter by academic year"
// @Param locked query bool false "Filter by lock state"
// @Success 200 {object} response.Envelope
// @Router /semesters [get]
func (h *SemesterHandler) List(c *gin.Context) {
	filter := models.SemesterFilter{AcademicYear: c.Query("academicYear")}
	if raw := c.Query("locked"); raw != "" {
		if locked, err := strconv.ParseBool(raw); err == nil {
			filter.Locked = &locked
		}
	}
	semesters, err := h.semesters.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semesters, nil)
}

// Lock godoc
// @Summary Lock a semester
// @Description Irreversibly freezes grades of the semester and queues standing finalisation.
// @Tags Semesters
// @Produce json
// @Security BearerAuth
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /semesters/{id}/lock [post]
func (h *SemesterHandler) Lock(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	semester, err := h.semesters.Lock(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}
