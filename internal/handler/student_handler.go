package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/internal/service"
	"github.com/noah-isme/academic-workflow-api/pkg/response"
)

type standingViewer interface {
	View(ctx context.Context, actor models.Actor, studentID string) (*models.AcademicStanding, error)
}

type transcriptExporter interface {
	Transcript(ctx context.Context, actor models.Actor, studentID, format string) (*service.ExportResult, error)
}

// StudentHandler exposes academic standing reads.
type StudentHandler struct {
	standings standingViewer
	exports   transcriptExporter
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(standings standingViewer, exports transcriptExporter) *StudentHandler {
	return &StudentHandler{standings: standings, exports: exports}
}

// Standing godoc
// @Summary Get academic standing
// @Description Returns CGPA, earned credits and per-semester SGPA. Students may only read their own.
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/standing [get]
func (h *StudentHandler) Standing(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	standing, err := h.standings.View(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, standing, nil)
}

// Transcript godoc
// @Summary Download transcript
// @Tags Students
// @Produce text/csv,application/pdf,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param format query string false "csv, pdf or xlsx" default(csv)
// @Success 200 {file} binary
// @Router /students/{id}/transcript [get]
func (h *StudentHandler) Transcript(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	result, err := h.exports.Transcript(c.Request.Context(), actor, c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Data)
}
