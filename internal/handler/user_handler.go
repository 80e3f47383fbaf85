package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-workflow-api/internal/dto"
	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/pkg/response"
)

type studentImportService interface {
	ImportStudents(ctx context.Context, actor models.Actor, items []dto.ImportStudentItem) (*dto.BulkResult, error)
}

// UserHandler exposes account provisioning endpoints.
type UserHandler struct {
	imports studentImportService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(imports studentImportService) *UserHandler {
	return &UserHandler{imports: imports}
}

// Import godoc
// @Summary Import student accounts
// @Description Upserts the login by email and the student by roll number. Existing passwords are kept.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ImportStudentsPayload true "Rows"
// @Success 200 {object} response.Envelope
// @Router /users/import [post]
func (h *UserHandler) Import(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var payload dto.ImportStudentsPayload
	if !bindJSON(c, &payload) {
		return
	}
	result, err := h.imports.ImportStudents(c.Request.Context(), actor, payload.Items)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
