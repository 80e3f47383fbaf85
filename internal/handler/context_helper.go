package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-workflow-api/internal/middleware"
	"github.com/noah-isme/academic-workflow-api/internal/models"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
	"github.com/noah-isme/academic-workflow-api/pkg/response"
)

// currentActor extracts the workflow actor from the JWT claims. It writes
// the error response itself when no claims are present.
func currentActor(c *gin.Context) (models.Actor, bool) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Actor{}, false
	}
	return claims.Actor(), true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return value
}
