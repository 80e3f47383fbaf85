package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
	"github.com/noah-isme/academic-workflow-api/pkg/response"
)

// RequireRoles admits callers whose role is in roles. Finer ownership checks
// stay with the services.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role not permitted for this endpoint"))
			c.Abort()
			return
		}
		c.Next()
	}
}
