package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/internal/service"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
)

type stubValidator map[string]*models.JWTClaims

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	claims, ok := s[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return claims, nil
}

func newProtectedRouter(roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	validator := stubValidator{
		"admin-token":   {UserID: "admin-1", Role: models.RoleAdmin},
		"student-token": {UserID: "user-s1", Role: models.RoleStudent},
	}
	r.GET("/secure", JWT(validator), RequireRoles(roles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": Claims(c).UserID})
	})
	return r
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestJWTAndRoles(t *testing.T) {
	r := newProtectedRouter(models.RoleAdmin)

	cases := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{name: "missing header", status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "unknown token", header: "Bearer nope", status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "wrong role", header: "Bearer student-token", status: http.StatusForbidden, code: "FORBIDDEN"},
		{name: "admin", header: "bearer admin-token", status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tc.status, w.Code)
			if tc.code != "" {
				assert.Equal(t, tc.code, errorCode(t, w))
			}
		})
	}
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/students/s1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	found := false
	for _, family := range families {
		if family.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "path" && label.GetValue() == "/students/:id" {
					found = true
				}
			}
		}
	}
	assert.True(t, found)
}
