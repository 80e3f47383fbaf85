package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-workflow-api/internal/middleware"
	"github.com/noah-isme/academic-workflow-api/internal/models"
	"github.com/noah-isme/academic-workflow-api/pkg/config"
	"github.com/noah-isme/academic-workflow-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-workflow-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-workflow-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, logr *zap.Logger, a *app) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.metrics, "/metrics"))

	h := a.handlers
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := middleware.RequireRoles(models.RoleAdmin)
	selfAdvisorAdmin := middleware.RequireRoles(models.RoleStudent, models.RoleAdvisor, models.RoleAdmin)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(a.auth))

	semesters := api.Group("/semesters")
	semesters.GET("", h.semesters.List)
	semesters.POST("/:id/lock", admin, h.semesters.Lock)

	offerings := api.Group("/offerings")
	offerings.GET("", h.offerings.List)
	offerings.POST("", middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin), h.offerings.Propose)
	offerings.GET("/:id", h.offerings.Get)
	offerings.POST("/:id/enrollments/bulk", admin, h.offerings.BulkEnroll)

	enrollments := api.Group("/enrollments")
	enrollments.GET("", h.enrollments.List)
	enrollments.POST("", middleware.RequireRoles(models.RoleStudent, models.RoleAdmin), h.enrollments.Request)
	enrollments.GET("/:id", h.enrollments.Get)

	grades := api.Group("/grades")
	grades.GET("", h.grades.List)
	grades.POST("", middleware.RequireRoles(models.RoleFaculty, models.RoleAdmin), h.grades.Submit)

	workflow := api.Group("/workflow")
	workflow.POST("/:kind/:id/transitions", h.workflow.Transition)
	workflow.POST("/:kind/bulk", middleware.RequireRoles(models.RoleFaculty, models.RoleAdvisor, models.RoleAdmin), h.workflow.Bulk)

	advisors := api.Group("/advisors/assignments")
	advisors.GET("", middleware.RequireRoles(models.RoleAdvisor, models.RoleAdmin), h.advisors.List)
	advisors.PUT("", admin, h.advisors.Assign)
	advisors.POST("/bulk", admin, h.advisors.BulkAssign)

	api.POST("/users/import", admin, h.users.Import)

	students := api.Group("/students/:id", selfAdvisorAdmin)
	students.GET("/standing", h.students.Standing)
	students.GET("/transcript", h.students.Transcript)

	return r
}
