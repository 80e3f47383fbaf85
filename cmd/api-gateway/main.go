package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academic-workflow-api/api/swagger"
	"github.com/noah-isme/academic-workflow-api/internal/handler"
	"github.com/noah-isme/academic-workflow-api/internal/repository"
	"github.com/noah-isme/academic-workflow-api/internal/service"
	"github.com/noah-isme/academic-workflow-api/pkg/cache"
	"github.com/noah-isme/academic-workflow-api/pkg/config"
	"github.com/noah-isme/academic-workflow-api/pkg/database"
	"github.com/noah-isme/academic-workflow-api/pkg/jobs"
	"github.com/noah-isme/academic-workflow-api/pkg/logger"
)

// @title Academic Workflow API
// @version 1.0.0
// @description Enrollment, course offering and grade workflows with semester locking and cumulative standing.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Sugar().Fatalw("failed to run migrations", "error", err)
		}
	}

	var redisClient *redis.Client
	if cfg.Standing.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, standing cache disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	application, err := buildApp(ctx, cfg, db.DB, redisClient, logr, newRepositories(db, redisClient, logr), database.NewTransactor(db))
	if err != nil {
		logr.Sugar().Fatalw("failed to build services", "error", err)
	}
	defer application.shutdown()

	router := newRouter(cfg, logr, application)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

type repositories struct {
	semesters   *repository.SemesterRepository
	students    *repository.StudentRepository
	advisors    *repository.AdvisorRepository
	offerings   *repository.OfferingRepository
	enrollments *repository.EnrollmentRepository
	grades      *repository.GradeRepository
	courses     *repository.CourseRepository
	users       *repository.UserRepository
	standings   *repository.StandingRepository
	logs        *repository.TransitionLogRepository
	cache       *repository.CacheRepository
}

func newRepositories(db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) repositories {
	return repositories{
		semesters:   repository.NewSemesterRepository(db),
		students:    repository.NewStudentRepository(db),
		advisors:    repository.NewAdvisorRepository(db),
		offerings:   repository.NewOfferingRepository(db),
		enrollments: repository.NewEnrollmentRepository(db),
		grades:      repository.NewGradeRepository(db),
		courses:     repository.NewCourseRepository(db),
		users:       repository.NewUserRepository(db),
		standings:   repository.NewStandingRepository(db),
		logs:        repository.NewTransitionLogRepository(db),
		cache:       repository.NewCacheRepository(redisClient, logr),
	}
}

type app struct {
	handlers handlers
	auth     *service.AuthService
	metrics  *service.MetricsService
	queue    *jobs.Queue
	rollover *service.RolloverService
	logger   *zap.Logger
}

type handlers struct {
	metrics     *handler.MetricsHandler
	semesters   *handler.SemesterHandler
	offerings   *handler.OfferingHandler
	enrollments *handler.EnrollmentHandler
	grades      *handler.GradeHandler
	workflow    *handler.WorkflowHandler
	advisors    *handler.AdvisorHandler
	users       *handler.UserHandler
	students    *handler.StudentHandler
}

func buildApp(ctx context.Context, cfg *config.Config, sqlDB handler.Pinger, redisClient *redis.Client, logr *zap.Logger, repos repositories, tx service.TxRunner) (*app, error) {
	validate := validator.New()
	metrics := service.NewMetricsService()

	cacheSvc := service.NewCacheService(repos.cache, metrics, cfg.Standing.CacheTTL, logr, cfg.Standing.CacheEnabled && redisClient != nil)
	if err := cacheSvc.FlushStandings(ctx); err != nil {
		logr.Sugar().Warnw("failed to flush cached standings", "error", err)
	}

	access := service.NewStudentAccess(repos.students, repos.advisors)
	standings := service.NewStandingService(repos.standings, repos.grades, repos.students, cacheSvc, metrics, cfg.Standing.CacheTTL, logr, service.WithStudentAccess(access))

	transitions := service.NewTransitionService(service.TransitionDeps{
		Enrollments: repos.enrollments,
		Offerings:   repos.offerings,
		Grades:      repos.grades,
		Semesters:   repos.semesters,
		Advisors:    repos.advisors,
		Students:    repos.students,
		Logs:        repos.logs,
		Standings:   standings,
		Tx:          tx,
	}, service.TransitionConfig{RequireRejectionReason: cfg.Workflow.RequireRejectionReason}, logr, service.WithTransitionMetrics(metrics))

	enrollments := service.NewEnrollmentService(repos.enrollments, repos.offerings, repos.semesters, repos.students, repos.logs, standings, tx, validate, logr)
	offerings := service.NewOfferingService(repos.offerings, repos.courses, repos.semesters, repos.logs, tx, validate, logr)
	grades := service.NewGradeService(repos.grades, repos.enrollments, repos.offerings, repos.semesters, repos.students, repos.logs, tx, validate, logr)
	advisors := service.NewAdvisorService(repos.advisors, repos.students, repos.users, validate, logr)
	users, err := service.NewUserService(repos.users, repos.students, tx, validate, logr, service.UserServiceConfig{DefaultPassword: cfg.Import.DefaultPassword})
	if err != nil {
		return nil, err
	}

	bulk := service.NewBulkService(service.BulkDeps{
		Transitions: transitions,
		Enrollments: enrollments,
		Advisors:    advisors,
		Importer:    users,
	}, service.BulkConfig{
		Workers:           cfg.Bulk.Workers,
		MaxItems:          cfg.Bulk.MaxItems,
		MaxReportedErrors: cfg.Bulk.MaxReportedErrors,
	}, metrics, logr)

	queue := jobs.NewQueue("standing-finalize", service.FinalizeHandler(standings, metrics), jobs.QueueConfig{
		Workers:    cfg.Finalize.Workers,
		MaxRetries: cfg.Finalize.MaxRetries,
		Logger:     logr,
	})
	queue.Start(ctx)

	semesters := service.NewSemesterService(repos.semesters, repos.enrollments, repos.logs, tx, queue, logr)
	exports := service.NewExportService(standings, nil, logr)

	a := &app{
		auth:    service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}),
		metrics: metrics,
		queue:   queue,
		logger:  logr,
	}

	if cfg.Rollover.Enabled {
		a.rollover = service.NewRolloverService(repos.offerings, bulk, cfg.Rollover.Schedule, logr)
		if err := a.rollover.Start(ctx); err != nil {
			queue.Stop()
			return nil, err
		}
	}

	deps := map[string]handler.Pinger{"postgres": sqlDB}
	if redisClient != nil {
		deps["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	a.handlers = handlers{
		metrics:     handler.NewMetricsHandler(metrics, deps),
		semesters:   handler.NewSemesterHandler(semesters),
		offerings:   handler.NewOfferingHandler(offerings, bulk),
		enrollments: handler.NewEnrollmentHandler(enrollments),
		grades:      handler.NewGradeHandler(grades),
		workflow:    handler.NewWorkflowHandler(transitions, bulk),
		advisors:    handler.NewAdvisorHandler(advisors, bulk),
		users:       handler.NewUserHandler(bulk),
		students:    handler.NewStudentHandler(standings, exports),
	}
	return a, nil
}

func (a *app) shutdown() {
	if a.rollover != nil {
		a.rollover.Stop()
	}
	a.queue.Stop()
	a.logger.Info("background workers stopped")
}
