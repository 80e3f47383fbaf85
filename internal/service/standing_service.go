package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-workflow-api/internal/models"
	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
)

type standingStore interface {
	ListRows(ctx context.Context, studentID string) ([]models.StandingRow, error)
	Upsert(ctx context.Context, standing *models.AcademicStanding) error
}

type gradeScaleSource interface {
	ListScale(ctx context.Context) ([]models.GradeScaleEntry, error)
}

type standingCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Generation(ctx context.Context, genKey string) (int64, bool)
	SetIfGeneration(ctx context.Context, key, genKey string, gen int64, value interface{}, ttl time.Duration) error
	Bump(ctx context.Context, genKey string) error
	Delete(ctx context.Context, keys ...string) error
}

// StandingService recomputes, persists and serves academic standings.
type StandingService struct {
	store    standingStore
	scale    gradeScaleSource
	students studentLookup
	cache    standingCache
	metrics  *MetricsService
	logger   *zap.Logger
	ttl      time.Duration
	now      func() time.Time
	access   *StudentAccess
}

// StandingOption customises StandingService.
type StandingOption func(*StandingService)

// WithStudentAccess enables actor checks in View.
func WithStudentAccess(access *StudentAccess) StandingOption {
	return func(s *StandingService) {
		s.access = access
	}
}

// NewStandingService constructs the service. cache may be nil.
func NewStandingService(store standingStore, scale gradeScaleSource, students studentLookup, cache standingCache, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, opts ...StandingOption) *StandingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &StandingService{
		store:    store,
		scale:    scale,
		students: students,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// StandingCacheKey returns the cache key for a student's standing.
func StandingCacheKey(studentID string) string {
	return fmt.Sprintf("standing:%s", studentID)
}

// StandingGenerationKey returns the key of the counter Invalidate advances.
func StandingGenerationKey(studentID string) string {
	return fmt.Sprintf("standing:gen:%s", studentID)
}

// Recompute rebuilds the standing from committed rows and stores the
// snapshot. It joins the transaction carried by ctx, if any.
func (s *StandingService) Recompute(ctx context.Context, studentID string) (*models.AcademicStanding, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveRecompute(time.Since(start)) }()

	rows, err := s.store.ListRows(ctx, studentID)
	if err != nil {
		return nil, internalError(err, "failed to load standing rows")
	}
	entries, err := s.scale.ListScale(ctx)
	if err != nil {
		return nil, internalError(err, "failed to load grade scale")
	}
	standing := ComputeStanding(studentID, rows, models.NewGradeScale(entries))
	standing.ComputedAt = s.now()
	if err := s.store.Upsert(ctx, &standing); err != nil {
		return nil, internalError(err, "failed to store standing")
	}
	return &standing, nil
}

// Get serves the standing of a student, cache first. A miss is filled only if
// no Invalidate ran between reading the generation and writing the entry.
func (s *StandingService) Get(ctx context.Context, studentID string) (*models.AcademicStanding, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrStudentNotFound, "student not found")
		}
		return nil, internalError(err, "failed to load student")
	}

	key := StandingCacheKey(studentID)
	genKey := StandingGenerationKey(studentID)
	var (
		gen      int64
		fillable bool
	)
	if s.cache != nil {
		var cached models.AcademicStanding
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
		gen, fillable = s.cache.Generation(ctx, genKey)
	}

	standing, err := s.Recompute(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if fillable {
		_ = s.cache.SetIfGeneration(ctx, key, genKey, gen, standing, s.ttl)
	}
	return standing, nil
}

// View is Get on behalf of actor.
func (s *StandingService) View(ctx context.Context, actor models.Actor, studentID string) (*models.AcademicStanding, error) {
	if s.access != nil {
		if err := s.access.Check(ctx, actor, studentID); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, studentID)
}

// Invalidate drops the cached standing. Failures are logged, not returned.
func (s *StandingService) Invalidate(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx, StandingGenerationKey(studentID)); err != nil {
		s.logger.Warn("failed to advance standing cache generation", zap.String("student_id", studentID), zap.Error(err))
	}
	if err := s.cache.Delete(ctx, StandingCacheKey(studentID)); err != nil {
		s.logger.Warn("failed to invalidate standing cache", zap.String("student_id", studentID), zap.Error(err))
	}
}

// Finalize recomputes and invalidates a standing after its semester locks.
func (s *StandingService) Finalize(ctx context.Context, studentID string) error {
	if _, err := s.Recompute(ctx, studentID); err != nil {
		return err
	}
	s.Invalidate(ctx, studentID)
	return nil
}
