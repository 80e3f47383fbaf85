package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Generation(ctx context.Context, genKey string) (int64, error)
	SetIfGeneration(ctx context.Context, key, genKey string, gen int64, value interface{}, ttl time.Duration) (bool, error)
	Bump(ctx context.Context, genKey string) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService fronts the standing cache. A disabled or unreachable cache
// degrades to misses; callers fall back to recomputation.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get loads key into dest and reports whether it was a hit. Backend
// failures count as misses.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("standing cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false, nil
}

// Generation reads the counter guarding a cached value. ok is false when the
// cache is off or unreachable; callers then skip the write.
func (s *CacheService) Generation(ctx context.Context, genKey string) (int64, bool) {
	if !s.Enabled() {
		return 0, false
	}
	gen, err := s.repo.Generation(ctx, genKey)
	if err != nil {
		s.logger.Warn("standing cache generation read failed", zap.String("key", genKey), zap.Error(err))
		return 0, false
	}
	return gen, true
}

// SetIfGeneration stores value under key unless genKey moved past gen since it
// was read. Failures are logged and dropped.
func (s *CacheService) SetIfGeneration(ctx context.Context, key, genKey string, gen int64, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	stored, err := s.repo.SetIfGeneration(ctx, key, genKey, gen, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	switch {
	case err != nil:
		s.logger.Warn("standing cache write failed", zap.String("key", key), zap.Error(err))
	case !stored:
		s.logger.Debug("standing cache write skipped after invalidation", zap.String("key", key))
	}
	return nil
}

// Bump advances genKey so in-flight writes that read the old value are dropped.
func (s *CacheService) Bump(ctx context.Context, genKey string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.Bump(ctx, genKey); err != nil {
		s.logger.Warn("standing cache generation bump failed", zap.String("key", genKey), zap.Error(err))
		return err
	}
	return nil
}

// Delete drops the given keys.
func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.Delete(ctx, keys...); err != nil {
		s.logger.Warn("standing cache delete failed", zap.Strings("keys", keys), zap.Error(err))
		return err
	}
	return nil
}

// FlushStandings drops every cached standing. Run at startup so entries
// written under an older grade scale or schema are not served.
func (s *CacheService) FlushStandings(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, StandingCacheKey("*")); err != nil {
		s.logger.Warn("standing cache flush failed", zap.Error(err))
		return err
	}
	return nil
}
