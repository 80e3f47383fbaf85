package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/academic-workflow-api/pkg/errors"
)

const scanPageSize = 200

// CacheRepository stores JSON encoded standings in Redis. A nil client behaves as
// an empty cache.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger}
}

// Get decodes the value stored at key into dest. Missing keys return ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}

	return nil
}

// Generation returns the counter stored at genKey. A missing counter is zero.
func (r *CacheRepository) Generation(ctx context.Context, genKey string) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	gen, err := r.client.Get(ctx, genKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("redis get %s: %w", genKey, err)
	}
	return gen, nil
}

// SetIfGeneration stores value as JSON only while genKey still holds gen. It
// reports whether the value was written; a concurrent Bump makes it a no-op.
func (r *CacheRepository) SetIfGeneration(ctx context.Context, key, genKey string, gen int64, value interface{}, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	stored := false
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, ttl)
			return nil
		})
		stored = err == nil
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis set %s: %w", key, err)
	}
	return stored, nil
}

// Bump advances the counter at genKey, voiding writes that read the old value.
func (r *CacheRepository) Bump(ctx context.Context, genKey string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Incr(ctx, genKey).Err(); err != nil {
		return fmt.Errorf("redis incr %s: %w", genKey, err)
	}
	return nil
}

// Delete removes keys without blocking the server on large values.
func (r *CacheRepository) Delete(ctx context.Context, keys ...string) error {
	if r.client == nil || len(keys) == 0 {
		return nil
	}
	if err := r.client.Unlink(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis unlink %v: %w", keys, err)
	}
	return nil
}

// DeleteByPattern removes every key matching pattern, one scan page per round trip.
func (r *CacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.client == nil {
		return nil
	}

	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, scanPageSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := r.client.Unlink(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis unlink %s: %w", pattern, err)
			}
			removed += len(keys)
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	r.logger.Debug("cache pattern invalidated", zap.String("pattern", pattern), zap.Int("keys", removed))
	return nil
}
