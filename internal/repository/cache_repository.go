package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/lgdark7/timetable/pkg/errors"
)

const cacheScanBatch = 100

// CacheRepository stores rendered timetable views in Redis under a common namespace.
type CacheRepository struct {
	client    *redis.Client
	namespace string
	logger    *zap.Logger
}

// NewCacheRepository constructs a cache repository. Keys are prefixed with namespace when set.
func NewCacheRepository(client *redis.Client, namespace string, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, namespace: namespace, logger: logger}
}

func (r *CacheRepository) key(key string) string {
	if r.namespace == "" {
		return key
	}
	return r.namespace + ":" + key
}

// Get retrieves and unmarshals the cached value into dest.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
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

// Set marshals value and stores it with the given TTL.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, r.key(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// DeleteByPattern removes cached entries matching pattern, batching deletes per scan page.
func (r *CacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.client == nil {
		return nil
	}

	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.key(pattern), cacheScanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan pattern %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete pattern %s: %w", pattern, err)
			}
			removed += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	r.logger.Debug("cache keys removed", zap.String("pattern", pattern), zap.Int("count", removed))
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
