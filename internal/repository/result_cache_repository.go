package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-search-api/internal/models"
	appErrors "github.com/noah-isme/timetable-search-api/pkg/errors"
)

const resultCachePrefix = "search:results:"

// ResultCacheRepository caches scan snapshots in Redis keyed by the
// normalized query plus filter tuple. Cached snapshots are immutable.
type ResultCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewResultCacheRepository constructs a result cache repository.
func NewResultCacheRepository(client *redis.Client, logger *zap.Logger) *ResultCacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultCacheRepository{client: client, logger: logger}
}

// Key renders the cache key for a query and filter tuple.
func (r *ResultCacheRepository) Key(query string, filters models.FilterSet) string {
	return resultCachePrefix + query + "|" + filters.CacheKey()
}

// Get retrieves a cached result set.
func (r *ResultCacheRepository) Get(ctx context.Context, key string) (*models.ResultSet, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var results models.ResultSet
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, fmt.Errorf("unmarshal cached results for %s: %w", key, err)
	}
	return &results, nil
}

// Set stores a result set with the given TTL.
func (r *ResultCacheRepository) Set(ctx context.Context, key string, results models.ResultSet, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Invalidate removes every cached result snapshot, used when the timetable
// is reloaded.
func (r *ResultCacheRepository) Invalidate(ctx context.Context) error {
	if r.client == nil {
		return nil
	}

	iter := r.client.Scan(ctx, 0, resultCachePrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan result cache: %w", err)
	}
	return nil
}
