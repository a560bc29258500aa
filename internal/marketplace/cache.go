package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is how long cached listings stay fresh.
const DefaultCacheTTL = 10 * time.Minute

const cachePrefix = "cardscan:listings:"

// Cache stores serialized listings by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis server at rawURL and verifies it
// responds.
func NewRedisCache(ctx context.Context, rawURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisCache{client: client}, nil
}

// Get returns the value for key; ok is false on a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores value under key for ttl.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachedSearcher serves repeated queries from a Cache. Cache errors are
// logged and never fail a search; failed searches are not cached.
type CachedSearcher struct {
	next   Searcher
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedSearcher wraps next with cache. A non-positive ttl means
// DefaultCacheTTL.
func NewCachedSearcher(next Searcher, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedSearcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSearcher{next: next, cache: cache, ttl: ttl, logger: logger}
}

// CacheKey returns the cache key for a query and limit. Queries differing
// only in case or whitespace share a key.
func CacheKey(query string, limit int) string {
	return fmt.Sprintf("%s%d:%s", cachePrefix, normalizeLimit(limit), strings.ToLower(normalizeQuery(query)))
}

// Search returns cached listings when present, otherwise delegates and
// caches the result.
func (s *CachedSearcher) Search(ctx context.Context, query string, limit int) ([]Listing, error) {
	key := CacheKey(query, limit)

	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("listing cache read failed", "key", key, "err", err)
	} else if ok {
		var listings []Listing
		if err := json.Unmarshal(data, &listings); err == nil {
			s.logger.Debug("listing cache hit", "key", key)
			return listings, nil
		}
		s.logger.Warn("discarding corrupt cache entry", "key", key)
	}

	listings, err := s.next.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(listings)
	if err == nil {
		err = s.cache.Set(ctx, key, data, s.ttl)
	}
	if err != nil {
		s.logger.Warn("listing cache write failed", "key", key, "err", err)
	}
	return listings, nil
}
