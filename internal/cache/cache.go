package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kjstillabower/weather-feed-service/internal/models"
)

// Cache stores parsed forecasts by raw location key. Get returns (zero, false, nil) for
// absent or expired entries; expiry is entirely the implementation's concern.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (models.ForecastResult, bool, error)
	Set(ctx context.Context, key string, value models.ForecastResult, ttl time.Duration) error
}

// Backend names accepted by New.
const (
	BackendNone      = "none"
	BackendInMemory  = "in_memory"
	BackendMemcached = "memcached"
)

// Options selects and configures a cache backend.
type Options struct {
	Backend               string
	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int
}

// New returns the backend named by opts.Backend. An empty backend means no caching.
func New(opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendNone:
		return NoopCache{}, nil
	case BackendInMemory:
		return NewInMemoryCache(), nil
	case BackendMemcached:
		return NewMemcachedCache(opts.MemcachedAddrs, opts.MemcachedTimeout, opts.MemcachedMaxIdleConns)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

// Name returns the backend name of c for logs and metric labels.
func Name(c Cache) string {
	switch c.(type) {
	case nil, NoopCache, *NoopCache:
		return BackendNone
	case *InMemoryCache:
		return BackendInMemory
	case *MemcachedCache:
		return BackendMemcached
	default:
		return "custom"
	}
}

// NoopCache never stores anything: every Get misses and every Set is discarded.
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, key string) (models.ForecastResult, bool, error) {
	return models.ForecastResult{}, false, nil
}

func (NoopCache) Set(ctx context.Context, key string, value models.ForecastResult, ttl time.Duration) error {
	return nil
}

// InMemoryCache implements Cache using an in-memory map with TTL-based expiration.
// Expired entries are removed on access. Values are deep-copied in and out so callers
// never share nested maps with the cache.
type InMemoryCache struct {
	mu   sync.Mutex
	data map[string]cacheEntry
	now  func() time.Time
}

// cacheEntry stores a cached forecast with its expiration timestamp.
type cacheEntry struct {
	value     models.ForecastResult
	expiresAt time.Time
}

// NewInMemoryCache creates a new in-memory cache instance.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		data: make(map[string]cacheEntry),
		now:  time.Now,
	}
}

// Get retrieves the cached forecast for key if present and not expired.
// Returns (data, true, nil) on cache hit, (zero, false, nil) on miss or expiration.
func (c *InMemoryCache) Get(ctx context.Context, key string) (models.ForecastResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return models.ForecastResult{}, false, nil
	}

	if !c.now().Before(entry.expiresAt) {
		delete(c.data, key)
		return models.ForecastResult{}, false, nil
	}

	return entry.value.Clone(), true, nil
}

// Set stores the forecast with the specified TTL. A non-positive TTL stores nothing.
func (c *InMemoryCache) Set(ctx context.Context, key string, value models.ForecastResult, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = cacheEntry{
		value:     value.Clone(),
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Len returns the number of stored entries, expired ones included until next access.
func (c *InMemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
