package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/kjstillabower/weather-feed-service/internal/models"
)

const (
	keyPrefix = "forecast:"

	// memcached rejects keys longer than this.
	maxKeyLen = 250
)

// MemcachedCache implements Cache using memcached. Values are JSON-encoded forecasts;
// expiry is delegated to memcached.
type MemcachedCache struct {
	client *memcache.Client
}

// NewMemcachedCache creates a MemcachedCache. addrs is a comma-separated list
// (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and maxIdleConns
// configure the client; both use package defaults if zero.
func NewMemcachedCache(addrs string, timeout time.Duration, maxIdleConns int) (*MemcachedCache, error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &MemcachedCache{client: client}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// key maps a raw location to a memcached-safe key. Locations contain spaces and
// arbitrary UTF-8, so they are hex-encoded; distinct raw strings (case included) stay
// distinct. Overlong keys fall back to a SHA-256 digest.
func key(k string) string {
	enc := keyPrefix + hex.EncodeToString([]byte(k))
	if len(enc) <= maxKeyLen {
		return enc
	}
	sum := sha256.Sum256([]byte(k))
	return keyPrefix + "sha256:" + hex.EncodeToString(sum[:])
}

// Get implements Cache.Get. Returns false, nil on cache miss; false, err on error.
func (c *MemcachedCache) Get(ctx context.Context, k string) (models.ForecastResult, bool, error) {
	if ctx.Err() != nil {
		return models.ForecastResult{}, false, ctx.Err()
	}
	item, err := c.client.Get(key(k))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return models.ForecastResult{}, false, nil
		}
		return models.ForecastResult{}, false, err
	}
	var data models.ForecastResult
	if err := json.Unmarshal(item.Value, &data); err != nil {
		return models.ForecastResult{}, false, err
	}
	return data, true, nil
}

// Set implements Cache.Set. A non-positive TTL stores nothing.
func (c *MemcachedCache) Set(ctx context.Context, k string, value models.ForecastResult, ttl time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(&memcache.Item{
		Key:        key(k),
		Value:      raw,
		Expiration: expirationSeconds(ttl),
	})
}

// expirationSeconds converts a positive ttl to memcached's relative expiry. Sub-second TTLs
// round up to 1s (0 would mean "never expire"); values past the 30-day relative limit fall
// back to 1h.
func expirationSeconds(ttl time.Duration) int32 {
	const maxRelativeExp = 30 * 24 * 60 * 60 // 30 days
	if ttl <= 0 {
		return 3600
	}
	secs := int64((ttl + time.Second - 1) / time.Second)
	if secs > maxRelativeExp {
		return 3600
	}
	return int32(secs)
}

// Ping checks if memcached is reachable. Used for health checks.
func (c *MemcachedCache) Ping() error {
	return c.client.Ping()
}

// Close closes the memcached client connections. Call during shutdown.
func (c *MemcachedCache) Close() error {
	return c.client.Close()
}
