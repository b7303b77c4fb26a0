package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-feed-service/internal/cache"
	"github.com/kjstillabower/weather-feed-service/internal/client"
	"github.com/kjstillabower/weather-feed-service/internal/models"
	"github.com/kjstillabower/weather-feed-service/internal/observability"
)

// ErrNoLocation is returned when a lookup omits the location and none was used before
// or configured as the default.
var ErrNoLocation = fmt.Errorf("%w: no location specified", client.ErrConfiguration)

// WeatherService is a read-through cache in front of the forecast feed. It remembers the
// last location asked for so callers may omit it on later calls, and keeps a copy of the
// last forecast returned.
type WeatherService struct {
	client          client.FeedClient
	cache           cache.Cache
	cacheName       string
	ttl             time.Duration
	defaultLocation string
	coalescer       *requestCoalescer // nil unless coalescing is enabled

	mu           sync.Mutex
	location     string
	lastForecast models.ForecastResult
	hasForecast  bool
}

// NewWeatherService creates a WeatherService. A nil cache disables caching: every lookup
// goes to the feed. defaultLocation is used when a call omits the location and no earlier
// call supplied one. coalesceEnabled and coalesceTimeout configure per-location request
// coalescing (disabled if timeout 0).
func NewWeatherService(feedClient client.FeedClient, c cache.Cache, ttl time.Duration, defaultLocation string, coalesceEnabled bool, coalesceTimeout time.Duration) *WeatherService {
	if c == nil {
		c = cache.NoopCache{}
	}
	var coalescer *requestCoalescer
	if coalesceEnabled && coalesceTimeout > 0 {
		coalescer = newRequestCoalescer(coalesceTimeout)
	}
	return &WeatherService{
		client:          feedClient,
		cache:           c,
		cacheName:       cache.Name(c),
		ttl:             ttl,
		defaultLocation: defaultLocation,
		coalescer:       coalescer,
	}
}

// loggerFromContext extracts a zap.Logger from request context if present.
// Returns nil if logger is not found or context is invalid.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// GetWeather returns the forecast for location. An empty location reuses the last one
// asked for, then the configured default; with neither it fails with ErrNoLocation.
// The location is used verbatim as the cache key. On a hit the cached forecast is
// returned without touching the feed; on a miss the feed is fetched once, parsed and
// cached for the TTL. Errors never produce a partial result or a cache entry.
func (s *WeatherService) GetWeather(ctx context.Context, location string) (models.ForecastResult, error) {
	loc, err := s.resolveLocation(location)
	if err != nil {
		observability.LookupErrorsTotal.WithLabelValues(string(client.CategorizeError(err))).Inc()
		return models.ForecastResult{}, err
	}

	result, err := s.lookup(ctx, loc)
	if err != nil {
		return models.ForecastResult{}, err
	}

	s.mu.Lock()
	s.lastForecast = result.Clone()
	s.hasForecast = true
	s.mu.Unlock()
	return result, nil
}

// Prefetch performs the same read-through lookup as GetWeather but leaves the last-used
// location and last forecast untouched. Used by the cache warmer.
func (s *WeatherService) Prefetch(ctx context.Context, location string) error {
	if isOmitted(location) {
		return ErrNoLocation
	}
	_, err := s.lookup(ctx, location)
	return err
}

// Location returns the last location used, or "" if none yet.
func (s *WeatherService) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

// LastForecast returns a copy of the most recent successful result.
func (s *WeatherService) LastForecast() (models.ForecastResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasForecast {
		return models.ForecastResult{}, false
	}
	return s.lastForecast.Clone(), true
}

// resolveLocation picks the effective location and records it as last used.
func (s *WeatherService) resolveLocation(location string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !isOmitted(location):
	case s.location != "":
		location = s.location
	case !isOmitted(s.defaultLocation):
		location = s.defaultLocation
	default:
		return "", ErrNoLocation
	}
	s.location = location
	return location, nil
}

// isOmitted treats blank input and "0" as no location, the way the feed client has
// always tested for an absent argument.
func isOmitted(location string) bool {
	location = strings.TrimSpace(location)
	return location == "" || location == "0"
}

func (s *WeatherService) lookup(ctx context.Context, key string) (models.ForecastResult, error) {
	start := time.Now()
	logger := loggerFromContext(ctx)
	observability.RecordLookup(key)

	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		observability.CacheErrorsTotal.WithLabelValues("get", categorizeCacheError(err)).Inc()
		if logger != nil {
			logger.Warn("cache get failed, treating as miss", zap.String("location", key), zap.Error(err))
		}
	} else if ok {
		observability.CacheHitsTotal.WithLabelValues(s.cacheName).Inc()
		if logger != nil {
			logger.Debug("weather served", zap.String("location", key), zap.Bool("cached", true), zap.Duration("duration", time.Since(start)))
		}
		return cached, nil
	}
	observability.CacheMissesTotal.WithLabelValues(s.cacheName).Inc()

	if logger != nil {
		logger.Debug("cache miss, fetching feed", zap.String("location", key))
	}

	var data models.ForecastResult
	var fetchErr error
	if s.coalescer != nil {
		// The shared fetch is detached from this caller so it still fills the cache when
		// every waiter has given up; the feed client's own timeout bounds it.
		detached := context.WithoutCancel(ctx)
		var shared bool
		data, shared, fetchErr = s.coalescer.GetOrDo(ctx, key, func() (models.ForecastResult, error) {
			return s.fetchAndStore(detached, key)
		})
		if shared {
			observability.CoalescedLookupsTotal.WithLabelValues(observability.MetricLocationLabel(key)).Inc()
		}
	} else {
		data, fetchErr = s.fetchAndStore(ctx, key)
	}
	if fetchErr != nil {
		observability.LookupErrorsTotal.WithLabelValues(string(client.CategorizeError(fetchErr))).Inc()
		if logger != nil {
			logger.Info("forecast lookup failed", zap.String("location", key), zap.Error(fetchErr))
		}
		return models.ForecastResult{}, fmt.Errorf("fetch weather for %s: %w", key, fetchErr)
	}

	if logger != nil {
		logger.Debug("weather served", zap.String("location", key), zap.Bool("cached", false), zap.Duration("duration", time.Since(start)))
	}
	return data, nil
}

// fetchAndStore fetches key from the feed and caches the result for the TTL. A failed
// Set is logged; the forecast is still returned.
func (s *WeatherService) fetchAndStore(ctx context.Context, key string) (models.ForecastResult, error) {
	data, err := s.client.FetchForecast(ctx, key)
	if err != nil {
		return models.ForecastResult{}, err
	}
	if setErr := s.cache.Set(ctx, key, data, s.ttl); setErr != nil {
		observability.CacheErrorsTotal.WithLabelValues("set", categorizeCacheError(setErr)).Inc()
		if logger := loggerFromContext(ctx); logger != nil {
			logger.Warn("cache set failed", zap.String("location", key), zap.Error(setErr))
		}
	}
	return data, nil
}

// categorizeCacheError returns a stable label for cache error metrics (timeout, connection, unknown).
func categorizeCacheError(err error) string {
	if err == nil {
		return "unknown"
	}
	errStr := err.Error()
	if strings.Contains(errStr, "timeout") {
		return "timeout"
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "network") {
		return "connection"
	}
	return "unknown"
}
