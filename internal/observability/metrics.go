package observability

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight.
	HTTPRequestsInFlight prometheus.Gauge

	// Feed fetches by outcome. Every cache miss produces exactly one fetch.
	FeedCallsTotal *prometheus.CounterVec

	// Feed fetch latency. Watch for: p95 creeping towards the feed timeout.
	FeedDuration *prometheus.HistogramVec

	// Cache hits and misses by backend. Hit rate = hits/(hits+misses).
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Cache backend errors by operation (get, set) and category. Errors never fail a lookup.
	CacheErrorsTotal *prometheus.CounterVec

	// Total forecast lookups, hits and misses alike.
	ForecastLookupsTotal prometheus.Counter

	// Per-location lookup count (allow-list; others go to "other").
	ForecastLookupsByLocationTotal *prometheus.CounterVec

	// Failed lookups by error category (fetch, parsing, provider, configuration, ...).
	LookupErrorsTotal *prometheus.CounterVec

	// Lookups served by waiting on another caller's in-flight fetch.
	CoalescedLookupsTotal *prometheus.CounterVec

	// Cache warming runs, failed runs and run duration.
	CacheWarmingTotal           prometheus.Counter
	CacheWarmingErrorsTotal     prometheus.Counter
	CacheWarmingDurationSeconds prometheus.Histogram

	trackedLocationsMu sync.RWMutex
	trackedLocations   map[string]struct{}
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	FeedCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedCallsTotal",
			Help: "Total number of weather feed fetches",
		},
		[]string{"status"},
	)
	FeedDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedDurationSeconds",
			Help:    "Weather feed fetch latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of forecast cache hits",
		},
		[]string{"cacheType"},
	)
	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheMissesTotal",
			Help: "Total number of forecast cache misses (absent or expired)",
		},
		[]string{"cacheType"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Cache backend errors by operation and category",
		},
		[]string{"operation", "category"},
	)
	ForecastLookupsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "forecastLookupsTotal",
			Help: "Total number of forecast lookups",
		},
	)
	ForecastLookupsByLocationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastLookupsByLocationTotal",
			Help: "Forecast lookups by location (allow-list; others use location=other)",
		},
		[]string{"location"},
	)
	LookupErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookupErrorsTotal",
			Help: "Failed forecast lookups by error category",
		},
		[]string{"category"},
	)
	CoalescedLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coalescedLookupsTotal",
			Help: "Lookups that shared another caller's in-flight feed fetch",
		},
		[]string{"location"},
	)
	CacheWarmingTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheWarmingTotal",
			Help: "Total number of cache warming runs",
		},
	)
	CacheWarmingErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheWarmingErrorsTotal",
			Help: "Cache warming runs with at least one failed location",
		},
	)
	CacheWarmingDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cacheWarmingDurationSeconds",
			Help:    "Duration of cache warming runs in seconds",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30},
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		FeedCallsTotal, FeedDuration,
		CacheHitsTotal, CacheMissesTotal, CacheErrorsTotal,
		ForecastLookupsTotal, ForecastLookupsByLocationTotal, LookupErrorsTotal,
		CoalescedLookupsTotal,
		CacheWarmingTotal, CacheWarmingErrorsTotal, CacheWarmingDurationSeconds,
	)
}

// SetTrackedLocations sets the allow-list for location metrics. Non-tracked locations increment "other".
func SetTrackedLocations(locations []string) {
	trackedLocationsMu.Lock()
	defer trackedLocationsMu.Unlock()
	trackedLocations = make(map[string]struct{}, len(locations))
	for _, loc := range locations {
		trackedLocations[normalizeLocationForMetrics(loc)] = struct{}{}
	}
}

// MetricLocationLabel returns the label value for location: the normalized name when
// allow-listed, otherwise "other". Keeps label cardinality bounded.
func MetricLocationLabel(location string) string {
	loc := normalizeLocationForMetrics(location)
	trackedLocationsMu.RLock()
	_, ok := trackedLocations[loc] // nil map read is safe in Go
	trackedLocationsMu.RUnlock()
	if ok {
		return loc
	}
	return "other"
}

// RecordLookup records a forecast lookup for the given location.
func RecordLookup(location string) {
	ForecastLookupsTotal.Inc()
	ForecastLookupsByLocationTotal.WithLabelValues(MetricLocationLabel(location)).Inc()
}

// normalizeLocationForMetrics folds case for labels only; cache keys stay case-sensitive.
func normalizeLocationForMetrics(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
