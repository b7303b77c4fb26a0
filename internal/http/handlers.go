package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-feed-service/internal/client"
	"github.com/kjstillabower/weather-feed-service/internal/feed"
	"github.com/kjstillabower/weather-feed-service/internal/lifecycle"
	"github.com/kjstillabower/weather-feed-service/internal/service"
	"github.com/kjstillabower/weather-feed-service/internal/traffic"
	"github.com/kjstillabower/weather-feed-service/internal/validation"
)

// HealthConfig holds thresholds for the health handler.
type HealthConfig struct {
	DegradedWindow   time.Duration
	DegradedErrorPct int
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached.
	CachePing func() error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	weatherService    *service.WeatherService
	healthConfig      *HealthConfig
	logger            *zap.Logger
	locationMinLength int
	locationMaxLength int

	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. minLen and maxLen bound location length in runes;
// zero disables a bound.
func NewHandler(weatherService *service.WeatherService, healthConfig *HealthConfig, logger *zap.Logger, minLen, maxLen int) *Handler {
	return &Handler{
		weatherService:    weatherService,
		healthConfig:      healthConfig,
		logger:            logger,
		locationMinLength: minLen,
		locationMaxLength: maxLen,
	}
}

// GetWeather handles GET /weather/{location}.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	location, err := validation.ValidateLocation(mux.Vars(r)["location"], h.locationMinLength, h.locationMaxLength)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_LOCATION", err.Error())
		return
	}
	h.serveForecast(w, r, location)
}

// GetWeatherOmitted handles GET /weather. The service falls back to the last location
// asked for, then to the configured default.
func (h *Handler) GetWeatherOmitted(w http.ResponseWriter, r *http.Request) {
	h.serveForecast(w, r, "")
}

func (h *Handler) serveForecast(w http.ResponseWriter, r *http.Request, location string) {
	result, err := h.weatherService.GetWeather(r.Context(), location)
	if err != nil {
		if isUpstreamFailure(err) {
			traffic.RecordError()
		}
		writeServiceError(w, r, err)
		return
	}
	traffic.RecordSuccess()
	writeJSON(w, http.StatusOK, result)
}

// isUpstreamFailure reports whether err counts against feed health. Caller mistakes and
// locations the provider does not recognise do not.
func isUpstreamFailure(err error) bool {
	switch client.CategorizeError(err) {
	case client.ErrorCategoryConfiguration, client.ErrorCategoryProvider:
		return false
	}
	return true
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result, checks := h.computeHealthStatus(r.Context())

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "weather-feed-service",
		"version":   "dev",
		"checks":    checks,
		"location":  h.weatherService.Location(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if since, ok := lifecycle.ShutdownStarted(); ok {
		resp["shuttingDownSince"] = since.UTC().Format(time.RFC3339)
	}
	writeJSON(w, result.statusCode, resp)
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > cache unreachable > feed error rate > healthy.
func (h *Handler) computeHealthStatus(ctx context.Context) (healthResult, map[string]string) {
	checks := map[string]string{"feed": "healthy"}

	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}, checks
	}
	if h.healthConfig == nil {
		return healthResult{"healthy", http.StatusOK, ""}, checks
	}

	if h.healthConfig.CachePing != nil {
		if err := h.healthConfig.CachePing(); err != nil {
			checks["cache"] = "unhealthy"
			if logger := loggerFromContext(ctx); logger != nil {
				logger.Debug("cache ping failed", zap.Error(err))
			}
			return healthResult{"degraded", http.StatusServiceUnavailable, "cache_unreachable"}, checks
		}
		checks["cache"] = "healthy"
	}

	if h.healthConfig.DegradedWindow > 0 && h.healthConfig.DegradedErrorPct > 0 {
		errs, total := traffic.ErrorRate(h.healthConfig.DegradedWindow)
		if total > 0 && errs*100 >= h.healthConfig.DegradedErrorPct*total {
			checks["feed"] = "unhealthy"
			return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}, checks
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}, checks
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID, _ := r.Context().Value("correlation_id").(string)
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

// errorResponse maps a lookup error to status, code and client-facing message.
func errorResponse(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrNoLocation):
		return http.StatusBadRequest, "NO_LOCATION", "no location given and none used before"
	case errors.Is(err, validation.ErrInvalidLocation):
		return http.StatusBadRequest, "INVALID_LOCATION", err.Error()
	case errors.Is(err, feed.ErrProvider):
		return http.StatusNotFound, "LOCATION_NOT_RECOGNISED", "the weather feed does not recognise this location"
	case errors.Is(err, feed.ErrParse):
		return http.StatusBadGateway, "BAD_FEED", "the weather feed returned an unreadable document"
	default:
		return http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Unable to fetch weather data"
	}
}

// writeServiceError writes the mapped error response and logs the underlying error at
// DEBUG level if a logger is available in request context.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := errorResponse(err)
	writeError(w, r, status, code, message)
	if logger := loggerFromContext(r.Context()); logger != nil {
		logger.Debug("lookup error", zap.String("code", code), zap.Error(err))
	}
}

func loggerFromContext(ctx context.Context) *zap.Logger {
	logger, _ := ctx.Value("logger").(*zap.Logger)
	return logger
}
