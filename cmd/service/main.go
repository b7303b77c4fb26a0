package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-feed-service/internal/cache"
	"github.com/kjstillabower/weather-feed-service/internal/client"
	"github.com/kjstillabower/weather-feed-service/internal/config"
	httphandler "github.com/kjstillabower/weather-feed-service/internal/http"
	"github.com/kjstillabower/weather-feed-service/internal/lifecycle"
	"github.com/kjstillabower/weather-feed-service/internal/observability"
	"github.com/kjstillabower/weather-feed-service/internal/service"
)

// app is the wired service: everything main starts and stops.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	server  *http.Server
	service *service.WeatherService
	cache   cache.Cache
	warmer  *cache.CacheWarmer // nil unless warming is enabled
}

// newApp builds the feed client, cache backend, weather service and router from cfg.
func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	feedClient, err := client.NewGoogleWeatherClient(cfg.FeedHost, cfg.FeedPath, cfg.FeedTimeout)
	if err != nil {
		return nil, fmt.Errorf("feed client: %w", err)
	}

	cacheSvc, err := cache.New(cache.Options{
		Backend:               cfg.CacheBackend,
		MemcachedAddrs:        cfg.MemcachedAddrs,
		MemcachedTimeout:      cfg.MemcachedTimeout,
		MemcachedMaxIdleConns: cfg.MemcachedMaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	logger.Info("cache backend", zap.String("backend", cache.Name(cacheSvc)), zap.Duration("ttl", cfg.CacheTTL))

	weatherService := service.NewWeatherService(feedClient, cacheSvc, cfg.CacheTTL, cfg.DefaultLocation, cfg.CoalesceEnabled, cfg.CoalesceTimeout)

	healthConfig := &httphandler.HealthConfig{
		DegradedWindow:   cfg.DegradedWindow,
		DegradedErrorPct: cfg.DegradedErrorPct,
	}
	if mc, ok := cacheSvc.(*cache.MemcachedCache); ok {
		healthConfig.CachePing = mc.Ping
	}

	if len(cfg.TrackedLocations) > 0 {
		observability.SetTrackedLocations(cfg.TrackedLocations)
	}

	handler := httphandler.NewHandler(weatherService, healthConfig, logger, cfg.LocationMinLength, cfg.LocationMaxLength)
	router := httphandler.NewRouter(handler, logger, cfg.RequestTimeout)

	a := &app{
		cfg:     cfg,
		logger:  logger,
		service: weatherService,
		cache:   cacheSvc,
		server: &http.Server{
			Addr:         ":" + cfg.ServerPort,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		},
	}
	if cfg.WarmCache {
		a.warmer = cache.NewCacheWarmer(weatherService, logger)
	}
	return a, nil
}

// startWarming prefetches tracked locations once and, with an interval, keeps refreshing
// them until ctx is done.
func (a *app) startWarming(ctx context.Context) {
	if a.warmer == nil {
		return
	}
	if a.cfg.WarmInterval <= 0 {
		warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := a.warmer.Warm(warmCtx, a.cfg.TrackedLocations); err != nil {
			a.logger.Warn("cache warming failed", zap.Error(err))
		}
		return
	}
	go func() {
		if err := a.warmer.WarmPeriodic(ctx, a.cfg.TrackedLocations, a.cfg.WarmInterval); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("periodic cache warming stopped", zap.Error(err))
		}
	}()
}

// shutdown drains the server and in-flight requests, then releases the cache.
func (a *app) shutdown() {
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown", zap.Error(err))
	}

	a.logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
	if err := httphandler.WaitForInFlight(shutdownCtx, 50*time.Millisecond); err != nil {
		a.logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if mc, ok := a.cache.(*cache.MemcachedCache); ok {
		if err := mc.Close(); err != nil {
			a.logger.Error("memcached close", zap.Error(err))
		}
	}
}

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Fatal("startup", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.startWarming(ctx)

	go func() {
		logger.Info("server starting",
			zap.String("addr", a.server.Addr),
			zap.String("feed_host", cfg.FeedHost),
			zap.String("default_location", cfg.DefaultLocation))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	a.shutdown()

	if err := observability.FlushTelemetry(logger); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry flush: %v\n", err)
	}
	logger.Info("shutdown complete")
}
