package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-feed-service/internal/observability"
)

// NewRouter wires the handler routes. Only /weather routes carry the request timeout.
func NewRouter(h *Handler, logger *zap.Logger, requestTimeout time.Duration) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	weather := router.PathPrefix("/weather").Subrouter()
	weather.Use(TimeoutMiddleware(requestTimeout))
	weather.HandleFunc("", h.GetWeatherOmitted).Methods(http.MethodGet)
	weather.HandleFunc("/{location}", h.GetWeather).Methods(http.MethodGet)

	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)
	return router
}
