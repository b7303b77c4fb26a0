package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kjstillabower/weather-feed-service/internal/feed"
	"github.com/kjstillabower/weather-feed-service/internal/models"
	"github.com/kjstillabower/weather-feed-service/internal/observability"
)

// FeedClient fetches and parses the forecast feed for one location.
type FeedClient interface {
	FetchForecast(ctx context.Context, location string) (models.ForecastResult, error)
}

// ErrFetch wraps transport failures and non-2xx responses from the feed host.
var ErrFetch = errors.New("fetch feed")

const (
	DefaultHost = "www.google.co.uk"
	DefaultPath = "/ig/api?weather="

	maxBodyBytes = 1 << 20
)

// GoogleWeatherClient requests the XML weather feed over plain HTTP.
// No retries: every failure is returned to the caller as-is.
type GoogleWeatherClient struct {
	host    string
	path    string
	timeout time.Duration
	client  *http.Client
}

// NewGoogleWeatherClient returns a client for host and path. Empty path uses DefaultPath;
// a zero timeout leaves the transport default in place.
func NewGoogleWeatherClient(host, path string, timeout time.Duration) (*GoogleWeatherClient, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, fmt.Errorf("feed host is required")
	}
	if path == "" {
		path = DefaultPath
	}
	return &GoogleWeatherClient{
		host:    host,
		path:    path,
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// BuildURL returns http://{host}{path}{location}, with the location query-escaped.
func (c *GoogleWeatherClient) BuildURL(location string) string {
	return "http://" + c.host + c.path + url.QueryEscape(location)
}

// FetchForecast performs one GET against the feed and parses the body.
// Errors wrap ErrFetch, feed.ErrParse or feed.ErrProvider.
func (c *GoogleWeatherClient) FetchForecast(ctx context.Context, location string) (models.ForecastResult, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BuildURL(location), nil)
	if err != nil {
		observability.FeedCallsTotal.WithLabelValues("error").Inc()
		return models.ForecastResult{}, fmt.Errorf("%w: build request: %v", ErrFetch, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.FeedCallsTotal.WithLabelValues("error").Inc()
		observability.FeedDuration.WithLabelValues("error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return models.ForecastResult{}, fmt.Errorf("%w: request timeout: %w", ErrFetch, err)
		}
		return models.ForecastResult{}, fmt.Errorf("%w: http request failed: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.FeedCallsTotal.WithLabelValues(status).Inc()
	observability.FeedDuration.WithLabelValues(status).Observe(duration)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.ForecastResult{}, fmt.Errorf("%w: HTTP %d", ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return models.ForecastResult{}, fmt.Errorf("%w: read response body: %w", ErrFetch, err)
	}

	result, err := feed.Parse(body)
	if err != nil {
		return models.ForecastResult{}, err
	}
	result.Location = location
	result.FetchedAt = time.Now()
	return result, nil
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
