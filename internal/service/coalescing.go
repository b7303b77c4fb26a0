package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kjstillabower/weather-feed-service/internal/client"
	"github.com/kjstillabower/weather-feed-service/internal/models"
)

// inFlightRequest tracks a single feed fetch that multiple callers may wait for.
type inFlightRequest struct {
	done   chan struct{}
	result models.ForecastResult
	err    error
}

// requestCoalescer lets concurrent misses for the same location share one feed fetch.
type requestCoalescer struct {
	mu       sync.Mutex
	inFlight map[string]*inFlightRequest
	timeout  time.Duration
}

// newRequestCoalescer creates a new requestCoalescer with the specified timeout.
func newRequestCoalescer(timeout time.Duration) *requestCoalescer {
	return &requestCoalescer{
		inFlight: make(map[string]*inFlightRequest),
		timeout:  timeout,
	}
}

// GetOrDo runs fn for key unless a fetch for key is already in flight, in which case it
// waits for that fetch instead. shared reports whether the result came from another
// caller's fetch. Each caller gets its own copy of the result. Waiting is bounded by
// ctx and the coalescer timeout; giving up wraps client.ErrFetch and leaves fn running.
func (rc *requestCoalescer) GetOrDo(ctx context.Context, key string, fn func() (models.ForecastResult, error)) (result models.ForecastResult, shared bool, err error) {
	rc.mu.Lock()
	req, exists := rc.inFlight[key]
	if !exists {
		req = &inFlightRequest{done: make(chan struct{})}
		rc.inFlight[key] = req
		rc.mu.Unlock()

		go func() {
			res, err := fn()
			req.result = res
			req.err = err
			rc.cleanup(key)
			close(req.done)
		}()
	} else {
		rc.mu.Unlock()
	}

	waitCtx, cancel := context.WithTimeout(ctx, rc.timeout)
	defer cancel()
	select {
	case <-req.done:
		if req.err != nil {
			return models.ForecastResult{}, exists, req.err
		}
		return req.result.Clone(), exists, nil
	case <-waitCtx.Done():
		return models.ForecastResult{}, exists, fmt.Errorf("%w: coalesced wait: %w", client.ErrFetch, waitCtx.Err())
	}
}

// cleanup removes the in-flight request for key. Must be called after request completes.
func (rc *requestCoalescer) cleanup(key string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	delete(rc.inFlight, key)
}
