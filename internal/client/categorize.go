package client

import (
	"context"
	"errors"
	"strings"

	"github.com/kjstillabower/weather-feed-service/internal/feed"
)

// ErrorCategory is a stable label for error classification in metrics.
type ErrorCategory string

// Error category constants used as metric labels (lookupErrorsTotal).
const (
	ErrorCategoryTimeout       ErrorCategory = "timeout"
	ErrorCategoryNetwork       ErrorCategory = "network"
	ErrorCategoryFetch         ErrorCategory = "fetch"
	ErrorCategoryParsing       ErrorCategory = "parsing"
	ErrorCategoryProvider      ErrorCategory = "provider"
	ErrorCategoryConfiguration ErrorCategory = "configuration"
	ErrorCategoryCache         ErrorCategory = "cache"
	ErrorCategoryUnknown       ErrorCategory = "unknown"
)

// ErrConfiguration marks errors caused by missing caller or service configuration.
// Packages above client wrap it so CategorizeError can recognise them.
var ErrConfiguration = errors.New("configuration")

// CategorizeError maps an error to a stable ErrorCategory for metrics.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCategoryTimeout
	}
	if errors.Is(err, feed.ErrProvider) {
		return ErrorCategoryProvider
	}
	if errors.Is(err, feed.ErrParse) {
		return ErrorCategoryParsing
	}
	if errors.Is(err, ErrConfiguration) {
		return ErrorCategoryConfiguration
	}

	errStr := err.Error()
	if errors.Is(err, ErrFetch) {
		if strings.Contains(errStr, "timeout") {
			return ErrorCategoryTimeout
		}
		if strings.Contains(errStr, "connection") || strings.Contains(errStr, "no such host") {
			return ErrorCategoryNetwork
		}
		return ErrorCategoryFetch
	}

	if strings.Contains(errStr, "cache") {
		return ErrorCategoryCache
	}

	return ErrorCategoryUnknown
}
