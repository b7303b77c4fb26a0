// Package traffic keeps a sliding window of forecast lookup outcomes. The health handler
// reads the error rate from it to decide whether the feed is degraded.
package traffic

import (
	"sync"
	"time"
)

// retention bounds memory; windows longer than this see only the retained outcomes.
const retention = 10 * time.Minute

var defaultTracker = NewTracker()

// RecordSuccess records a lookup that returned a forecast.
func RecordSuccess() {
	defaultTracker.RecordSuccess()
}

// RecordError records a lookup that failed upstream (fetch, parse, timeout).
func RecordError() {
	defaultTracker.RecordError()
}

// ErrorRate returns (errorCount, totalCount) within the window.
func ErrorRate(window time.Duration) (errors, total int) {
	return defaultTracker.ErrorRate(window)
}

// Reset clears all recorded outcomes. For tests only.
func Reset() {
	defaultTracker.Reset()
}

type outcome struct {
	at     time.Time
	failed bool
}

// Tracker records timestamped lookup outcomes in arrival order.
type Tracker struct {
	mu       sync.Mutex
	outcomes []outcome
	now      func() time.Time
}

// NewTracker returns an empty Tracker using the wall clock.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

func (t *Tracker) RecordSuccess() { t.record(false) }

func (t *Tracker) RecordError() { t.record(true) }

func (t *Tracker) record(failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.outcomes = append(t.outcomes, outcome{at: now, failed: failed})
	t.pruneLocked(now)
}

// ErrorRate returns (errorCount, totalCount) of outcomes not older than window.
func (t *Tracker) ErrorRate(window time.Duration) (errors, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-window)
	for i := len(t.outcomes) - 1; i >= 0; i-- {
		o := t.outcomes[i]
		if o.at.Before(cutoff) {
			break
		}
		total++
		if o.failed {
			errors++
		}
	}
	return errors, total
}

// Reset clears all recorded outcomes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcomes = nil
}

// pruneLocked drops outcomes older than retention. Must be called with mu held.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-retention)
	i := 0
	for i < len(t.outcomes) && t.outcomes[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		t.outcomes = append(t.outcomes[:0], t.outcomes[i:]...)
	}
}
