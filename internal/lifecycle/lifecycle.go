package lifecycle

import (
	"sync/atomic"
	"time"
)

var drainingSince atomic.Int64 // unix nanos; 0 while serving

// SetShuttingDown sets or clears the shutdown flag. Call when SIGTERM/SIGINT received.
// Health handler returns 503 with status shutting-down while set.
func SetShuttingDown(v bool) {
	if !v {
		drainingSince.Store(0)
		return
	}
	drainingSince.CompareAndSwap(0, time.Now().UnixNano())
}

// IsShuttingDown returns true if the process is draining and should not receive new traffic.
func IsShuttingDown() bool {
	return drainingSince.Load() != 0
}

// ShutdownStarted returns when draining began, and false while serving.
func ShutdownStarted() (time.Time, bool) {
	ns := drainingSince.Load()
	if ns == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, ns), true
}
