package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/kwhalen/slate/internal/domain"
)

// RefreshIntervals selects how often the background refresh fires for
// each link quality class. Worse links refresh less often.
type RefreshIntervals struct {
	Base        time.Duration
	Metered     time.Duration
	Constrained time.Duration
}

// AutoRefresher periodically re-fetches page one of every collection.
// When the client is offline, signed out, or running on sample data it
// skips the cycle instead of queueing work for later.
type AutoRefresher struct {
	mu      sync.Mutex
	stop    chan struct{}
	running bool

	monitor   domain.NetworkMonitor
	intervals RefreshIntervals
	gate      func() bool
	refresh   func()
	logger    *slog.Logger
}

func NewAutoRefresher(monitor domain.NetworkMonitor, intervals RefreshIntervals, gate func() bool, refresh func(), logger *slog.Logger) *AutoRefresher {
	if intervals.Base <= 0 {
		intervals.Base = DefaultBaseInterval
	}
	if intervals.Metered <= 0 {
		intervals.Metered = DefaultMeteredInterval
	}
	if intervals.Constrained <= 0 {
		intervals.Constrained = DefaultConstrainedInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoRefresher{
		monitor:   monitor,
		intervals: intervals,
		gate:      gate,
		refresh:   refresh,
		logger:    logger,
	}
}

// Start launches the refresh loop. A loop already running is stopped
// first, so Start always leaves exactly one live loop.
func (r *AutoRefresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		close(r.stop)
	}
	r.stop = make(chan struct{})
	r.running = true
	go r.loop(r.stop)
	r.logger.Debug("auto refresh started", "interval", r.interval())
}

// Stop halts the loop. Calling Stop on a stopped refresher is a no-op.
func (r *AutoRefresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	close(r.stop)
	r.running = false
	r.logger.Debug("auto refresh stopped")
}

// Running reports whether the loop is live
func (r *AutoRefresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *AutoRefresher) loop(stop chan struct{}) {
	ticker := time.NewTicker(r.interval())
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.tick()
			// Link quality may have shifted the interval class
			ticker.Reset(r.interval())
		}
	}
}

func (r *AutoRefresher) tick() {
	if !r.monitor.Quality().Connected {
		r.logger.Debug("auto refresh skipped", "reason", "offline")
		return
	}
	if !r.gate() {
		r.logger.Debug("auto refresh skipped", "reason", "gated")
		return
	}
	r.refresh()
}

func (r *AutoRefresher) interval() time.Duration {
	q := r.monitor.Quality()
	switch {
	case q.Constrained:
		return r.intervals.Constrained
	case q.Metered:
		return r.intervals.Metered
	default:
		return r.intervals.Base
	}
}
