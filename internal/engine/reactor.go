package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/kwhalen/slate/internal/domain"
)

// ReconnectWatcher polls link quality and fires exactly once per
// offline-to-online transition. Staying online never re-fires; the
// periodic refresher owns steady-state work.
type ReconnectWatcher struct {
	mu      sync.Mutex
	stop    chan struct{}
	running bool

	monitor  domain.NetworkMonitor
	interval time.Duration
	gate     func() bool
	onUp     func()
	logger   *slog.Logger
}

func NewReconnectWatcher(monitor domain.NetworkMonitor, interval time.Duration, gate func() bool, onUp func(), logger *slog.Logger) *ReconnectWatcher {
	if interval <= 0 {
		interval = DefaultReconnectPoll
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconnectWatcher{
		monitor:  monitor,
		interval: interval,
		gate:     gate,
		onUp:     onUp,
		logger:   logger,
	}
}

// Start launches the polling loop. The reading at start becomes the
// baseline, so coming up already-online does not fire.
func (w *ReconnectWatcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.stop = make(chan struct{})
	w.running = true
	go w.loop(w.stop, w.monitor.Quality().Connected)
}

// Stop halts the loop. Safe to call when not running.
func (w *ReconnectWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	close(w.stop)
	w.running = false
}

func (w *ReconnectWatcher) loop(stop chan struct{}, wasConnected bool) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			connected := w.monitor.Quality().Connected
			if connected && !wasConnected && w.gate() {
				w.logger.Info("network restored, refreshing")
				w.onUp()
			}
			wasConnected = connected
		}
	}
}
