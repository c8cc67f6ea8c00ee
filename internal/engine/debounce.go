package engine

import (
	"sync"
	"time"

	"github.com/kwhalen/slate/internal/search"
)

// SearchDebouncer coalesces rapid query submissions into a single
// execution after a quiet period. The last submission wins; earlier
// ones are dropped without running.
type SearchDebouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	quiet time.Duration
	run   func(search.Query)
}

func NewSearchDebouncer(quiet time.Duration, run func(search.Query)) *SearchDebouncer {
	if quiet <= 0 {
		quiet = DefaultSearchDebounce
	}
	return &SearchDebouncer{quiet: quiet, run: run}
}

// Submit schedules q, replacing any submission still waiting out its
// quiet period
func (d *SearchDebouncer) Submit(q search.Query) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() { d.run(q) })
}

// Cancel drops any pending submission
func (d *SearchDebouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
