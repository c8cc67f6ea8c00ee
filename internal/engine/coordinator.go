package engine

import (
	"context"
	"log/slog"
	"sync"
)

// TaskCoordinator runs at most one live task per key. Starting a task
// under a key that already has one cancels the old task first; the
// superseded task sees its context cancelled and must drop its results.
type TaskCoordinator struct {
	mu     sync.Mutex
	tasks  map[string]*TaskHandle
	gen    uint64
	logger *slog.Logger
}

// TaskHandle tracks one coordinated task from start to completion
type TaskHandle struct {
	Key        string
	Generation uint64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Done is closed when the task function has returned
func (h *TaskHandle) Done() <-chan struct{} { return h.done }

// Superseded reports whether a newer task took over this key or the
// coordinator cancelled everything
func (h *TaskHandle) Superseded() bool { return h.ctx.Err() != nil }

func NewTaskCoordinator(logger *slog.Logger) *TaskCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskCoordinator{
		tasks:  make(map[string]*TaskHandle),
		logger: logger,
	}
}

// Run starts op in its own goroutine under the given key, cancelling
// any task already running under that key. The op owns the supplied
// context and must stop mutating shared state once it is cancelled.
func (c *TaskCoordinator) Run(key string, op func(ctx context.Context)) *TaskHandle {
	c.mu.Lock()
	if prev, ok := c.tasks[key]; ok {
		prev.cancel()
		delete(c.tasks, key)
		c.logger.Debug("task superseded", "key", key, "generation", prev.Generation)
	}
	c.gen++
	ctx, cancel := context.WithCancel(context.Background())
	h := &TaskHandle{
		Key:        key,
		Generation: c.gen,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	c.tasks[key] = h
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			if cur, ok := c.tasks[key]; ok && cur == h {
				delete(c.tasks, key)
			}
			c.mu.Unlock()
			cancel()
			close(h.done)
		}()
		op(ctx)
	}()
	return h
}

// Cancel stops the task running under key, if any
func (c *TaskCoordinator) Cancel(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.tasks[key]; ok {
		h.cancel()
		delete(c.tasks, key)
	}
}

// CancelAll stops every live task. Used on logout so no stale fetch
// can write into the next session's state.
func (c *TaskCoordinator) CancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, h := range c.tasks {
		h.cancel()
		delete(c.tasks, key)
	}
}

// Active reports whether a task is currently registered under key
func (c *TaskCoordinator) Active(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.tasks[key]
	return ok
}

// ActiveCount returns the number of live tasks
func (c *TaskCoordinator) ActiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}
