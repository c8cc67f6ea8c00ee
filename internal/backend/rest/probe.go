package rest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kwhalen/slate/internal/domain"
)

const (
	defaultProbeInterval = 5 * time.Second
	defaultProbeTimeout  = 3 * time.Second
	defaultSlowAfter     = 750 * time.Millisecond

	// hintHeader lets the server flag metered or constrained links
	// (campus wifi portals set it for throttled guest networks)
	hintHeader = "X-Network-Hint"
)

// Probe watches the campus health endpoint and keeps the latest link
// reading available. Quality never touches the network; the readings
// come from a background loop so callers can poll it under a lock.
type Probe struct {
	url        string
	httpClient *http.Client
	interval   time.Duration
	slowAfter  time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	reading domain.NetworkQuality
	running bool
	stop    chan struct{}
}

// ProbeOption configures a Probe
type ProbeOption func(*Probe)

// WithProbeInterval sets how often the health endpoint is checked
func WithProbeInterval(d time.Duration) ProbeOption {
	return func(p *Probe) { p.interval = d }
}

// WithProbeHTTPClient replaces the underlying HTTP client
func WithProbeHTTPClient(h *http.Client) ProbeOption {
	return func(p *Probe) { p.httpClient = h }
}

// WithSlowAfter sets the latency above which the link counts as constrained
func WithSlowAfter(d time.Duration) ProbeOption {
	return func(p *Probe) { p.slowAfter = d }
}

// NewProbe creates a monitor for the given server. Call Start to take
// the first reading; until then the link reports as offline.
func NewProbe(serverURL string, logger *slog.Logger, opts ...ProbeOption) *Probe {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Probe{
		url:        strings.TrimRight(serverURL, "/") + "/healthz",
		httpClient: &http.Client{Timeout: defaultProbeTimeout},
		interval:   defaultProbeInterval,
		slowAfter:  defaultSlowAfter,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start takes one reading immediately, then keeps it fresh in the
// background until Stop. Starting twice is a no-op.
func (p *Probe) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stop = make(chan struct{})
	stop := p.stop
	p.mu.Unlock()

	p.refresh()
	go p.loop(stop)
}

// Stop halts the background loop. The last reading stays available.
func (p *Probe) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	close(p.stop)
}

// Quality returns the most recent reading without blocking
func (p *Probe) Quality() domain.NetworkQuality {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reading
}

func (p *Probe) loop(stop chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.refresh()
		}
	}
}

func (p *Probe) refresh() {
	q := p.check()

	p.mu.Lock()
	changed := q != p.reading
	p.reading = q
	p.mu.Unlock()

	if changed {
		p.logger.Debug("network reading changed", "quality", q.String())
	}
}

func (p *Probe) check() domain.NetworkQuality {
	ctx, cancel := context.WithTimeout(context.Background(), defaultProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return domain.NetworkQuality{}
	}

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domain.NetworkQuality{}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return domain.NetworkQuality{}
	}

	q := domain.NetworkQuality{Connected: true}
	switch strings.ToLower(resp.Header.Get(hintHeader)) {
	case "metered":
		q.Metered = true
	case "constrained":
		q.Metered = true
		q.Constrained = true
	}
	if time.Since(start) > p.slowAfter {
		q.Constrained = true
	}
	return q
}
