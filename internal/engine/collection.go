package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kwhalen/slate/internal/domain"
	"github.com/kwhalen/slate/internal/search"
	"github.com/kwhalen/slate/internal/store"
)

// collection holds the loaded window and flags for one kind.
// Every field is guarded by the engine's lock.
type collection[T domain.Resource] struct {
	kind      domain.ResourceKind
	items     []T
	cursor    *PageCursor
	loading   bool
	err       error
	advisory  string
	loadedAt  time.Time
	fromCache bool

	fetch domain.FetchFunc[T]
	seed  func(domain.Scope) []T
}

func newCollection[T domain.Resource](kind domain.ResourceKind, pageSize int, fetch domain.FetchFunc[T], seed func(domain.Scope) []T) *collection[T] {
	return &collection[T]{kind: kind, cursor: NewPageCursor(pageSize), fetch: fetch, seed: seed}
}

func resetCollection[T domain.Resource](c *collection[T]) {
	c.items = nil
	c.loading = false
	c.err = nil
	c.advisory = ""
	c.loadedAt = time.Time{}
	c.fromCache = false
	c.cursor.Reset()
}

// CollectionView is a read-only snapshot of one collection's state
type CollectionView[T domain.Resource] struct {
	Items       []T
	Loading     bool
	LoadingMore bool
	HasMore     bool
	FromCache   bool
	LoadedAt    time.Time
	Err         error
	Advisory    string
}

func snapshotView[T domain.Resource](e *Engine, c *collection[T]) CollectionView[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return CollectionView[T]{
		Items:       items,
		Loading:     c.loading,
		LoadingMore: c.cursor.LoadingMore(),
		HasMore:     c.cursor.HasMore(),
		FromCache:   c.fromCache,
		LoadedAt:    c.loadedAt,
		Err:         c.err,
		Advisory:    c.advisory,
	}
}

func statusLocked[T domain.Resource](c *collection[T]) KindStatus {
	return KindStatus{
		Kind:        c.kind,
		Count:       len(c.items),
		Loading:     c.loading,
		LoadingMore: c.cursor.LoadingMore(),
		HasMore:     c.cursor.HasMore(),
		FromCache:   c.fromCache,
		Advisory:    c.advisory,
		Err:         c.err,
	}
}

// loadIfNeeded shows whatever is already available for the kind: the
// in-memory window, then the disk cache, then a first fetch. A stale
// cache hit is displayed immediately and refreshed behind it.
func loadIfNeeded[T domain.Resource](e *Engine, c *collection[T]) {
	e.mu.Lock()
	if !e.signedIn || c.loading || len(c.items) > 0 {
		e.mu.Unlock()
		return
	}
	scope := e.scopeLocked()

	if items, savedAt, ok := store.LoadItems[T](e.deps.Cache, c.kind, scope.Key()); ok {
		c.items = items
		c.loadedAt = savedAt
		c.fromCache = true
		c.cursor.Reset()
		c.cursor.RecordPage(len(items))
		stale := time.Since(savedAt) > e.opts.StaleAfter
		refreshBehind := stale && e.deps.Monitor.Quality().Connected
		if refreshBehind {
			c.loading = true
		}
		indexItems(e, c.kind, items)
		e.mu.Unlock()
		e.notify(c.kind, "load")
		if refreshBehind {
			startRefresh(e, c, scope, e.opts.ReportOnRefresh)
		}
		return
	}

	c.loading = true
	e.mu.Unlock()
	e.notify(c.kind, "loading")
	startInitialLoad(e, c, scope)
}

// refreshCollection force-fetches page one, collapsing the window
func refreshCollection[T domain.Resource](e *Engine, c *collection[T], report bool) {
	e.mu.Lock()
	if !e.signedIn {
		e.mu.Unlock()
		return
	}
	scope := e.scopeLocked()
	c.loading = true
	c.err = nil
	e.mu.Unlock()
	e.notify(c.kind, "loading")
	startRefresh(e, c, scope, report)
}

// loadMoreCollection fetches the next page and appends it. Skipped
// outright while another page is in flight or the server is exhausted.
func loadMoreCollection[T domain.Resource](e *Engine, c *collection[T]) {
	e.mu.Lock()
	if !e.signedIn || c.loading || len(c.items) == 0 || !c.cursor.BeginLoadMore() {
		e.mu.Unlock()
		return
	}
	scope := e.scopeLocked()
	offset := c.cursor.Offset()
	limit := c.cursor.PageSize()
	e.mu.Unlock()
	e.notify(c.kind, "loading-more")

	e.coord.Run(taskKey(c.kind), func(ctx context.Context) {
		fctx, cancel := context.WithTimeout(ctx, e.opts.FetchTimeout)
		page, err := c.fetch(fctx, scope, domain.PageQuery{Offset: offset, Limit: limit})
		cancel()

		e.mu.Lock()
		if ctx.Err() != nil || !e.sameScopeLocked(scope) {
			// A newer task owns the cursor now
			e.mu.Unlock()
			return
		}
		c.cursor.EndLoadMore()
		if err != nil {
			c.err = err
			c.advisory = "couldn't load more, try again"
			e.mu.Unlock()
			e.notify(c.kind, "error")
			if errors.Is(err, domain.ErrAuthExpired) {
				e.handleAuthExpired()
			}
			return
		}
		c.items = appendNew(c.items, page)
		c.cursor.RecordPage(len(page))
		c.err = nil
		c.advisory = ""
		c.fromCache = false
		persistSnapshot(e, c.kind, scope, c.items, FingerprintItems(c.items))
		indexItems(e, c.kind, c.items)
		e.mu.Unlock()
		e.notify(c.kind, "load-more")
	})
}

// startInitialLoad fetches page one for a collection with nothing
// cached; failures walk the cache-then-sample fallback ladder
func startInitialLoad[T domain.Resource](e *Engine, c *collection[T], scope domain.Scope) {
	limit := c.cursor.PageSize()
	e.coord.Run(taskKey(c.kind), func(ctx context.Context) {
		fctx, cancel := context.WithTimeout(ctx, e.opts.FetchTimeout)
		items, err := c.fetch(fctx, scope, domain.PageQuery{Limit: limit})
		cancel()
		if err != nil {
			failInitialLoad(e, c, scope, ctx, err)
			return
		}

		e.mu.Lock()
		if ctx.Err() != nil || !e.sameScopeLocked(scope) {
			e.mu.Unlock()
			return
		}
		c.items = items
		c.loading = false
		c.err = nil
		c.advisory = ""
		c.fromCache = false
		c.loadedAt = time.Now()
		c.cursor.Reset()
		c.cursor.RecordPage(len(items))
		persistSnapshot(e, c.kind, scope, items, FingerprintItems(items))
		indexItems(e, c.kind, items)
		e.mu.Unlock()
		e.notify(c.kind, "load")
	})
}

func failInitialLoad[T domain.Resource](e *Engine, c *collection[T], scope domain.Scope, ctx context.Context, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}

	e.mu.Lock()
	if ctx.Err() != nil || !e.sameScopeLocked(scope) {
		e.mu.Unlock()
		return
	}
	c.loading = false
	c.err = err

	if items, savedAt, ok := store.LoadItems[T](e.deps.Cache, c.kind, scope.Key()); ok {
		c.items = items
		c.loadedAt = savedAt
		c.fromCache = true
		c.cursor.Reset()
		c.cursor.RecordPage(len(items))
		c.advisory = fmt.Sprintf("offline, showing cached data from %s", savedAt.Format("Jan 2 15:04"))
		indexItems(e, c.kind, items)
		e.mu.Unlock()
		e.notify(c.kind, "load")
	} else {
		items := c.seed(scope)
		c.items = items
		c.loadedAt = time.Now()
		c.fromCache = true
		c.cursor.Reset()
		c.cursor.RecordPage(len(items))
		c.advisory = "offline, showing sample data"
		indexItems(e, c.kind, items)
		e.mu.Unlock()
		e.notify(c.kind, "load")
	}

	e.logger.Warn("initial load failed", "kind", c.kind, "error", err)
	if errors.Is(err, domain.ErrAuthExpired) {
		e.handleAuthExpired()
	}
}

// startRefresh fetches page one and reconciles it against the cached
// fingerprints; the server snapshot always replaces local state
func startRefresh[T domain.Resource](e *Engine, c *collection[T], scope domain.Scope, report bool) {
	kind := c.kind
	limit := c.cursor.PageSize()
	e.coord.Run(taskKey(kind), func(ctx context.Context) {
		fctx, cancel := context.WithTimeout(ctx, e.opts.FetchTimeout)
		items, err := c.fetch(fctx, scope, domain.PageQuery{Limit: limit})
		cancel()
		if err != nil {
			failRefresh(e, c, scope, ctx, err)
			return
		}

		cached, _ := e.deps.Cache.GetFingerprints(kind, scope.Key())
		fresh, fps, rep := Reconcile(kind, items, cached)

		e.mu.Lock()
		if ctx.Err() != nil || !e.sameScopeLocked(scope) {
			e.mu.Unlock()
			return
		}
		c.items = fresh
		c.loading = false
		c.err = nil
		c.advisory = ""
		c.fromCache = false
		c.loadedAt = time.Now()
		c.cursor.Reset()
		c.cursor.RecordPage(len(fresh))
		if report && rep.HasConflicts() {
			e.lastReports[kind] = rep
		}
		persistSnapshot(e, kind, scope, fresh, fps)
		indexItems(e, kind, fresh)
		e.mu.Unlock()
		e.notify(kind, "refresh")
		if report && rep.HasConflicts() {
			e.notify(kind, "conflict")
		}
	})
}

func failRefresh[T domain.Resource](e *Engine, c *collection[T], scope domain.Scope, ctx context.Context, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}

	e.mu.Lock()
	if ctx.Err() != nil || !e.sameScopeLocked(scope) {
		e.mu.Unlock()
		return
	}
	c.loading = false
	c.err = err
	if errors.Is(err, domain.ErrServerOffline) || errors.Is(err, context.DeadlineExceeded) {
		c.advisory = "offline, data may be stale"
	}
	e.mu.Unlock()
	e.notify(c.kind, "error")

	e.logger.Warn("refresh failed", "kind", c.kind, "error", err)
	if errors.Is(err, domain.ErrAuthExpired) {
		e.handleAuthExpired()
	}
}

// syncKind is one leg of the explicit offline sync: fetch, reconcile
// with divergence reporting, persist, and fold. Unlike refresh it runs
// inside the caller's task and returns its report.
func syncKind[T domain.Resource](e *Engine, c *collection[T], ctx context.Context, scope domain.Scope) (ConflictReport, error) {
	fctx, cancel := context.WithTimeout(ctx, e.opts.FetchTimeout)
	items, err := c.fetch(fctx, scope, domain.PageQuery{Limit: c.cursor.PageSize()})
	cancel()
	if err != nil {
		return ConflictReport{Kind: c.kind}, err
	}

	cached, _ := e.deps.Cache.GetFingerprints(c.kind, scope.Key())
	fresh, fps, rep := Reconcile(c.kind, items, cached)

	e.mu.Lock()
	if ctx.Err() != nil || !e.sameScopeLocked(scope) {
		e.mu.Unlock()
		return ConflictReport{Kind: c.kind}, context.Canceled
	}
	c.items = fresh
	c.loading = false
	c.err = nil
	c.advisory = ""
	c.fromCache = false
	c.loadedAt = time.Now()
	c.cursor.Reset()
	c.cursor.RecordPage(len(fresh))
	if rep.HasConflicts() {
		e.lastReports[c.kind] = rep
	}
	persistSnapshot(e, c.kind, scope, fresh, fps)
	indexItems(e, c.kind, fresh)
	e.mu.Unlock()
	e.notify(c.kind, "sync")
	return rep, nil
}

// appendNew appends page entries whose IDs are not already in the
// window. The server may shift items between pages while we scroll.
func appendNew[T domain.Resource](items, page []T) []T {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		seen[it.GetID()] = struct{}{}
	}
	for _, it := range page {
		if _, ok := seen[it.GetID()]; !ok {
			items = append(items, it)
		}
	}
	return items
}

// persistSnapshot writes the window and its fingerprints through to
// the cache. Called with the engine lock held so a logout's ClearScope
// cannot interleave between fold and write.
func persistSnapshot[T domain.Resource](e *Engine, kind domain.ResourceKind, scope domain.Scope, items []T, fps domain.Fingerprints) {
	if err := store.SaveItems(e.deps.Cache, kind, scope.Key(), items); err != nil {
		e.logger.Warn("cache write failed", "kind", kind, "error", err)
		return
	}
	if err := e.deps.Cache.PutFingerprints(kind, scope.Key(), fps); err != nil {
		e.logger.Warn("fingerprint write failed", "kind", kind, "error", err)
	}
}

// indexItems mirrors the window into the search index
func indexItems[T domain.Resource](e *Engine, kind domain.ResourceKind, items []T) {
	if e.deps.Searcher == nil {
		return
	}
	entries := make([]search.Entry, 0, len(items))
	for _, it := range items {
		entries = append(entries, search.Entry{Kind: kind, ID: it.GetID(), Label: it.GetLabel()})
	}
	e.deps.Searcher.Index(kind, entries)
}
