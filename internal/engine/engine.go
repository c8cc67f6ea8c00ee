package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kwhalen/slate/internal/domain"
	"github.com/kwhalen/slate/internal/search"
	"github.com/kwhalen/slate/internal/seed"
	"github.com/kwhalen/slate/internal/validate"
)

// Defaults for engine tuning knobs
const (
	DefaultPageSize            = 50
	DefaultStaleAfter          = 10 * time.Minute
	DefaultFetchTimeout        = 30 * time.Second
	DefaultIdentityTimeout     = 10 * time.Second
	DefaultReconnectPoll       = 3 * time.Second
	DefaultSearchDebounce      = 300 * time.Millisecond
	DefaultBaseInterval        = 2 * time.Minute
	DefaultMeteredInterval     = 5 * time.Minute
	DefaultConstrainedInterval = 15 * time.Minute
)

// maxFailureSamples caps how many failed IDs a batch result carries
const maxFailureSamples = 3

// Task keys. One live task per key; a new task under the same key
// supersedes the old one.
const (
	taskKeySearch      = "search"
	taskKeyOfflineSync = "offline-sync"
	taskKeyGradeBatch  = "grades:batch"
)

func taskKey(kind domain.ResourceKind) string { return "collection:" + string(kind) }
func taskKeyMessage(id string) string         { return "message:" + id }

// Options tunes the engine. Zero fields fall back to defaults.
type Options struct {
	PageSize        int
	StaleAfter      time.Duration
	FetchTimeout    time.Duration
	IdentityTimeout time.Duration
	Intervals       RefreshIntervals
	ReconnectPoll   time.Duration
	SearchDebounce  time.Duration

	// ReportOnRefresh surfaces divergence reports on background and
	// manual refreshes too, not just on explicit offline syncs
	ReportOnRefresh bool

	// Demo disables background refresh; data comes from the demo backend
	Demo bool

	// FallbackSession signs in from stored identity when the server
	// cannot be reached at startup
	FallbackSession domain.Session
}

func (o *Options) fillDefaults() {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = DefaultStaleAfter
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	if o.IdentityTimeout <= 0 {
		o.IdentityTimeout = DefaultIdentityTimeout
	}
	if o.ReconnectPoll <= 0 {
		o.ReconnectPoll = DefaultReconnectPoll
	}
	if o.SearchDebounce <= 0 {
		o.SearchDebounce = DefaultSearchDebounce
	}
}

// Deps are the collaborators the engine drives. All are required
// except Searcher, which disables search when absent.
type Deps struct {
	Repo     domain.CampusRepository
	Grades   domain.GradeWriter
	Messages domain.MessageWriter
	Identity domain.Identity
	Monitor  domain.NetworkMonitor
	Cache    domain.CacheStore
	Searcher *search.Service
	Logger   *slog.Logger
}

// Event signals that engine state changed and views should re-read
// their snapshots
type Event struct {
	Kind   domain.ResourceKind // empty for engine-level events
	Reason string
}

// KindStatus summarizes one collection for status displays
type KindStatus struct {
	Kind        domain.ResourceKind
	Count       int
	Loading     bool
	LoadingMore bool
	HasMore     bool
	FromCache   bool
	Advisory    string
	Err         error
}

// SearchView is a read-only snapshot of search state
type SearchView struct {
	Query   search.Query
	Results []search.Result
	Loading bool
	Err     error
}

// BatchResult summarizes a bulk write
type BatchResult struct {
	Submitted int
	Failed    int
	FailedIDs []string // up to maxFailureSamples examples
}

// Engine coordinates every fetch, cache access, and write for the
// signed-in account. All state behind one lock; all network work in
// coordinated tasks that fold their results back under that lock.
type Engine struct {
	mu sync.Mutex

	opts Options
	deps Deps

	session  domain.Session
	signedIn bool
	advisory string

	courses       *collection[domain.Course]
	assignments   *collection[domain.Assignment]
	grades        *collection[domain.Grade]
	conversations *collection[domain.Conversation]
	users         *collection[domain.User]

	searchView  SearchView
	lastReports map[domain.ResourceKind]ConflictReport
	lastSync    time.Time

	coord     *TaskCoordinator
	refresher *AutoRefresher
	reconnect *ReconnectWatcher
	debouncer *SearchDebouncer

	events chan Event
	logger *slog.Logger
}

func New(deps Deps, opts Options) (*Engine, error) {
	if deps.Repo == nil {
		return nil, errors.New("engine: repository is required")
	}
	if deps.Grades == nil || deps.Messages == nil {
		return nil, errors.New("engine: writers are required")
	}
	if deps.Identity == nil {
		return nil, errors.New("engine: identity is required")
	}
	if deps.Monitor == nil {
		return nil, errors.New("engine: network monitor is required")
	}
	if deps.Cache == nil {
		return nil, errors.New("engine: cache store is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	opts.fillDefaults()

	e := &Engine{
		opts:        opts,
		deps:        deps,
		lastReports: make(map[domain.ResourceKind]ConflictReport),
		coord:       NewTaskCoordinator(deps.Logger),
		events:      make(chan Event, 64),
		logger:      deps.Logger,
	}
	e.courses = newCollection(domain.KindCourses, opts.PageSize, deps.Repo.FetchCourses, seed.Courses)
	e.assignments = newCollection(domain.KindAssignments, opts.PageSize, deps.Repo.FetchAssignments, seed.Assignments)
	e.grades = newCollection(domain.KindGrades, opts.PageSize, deps.Repo.FetchGrades, seed.Grades)
	e.conversations = newCollection(domain.KindConversations, opts.PageSize, deps.Repo.FetchConversations, seed.Conversations)
	e.users = newCollection(domain.KindUsers, opts.PageSize, deps.Repo.FetchUsers, seed.Users)

	e.refresher = NewAutoRefresher(deps.Monitor, opts.Intervals, e.refreshGate, e.RefreshAll, deps.Logger)
	e.reconnect = NewReconnectWatcher(deps.Monitor, opts.ReconnectPoll, e.refreshGate, e.onReconnect, deps.Logger)
	e.debouncer = NewSearchDebouncer(opts.SearchDebounce, e.executeSearch)
	return e, nil
}

// Events delivers change notifications. The channel is buffered and
// never blocks the engine; a slow consumer just misses ticks.
func (e *Engine) Events() <-chan Event { return e.events }

func (e *Engine) notify(kind domain.ResourceKind, reason string) {
	select {
	case e.events <- Event{Kind: kind, Reason: reason}:
	default:
	}
}

// === Session lifecycle ===

// Start resolves the current identity, signs the engine in, kicks off
// initial loads, and launches the background loops. A server that
// cannot answer in time degrades to the stored identity and cached
// data rather than blocking startup.
func (e *Engine) Start(ctx context.Context) error {
	sess, err := e.resolveIdentity(ctx)
	switch {
	case err == nil:
		e.beginSession(sess, "")
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, domain.ErrAuthExpired):
		e.mu.Lock()
		e.signedIn = false
		e.advisory = "session expired, sign in again"
		e.mu.Unlock()
		e.notify("", "session")
		e.logger.Warn("startup identity check rejected", "error", err)
	default:
		// Offline or timed out: degrade to the stored identity
		if e.opts.FallbackSession.UserID != "" {
			e.logger.Warn("identity check unreachable, using stored session", "error", err)
			e.beginSession(e.opts.FallbackSession, "offline, showing cached data")
		} else {
			e.mu.Lock()
			e.advisory = "server unreachable and no stored session"
			e.mu.Unlock()
			e.notify("", "session")
		}
	}
	return nil
}

// resolveIdentity races the identity check against a startup deadline
func (e *Engine) resolveIdentity(ctx context.Context) (domain.Session, error) {
	type result struct {
		sess domain.Session
		err  error
	}
	resultCh := make(chan result, 1)
	go func() {
		sess, err := e.deps.Identity.CurrentSession(ctx)
		resultCh <- result{sess, err}
	}()

	timer := time.NewTimer(e.opts.IdentityTimeout)
	defer timer.Stop()

	select {
	case r := <-resultCh:
		return r.sess, r.err
	case <-timer.C:
		e.logger.Warn("identity check timed out", "timeout", e.opts.IdentityTimeout)
		return domain.Session{}, domain.ErrServerOffline
	case <-ctx.Done():
		return domain.Session{}, ctx.Err()
	}
}

func (e *Engine) beginSession(sess domain.Session, advisory string) {
	e.mu.Lock()
	e.session = sess
	e.signedIn = true
	e.advisory = advisory
	e.mu.Unlock()
	e.notify("", "session")
	e.logger.Info("signed in", "user", sess.UserID, "role", sess.Role)

	for _, kind := range domain.AllKinds() {
		e.LoadIfNeeded(kind)
	}
	e.refresher.Start()
	e.reconnect.Start()
}

// handleAuthExpired moves to the signed-out state without touching the
// cache: collections stay readable, writes and refreshes stop.
func (e *Engine) handleAuthExpired() {
	e.mu.Lock()
	if !e.signedIn {
		e.mu.Unlock()
		return
	}
	e.signedIn = false
	e.advisory = "session expired, sign in again"
	e.mu.Unlock()
	e.refresher.Stop()
	e.reconnect.Stop()
	e.notify("", "session")
	e.logger.Warn("session expired")
}

// Logout cancels every live task, resets in-memory state, and clears
// the signed-out account's cache. Nothing cancelled can write
// afterwards: folds re-check their context under the same lock.
func (e *Engine) Logout() error {
	e.mu.Lock()
	scope := e.scopeLocked()
	wasSignedIn := e.signedIn || e.session.UserID != ""
	e.coord.CancelAll()
	e.session = domain.Session{}
	e.signedIn = false
	e.advisory = ""
	e.lastReports = make(map[domain.ResourceKind]ConflictReport)
	e.lastSync = time.Time{}
	e.searchView = SearchView{}
	resetCollection(e.courses)
	resetCollection(e.assignments)
	resetCollection(e.grades)
	resetCollection(e.conversations)
	resetCollection(e.users)
	var err error
	if wasSignedIn {
		err = e.deps.Cache.ClearScope(scope.Key())
	}
	if e.deps.Searcher != nil {
		e.deps.Searcher.ClearIndex()
	}
	e.mu.Unlock()

	e.refresher.Stop()
	e.reconnect.Stop()
	e.debouncer.Cancel()
	e.notify("", "logout")
	e.logger.Info("signed out", "user", scope.UserID)
	return err
}

// Close stops the background loops and cancels outstanding work.
// The cache store is owned by the caller and stays open.
func (e *Engine) Close() {
	e.refresher.Stop()
	e.reconnect.Stop()
	e.debouncer.Cancel()
	e.coord.CancelAll()
}

func (e *Engine) scopeLocked() domain.Scope {
	return domain.Scope{UserID: e.session.UserID, Role: e.session.Role}
}

func (e *Engine) sameScopeLocked(scope domain.Scope) bool {
	return e.session.UserID == scope.UserID
}

// refreshGate reports whether background work may run right now
func (e *Engine) refreshGate() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.signedIn && !e.opts.Demo
}

func (e *Engine) onReconnect() {
	e.mu.Lock()
	e.advisory = ""
	e.mu.Unlock()
	e.notify("", "network")
	e.RefreshAll()
}

// === Collection operations ===

// LoadIfNeeded makes the kind's data visible using whatever is already
// at hand, fetching only when memory and cache are both empty
func (e *Engine) LoadIfNeeded(kind domain.ResourceKind) {
	switch kind {
	case domain.KindCourses:
		loadIfNeeded(e, e.courses)
	case domain.KindAssignments:
		loadIfNeeded(e, e.assignments)
	case domain.KindGrades:
		loadIfNeeded(e, e.grades)
	case domain.KindConversations:
		loadIfNeeded(e, e.conversations)
	case domain.KindUsers:
		loadIfNeeded(e, e.users)
	}
}

// LoadMore fetches the next page for the kind, if one is available and
// none is already in flight
func (e *Engine) LoadMore(kind domain.ResourceKind) {
	switch kind {
	case domain.KindCourses:
		loadMoreCollection(e, e.courses)
	case domain.KindAssignments:
		loadMoreCollection(e, e.assignments)
	case domain.KindGrades:
		loadMoreCollection(e, e.grades)
	case domain.KindConversations:
		loadMoreCollection(e, e.conversations)
	case domain.KindUsers:
		loadMoreCollection(e, e.users)
	}
}

// Refresh force-fetches page one for the kind, superseding any fetch
// already in flight for it
func (e *Engine) Refresh(kind domain.ResourceKind) {
	report := e.opts.ReportOnRefresh
	switch kind {
	case domain.KindCourses:
		refreshCollection(e, e.courses, report)
	case domain.KindAssignments:
		refreshCollection(e, e.assignments, report)
	case domain.KindGrades:
		refreshCollection(e, e.grades, report)
	case domain.KindConversations:
		refreshCollection(e, e.conversations, report)
	case domain.KindUsers:
		refreshCollection(e, e.users, report)
	}
}

// RefreshAll refreshes every collection; each runs under its own task
// key so they proceed in parallel
func (e *Engine) RefreshAll() {
	for _, kind := range domain.AllKinds() {
		e.Refresh(kind)
	}
}

// SyncForOffline fetches a fresh snapshot of every collection, always
// reconciling against cached fingerprints, and waits for the outcome.
// Divergence reports cover items whose local copy was out of date.
func (e *Engine) SyncForOffline(ctx context.Context) ([]ConflictReport, error) {
	e.mu.Lock()
	if !e.signedIn {
		e.mu.Unlock()
		return nil, domain.ErrAuthExpired
	}
	scope := e.scopeLocked()
	e.mu.Unlock()

	resCh := make(chan []ConflictReport, 1)
	errCh := make(chan error, 1)

	h := e.coord.Run(taskKeyOfflineSync, func(taskCtx context.Context) {
		var (
			mu      sync.Mutex
			reports []ConflictReport
			errs    []error
		)
		collect := func(fn func(context.Context) (ConflictReport, error)) func() error {
			return func() error {
				rep, err := fn(taskCtx)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return nil // keep the other kinds going
				}
				reports = append(reports, rep)
				return nil
			}
		}

		var g errgroup.Group
		g.Go(collect(func(c context.Context) (ConflictReport, error) { return syncKind(e, e.courses, c, scope) }))
		g.Go(collect(func(c context.Context) (ConflictReport, error) { return syncKind(e, e.assignments, c, scope) }))
		g.Go(collect(func(c context.Context) (ConflictReport, error) { return syncKind(e, e.grades, c, scope) }))
		g.Go(collect(func(c context.Context) (ConflictReport, error) { return syncKind(e, e.conversations, c, scope) }))
		g.Go(collect(func(c context.Context) (ConflictReport, error) { return syncKind(e, e.users, c, scope) }))
		g.Wait()

		sortReports(reports)
		var err error
		if len(errs) == len(domain.AllKinds()) {
			err = errs[0]
		} else {
			e.mu.Lock()
			e.lastSync = time.Now()
			e.mu.Unlock()
			if len(errs) > 0 {
				e.logger.Warn("offline sync partially failed", "failed", len(errs))
			}
		}
		resCh <- reports
		errCh <- err
		e.notify("", "sync")
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.Done():
		return <-resCh, <-errCh
	}
}

func sortReports(reports []ConflictReport) {
	order := make(map[domain.ResourceKind]int, len(domain.AllKinds()))
	for i, kind := range domain.AllKinds() {
		order[kind] = i
	}
	sort.Slice(reports, func(i, j int) bool {
		return order[reports[i].Kind] < order[reports[j].Kind]
	})
}

// === Writes ===

// SubmitGrades validates the whole batch up front, then posts each
// entry. Partial failure is reported, not rolled back; a batch where
// nothing landed returns the first error.
func (e *Engine) SubmitGrades(ctx context.Context, subs []domain.GradeSubmission) (BatchResult, error) {
	if len(subs) == 0 {
		return BatchResult{}, nil
	}
	for _, sub := range subs {
		if err := validate.Struct(sub); err != nil {
			return BatchResult{}, err
		}
	}

	e.mu.Lock()
	if !e.signedIn {
		e.mu.Unlock()
		return BatchResult{}, domain.ErrAuthExpired
	}
	scope := e.scopeLocked()
	e.mu.Unlock()

	resCh := make(chan BatchResult, 1)
	errCh := make(chan error, 1)

	h := e.coord.Run(taskKeyGradeBatch, func(taskCtx context.Context) {
		var res BatchResult
		var firstErr error
		for _, sub := range subs {
			if taskCtx.Err() != nil {
				if firstErr == nil {
					firstErr = taskCtx.Err()
				}
				break
			}
			wctx, cancel := context.WithTimeout(taskCtx, e.opts.FetchTimeout)
			g, err := e.deps.Grades.SubmitGrade(wctx, scope, sub)
			cancel()
			if err != nil {
				res.Failed++
				if firstErr == nil {
					firstErr = err
				}
				if len(res.FailedIDs) < maxFailureSamples {
					res.FailedIDs = append(res.FailedIDs, sub.AssignmentID+"/"+sub.StudentID)
				}
				if errors.Is(err, domain.ErrAuthExpired) {
					break // the rest of the batch would fail identically
				}
				continue
			}
			res.Submitted++
			e.upsertGrade(taskCtx, scope, g)
		}
		resCh <- res
		errCh <- firstErr
	})

	select {
	case <-ctx.Done():
		return BatchResult{}, ctx.Err()
	case <-h.Done():
		res := <-resCh
		firstErr := <-errCh
		if errors.Is(firstErr, domain.ErrAuthExpired) {
			e.handleAuthExpired()
		}
		if res.Submitted == 0 && res.Failed > 0 {
			return res, firstErr
		}
		if res.Failed > 0 {
			e.mu.Lock()
			e.grades.advisory = fmt.Sprintf("%d of %d grades failed to submit", res.Failed, len(subs))
			e.mu.Unlock()
			e.notify(domain.KindGrades, "error")
		}
		return res, nil
	}
}

func (e *Engine) upsertGrade(ctx context.Context, scope domain.Scope, g domain.Grade) {
	e.mu.Lock()
	if ctx.Err() != nil || !e.sameScopeLocked(scope) {
		e.mu.Unlock()
		return
	}
	c := e.grades
	replaced := false
	for i := range c.items {
		if c.items[i].ID == g.ID {
			c.items[i] = g
			replaced = true
			break
		}
	}
	if !replaced {
		c.items = append(c.items, g)
	}
	persistSnapshot(e, c.kind, scope, c.items, FingerprintItems(c.items))
	indexItems(e, c.kind, c.items)
	e.mu.Unlock()
	e.notify(domain.KindGrades, "write")
}

// SendMessage appends the message to the thread immediately and
// confirms it with the server in the background. On failure exactly
// the optimistic entry is removed again, wherever it sits by then.
func (e *Engine) SendMessage(draft domain.MessageDraft) error {
	if err := validate.Struct(draft); err != nil {
		return err
	}

	e.mu.Lock()
	if !e.signedIn {
		e.mu.Unlock()
		return domain.ErrAuthExpired
	}
	scope := e.scopeLocked()
	idx := e.findConversationLocked(draft.ConversationID)
	if idx < 0 {
		e.mu.Unlock()
		return domain.ErrNotFound
	}
	msg := domain.Message{
		ID:       uuid.NewString(),
		AuthorID: e.session.UserID,
		Body:     draft.Body,
		SentAt:   time.Now().Unix(),
		Pending:  true,
	}
	cv := &e.conversations.items[idx]
	cv.Messages = append(cv.Messages, msg)
	cv.UpdatedAt = msg.SentAt
	persistSnapshot(e, domain.KindConversations, scope, e.conversations.items, FingerprintItems(e.conversations.items))
	e.mu.Unlock()
	e.notify(domain.KindConversations, "write")

	e.coord.Run(taskKeyMessage(msg.ID), func(ctx context.Context) {
		wctx, cancel := context.WithTimeout(ctx, e.opts.FetchTimeout)
		echo, err := e.deps.Messages.SendMessage(wctx, scope, draft.ConversationID, msg)
		cancel()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			e.rollbackMessage(ctx, scope, draft.ConversationID, msg.ID, err)
			if errors.Is(err, domain.ErrAuthExpired) {
				e.handleAuthExpired()
			}
			return
		}
		echo.Pending = false
		e.confirmMessage(ctx, scope, draft.ConversationID, msg.ID, echo)
	})
	return nil
}

func (e *Engine) findConversationLocked(id string) int {
	for i := range e.conversations.items {
		if e.conversations.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) confirmMessage(ctx context.Context, scope domain.Scope, convID, msgID string, echo domain.Message) {
	e.mu.Lock()
	if ctx.Err() != nil || !e.sameScopeLocked(scope) {
		e.mu.Unlock()
		return
	}
	idx := e.findConversationLocked(convID)
	if idx < 0 {
		e.mu.Unlock()
		return
	}
	cv := &e.conversations.items[idx]
	for i := range cv.Messages {
		if cv.Messages[i].ID == msgID {
			cv.Messages[i] = echo
			break
		}
	}
	persistSnapshot(e, domain.KindConversations, scope, e.conversations.items, FingerprintItems(e.conversations.items))
	e.mu.Unlock()
	e.notify(domain.KindConversations, "write")
}

func (e *Engine) rollbackMessage(ctx context.Context, scope domain.Scope, convID, msgID string, cause error) {
	e.mu.Lock()
	if ctx.Err() != nil || !e.sameScopeLocked(scope) {
		e.mu.Unlock()
		return
	}
	idx := e.findConversationLocked(convID)
	if idx < 0 {
		e.mu.Unlock()
		return
	}
	cv := &e.conversations.items[idx]
	for i := range cv.Messages {
		if cv.Messages[i].ID == msgID {
			cv.Messages = append(cv.Messages[:i], cv.Messages[i+1:]...)
			break
		}
	}
	e.conversations.advisory = "message failed to send"
	e.conversations.err = cause
	persistSnapshot(e, domain.KindConversations, scope, e.conversations.items, FingerprintItems(e.conversations.items))
	e.mu.Unlock()
	e.notify(domain.KindConversations, "error")
	e.logger.Warn("message send failed", "conversation", convID, "error", cause)
}

// === Search ===

// SubmitSearch queues a query; rapid submissions coalesce and only the
// last one runs
func (e *Engine) SubmitSearch(q search.Query) {
	e.mu.Lock()
	if !e.signedIn {
		e.mu.Unlock()
		return
	}
	e.searchView.Query = q
	e.mu.Unlock()

	if strings.TrimSpace(q.Text) == "" {
		e.ClearSearch()
		return
	}
	e.debouncer.Submit(q)
}

// ClearSearch drops pending, in-flight, and displayed search state
func (e *Engine) ClearSearch() {
	e.debouncer.Cancel()
	e.coord.Cancel(taskKeySearch)
	e.mu.Lock()
	e.searchView = SearchView{}
	e.mu.Unlock()
	e.notify("", "search")
}

func (e *Engine) executeSearch(q search.Query) {
	e.mu.Lock()
	if !e.signedIn || e.deps.Searcher == nil {
		e.mu.Unlock()
		return
	}
	scope := e.scopeLocked()
	e.searchView.Loading = true
	e.mu.Unlock()
	e.notify("", "search")

	e.coord.Run(taskKeySearch, func(ctx context.Context) {
		sctx, cancel := context.WithTimeout(ctx, e.opts.FetchTimeout)
		results, err := e.deps.Searcher.Search(sctx, scope, q)
		cancel()
		if errors.Is(err, context.Canceled) {
			return
		}

		e.mu.Lock()
		if ctx.Err() != nil || !e.sameScopeLocked(scope) {
			e.mu.Unlock()
			return
		}
		e.searchView = SearchView{Query: q, Results: results, Err: err}
		e.mu.Unlock()
		e.notify("", "search")
		if errors.Is(err, domain.ErrAuthExpired) {
			e.handleAuthExpired()
		}
	})
}

// === Snapshots ===

func (e *Engine) Courses() CollectionView[domain.Course] { return snapshotView(e, e.courses) }
func (e *Engine) Assignments() CollectionView[domain.Assignment] {
	return snapshotView(e, e.assignments)
}
func (e *Engine) Grades() CollectionView[domain.Grade] { return snapshotView(e, e.grades) }
func (e *Engine) Conversations() CollectionView[domain.Conversation] {
	return snapshotView(e, e.conversations)
}
func (e *Engine) Users() CollectionView[domain.User] { return snapshotView(e, e.users) }

// SearchResults returns the current search snapshot
func (e *Engine) SearchResults() SearchView {
	e.mu.Lock()
	defer e.mu.Unlock()
	view := e.searchView
	view.Results = append([]search.Result(nil), e.searchView.Results...)
	return view
}

// Session returns the signed-in identity, if any
func (e *Engine) Session() (domain.Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session, e.signedIn
}

// Quality reports the monitor's current link reading
func (e *Engine) Quality() domain.NetworkQuality {
	return e.deps.Monitor.Quality()
}

// Advisory returns the engine-level banner text, empty when healthy
func (e *Engine) Advisory() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.advisory
}

// Reports returns the divergence reports from the latest reconciles,
// ordered by kind
func (e *Engine) Reports() []ConflictReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	reports := make([]ConflictReport, 0, len(e.lastReports))
	for _, kind := range domain.AllKinds() {
		if rep, ok := e.lastReports[kind]; ok {
			reports = append(reports, rep)
		}
	}
	return reports
}

// ClearReports dismisses the divergence reports
func (e *Engine) ClearReports() {
	e.mu.Lock()
	e.lastReports = make(map[domain.ResourceKind]ConflictReport)
	e.mu.Unlock()
	e.notify("", "conflict")
}

// LastSync reports when the last explicit offline sync completed
func (e *Engine) LastSync() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSync, !e.lastSync.IsZero()
}

// Statuses summarizes every collection in display order
func (e *Engine) Statuses() []KindStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return []KindStatus{
		statusLocked(e.courses),
		statusLocked(e.assignments),
		statusLocked(e.grades),
		statusLocked(e.conversations),
		statusLocked(e.users),
	}
}
