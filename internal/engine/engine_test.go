package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwhalen/slate/internal/domain"
	"github.com/kwhalen/slate/internal/search"
	"github.com/kwhalen/slate/internal/seed"
	"github.com/kwhalen/slate/internal/store"
)

func linearAlgebra() domain.Course {
	return domain.Course{ID: "c-1", Code: "MATH-301", Title: "Linear Algebra", Subject: "Mathematics", TeacherID: "u-100", Term: "2026 Fall", UpdatedAt: 100}
}

func startedEngine(t *testing.T, f *engineFixture, opts Options) *Engine {
	t.Helper()
	e := f.build(t, opts)
	require.NoError(t, e.Start(context.Background()))
	return e
}

func TestNewRequiresDeps(t *testing.T) {
	t.Parallel()
	_, err := New(Deps{}, Options{})
	require.Error(t, err)
}

func TestStartSignsInAndLoads(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.repo.FetchCoursesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
		return []domain.Course{linearAlgebra()}, nil
	}
	e := startedEngine(t, f, Options{})

	sess, ok := e.Session()
	require.True(t, ok)
	assert.Equal(t, testSession.UserID, sess.UserID)

	require.Eventually(t, func() bool {
		view := e.Courses()
		return !view.Loading && len(view.Items) == 1
	}, 2*time.Second, 5*time.Millisecond)

	view := e.Courses()
	assert.Equal(t, "c-1", view.Items[0].ID)
	assert.False(t, view.FromCache)
	assert.Empty(t, view.Advisory)

	// Snapshot landed in the cache for the next launch
	_, _, cached := f.cache.Get(domain.KindCourses, testSession.UserID)
	assert.True(t, cached)
}

func TestStartEmitsSessionEvent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	e := startedEngine(t, f, Options{})

	select {
	case ev := <-e.Events():
		assert.Equal(t, "session", ev.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
}

func TestStartFallsBackWhenIdentityHangs(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.identity.CurrentSessionFunc = func(ctx context.Context) (domain.Session, error) {
		time.Sleep(500 * time.Millisecond)
		return domain.Session{}, domain.ErrServerOffline
	}
	e := startedEngine(t, f, Options{IdentityTimeout: 30 * time.Millisecond, FallbackSession: testSession})

	sess, ok := e.Session()
	require.True(t, ok)
	assert.Equal(t, testSession.UserID, sess.UserID)
	assert.Contains(t, e.Advisory(), "offline")
}

func TestStartWithoutFallbackStaysSignedOut(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.identity.CurrentSessionFunc = func(ctx context.Context) (domain.Session, error) {
		return domain.Session{}, domain.ErrServerOffline
	}
	e := startedEngine(t, f, Options{})

	_, ok := e.Session()
	assert.False(t, ok)
	assert.Contains(t, e.Advisory(), "unreachable")
}

func TestStartRejectedIdentitySignsOut(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.identity.CurrentSessionFunc = func(ctx context.Context) (domain.Session, error) {
		return domain.Session{}, domain.ErrAuthExpired
	}
	e := startedEngine(t, f, Options{FallbackSession: testSession})

	_, ok := e.Session()
	assert.False(t, ok, "a rejected token must not fall back to the stored session")
	assert.Contains(t, e.Advisory(), "expired")
}

func TestLoadIfNeededFetchesOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	var calls atomic.Int32
	f.repo.FetchCoursesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
		calls.Add(1)
		return []domain.Course{linearAlgebra()}, nil
	}
	e := startedEngine(t, f, Options{})

	require.Eventually(t, func() bool {
		return len(e.Courses().Items) == 1
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, int32(1), calls.Load())

	// The in-memory window answers without another fetch
	e.LoadIfNeeded(domain.KindCourses)
	e.LoadIfNeeded(domain.KindCourses)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLoadMorePagination(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	all := []domain.Course{
		{ID: "c-1", Code: "MATH-301", Title: "Linear Algebra"},
		{ID: "c-2", Code: "PHYS-110", Title: "Mechanics"},
		{ID: "c-3", Code: "CS-210", Title: "Data Structures"},
	}
	f.repo.FetchCoursesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
		if q.Offset >= len(all) {
			return nil, nil
		}
		end := q.Offset + q.Limit
		if end > len(all) {
			end = len(all)
		}
		return all[q.Offset:end], nil
	}
	e := startedEngine(t, f, Options{PageSize: 2})

	require.Eventually(t, func() bool {
		return len(e.Courses().Items) == 2
	}, 2*time.Second, 5*time.Millisecond)
	require.True(t, e.Courses().HasMore)

	e.LoadMore(domain.KindCourses)
	require.Eventually(t, func() bool {
		return len(e.Courses().Items) == 3
	}, 2*time.Second, 5*time.Millisecond)
	assert.False(t, e.Courses().HasMore, "short page means the server is exhausted")
	assert.Equal(t, "c-3", e.Courses().Items[2].ID)

	// Exhausted: nothing more to fetch
	e.LoadMore(domain.KindCourses)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, e.Courses().Items, 3)
}

func TestLoadMoreSingleFlight(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	release := make(chan struct{})
	var moreCalls atomic.Int32
	f.repo.FetchCoursesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
		if q.Offset == 0 {
			return []domain.Course{{ID: "c-1"}, {ID: "c-2"}}, nil
		}
		moreCalls.Add(1)
		<-release
		return []domain.Course{{ID: "c-3"}}, nil
	}
	e := startedEngine(t, f, Options{PageSize: 2})

	require.Eventually(t, func() bool {
		return len(e.Courses().Items) == 2
	}, 2*time.Second, 5*time.Millisecond)

	e.LoadMore(domain.KindCourses)
	require.Eventually(t, func() bool {
		return e.Courses().LoadingMore
	}, 2*time.Second, 5*time.Millisecond)

	// Further requests are dropped while the page is in flight
	e.LoadMore(domain.KindCourses)
	e.LoadMore(domain.KindCourses)
	close(release)

	require.Eventually(t, func() bool {
		return len(e.Courses().Items) == 3
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), moreCalls.Load())
}

func TestLoadMoreDeduplicatesShiftedItems(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.repo.FetchCoursesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
		if q.Offset == 0 {
			return []domain.Course{{ID: "c-1"}, {ID: "c-2"}}, nil
		}
		// c-2 slid into page two while we were scrolling
		return []domain.Course{{ID: "c-2"}, {ID: "c-3"}}, nil
	}
	e := startedEngine(t, f, Options{PageSize: 2})

	require.Eventually(t, func() bool {
		return len(e.Courses().Items) == 2
	}, 2*time.Second, 5*time.Millisecond)

	e.LoadMore(domain.KindCourses)
	require.Eventually(t, func() bool {
		return len(e.Courses().Items) == 3
	}, 2*time.Second, 5*time.Millisecond)

	ids := make([]string, 0, 3)
	for _, c := range e.Courses().Items {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"c-1", "c-2", "c-3"}, ids)
}

func TestOfflineFirstLaunchShowsSampleData(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.repo.FetchCoursesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
		return nil, domain.ErrServerOffline
	}
	e := startedEngine(t, f, Options{})

	require.Eventually(t, func() bool {
		view := e.Courses()
		return !view.Loading && len(view.Items) > 0
	}, 2*time.Second, 5*time.Millisecond)

	view := e.Courses()
	scope := domain.Scope{UserID: testSession.UserID, Role: testSession.Role}
	assert.Equal(t, seed.Courses(scope), view.Items)
	assert.True(t, view.FromCache)
	assert.Equal(t, "offline, showing sample data", view.Advisory)
	require.ErrorIs(t, view.Err, domain.ErrServerOffline)
}

func TestOfflineLaunchShowsCachedData(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	cached := []domain.Course{linearAlgebra()}
	require.NoError(t, store.SaveItems(f.cache, domain.KindCourses, testSession.UserID, cached))

	f.repo.FetchCoursesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
		return nil, domain.ErrServerOffline
	}
	// Tiny staleness window forces the refresh-behind attempt
	e := startedEngine(t, f, Options{StaleAfter: time.Nanosecond})

	require.Eventually(t, func() bool {
		view := e.Courses()
		return !view.Loading && len(view.Items) == 1
	}, 2*time.Second, 5*time.Millisecond)

	view := e.Courses()
	assert.Equal(t, cached, view.Items)
	assert.True(t, view.FromCache)
	assert.Equal(t, "offline, data may be stale", view.Advisory)
}

func TestFreshCacheSkipsNetwork(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	cached := []domain.Course{linearAlgebra()}
	require.NoError(t, store.SaveItems(f.cache, domain.KindCourses, testSession.UserID, cached))

	var calls atomic.Int32
	f.repo.FetchCoursesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
		calls.Add(1)
		return cached, nil
	}
	e := startedEngine(t, f, Options{StaleAfter: time.Hour})

	require.Eventually(t, func() bool {
		return len(e.Courses().Items) == 1
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load(), "a fresh cache hit must not touch the network")
	assert.True(t, e.Courses().FromCache)
}

func TestRefreshReportsDivergence(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	var version atomic.Int32
	version.Store(1)
	f.repo.FetchCoursesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
		c := linearAlgebra()
		if version.Load() > 1 {
			c.Title = "Linear Algebra II"
			c.UpdatedAt = 200
		}
		return []domain.Course{c}, nil
	}
	e := startedEngine(t, f, Options{ReportOnRefresh: true})

	require.Eventually(t, func() bool {
		return len(e.Courses().Items) == 1
	}, 2*time.Second, 5*time.Millisecond)

	version.Store(2)
	e.Refresh(domain.KindCourses)

	require.Eventually(t, func() bool {
		return len(e.Reports()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	rep := e.Reports()[0]
	assert.Equal(t, domain.KindCourses, rep.Kind)
	assert.Equal(t, []string{"c-1"}, rep.DivergedIDs)
	assert.Equal(t, "Linear Algebra II", e.Courses().Items[0].Title, "server copy wins")

	e.ClearReports()
	assert.Empty(t, e.Reports())
}

func TestRefreshIsSilentByDefault(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	var version atomic.Int32
	version.Store(1)
	f.repo.FetchCoursesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
		c := linearAlgebra()
		if version.Load() > 1 {
			c.Title = "Linear Algebra II"
		}
		return []domain.Course{c}, nil
	}
	e := startedEngine(t, f, Options{})

	require.Eventually(t, func() bool {
		return len(e.Courses().Items) == 1
	}, 2*time.Second, 5*time.Millisecond)

	version.Store(2)
	e.Refresh(domain.KindCourses)

	require.Eventually(t, func() bool {
		return e.Courses().Items[0].Title == "Linear Algebra II"
	}, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, e.Reports(), "background refreshes do not surface reports unless asked")
}

func TestSyncForOfflineReportsDivergence(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	var version atomic.Int32
	version.Store(1)
	f.repo.FetchCoursesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
		c := linearAlgebra()
		if version.Load() > 1 {
			c.Title = "Linear Algebra II"
		}
		return []domain.Course{c}, nil
	}
	e := startedEngine(t, f, Options{})

	require.Eventually(t, func() bool {
		return len(e.Courses().Items) == 1
	}, 2*time.Second, 5*time.Millisecond)

	version.Store(2)
	reports, err := e.SyncForOffline(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, len(domain.AllKinds()))

	var courses ConflictReport
	for _, rep := range reports {
		if rep.Kind == domain.KindCourses {
			courses = rep
		}
	}
	assert.Equal(t, []string{"c-1"}, courses.DivergedIDs)

	_, ok := e.LastSync()
	assert.True(t, ok)
}

func TestSyncForOfflineToleratesPartialFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.repo.FetchGradesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Grade, error) {
		return nil, domain.ErrServerOffline
	}
	e := startedEngine(t, f, Options{})

	require.Eventually(t, func() bool {
		return !e.Courses().Loading
	}, 2*time.Second, 5*time.Millisecond)

	reports, err := e.SyncForOffline(context.Background())
	require.NoError(t, err, "one failed kind must not fail the sync")
	assert.Len(t, reports, len(domain.AllKinds())-1)
}

func TestSyncForOfflineFailsWhenNothingSyncs(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.repo.FetchCoursesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
		return nil, domain.ErrServerOffline
	}
	f.repo.FetchAssignmentsFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Assignment, error) {
		return nil, domain.ErrServerOffline
	}
	f.repo.FetchGradesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Grade, error) {
		return nil, domain.ErrServerOffline
	}
	f.repo.FetchConversationsFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Conversation, error) {
		return nil, domain.ErrServerOffline
	}
	f.repo.FetchUsersFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.User, error) {
		return nil, domain.ErrServerOffline
	}
	e := startedEngine(t, f, Options{})

	_, err := e.SyncForOffline(context.Background())
	require.ErrorIs(t, err, domain.ErrServerOffline)

	_, ok := e.LastSync()
	assert.False(t, ok)
}

func TestLogoutClearsStateAndCache(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.repo.FetchCoursesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
		return []domain.Course{linearAlgebra()}, nil
	}
	e := startedEngine(t, f, Options{})

	require.Eventually(t, func() bool {
		return len(e.Courses().Items) == 1
	}, 2*time.Second, 5*time.Millisecond)
	require.NotZero(t, f.searcher.IndexCount(domain.KindCourses))

	require.NoError(t, e.Logout())

	_, ok := e.Session()
	assert.False(t, ok)
	assert.Empty(t, e.Courses().Items)
	assert.Zero(t, f.searcher.IndexCount(domain.KindCourses))

	_, _, cached := f.cache.Get(domain.KindCourses, testSession.UserID)
	assert.False(t, cached, "logout must clear the account's cache")
}

func TestLogoutCancelsInFlightFetch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	release := make(chan struct{})
	f.repo.FetchCoursesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
		select {
		case <-release:
			return []domain.Course{linearAlgebra()}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e := startedEngine(t, f, Options{})

	require.NoError(t, e.Logout())
	close(release)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, e.Courses().Items, "a cancelled fetch must not fold its result")
	_, _, cached := f.cache.Get(domain.KindCourses, testSession.UserID)
	assert.False(t, cached)
}

func TestAuthExpiryKeepsCachedData(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	var expired atomic.Bool
	f.repo.FetchCoursesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
		if expired.Load() {
			return nil, domain.ErrAuthExpired
		}
		return []domain.Course{linearAlgebra()}, nil
	}
	e := startedEngine(t, f, Options{})

	require.Eventually(t, func() bool {
		return len(e.Courses().Items) == 1
	}, 2*time.Second, 5*time.Millisecond)

	expired.Store(true)
	e.Refresh(domain.KindCourses)

	require.Eventually(t, func() bool {
		_, ok := e.Session()
		return !ok
	}, 2*time.Second, 5*time.Millisecond)

	assert.Len(t, e.Courses().Items, 1, "expiry signs out but keeps data visible")
	_, _, cached := f.cache.Get(domain.KindCourses, testSession.UserID)
	assert.True(t, cached, "expiry must not clear the cache")
	assert.Contains(t, e.Advisory(), "expired")
}

func TestSendMessageConfirmsOptimisticEntry(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	conv := domain.Conversation{
		ID:             "v-1",
		Subject:        "Problem Set 1",
		ParticipantIDs: []string{"u-100", "u-201"},
		Messages:       []domain.Message{{ID: "m-1", AuthorID: "u-201", Body: "question", SentAt: 100}},
		UpdatedAt:      100,
	}
	f.repo.FetchConversationsFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Conversation, error) {
		return []domain.Conversation{conv}, nil
	}
	release := make(chan struct{})
	f.messages.SendMessageFunc = func(ctx context.Context, scope domain.Scope, conversationID string, msg domain.Message) (domain.Message, error) {
		<-release
		return msg, nil
	}
	e := startedEngine(t, f, Options{})

	require.Eventually(t, func() bool {
		return len(e.Conversations().Items) == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, e.SendMessage(domain.MessageDraft{ConversationID: "v-1", Body: "answer"}))

	msgs := e.Conversations().Items[0].Messages
	require.Len(t, msgs, 2, "optimistic entry appears before the server answers")
	assert.True(t, msgs[1].Pending)
	assert.Equal(t, "answer", msgs[1].Body)
	assert.Equal(t, testSession.UserID, msgs[1].AuthorID)

	close(release)
	require.Eventually(t, func() bool {
		msgs := e.Conversations().Items[0].Messages
		return len(msgs) == 2 && !msgs[1].Pending
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSendMessageRollsBackOnFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	conv := domain.Conversation{
		ID:       "v-1",
		Subject:  "Problem Set 1",
		Messages: []domain.Message{{ID: "m-1", AuthorID: "u-201", Body: "question", SentAt: 100}},
	}
	f.repo.FetchConversationsFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Conversation, error) {
		return []domain.Conversation{conv}, nil
	}
	f.messages.SendMessageFunc = func(ctx context.Context, scope domain.Scope, conversationID string, msg domain.Message) (domain.Message, error) {
		return domain.Message{}, domain.ErrServerOffline
	}
	e := startedEngine(t, f, Options{})

	require.Eventually(t, func() bool {
		return len(e.Conversations().Items) == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, e.SendMessage(domain.MessageDraft{ConversationID: "v-1", Body: "lost"}))

	require.Eventually(t, func() bool {
		view := e.Conversations()
		return len(view.Items[0].Messages) == 1 && view.Advisory != ""
	}, 2*time.Second, 5*time.Millisecond)

	view := e.Conversations()
	assert.Equal(t, "message failed to send", view.Advisory)
	require.ErrorIs(t, view.Err, domain.ErrServerOffline)
	assert.Equal(t, "m-1", view.Items[0].Messages[0].ID, "only the optimistic entry is removed")
}

func TestSendMessageValidatesDraft(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.repo.FetchConversationsFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Conversation, error) {
		return []domain.Conversation{{ID: "v-1", Subject: "x"}}, nil
	}
	e := startedEngine(t, f, Options{})

	require.Eventually(t, func() bool {
		return len(e.Conversations().Items) == 1
	}, 2*time.Second, 5*time.Millisecond)

	err := e.SendMessage(domain.MessageDraft{ConversationID: "v-1", Body: ""})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	err = e.SendMessage(domain.MessageDraft{ConversationID: "v-404", Body: "hello"})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubmitGradesRejectsInvalidBatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	var calls atomic.Int32
	f.grades.SubmitGradeFunc = func(ctx context.Context, scope domain.Scope, sub domain.GradeSubmission) (domain.Grade, error) {
		calls.Add(1)
		return domain.Grade{}, nil
	}
	e := startedEngine(t, f, Options{})

	subs := []domain.GradeSubmission{
		{AssignmentID: "a-1", StudentID: "u-201", Score: 85, MaxScore: 100},
		{AssignmentID: "a-1", StudentID: "u-202", Score: 120, MaxScore: 100}, // over max
	}
	_, err := e.SubmitGrades(context.Background(), subs)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, calls.Load(), "an invalid entry rejects the whole batch before any network call")
}

func TestSubmitGradesPartialFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.grades.SubmitGradeFunc = func(ctx context.Context, scope domain.Scope, sub domain.GradeSubmission) (domain.Grade, error) {
		if sub.StudentID == "u-202" {
			return domain.Grade{}, domain.ErrServerOffline
		}
		return domain.Grade{
			ID:           "g-" + sub.StudentID,
			AssignmentID: sub.AssignmentID,
			StudentID:    sub.StudentID,
			Score:        sub.Score,
			MaxScore:     sub.MaxScore,
			Status:       domain.GradeStatusPosted,
		}, nil
	}
	e := startedEngine(t, f, Options{})

	require.Eventually(t, func() bool {
		return !e.Grades().Loading
	}, 2*time.Second, 5*time.Millisecond)

	subs := []domain.GradeSubmission{
		{AssignmentID: "a-1", StudentID: "u-201", Score: 85, MaxScore: 100},
		{AssignmentID: "a-1", StudentID: "u-202", Score: 91, MaxScore: 100},
		{AssignmentID: "a-1", StudentID: "u-203", Score: 78, MaxScore: 100},
	}
	res, err := e.SubmitGrades(context.Background(), subs)
	require.NoError(t, err, "partial failure is reported, not returned")
	assert.Equal(t, 2, res.Submitted)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"a-1/u-202"}, res.FailedIDs)

	assert.Len(t, e.Grades().Items, 2, "confirmed grades land in the collection")
	assert.Contains(t, e.Grades().Advisory, "1 of 3")
}

func TestSubmitGradesAllFailReturnsError(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.grades.SubmitGradeFunc = func(ctx context.Context, scope domain.Scope, sub domain.GradeSubmission) (domain.Grade, error) {
		return domain.Grade{}, domain.ErrServerOffline
	}
	e := startedEngine(t, f, Options{})

	subs := []domain.GradeSubmission{
		{AssignmentID: "a-1", StudentID: "u-201", Score: 85, MaxScore: 100},
		{AssignmentID: "a-1", StudentID: "u-202", Score: 91, MaxScore: 100},
	}
	res, err := e.SubmitGrades(context.Background(), subs)
	require.ErrorIs(t, err, domain.ErrServerOffline)
	assert.Zero(t, res.Submitted)
	assert.Equal(t, 2, res.Failed)
}

func TestSearchDebouncesAndRanks(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	var searchCalls atomic.Int32
	f.repo.FetchCoursesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
		if q.Search == "" {
			return nil, nil
		}
		searchCalls.Add(1)
		return []domain.Course{linearAlgebra()}, nil
	}
	e := startedEngine(t, f, Options{SearchDebounce: 50 * time.Millisecond})

	e.SubmitSearch(search.Query{Text: "lin", Kind: domain.KindCourses})
	e.SubmitSearch(search.Query{Text: "linear", Kind: domain.KindCourses})

	require.Eventually(t, func() bool {
		view := e.SearchResults()
		return !view.Loading && len(view.Results) == 1
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, int32(1), searchCalls.Load(), "rapid keystrokes collapse into one query")
	view := e.SearchResults()
	assert.Equal(t, "linear", view.Query.Text)
	assert.Equal(t, "c-1", view.Results[0].ID)

	e.ClearSearch()
	assert.Empty(t, e.SearchResults().Results)
}

func TestSearchFallsBackToLocalIndex(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	var offline atomic.Bool
	f.repo.FetchCoursesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
		if q.Search != "" {
			if offline.Load() {
				return nil, domain.ErrServerOffline
			}
			return nil, nil
		}
		return []domain.Course{linearAlgebra()}, nil
	}
	e := startedEngine(t, f, Options{SearchDebounce: 10 * time.Millisecond})

	require.Eventually(t, func() bool {
		return f.searcher.IndexCount(domain.KindCourses) == 1
	}, 2*time.Second, 5*time.Millisecond)

	offline.Store(true)
	e.SubmitSearch(search.Query{Text: "algebra", Kind: domain.KindCourses})

	require.Eventually(t, func() bool {
		return len(e.SearchResults().Results) == 1
	}, 2*time.Second, 5*time.Millisecond)

	view := e.SearchResults()
	require.NoError(t, view.Err, "local fallback answers instead of failing")
	assert.Equal(t, "c-1", view.Results[0].ID)
}

func TestReconnectTriggersRefresh(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.monitor.set(domain.NetworkQuality{}) // launch offline
	var calls atomic.Int32
	f.repo.FetchCoursesFunc = func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
		calls.Add(1)
		return []domain.Course{linearAlgebra()}, nil
	}
	startedEngine(t, f, Options{ReconnectPoll: 5 * time.Millisecond})

	require.Eventually(t, func() bool {
		return calls.Load() >= 1
	}, 2*time.Second, 5*time.Millisecond)
	before := calls.Load()

	f.monitor.set(domain.NetworkQuality{Connected: true})
	require.Eventually(t, func() bool {
		return calls.Load() > before
	}, 2*time.Second, 5*time.Millisecond)
}

func TestDemoModeClosesRefreshGate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	e := startedEngine(t, f, Options{Demo: true})

	_, ok := e.Session()
	require.True(t, ok)
	assert.False(t, e.refreshGate(), "demo sessions never refresh in the background")
}

func TestStatusesCoverEveryKind(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	e := startedEngine(t, f, Options{})

	statuses := e.Statuses()
	require.Len(t, statuses, len(domain.AllKinds()))
	for i, kind := range domain.AllKinds() {
		assert.Equal(t, kind, statuses[i].Kind)
	}
}
