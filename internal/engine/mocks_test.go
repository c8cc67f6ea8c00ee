package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kwhalen/slate/internal/domain"
	"github.com/kwhalen/slate/internal/search"
	"github.com/kwhalen/slate/internal/store"
)

var testSession = domain.Session{UserID: "u-100", Name: "Dana Whitfield", Role: domain.RoleTeacher}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeMonitor is a NetworkMonitor whose reading tests flip at will
type fakeMonitor struct {
	mu sync.Mutex
	q  domain.NetworkQuality
}

func newFakeMonitor(q domain.NetworkQuality) *fakeMonitor { return &fakeMonitor{q: q} }

func (m *fakeMonitor) Quality() domain.NetworkQuality {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q
}

func (m *fakeMonitor) set(q domain.NetworkQuality) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.q = q
}

// campusMock implements domain.CampusRepository with pluggable funcs.
// A nil func succeeds with no items.
type campusMock struct {
	FetchCoursesFunc       func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error)
	FetchAssignmentsFunc   func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Assignment, error)
	FetchGradesFunc        func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Grade, error)
	FetchConversationsFunc func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Conversation, error)
	FetchUsersFunc         func(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.User, error)
}

func (m *campusMock) FetchCourses(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
	if m.FetchCoursesFunc == nil {
		return nil, nil
	}
	return m.FetchCoursesFunc(ctx, scope, q)
}

func (m *campusMock) FetchAssignments(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Assignment, error) {
	if m.FetchAssignmentsFunc == nil {
		return nil, nil
	}
	return m.FetchAssignmentsFunc(ctx, scope, q)
}

func (m *campusMock) FetchGrades(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Grade, error) {
	if m.FetchGradesFunc == nil {
		return nil, nil
	}
	return m.FetchGradesFunc(ctx, scope, q)
}

func (m *campusMock) FetchConversations(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Conversation, error) {
	if m.FetchConversationsFunc == nil {
		return nil, nil
	}
	return m.FetchConversationsFunc(ctx, scope, q)
}

func (m *campusMock) FetchUsers(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.User, error) {
	if m.FetchUsersFunc == nil {
		return nil, nil
	}
	return m.FetchUsersFunc(ctx, scope, q)
}

type gradeWriterMock struct {
	SubmitGradeFunc func(ctx context.Context, scope domain.Scope, sub domain.GradeSubmission) (domain.Grade, error)
}

func (m *gradeWriterMock) SubmitGrade(ctx context.Context, scope domain.Scope, sub domain.GradeSubmission) (domain.Grade, error) {
	if m.SubmitGradeFunc == nil {
		return domain.Grade{ID: sub.AssignmentID + "/" + sub.StudentID}, nil
	}
	return m.SubmitGradeFunc(ctx, scope, sub)
}

type messageWriterMock struct {
	SendMessageFunc func(ctx context.Context, scope domain.Scope, conversationID string, msg domain.Message) (domain.Message, error)
}

func (m *messageWriterMock) SendMessage(ctx context.Context, scope domain.Scope, conversationID string, msg domain.Message) (domain.Message, error) {
	if m.SendMessageFunc == nil {
		return msg, nil
	}
	return m.SendMessageFunc(ctx, scope, conversationID, msg)
}

type identityMock struct {
	CurrentSessionFunc func(ctx context.Context) (domain.Session, error)
}

func (m *identityMock) CurrentSession(ctx context.Context) (domain.Session, error) {
	if m.CurrentSessionFunc == nil {
		return testSession, nil
	}
	return m.CurrentSessionFunc(ctx)
}

// engineFixture bundles an engine's collaborators with a memory-only
// cache so tests can reach in from both sides
type engineFixture struct {
	repo     *campusMock
	grades   *gradeWriterMock
	messages *messageWriterMock
	identity *identityMock
	monitor  *fakeMonitor
	cache    *store.CampusStore
	searcher *search.Service
}

func newFixture(t *testing.T) *engineFixture {
	t.Helper()
	cache, err := store.NewCampusStore("", "https://campus.test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	repo := &campusMock{}
	return &engineFixture{
		repo:     repo,
		grades:   &gradeWriterMock{},
		messages: &messageWriterMock{},
		identity: &identityMock{},
		monitor:  newFakeMonitor(domain.NetworkQuality{Connected: true}),
		cache:    cache,
		searcher: search.NewService(repo, testLogger()),
	}
}

func (f *engineFixture) build(t *testing.T, opts Options) *Engine {
	t.Helper()
	e, err := New(Deps{
		Repo:     f.repo,
		Grades:   f.grades,
		Messages: f.messages,
		Identity: f.identity,
		Monitor:  f.monitor,
		Cache:    f.cache,
		Searcher: f.searcher,
		Logger:   testLogger(),
	}, opts)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}
