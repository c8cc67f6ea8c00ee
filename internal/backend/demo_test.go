package backend

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwhalen/slate/internal/domain"
	"github.com/kwhalen/slate/internal/seed"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func teacherScope() domain.Scope {
	return domain.Scope{UserID: seed.TeacherID, Role: domain.RoleTeacher}
}

func TestDemoSessionIsBundledTeacher(t *testing.T) {
	t.Parallel()
	d := NewDemoClient(testLogger())

	got, err := d.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, seed.Session(), got)
	assert.Equal(t, domain.RoleTeacher, got.Role)
}

func TestDemoPaginatesLikeAServer(t *testing.T) {
	t.Parallel()
	d := NewDemoClient(testLogger())
	scope := teacherScope()

	first, err := d.FetchCourses(context.Background(), scope, domain.PageQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := d.FetchCourses(context.Background(), scope, domain.PageQuery{Offset: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.NotEqual(t, first[0].ID, second[0].ID)

	past, err := d.FetchCourses(context.Background(), scope, domain.PageQuery{Offset: 10, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestDemoSearchFiltersByLabel(t *testing.T) {
	t.Parallel()
	d := NewDemoClient(testLogger())

	got, err := d.FetchCourses(context.Background(), teacherScope(), domain.PageQuery{Search: "linear"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c-101", got[0].ID)
}

func TestDemoAssignmentCourseFilter(t *testing.T) {
	t.Parallel()
	d := NewDemoClient(testLogger())

	got, err := d.FetchAssignments(context.Background(), teacherScope(), domain.PageQuery{Filter: "c-101"})
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, a := range got {
		assert.Equal(t, "c-101", a.CourseID)
	}
}

func TestDemoUsersCourseFilter(t *testing.T) {
	t.Parallel()
	d := NewDemoClient(testLogger())

	got, err := d.FetchUsers(context.Background(), teacherScope(), domain.PageQuery{Filter: "c-102"})
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, u := range got {
		assert.Contains(t, u.CourseIDs, "c-102")
	}
}

func TestDemoRoleSlicesPassThrough(t *testing.T) {
	t.Parallel()
	d := NewDemoClient(testLogger())
	student := domain.Scope{UserID: seed.StudentID, Role: domain.RoleStudent}

	got, err := d.FetchAssignments(context.Background(), student, domain.PageQuery{})
	require.NoError(t, err)
	for _, a := range got {
		assert.True(t, a.Published, "students never see unpublished work")
	}
}

func TestDemoGradeEchoIsPosted(t *testing.T) {
	t.Parallel()
	d := NewDemoClient(testLogger())

	got, err := d.SubmitGrade(context.Background(), teacherScope(), domain.GradeSubmission{
		AssignmentID: "a-1", StudentID: seed.StudentID, Score: 88, MaxScore: 100, Comment: "solid",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, domain.GradeStatusPosted, got.Status)
	assert.Equal(t, seed.TeacherID, got.GradedBy)
	assert.Equal(t, 88.0, got.Score)
}

func TestDemoMessageEchoClearsPending(t *testing.T) {
	t.Parallel()
	d := NewDemoClient(testLogger())

	got, err := d.SendMessage(context.Background(), teacherScope(), "v-1",
		domain.Message{ID: "tmp-1", AuthorID: seed.TeacherID, Body: "reminder", Pending: true})
	require.NoError(t, err)
	assert.Equal(t, "tmp-1", got.ID)
	assert.False(t, got.Pending)
	assert.NotZero(t, got.SentAt)
}

func TestDemoHonorsCancelledContext(t *testing.T) {
	t.Parallel()
	d := NewDemoClient(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.FetchGrades(ctx, teacherScope(), domain.PageQuery{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewSelectsDemoSource(t *testing.T) {
	t.Parallel()
	campus, monitor, err := New("", "", true, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &DemoClient{}, campus)
	assert.True(t, monitor.Quality().Connected)
}

func TestNewRequiresServerAndToken(t *testing.T) {
	t.Parallel()
	_, _, err := New("", "tok", false, testLogger())
	require.Error(t, err)

	_, _, err = New("https://campus.example.edu", "", false, testLogger())
	require.Error(t, err)

	campus, monitor, err := New("https://campus.example.edu", "tok", false, testLogger())
	require.NoError(t, err)
	assert.NotNil(t, campus)
	assert.NotNil(t, monitor)
}

func TestStaticMonitorIsFixed(t *testing.T) {
	t.Parallel()
	m := StaticMonitor{Reading: domain.NetworkQuality{Connected: true, Metered: true}}
	m.Start()
	defer m.Stop()
	assert.Equal(t, domain.NetworkQuality{Connected: true, Metered: true}, m.Quality())
}
