package backend

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/kwhalen/slate/internal/domain"
	"github.com/kwhalen/slate/internal/seed"
)

// DemoClient serves the bundled sample dataset through the same ports
// as the REST client. Pagination, filtering, and search behave like the
// real server so every code path can be exercised without one.
type DemoClient struct {
	logger *slog.Logger
}

// NewDemoClient creates a campus source backed by sample data
func NewDemoClient(logger *slog.Logger) *DemoClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &DemoClient{logger: logger}
}

// CurrentSession returns the bundled teacher account
func (d *DemoClient) CurrentSession(ctx context.Context) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}
	return seed.Session(), nil
}

func (d *DemoClient) FetchCourses(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pageOf(seed.Courses(scope), q), nil
}

func (d *DemoClient) FetchAssignments(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items := seed.Assignments(scope)
	if q.Filter != "" {
		items = keep(items, func(a domain.Assignment) bool { return a.CourseID == q.Filter })
	}
	return pageOf(items, q), nil
}

func (d *DemoClient) FetchGrades(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Grade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items := seed.Grades(scope)
	if q.Filter != "" {
		items = keep(items, func(g domain.Grade) bool { return g.AssignmentID == q.Filter })
	}
	return pageOf(items, q), nil
}

func (d *DemoClient) FetchConversations(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pageOf(seed.Conversations(scope), q), nil
}

func (d *DemoClient) FetchUsers(ctx context.Context, scope domain.Scope, q domain.PageQuery) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items := seed.Users(scope)
	if q.Filter != "" {
		items = keep(items, func(u domain.User) bool {
			for _, id := range u.CourseIDs {
				if id == q.Filter {
					return true
				}
			}
			return false
		})
	}
	return pageOf(items, q), nil
}

// SubmitGrade acknowledges the posting the way a real server would
func (d *DemoClient) SubmitGrade(ctx context.Context, scope domain.Scope, sub domain.GradeSubmission) (domain.Grade, error) {
	if err := ctx.Err(); err != nil {
		return domain.Grade{}, err
	}
	d.logger.Debug("demo grade posted", "assignment", sub.AssignmentID, "student", sub.StudentID)
	return domain.Grade{
		ID:           "g-" + uuid.NewString(),
		AssignmentID: sub.AssignmentID,
		StudentID:    sub.StudentID,
		Score:        sub.Score,
		MaxScore:     sub.MaxScore,
		Comment:      sub.Comment,
		GradedBy:     scope.UserID,
		Status:       domain.GradeStatusPosted,
		UpdatedAt:    time.Now().Unix(),
	}, nil
}

// SendMessage acknowledges the message with the client ID intact
func (d *DemoClient) SendMessage(ctx context.Context, _ domain.Scope, conversationID string, msg domain.Message) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}
	d.logger.Debug("demo message sent", "conversation", conversationID)
	msg.Pending = false
	if msg.SentAt == 0 {
		msg.SentAt = time.Now().Unix()
	}
	return msg, nil
}

// keep returns the items the predicate accepts
func keep[T any](items []T, pred func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if pred(it) {
			out = append(out, it)
		}
	}
	return out
}

// pageOf applies the search filter, then slices one page
func pageOf[T domain.Resource](items []T, q domain.PageQuery) []T {
	if q.Search != "" {
		items = keep(items, func(it T) bool { return fuzzy.MatchFold(q.Search, it.GetLabel()) })
	}
	if q.Offset >= len(items) {
		return nil
	}
	items = items[q.Offset:]
	if q.Limit > 0 && q.Limit < len(items) {
		items = items[:q.Limit]
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
