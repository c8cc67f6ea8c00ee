package domain

import (
	"fmt"
	"strings"
	"time"
)

// Course represents one section of a class a user participates in
type Course struct {
	ID        string // Server-assigned unique identifier
	Code      string // Short course code (e.g., "MATH-301")
	Title     string // Display title
	Subject   string // Subject area (e.g., "Mathematics")
	TeacherID string // Owning teacher's user ID
	Term      string // Academic term (e.g., "2026 Fall")
	UpdatedAt int64  // Unix timestamp when last changed on the server
}

// DisplayCode returns the code with the title appended when one exists
func (c Course) DisplayCode() string {
	if c.Title == "" {
		return c.Code
	}
	return fmt.Sprintf("%s %s", c.Code, c.Title)
}

func (c Course) GetID() string         { return c.ID }
func (c Course) GetLabel() string      { return strings.TrimSpace(c.Code + " " + c.Title + " " + c.Subject) }
func (c Course) GetUpdatedAt() int64   { return c.UpdatedAt }
func (c Course) GetKind() ResourceKind { return KindCourses }

// Assignment represents gradable coursework within a course
type Assignment struct {
	ID           string  // Server-assigned unique identifier
	CourseID     string  // Parent course ID
	Title        string  // Display title
	Instructions string  // Full prompt shown to students
	DueAt        int64   // Unix timestamp of the deadline (0 = no deadline)
	Points       float64 // Maximum points
	Published    bool    // Whether students can see it yet
	UpdatedAt    int64   // Unix timestamp when last changed on the server
}

// IsPastDue reports whether the deadline has passed
func (a Assignment) IsPastDue(now time.Time) bool {
	return a.DueAt > 0 && now.Unix() > a.DueAt
}

// DueLabel returns the deadline in a short human-readable form
func (a Assignment) DueLabel() string {
	if a.DueAt == 0 {
		return "no deadline"
	}
	return time.Unix(a.DueAt, 0).Format("Jan 2 15:04")
}

func (a Assignment) GetID() string         { return a.ID }
func (a Assignment) GetLabel() string      { return a.Title }
func (a Assignment) GetUpdatedAt() int64   { return a.UpdatedAt }
func (a Assignment) GetKind() ResourceKind { return KindAssignments }

// GradeStatus represents the publication state of a grade
type GradeStatus int

const (
	GradeStatusDraft GradeStatus = iota
	GradeStatusPosted
	GradeStatusReturned
)

// String returns a human-readable representation of the grade status
func (g GradeStatus) String() string {
	switch g {
	case GradeStatusDraft:
		return "Draft"
	case GradeStatusPosted:
		return "Posted"
	case GradeStatusReturned:
		return "Returned"
	default:
		return "Unknown"
	}
}

// Grade represents one student's score on one assignment
type Grade struct {
	ID           string      // Server-assigned unique identifier
	AssignmentID string      // Graded assignment ID
	StudentID    string      // Graded student's user ID
	Score        float64     // Awarded points
	MaxScore     float64     // Maximum awardable points
	Comment      string      // Grader's feedback
	GradedBy     string      // Grading teacher's user ID
	Status       GradeStatus // Draft, Posted, or Returned
	UpdatedAt    int64       // Unix timestamp when last changed on the server
}

// Percent returns the score as a percentage, or 0 when MaxScore is unset
func (g Grade) Percent() float64 {
	if g.MaxScore <= 0 {
		return 0
	}
	return g.Score / g.MaxScore * 100
}

// Letter returns the letter grade for the percentage
func (g Grade) Letter() string {
	switch p := g.Percent(); {
	case p >= 90:
		return "A"
	case p >= 80:
		return "B"
	case p >= 70:
		return "C"
	case p >= 60:
		return "D"
	default:
		return "F"
	}
}

func (g Grade) GetID() string         { return g.ID }
func (g Grade) GetLabel() string      { return strings.TrimSpace(g.AssignmentID + " " + g.Comment) }
func (g Grade) GetUpdatedAt() int64   { return g.UpdatedAt }
func (g Grade) GetKind() ResourceKind { return KindGrades }

// Message represents one entry in a conversation thread
type Message struct {
	ID       string // Unique identifier (client-assigned until acknowledged)
	AuthorID string // Sending user's ID
	Body     string // Message text
	SentAt   int64  // Unix timestamp when sent
	Pending  bool   // True while the send has not been acknowledged
}

// Conversation represents a message thread between users
type Conversation struct {
	ID             string    // Server-assigned unique identifier
	Subject        string    // Thread subject line
	ParticipantIDs []string  // User IDs of all participants
	Messages       []Message // Thread entries, oldest first
	UnreadCount    int       // Messages the current user has not read
	UpdatedAt      int64     // Unix timestamp when last changed on the server
}

// LastMessage returns the newest entry in the thread
func (c Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// HasUnread reports whether the thread has unread messages
func (c Conversation) HasUnread() bool { return c.UnreadCount > 0 }

func (c Conversation) GetID() string         { return c.ID }
func (c Conversation) GetLabel() string      { return c.Subject }
func (c Conversation) GetUpdatedAt() int64   { return c.UpdatedAt }
func (c Conversation) GetKind() ResourceKind { return KindConversations }

// User represents a person in the campus directory
type User struct {
	ID        string   // Server-assigned unique identifier
	Name      string   // Display name
	Email     string   // Contact address
	Role      Role     // Student, Teacher, Parent, or Admin
	CourseIDs []string // Courses the user participates in
	UpdatedAt int64    // Unix timestamp when last changed on the server
}

// DisplayName returns the name with the role appended
func (u User) DisplayName() string {
	if u.Name == "" {
		return u.ID
	}
	return fmt.Sprintf("%s (%s)", u.Name, u.Role)
}

func (u User) GetID() string         { return u.ID }
func (u User) GetLabel() string      { return strings.TrimSpace(u.Name + " " + u.Email) }
func (u User) GetUpdatedAt() int64   { return u.UpdatedAt }
func (u User) GetKind() ResourceKind { return KindUsers }

// GradeSubmission is the payload for posting a score.
// Validated before any network or cache work happens.
type GradeSubmission struct {
	AssignmentID string  `validate:"required"`
	StudentID    string  `validate:"required"`
	Score        float64 `validate:"gte=0,ltefield=MaxScore"`
	MaxScore     float64 `validate:"gt=0"`
	Comment      string  `validate:"max=2000"`
}

// MessageDraft is the payload for sending a conversation message.
type MessageDraft struct {
	ConversationID string `validate:"required"`
	Body           string `validate:"required,max=4000"`
}
