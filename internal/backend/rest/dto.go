package rest

// Wire types for the campus REST API. Timestamps are Unix seconds.

type pageEnvelope[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

type courseDTO struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Title     string `json:"title"`
	Subject   string `json:"subject"`
	TeacherID string `json:"teacher_id"`
	Term      string `json:"term"`
	UpdatedAt int64  `json:"updated_at"`
}

type assignmentDTO struct {
	ID           string  `json:"id"`
	CourseID     string  `json:"course_id"`
	Title        string  `json:"title"`
	Instructions string  `json:"instructions"`
	DueAt        int64   `json:"due_at"`
	Points       float64 `json:"points"`
	Published    bool    `json:"published"`
	UpdatedAt    int64   `json:"updated_at"`
}

type gradeDTO struct {
	ID           string  `json:"id"`
	AssignmentID string  `json:"assignment_id"`
	StudentID    string  `json:"student_id"`
	Score        float64 `json:"score"`
	MaxScore     float64 `json:"max_score"`
	Comment      string  `json:"comment"`
	GradedBy     string  `json:"graded_by"`
	Status       string  `json:"status"`
	UpdatedAt    int64   `json:"updated_at"`
}

type messageDTO struct {
	ID       string `json:"id"`
	AuthorID string `json:"author_id"`
	Body     string `json:"body"`
	SentAt   int64  `json:"sent_at"`
}

type conversationDTO struct {
	ID             string       `json:"id"`
	Subject        string       `json:"subject"`
	ParticipantIDs []string     `json:"participant_ids"`
	Messages       []messageDTO `json:"messages"`
	UnreadCount    int          `json:"unread_count"`
	UpdatedAt      int64        `json:"updated_at"`
}

type userDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Role      string   `json:"role"`
	CourseIDs []string `json:"course_ids"`
	UpdatedAt int64    `json:"updated_at"`
}

type sessionDTO struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

type gradePostDTO struct {
	AssignmentID string  `json:"assignment_id"`
	StudentID    string  `json:"student_id"`
	Score        float64 `json:"score"`
	MaxScore     float64 `json:"max_score"`
	Comment      string  `json:"comment,omitempty"`
}

type messagePostDTO struct {
	// ClientID lets the server deduplicate retried sends
	ClientID string `json:"client_id"`
	Body     string `json:"body"`
}
