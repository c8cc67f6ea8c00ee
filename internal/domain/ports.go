package domain

import "context"

// CampusRepository: network reads (implemented by backend clients).
// Every method fetches exactly one page; callers own pagination.
type CampusRepository interface {
	FetchCourses(ctx context.Context, scope Scope, q PageQuery) ([]Course, error)
	FetchAssignments(ctx context.Context, scope Scope, q PageQuery) ([]Assignment, error)
	FetchGrades(ctx context.Context, scope Scope, q PageQuery) ([]Grade, error)
	FetchConversations(ctx context.Context, scope Scope, q PageQuery) ([]Conversation, error)
	FetchUsers(ctx context.Context, scope Scope, q PageQuery) ([]User, error)
}

// GradeWriter posts scores to the server
type GradeWriter interface {
	SubmitGrade(ctx context.Context, scope Scope, sub GradeSubmission) (Grade, error)
}

// MessageWriter appends messages to conversation threads
type MessageWriter interface {
	SendMessage(ctx context.Context, scope Scope, conversationID string, msg Message) (Message, error)
}

// Identity resolves who is signed in
type Identity interface {
	CurrentSession(ctx context.Context) (Session, error)
}

// NetworkMonitor reports link quality. Implementations only observe;
// they never trigger refreshes themselves.
type NetworkMonitor interface {
	Quality() NetworkQuality
}

// CacheStore handles the local cache (BoltDB + memory).
// Values are opaque encoded collections; kind and scope select the slot.
type CacheStore interface {
	Put(kind ResourceKind, scope string, data []byte) error
	Get(kind ResourceKind, scope string) (data []byte, savedAt int64, ok bool)

	PutFingerprints(kind ResourceKind, scope string, fps Fingerprints) error
	GetFingerprints(kind ResourceKind, scope string) (Fingerprints, bool)

	// ClearScope removes everything cached for one account
	ClearScope(scope string) error

	Close() error
}
