package domain

import "context"

// ResourceKind names one cacheable collection type
type ResourceKind string

const (
	KindCourses       ResourceKind = "courses"
	KindAssignments   ResourceKind = "assignments"
	KindGrades        ResourceKind = "grades"
	KindConversations ResourceKind = "conversations"
	KindUsers         ResourceKind = "users"
)

// AllKinds returns every collection kind in display order
func AllKinds() []ResourceKind {
	return []ResourceKind{
		KindCourses,
		KindAssignments,
		KindGrades,
		KindConversations,
		KindUsers,
	}
}

func (k ResourceKind) String() string { return string(k) }

// Resource is implemented by every cacheable entity
type Resource interface {
	GetID() string
	GetLabel() string
	GetUpdatedAt() int64
	GetKind() ResourceKind
}

// Role distinguishes what a signed-in user is allowed to see
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
	RoleAdmin   Role = "admin"
)

// Valid reports whether the role is one the server issues
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleParent, RoleAdmin:
		return true
	}
	return false
}

// Session identifies the signed-in account
type Session struct {
	UserID string // Account identifier, scopes all cached data
	Name   string // Display name
	Role   Role   // Determines visible slices of each collection
}

// Scope narrows every fetch and cache access to one account
type Scope struct {
	UserID string
	Role   Role
}

// Key returns the cache key prefix for this scope
func (s Scope) Key() string {
	if s.UserID == "" {
		return "anonymous"
	}
	return s.UserID
}

// PageQuery carries filter and pagination parameters for one fetch
type PageQuery struct {
	Filter string // Optional parent filter (e.g., course ID)
	Search string // Optional free-text query
	Offset int    // Items to skip
	Limit  int    // Page size
}

// FetchFunc fetches one page of a collection from the server
type FetchFunc[T Resource] func(ctx context.Context, scope Scope, q PageQuery) ([]T, error)

// Fingerprints maps item ID to the content fingerprint recorded
// when the collection was last cached
type Fingerprints map[string]string

// NetworkQuality is a point-in-time reading of the link to the server
type NetworkQuality struct {
	Connected   bool // Server reachable at all
	Metered     bool // Link should be used sparingly
	Constrained bool // Link is slow or lossy
}

// String returns a human-readable representation of the reading
func (q NetworkQuality) String() string {
	switch {
	case !q.Connected:
		return "offline"
	case q.Constrained:
		return "constrained"
	case q.Metered:
		return "metered"
	default:
		return "good"
	}
}
