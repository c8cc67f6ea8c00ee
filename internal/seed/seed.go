// Package seed provides the deterministic sample dataset shown when
// both the server and the local cache have nothing to offer, and
// served wholesale in demo mode.
package seed

import (
	"time"

	"github.com/kwhalen/slate/internal/domain"
)

var base = time.Date(2026, time.August, 10, 9, 0, 0, 0, time.UTC).Unix()

const (
	TeacherID = "u-100"
	StudentID = "u-201"
	ParentID  = "u-301"
)

func day(n int) int64 { return base + int64(n)*86400 }

// Session returns the identity used in demo mode
func Session() domain.Session {
	return domain.Session{UserID: TeacherID, Name: "Dana Whitfield", Role: domain.RoleTeacher}
}

func Courses(scope domain.Scope) []domain.Course {
	return []domain.Course{
		{ID: "c-101", Code: "MATH-301", Title: "Linear Algebra", Subject: "Mathematics", TeacherID: TeacherID, Term: "2026 Fall", UpdatedAt: day(0)},
		{ID: "c-102", Code: "PHYS-110", Title: "Mechanics", Subject: "Physics", TeacherID: TeacherID, Term: "2026 Fall", UpdatedAt: day(0)},
		{ID: "c-103", Code: "CS-210", Title: "Data Structures", Subject: "Computer Science", TeacherID: TeacherID, Term: "2026 Fall", UpdatedAt: day(1)},
	}
}

func Assignments(scope domain.Scope) []domain.Assignment {
	all := []domain.Assignment{
		{ID: "a-1", CourseID: "c-101", Title: "Problem Set 1", Instructions: "Sections 1.1-1.4, problems 2, 5, 9.", DueAt: day(7), Points: 100, Published: true, UpdatedAt: day(1)},
		{ID: "a-2", CourseID: "c-101", Title: "Midterm Review", Instructions: "Practice problems; not collected.", DueAt: day(14), Points: 0, Published: false, UpdatedAt: day(2)},
		{ID: "a-3", CourseID: "c-102", Title: "Lab Report: Pendulum", Instructions: "Full writeup with error analysis.", DueAt: day(9), Points: 50, Published: true, UpdatedAt: day(2)},
		{ID: "a-4", CourseID: "c-103", Title: "Binary Trees Exercise", Instructions: "Implement insert, delete, and traversal.", DueAt: day(11), Points: 80, Published: true, UpdatedAt: day(3)},
	}
	if scope.Role == domain.RoleStudent || scope.Role == domain.RoleParent {
		// Students never see unpublished work
		published := make([]domain.Assignment, 0, len(all))
		for _, a := range all {
			if a.Published {
				published = append(published, a)
			}
		}
		return published
	}
	return all
}

func Grades(scope domain.Scope) []domain.Grade {
	all := []domain.Grade{
		{ID: "g-1", AssignmentID: "a-1", StudentID: StudentID, Score: 88, MaxScore: 100, Comment: "Good work; watch sign errors in 9b.", GradedBy: TeacherID, Status: domain.GradeStatusPosted, UpdatedAt: day(8)},
		{ID: "g-2", AssignmentID: "a-1", StudentID: "u-202", Score: 92, MaxScore: 100, Comment: "", GradedBy: TeacherID, Status: domain.GradeStatusPosted, UpdatedAt: day(8)},
		{ID: "g-3", AssignmentID: "a-3", StudentID: StudentID, Score: 41, MaxScore: 50, Comment: "Error bars missing.", GradedBy: TeacherID, Status: domain.GradeStatusDraft, UpdatedAt: day(10)},
	}
	if scope.Role == domain.RoleStudent || scope.Role == domain.RoleParent {
		// Students and parents see only the household's posted grades
		mine := make([]domain.Grade, 0, len(all))
		for _, g := range all {
			if g.StudentID == StudentID && g.Status == domain.GradeStatusPosted {
				mine = append(mine, g)
			}
		}
		return mine
	}
	return all
}

func Conversations(scope domain.Scope) []domain.Conversation {
	return []domain.Conversation{
		{
			ID: "v-1", Subject: "Problem Set 1 questions",
			ParticipantIDs: []string{TeacherID, StudentID},
			Messages: []domain.Message{
				{ID: "m-1", AuthorID: StudentID, Body: "Is problem 9 using the convention from lecture?", SentAt: day(3)},
				{ID: "m-2", AuthorID: TeacherID, Body: "Yes, same convention. Office hours Tuesday if you get stuck.", SentAt: day(3) + 3600},
			},
			UnreadCount: 0, UpdatedAt: day(3) + 3600,
		},
		{
			ID: "v-2", Subject: "Field trip permission",
			ParticipantIDs: []string{TeacherID, ParentID},
			Messages: []domain.Message{
				{ID: "m-3", AuthorID: ParentID, Body: "The signed form is in Alice's folder.", SentAt: day(5)},
			},
			UnreadCount: 1, UpdatedAt: day(5),
		},
	}
}

func Users(scope domain.Scope) []domain.User {
	return []domain.User{
		{ID: TeacherID, Name: "Dana Whitfield", Email: "dwhitfield@campus.example.edu", Role: domain.RoleTeacher, CourseIDs: []string{"c-101", "c-102", "c-103"}, UpdatedAt: day(0)},
		{ID: StudentID, Name: "Alice Nguyen", Email: "anguyen@campus.example.edu", Role: domain.RoleStudent, CourseIDs: []string{"c-101", "c-102"}, UpdatedAt: day(0)},
		{ID: "u-202", Name: "Ben Ortiz", Email: "bortiz@campus.example.edu", Role: domain.RoleStudent, CourseIDs: []string{"c-101", "c-103"}, UpdatedAt: day(0)},
		{ID: "u-203", Name: "Chloe Park", Email: "cpark@campus.example.edu", Role: domain.RoleStudent, CourseIDs: []string{"c-102", "c-103"}, UpdatedAt: day(1)},
		{ID: ParentID, Name: "Minh Nguyen", Email: "mnguyen@mail.example.com", Role: domain.RoleParent, CourseIDs: nil, UpdatedAt: day(0)},
	}
}
