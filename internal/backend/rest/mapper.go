package rest

import (
	"github.com/kwhalen/slate/internal/domain"
)

func toCourse(d courseDTO) domain.Course {
	return domain.Course{
		ID:        d.ID,
		Code:      d.Code,
		Title:     d.Title,
		Subject:   d.Subject,
		TeacherID: d.TeacherID,
		Term:      d.Term,
		UpdatedAt: d.UpdatedAt,
	}
}

func toAssignment(d assignmentDTO) domain.Assignment {
	return domain.Assignment{
		ID:           d.ID,
		CourseID:     d.CourseID,
		Title:        d.Title,
		Instructions: d.Instructions,
		DueAt:        d.DueAt,
		Points:       d.Points,
		Published:    d.Published,
		UpdatedAt:    d.UpdatedAt,
	}
}

func toGrade(d gradeDTO) domain.Grade {
	return domain.Grade{
		ID:           d.ID,
		AssignmentID: d.AssignmentID,
		StudentID:    d.StudentID,
		Score:        d.Score,
		MaxScore:     d.MaxScore,
		Comment:      d.Comment,
		GradedBy:     d.GradedBy,
		Status:       toGradeStatus(d.Status),
		UpdatedAt:    d.UpdatedAt,
	}
}

func toGradeStatus(s string) domain.GradeStatus {
	switch s {
	case "posted":
		return domain.GradeStatusPosted
	case "returned":
		return domain.GradeStatusReturned
	default:
		return domain.GradeStatusDraft
	}
}

func toMessage(d messageDTO) domain.Message {
	return domain.Message{
		ID:       d.ID,
		AuthorID: d.AuthorID,
		Body:     d.Body,
		SentAt:   d.SentAt,
	}
}

func toConversation(d conversationDTO) domain.Conversation {
	msgs := make([]domain.Message, 0, len(d.Messages))
	for _, m := range d.Messages {
		msgs = append(msgs, toMessage(m))
	}
	return domain.Conversation{
		ID:             d.ID,
		Subject:        d.Subject,
		ParticipantIDs: d.ParticipantIDs,
		Messages:       msgs,
		UnreadCount:    d.UnreadCount,
		UpdatedAt:      d.UpdatedAt,
	}
}

func toUser(d userDTO) domain.User {
	return domain.User{
		ID:        d.ID,
		Name:      d.Name,
		Email:     d.Email,
		Role:      domain.Role(d.Role),
		CourseIDs: d.CourseIDs,
		UpdatedAt: d.UpdatedAt,
	}
}

func toSession(d sessionDTO) domain.Session {
	return domain.Session{
		UserID: d.UserID,
		Name:   d.Name,
		Role:   domain.Role(d.Role),
	}
}

func mapSlice[D, T any](items []D, f func(D) T) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		out = append(out, f(it))
	}
	return out
}
