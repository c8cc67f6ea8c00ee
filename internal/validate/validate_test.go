package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwhalen/slate/internal/domain"
)

func TestStructAcceptsValidSubmission(t *testing.T) {
	t.Parallel()
	sub := domain.GradeSubmission{AssignmentID: "a-1", StudentID: "u-201", Score: 85, MaxScore: 100}
	require.NoError(t, Struct(sub))
}

func TestStructRejectsBadSubmissions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		sub  domain.GradeSubmission
	}{
		{"missing assignment", domain.GradeSubmission{StudentID: "u-201", Score: 50, MaxScore: 100}},
		{"missing student", domain.GradeSubmission{AssignmentID: "a-1", Score: 50, MaxScore: 100}},
		{"negative score", domain.GradeSubmission{AssignmentID: "a-1", StudentID: "u-201", Score: -1, MaxScore: 100}},
		{"score over max", domain.GradeSubmission{AssignmentID: "a-1", StudentID: "u-201", Score: 120, MaxScore: 100}},
		{"zero max", domain.GradeSubmission{AssignmentID: "a-1", StudentID: "u-201", Score: 0, MaxScore: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Struct(tt.sub)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestStructNamesOffendingField(t *testing.T) {
	t.Parallel()
	err := Struct(domain.MessageDraft{ConversationID: "v-1"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "Body")
}
