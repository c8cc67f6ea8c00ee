package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGradeLetter(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		score  float64
		max    float64
		letter string
	}{
		{"top of scale", 95, 100, "A"},
		{"boundary A", 90, 100, "A"},
		{"boundary B", 80, 100, "B"},
		{"mid C", 74, 100, "C"},
		{"boundary D", 60, 100, "D"},
		{"failing", 30, 100, "F"},
		{"unset max", 10, 0, "F"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := Grade{Score: tt.score, MaxScore: tt.max}
			assert.Equal(t, tt.letter, g.Letter())
		})
	}
}

func TestGradePercent(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 82.0, Grade{Score: 41, MaxScore: 50}.Percent(), 0.001)
	assert.Zero(t, Grade{Score: 41}.Percent())
}

func TestAssignmentDeadlines(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC)

	due := Assignment{DueAt: now.Add(-time.Hour).Unix()}
	assert.True(t, due.IsPastDue(now))

	upcoming := Assignment{DueAt: now.Add(time.Hour).Unix()}
	assert.False(t, upcoming.IsPastDue(now))

	open := Assignment{}
	assert.False(t, open.IsPastDue(now))
	assert.Equal(t, "no deadline", open.DueLabel())
}

func TestConversationLastMessage(t *testing.T) {
	t.Parallel()
	empty := Conversation{}
	_, ok := empty.LastMessage()
	assert.False(t, ok)

	c := Conversation{Messages: []Message{{ID: "m-1"}, {ID: "m-2"}}}
	last, ok := c.LastMessage()
	assert.True(t, ok)
	assert.Equal(t, "m-2", last.ID)
}

func TestScopeKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "u-7", Scope{UserID: "u-7", Role: RoleStudent}.Key())
	assert.Equal(t, "anonymous", Scope{}.Key())
}

func TestRoleValid(t *testing.T) {
	t.Parallel()
	for _, r := range []Role{RoleStudent, RoleTeacher, RoleParent, RoleAdmin} {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("janitor").Valid())
}

func TestNetworkQualityString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "offline", NetworkQuality{}.String())
	assert.Equal(t, "good", NetworkQuality{Connected: true}.String())
	assert.Equal(t, "metered", NetworkQuality{Connected: true, Metered: true}.String())
	assert.Equal(t, "constrained", NetworkQuality{Connected: true, Metered: true, Constrained: true}.String())
}

func TestGradeStatusString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Draft", GradeStatusDraft.String())
	assert.Equal(t, "Posted", GradeStatusPosted.String())
	assert.Equal(t, "Returned", GradeStatusReturned.String())
	assert.Equal(t, "Unknown", GradeStatus(42).String())
}

func TestDisplayHelpers(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "MATH-301 Linear Algebra", Course{Code: "MATH-301", Title: "Linear Algebra"}.DisplayCode())
	assert.Equal(t, "MATH-301", Course{Code: "MATH-301"}.DisplayCode())
	assert.Equal(t, "Alice Nguyen (student)", User{Name: "Alice Nguyen", Role: RoleStudent}.DisplayName())
	assert.Equal(t, "u-201", User{ID: "u-201"}.DisplayName())
}
