package components

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kwhalen/slate/internal/domain"
	"github.com/kwhalen/slate/internal/tui/styles"
)

const (
	fieldStudent = iota
	fieldScore
	fieldComment
	fieldCount
)

// GradeForm is the score entry modal for teachers
type GradeForm struct {
	visible      bool
	assignmentID string
	title        string
	maxScore     float64
	focus        int
	inputs       [fieldCount]textinput.Model
}

// NewGradeForm creates the grade entry modal
func NewGradeForm() GradeForm {
	var f GradeForm
	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Width = 40
		ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
		ti.PlaceholderStyle = styles.DimStyle
		f.inputs[i] = ti
	}
	f.inputs[fieldStudent].Placeholder = "student ID"
	f.inputs[fieldStudent].CharLimit = 64
	f.inputs[fieldScore].Placeholder = "score"
	f.inputs[fieldScore].CharLimit = 10
	f.inputs[fieldComment].Placeholder = "feedback (optional)"
	f.inputs[fieldComment].CharLimit = 2000
	return f
}

// Show opens the modal for one assignment. studentID and score may be
// prefilled when regrading an existing entry.
func (f *GradeForm) Show(assignmentID, title string, maxScore float64, studentID, score string) {
	f.visible = true
	f.assignmentID = assignmentID
	f.title = title
	f.maxScore = maxScore

	f.inputs[fieldStudent].SetValue(studentID)
	f.inputs[fieldScore].SetValue(score)
	f.inputs[fieldComment].SetValue("")

	f.focus = fieldStudent
	if studentID != "" {
		f.focus = fieldScore
	}
	f.applyFocus()
}

// Hide dismisses the modal
func (f *GradeForm) Hide() {
	f.visible = false
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

// IsVisible returns whether the modal is shown
func (f GradeForm) IsVisible() bool { return f.visible }

// Submission builds the payload from the form fields
func (f GradeForm) Submission() (domain.GradeSubmission, error) {
	raw := strings.TrimSpace(f.inputs[fieldScore].Value())
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return domain.GradeSubmission{}, fmt.Errorf("score %q is not a number", raw)
	}
	return domain.GradeSubmission{
		AssignmentID: f.assignmentID,
		StudentID:    strings.TrimSpace(f.inputs[fieldStudent].Value()),
		Score:        score,
		MaxScore:     f.maxScore,
		Comment:      strings.TrimSpace(f.inputs[fieldComment].Value()),
	}, nil
}

func (f *GradeForm) applyFocus() {
	for i := range f.inputs {
		if i == f.focus {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

// Update handles input events, returns (form, cmd, submitted)
func (f GradeForm) Update(msg tea.Msg) (GradeForm, tea.Cmd, bool) {
	if !f.visible {
		return f, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			return f, nil, true
		case "esc":
			f.Hide()
			return f, nil, false
		case "tab", "down":
			f.focus = (f.focus + 1) % fieldCount
			f.applyFocus()
			return f, nil, false
		case "shift+tab", "up":
			f.focus = (f.focus + fieldCount - 1) % fieldCount
			f.applyFocus()
			return f, nil, false
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd, false
}

// View renders the grade entry modal
func (f GradeForm) View() string {
	if !f.visible {
		return ""
	}

	const modalWidth = 50

	title := styles.ModalTitleStyle.Render("Grade: " + styles.Truncate(f.title, modalWidth-10))
	max := styles.DimStyle.Render(fmt.Sprintf("out of %.4g points", f.maxScore))

	label := func(text string, active bool) string {
		if active {
			return styles.AccentStyle.Render(text)
		}
		return styles.SubtitleStyle.Render(text)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		max,
		"",
		label("Student", f.focus == fieldStudent),
		f.inputs[fieldStudent].View(),
		label("Score", f.focus == fieldScore),
		f.inputs[fieldScore].View(),
		label("Comment", f.focus == fieldComment),
		f.inputs[fieldComment].View(),
		"",
		styles.DimStyle.Render("tab to move, enter to post, esc to cancel"),
	)

	return styles.ModalStyle.Width(modalWidth).Render(content)
}
