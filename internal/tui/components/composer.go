package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kwhalen/slate/internal/tui/styles"
)

// Composer is the reply modal for a conversation thread
type Composer struct {
	visible        bool
	subject        string
	conversationID string
	input          textinput.Model
}

// NewComposer creates the reply modal
func NewComposer() Composer {
	ti := textinput.New()
	ti.Placeholder = "Write a message..."
	ti.CharLimit = 4000
	ti.Width = 56
	ti.Prompt = ""
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return Composer{input: ti}
}

// Show opens the modal for one conversation
func (c *Composer) Show(conversationID, subject string) {
	c.visible = true
	c.conversationID = conversationID
	c.subject = subject
	c.input.SetValue("")
	c.input.Focus()
}

// Hide dismisses the modal
func (c *Composer) Hide() {
	c.visible = false
	c.input.Blur()
}

// IsVisible returns whether the modal is shown
func (c Composer) IsVisible() bool { return c.visible }

// ConversationID returns the thread the reply targets
func (c Composer) ConversationID() string { return c.conversationID }

// Body returns the drafted message text
func (c Composer) Body() string { return c.input.Value() }

// Update handles input events, returns (composer, cmd, submitted)
func (c Composer) Update(msg tea.Msg) (Composer, tea.Cmd, bool) {
	if !c.visible {
		return c, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			return c, nil, true
		case "esc":
			c.Hide()
			return c, nil, false
		}
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd, false
}

// View renders the reply modal
func (c Composer) View() string {
	if !c.visible {
		return ""
	}

	const modalWidth = 60

	title := styles.ModalTitleStyle.Render("Reply: " + styles.Truncate(c.subject, modalWidth-8))
	hint := styles.DimStyle.Render("enter to send, esc to cancel")

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		c.input.View(),
		"",
		hint,
	)

	return styles.ModalStyle.Width(modalWidth).Render(content)
}
