package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kwhalen/slate/internal/search"
	"github.com/kwhalen/slate/internal/tui/styles"
)

const maxVisibleResults = 10

// SearchBar is the full-screen search overlay. It owns the query input
// and the ranked result list; the app owns submitting the query to the
// engine and reacting to the picked result.
type SearchBar struct {
	visible bool
	input   textinput.Model
	results []search.Result
	cursor  int
	loading bool
	width   int
	height  int
}

// NewSearchBar creates the search overlay
func NewSearchBar() SearchBar {
	ti := textinput.New()
	ti.Placeholder = "Search courses, assignments, grades, messages, people..."
	ti.CharLimit = 120
	ti.Width = 50
	ti.Prompt = "/ "
	ti.PromptStyle = styles.AccentStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return SearchBar{input: ti}
}

// Show opens the overlay with an empty query
func (s *SearchBar) Show() {
	s.visible = true
	s.input.SetValue("")
	s.results = nil
	s.cursor = 0
	s.loading = false
	s.input.Focus()
}

// Hide dismisses the overlay
func (s *SearchBar) Hide() {
	s.visible = false
	s.input.Blur()
}

// IsVisible returns whether the overlay is shown
func (s SearchBar) IsVisible() bool { return s.visible }

// Query returns the current query text
func (s SearchBar) Query() string { return s.input.Value() }

// SetResults replaces the result list with a fresh ranking
func (s *SearchBar) SetResults(results []search.Result) {
	s.results = results
	s.loading = false
	if s.cursor >= len(results) {
		s.cursor = 0
	}
}

// SetLoading marks the result list as pending
func (s *SearchBar) SetLoading(loading bool) { s.loading = loading }

// SetSize updates the available screen area
func (s *SearchBar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// Selected returns the result under the cursor
func (s SearchBar) Selected() (search.Result, bool) {
	if s.cursor < 0 || s.cursor >= len(s.results) {
		return search.Result{}, false
	}
	return s.results[s.cursor], true
}

// Update handles input events, returns (bar, cmd, picked)
func (s SearchBar) Update(msg tea.Msg) (SearchBar, tea.Cmd, bool) {
	if !s.visible {
		return s, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			if _, ok := s.Selected(); ok {
				return s, nil, true
			}
			return s, nil, false
		case "esc":
			s.Hide()
			return s, nil, false
		case "up", "ctrl+k":
			if s.cursor > 0 {
				s.cursor--
			}
			return s, nil, false
		case "down", "ctrl+j":
			if s.cursor < len(s.results)-1 {
				s.cursor++
			}
			return s, nil, false
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd, false
}

// View renders the overlay centered on the screen
func (s SearchBar) View() string {
	if !s.visible {
		return ""
	}

	modalWidth := 64
	if s.width > 0 && modalWidth > s.width-4 {
		modalWidth = s.width - 4
	}
	innerWidth := modalWidth - 6 // modal padding and border

	header := styles.ModalTitleStyle.Render("Search")
	input := s.input.View()

	var body string
	switch {
	case s.loading:
		body = styles.DimStyle.Render("searching...")
	case len(s.results) == 0 && s.Query() != "":
		body = styles.DimStyle.Render("no matches")
	default:
		body = s.renderResults(innerWidth)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, header, input, "", body)
	modal := styles.ModalStyle.Width(modalWidth).Render(content)

	if s.width > 0 && s.height > 0 {
		return lipgloss.Place(s.width, s.height, lipgloss.Center, lipgloss.Center, modal)
	}
	return modal
}

func (s SearchBar) renderResults(width int) string {
	end := len(s.results)
	if end > maxVisibleResults {
		end = maxVisibleResults
	}

	rows := make([]string, 0, end+1)
	for i := 0; i < end; i++ {
		res := s.results[i]
		selected := i == s.cursor

		badge := styles.DimBadgeStyle.Render(string(res.Kind))
		label := highlightLabel(res.Label, res.MatchedIndexes, selected, width-lipgloss.Width(badge)-3)

		cursorMark := "  "
		if selected {
			cursorMark = styles.AccentStyle.Render("> ")
		}
		rows = append(rows, cursorMark+badge+" "+label)
	}

	if len(s.results) > end {
		rows = append(rows, styles.DimStyle.Render(fmt.Sprintf("  ...and %d more", len(s.results)-end)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// highlightLabel renders the label with matched characters emphasized
func highlightLabel(label string, matched []int, selected bool, width int) string {
	label = styles.Truncate(label, width)

	hits := make(map[int]bool, len(matched))
	for _, idx := range matched {
		hits[idx] = true
	}

	base := styles.SubtitleStyle
	hl := styles.MatchHighlightStyle
	if selected {
		base = styles.TitleStyle
		hl = styles.MatchHighlightSelectedStyle
	}

	var out string
	run := ""
	runHit := false
	flush := func() {
		if run == "" {
			return
		}
		if runHit {
			out += hl.Render(run)
		} else {
			out += base.Render(run)
		}
		run = ""
	}
	for i := 0; i < len(label); i++ {
		hit := hits[i]
		if hit != runHit {
			flush()
			runHit = hit
		}
		run += string(label[i])
	}
	flush()
	return out
}
