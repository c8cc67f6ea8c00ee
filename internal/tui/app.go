package tui

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kwhalen/slate/internal/domain"
	"github.com/kwhalen/slate/internal/engine"
	"github.com/kwhalen/slate/internal/search"
	"github.com/kwhalen/slate/internal/tui/components"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateSearching
	StateComposing
	StateGrading
	StateReports
	StateHelp
	StateConfirmLogout
)

// Pane identifies which column has keyboard focus
type Pane int

const (
	PaneSidebar Pane = iota
	PaneList
)

const (
	tickInterval   = time.Second
	statusDuration = 3 * time.Second
	loadMoreSlack  = 3 // rows from the bottom that trigger the next page
)

// Model is the bubbletea model for the whole application
type Model struct {
	eng    *engine.Engine
	events <-chan engine.Event
	keys   KeyMap

	state ApplicationState
	focus Pane

	kinds   []domain.ResourceKind
	kindIdx int
	cursors map[domain.ResourceKind]int

	width  int
	height int
	ready  bool

	statusMessage string
	statusType    StatusType
	spinnerFrame  int
	syncing       bool
	loggedOut     bool

	searchBar components.SearchBar
	composer  components.Composer
	gradeForm components.GradeForm
	lastQuery string

	reports []engine.ConflictReport
}

// New creates the application model around a started engine
func New(eng *engine.Engine) Model {
	return Model{
		eng:       eng,
		events:    eng.Events(),
		keys:      DefaultKeyMap(),
		kinds:     domain.AllKinds(),
		cursors:   make(map[domain.ResourceKind]int),
		searchBar: components.NewSearchBar(),
		composer:  components.NewComposer(),
		gradeForm: components.NewGradeForm(),
	}
}

// LoggedOut reports whether the user signed out (rather than quit),
// so the caller can clear stored credentials.
func (m Model) LoggedOut() bool { return m.loggedOut }

// ActiveKind returns the collection the cursor is on
func (m Model) ActiveKind() domain.ResourceKind { return m.kinds[m.kindIdx] }

// Init starts the event pump and the clock
func (m Model) Init() tea.Cmd {
	m.eng.LoadIfNeeded(m.ActiveKind())
	return tea.Batch(
		WaitForEventCmd(m.events),
		TickCmd(tickInterval),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.searchBar.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case EngineEventMsg:
		return m.handleEngineEvent(msg.Event)

	case EventsClosedMsg:
		return m, tea.Quit

	case TickMsg:
		m.spinnerFrame++
		return m, TickCmd(tickInterval)

	case StatusMsg:
		m.statusMessage = msg.Message
		m.statusType = msg.Type
		return m, ClearStatusCmd(statusDuration)

	case ClearStatusMsg:
		m.statusMessage = ""
		return m, nil

	case SyncDoneMsg:
		return m.handleSyncDone(msg)

	case GradesSubmittedMsg:
		return m.handleGradesSubmitted(msg)
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// ctrl+c always quits, regardless of state
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case StateSearching:
		return m.updateSearch(msg)
	case StateComposing:
		return m.updateComposer(msg)
	case StateGrading:
		return m.updateGradeForm(msg)
	case StateReports:
		return m.updateReports(msg)
	case StateHelp:
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Help):
			m.state = StateBrowsing
		}
		return m, nil
	case StateConfirmLogout:
		return m.updateConfirmLogout(msg)
	}

	return m.updateBrowsing(msg)
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.state = StateHelp
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.state = StateSearching
		m.lastQuery = ""
		m.searchBar.Show()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		kind := m.ActiveKind()
		m.eng.Refresh(kind)
		return m, m.status(StatusInfo, fmt.Sprintf("refreshing %s", kind))

	case key.Matches(msg, m.keys.RefreshAll):
		m.eng.RefreshAll()
		return m, m.status(StatusInfo, "refreshing all collections")

	case key.Matches(msg, m.keys.Sync):
		if m.syncing {
			return m, m.status(StatusInfo, "sync already running")
		}
		m.syncing = true
		return m, tea.Batch(
			m.status(StatusInfo, "syncing all collections for offline use..."),
			SyncCmd(m.eng),
		)

	case key.Matches(msg, m.keys.Compose):
		return m.openComposer()

	case key.Matches(msg, m.keys.Grade):
		return m.openGradeForm()

	case key.Matches(msg, m.keys.Reports):
		reports := m.eng.Reports()
		if len(reports) == 0 {
			return m, m.status(StatusInfo, "no conflict reports")
		}
		m.reports = reports
		m.state = StateReports
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		m.state = StateConfirmLogout
		return m, nil

	case key.Matches(msg, m.keys.Left):
		m.focus = PaneSidebar
		return m, nil

	case key.Matches(msg, m.keys.Right):
		m.focus = PaneList
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		return m.handleEnter()

	case key.Matches(msg, m.keys.Up):
		return m.moveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		return m.moveCursor(1)

	case key.Matches(msg, m.keys.Home):
		return m.jumpCursor(0)

	case key.Matches(msg, m.keys.End):
		return m.jumpCursor(m.itemCount(m.ActiveKind()) - 1)
	}

	return m, nil
}

func (m Model) moveCursor(delta int) (tea.Model, tea.Cmd) {
	if m.focus == PaneSidebar {
		next := m.kindIdx + delta
		if next < 0 || next >= len(m.kinds) {
			return m, nil
		}
		m.kindIdx = next
		m.eng.LoadIfNeeded(m.ActiveKind())
		return m, nil
	}

	kind := m.ActiveKind()
	return m.jumpCursor(m.cursors[kind] + delta)
}

func (m Model) jumpCursor(pos int) (tea.Model, tea.Cmd) {
	if m.focus == PaneSidebar {
		if pos >= 0 && pos < len(m.kinds) {
			m.kindIdx = pos
			m.eng.LoadIfNeeded(m.ActiveKind())
		}
		return m, nil
	}

	kind := m.ActiveKind()
	count := m.itemCount(kind)
	if count == 0 {
		m.cursors[kind] = 0
		return m, nil
	}
	if pos < 0 {
		pos = 0
	}
	if pos > count-1 {
		pos = count - 1
	}
	m.cursors[kind] = pos

	// Pull the next page when the cursor approaches the loaded edge
	if pos >= count-loadMoreSlack {
		m.eng.LoadMore(kind)
	}
	return m, nil
}

func (m Model) itemCount(kind domain.ResourceKind) int {
	for _, st := range m.eng.Statuses() {
		if st.Kind == kind {
			return st.Count
		}
	}
	return 0
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	if m.focus == PaneSidebar {
		m.focus = PaneList
		return m, nil
	}
	switch m.ActiveKind() {
	case domain.KindConversations:
		return m.openComposer()
	case domain.KindAssignments, domain.KindGrades:
		return m.openGradeForm()
	}
	return m, nil
}

func (m Model) openComposer() (tea.Model, tea.Cmd) {
	view := m.eng.Conversations()
	idx := m.cursors[domain.KindConversations]
	if m.ActiveKind() != domain.KindConversations || idx >= len(view.Items) {
		return m, m.status(StatusInfo, "select a conversation first")
	}
	conv := view.Items[idx]
	m.composer.Show(conv.ID, conv.Subject)
	m.state = StateComposing
	return m, nil
}

func (m Model) openGradeForm() (tea.Model, tea.Cmd) {
	session, ok := m.eng.Session()
	if !ok || session.Role != domain.RoleTeacher {
		return m, m.status(StatusInfo, "sign in as a teacher to post grades")
	}

	switch m.ActiveKind() {
	case domain.KindAssignments:
		view := m.eng.Assignments()
		idx := m.cursors[domain.KindAssignments]
		if idx >= len(view.Items) {
			return m, m.status(StatusInfo, "select an assignment first")
		}
		a := view.Items[idx]
		m.gradeForm.Show(a.ID, a.Title, a.Points, "", "")
	case domain.KindGrades:
		view := m.eng.Grades()
		idx := m.cursors[domain.KindGrades]
		if idx >= len(view.Items) {
			return m, m.status(StatusInfo, "select a grade first")
		}
		g := view.Items[idx]
		score := strconv.FormatFloat(g.Score, 'f', -1, 64)
		m.gradeForm.Show(g.AssignmentID, g.AssignmentID, g.MaxScore, g.StudentID, score)
	default:
		return m, m.status(StatusInfo, "grades are entered from assignments or grades")
	}

	m.state = StateGrading
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	wasVisible := m.searchBar.IsVisible()

	bar, cmd, picked := m.searchBar.Update(msg)
	m.searchBar = bar

	if picked {
		if res, ok := m.searchBar.Selected(); ok {
			m.searchBar.Hide()
			m.state = StateBrowsing
			m.eng.ClearSearch()
			return m.jumpToResult(res), cmd
		}
	}

	if wasVisible && !m.searchBar.IsVisible() {
		// Dismissed with esc
		m.state = StateBrowsing
		m.eng.ClearSearch()
		return m, cmd
	}

	if q := m.searchBar.Query(); q != m.lastQuery {
		m.lastQuery = q
		if q == "" {
			m.eng.ClearSearch()
			m.searchBar.SetResults(nil)
		} else {
			m.searchBar.SetLoading(true)
			m.eng.SubmitSearch(search.Query{Text: q})
		}
	}

	return m, cmd
}

// jumpToResult lands the cursor on a picked search hit
func (m Model) jumpToResult(res search.Result) Model {
	for i, k := range m.kinds {
		if k == res.Kind {
			m.kindIdx = i
			break
		}
	}
	m.focus = PaneList
	m.eng.LoadIfNeeded(res.Kind)

	if idx, ok := m.indexOfItem(res.Kind, res.ID); ok {
		m.cursors[res.Kind] = idx
	}
	return m
}

func (m Model) indexOfItem(kind domain.ResourceKind, id string) (int, bool) {
	switch kind {
	case domain.KindCourses:
		return indexByID(m.eng.Courses().Items, id)
	case domain.KindAssignments:
		return indexByID(m.eng.Assignments().Items, id)
	case domain.KindGrades:
		return indexByID(m.eng.Grades().Items, id)
	case domain.KindConversations:
		return indexByID(m.eng.Conversations().Items, id)
	case domain.KindUsers:
		return indexByID(m.eng.Users().Items, id)
	}
	return 0, false
}

func indexByID[T domain.Resource](items []T, id string) (int, bool) {
	for i, it := range items {
		if it.GetID() == id {
			return i, true
		}
	}
	return 0, false
}

func (m Model) updateComposer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	comp, cmd, submitted := m.composer.Update(msg)
	m.composer = comp

	if submitted {
		draft := domain.MessageDraft{
			ConversationID: m.composer.ConversationID(),
			Body:           m.composer.Body(),
		}
		m.composer.Hide()
		m.state = StateBrowsing

		if err := m.eng.SendMessage(draft); err != nil {
			return m, m.status(StatusError, sendErrorText(err))
		}
		return m, m.status(StatusSuccess, "message queued")
	}

	if !m.composer.IsVisible() {
		m.state = StateBrowsing
	}
	return m, cmd
}

func sendErrorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fmt.Sprintf("message rejected: %v", err)
	case errors.Is(err, domain.ErrNotFound):
		return "conversation no longer exists, refresh and try again"
	case errors.Is(err, domain.ErrAuthExpired):
		return "session expired, sign in again"
	default:
		return fmt.Sprintf("send failed: %v", err)
	}
}

func (m Model) updateGradeForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form, cmd, submitted := m.gradeForm.Update(msg)
	m.gradeForm = form

	if submitted {
		sub, err := m.gradeForm.Submission()
		if err != nil {
			return m, m.status(StatusError, err.Error())
		}
		m.gradeForm.Hide()
		m.state = StateBrowsing
		return m, tea.Batch(
			m.status(StatusInfo, "posting grade..."),
			SubmitGradesCmd(m.eng, []domain.GradeSubmission{sub}),
		)
	}

	if !m.gradeForm.IsVisible() {
		m.state = StateBrowsing
	}
	return m, cmd
}

func (m Model) updateReports(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "v":
		m.state = StateBrowsing
		return m, nil
	case "x":
		m.eng.ClearReports()
		m.reports = nil
		m.state = StateBrowsing
		return m, m.status(StatusInfo, "conflict reports cleared")
	}
	return m, nil
}

func (m Model) updateConfirmLogout(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		if err := m.eng.Logout(); err != nil {
			m.state = StateBrowsing
			return m, m.status(StatusError, fmt.Sprintf("sign out failed: %v", err))
		}
		m.loggedOut = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Deny):
		m.state = StateBrowsing
	}
	return m, nil
}

func (m Model) handleEngineEvent(ev engine.Event) (tea.Model, tea.Cmd) {
	next := WaitForEventCmd(m.events)

	// Keep cursors inside the shrunk-or-grown collections
	if ev.Kind != "" {
		m.clampCursor(ev.Kind)
	}

	switch ev.Reason {
	case "search":
		if m.state == StateSearching {
			sv := m.eng.SearchResults()
			m.searchBar.SetLoading(sv.Loading)
			if !sv.Loading {
				m.searchBar.SetResults(sv.Results)
			}
		}
		return m, next

	case "conflict":
		return m, tea.Batch(next, m.status(StatusInfo, "server changes detected (v to view)"))

	case "error":
		if ev.Kind != "" {
			for _, st := range m.eng.Statuses() {
				if st.Kind == ev.Kind && st.Err != nil {
					return m, tea.Batch(next, m.status(StatusError, fmt.Sprintf("%s: %v", st.Kind, st.Err)))
				}
			}
		}
		return m, next
	}

	return m, next
}

func (m *Model) clampCursor(kind domain.ResourceKind) {
	count := m.itemCount(kind)
	if count == 0 {
		m.cursors[kind] = 0
		return
	}
	if m.cursors[kind] > count-1 {
		m.cursors[kind] = count - 1
	}
}

func (m Model) handleSyncDone(msg SyncDoneMsg) (tea.Model, tea.Cmd) {
	m.syncing = false

	if msg.Err != nil {
		return m, m.status(StatusError, fmt.Sprintf("sync failed: %v", msg.Err))
	}

	m.reports = msg.Reports
	m.state = StateReports

	conflicted := 0
	for _, r := range msg.Reports {
		if r.HasConflicts() {
			conflicted++
		}
	}
	if conflicted > 0 {
		return m, m.status(StatusInfo, fmt.Sprintf("sync complete, %d collection(s) had server changes", conflicted))
	}
	return m, m.status(StatusSuccess, "sync complete, everything up to date")
}

func (m Model) handleGradesSubmitted(msg GradesSubmittedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		return m, m.status(StatusError, fmt.Sprintf("grade not posted: %v", msg.Err))
	}
	if msg.Result.Failed > 0 {
		return m, m.status(StatusError,
			fmt.Sprintf("%d grade(s) posted, %d failed", msg.Result.Submitted, msg.Result.Failed))
	}
	return m, m.status(StatusSuccess, fmt.Sprintf("%d grade(s) posted", msg.Result.Submitted))
}

// status returns a command that sets the footer message
func (m Model) status(t StatusType, text string) tea.Cmd {
	return func() tea.Msg {
		return StatusMsg{Message: text, Type: t}
	}
}
