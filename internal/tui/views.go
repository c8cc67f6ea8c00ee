package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/kwhalen/slate/internal/domain"
	"github.com/kwhalen/slate/internal/engine"
	"github.com/kwhalen/slate/internal/tui/styles"
)

const sidebarWidth = 24

// fg turns a palette color into the pointer form RowPart wants
func fg(c lipgloss.Color) *lipgloss.Color { return &c }

// View renders the application
func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}

	switch m.state {
	case StateSearching:
		return m.searchBar.View()
	case StateComposing:
		return m.overlay(m.composer.View())
	case StateGrading:
		return m.overlay(m.gradeForm.View())
	case StateReports:
		return m.overlay(m.renderReports())
	case StateHelp:
		return m.overlay(m.renderHelp())
	case StateConfirmLogout:
		return m.overlay(m.renderConfirmLogout())
	}

	return m.renderBrowsing()
}

func (m Model) overlay(modal string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func (m Model) renderBrowsing() string {
	mainHeight := m.height - 1 // footer line

	detailWidth := 0
	if m.width >= 110 {
		detailWidth = 44
	} else if m.width >= 84 {
		detailWidth = m.width / 3
	}
	listWidth := m.width - sidebarWidth - detailWidth

	columns := []string{
		m.renderSidebar(sidebarWidth, mainHeight),
		m.renderList(listWidth, mainHeight),
	}
	if detailWidth > 0 {
		columns = append(columns, m.renderDetail(detailWidth, mainHeight))
	}

	main := lipgloss.JoinHorizontal(lipgloss.Top, columns...)
	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderFooter())
}

// === Sidebar ===

func (m Model) renderSidebar(width, height int) string {
	border := styles.InactiveBorder
	if m.focus == PaneSidebar {
		border = styles.ActiveBorder
	}
	frameW, frameH := border.GetFrameSize()
	innerW := width - frameW

	title := styles.AccentStyle.Bold(true).Render(styles.Pad("slate", innerW-1))

	var who string
	if session, ok := m.eng.Session(); ok {
		who = styles.SubtitleStyle.Render(styles.Truncate(" "+session.Name, innerW))
		who += "\n" + styles.DimStyle.Render(styles.Truncate(" "+string(session.Role), innerW))
	} else {
		who = styles.DimStyle.Render(" signed out")
	}

	statuses := m.eng.Statuses()
	rows := make([]string, 0, len(m.kinds))
	for i, kind := range m.kinds {
		st := statusFor(statuses, kind)
		rows = append(rows, m.renderSidebarRow(kind, st, i == m.kindIdx, innerW))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		who,
		"",
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)

	return border.
		Width(innerW).
		Height(height - frameH).
		Render(content)
}

func (m Model) renderSidebarRow(kind domain.ResourceKind, st engine.KindStatus, selected bool, width int) string {
	marker := " "
	switch {
	case st.Loading || st.LoadingMore:
		marker = styles.SpinnerFrames[m.spinnerFrame%len(styles.SpinnerFrames)]
	case st.Err != nil:
		marker = "✗"
	case st.FromCache:
		marker = styles.StaleChar
	}

	count := ""
	if st.Count > 0 {
		count = fmt.Sprintf("%d", st.Count)
		if st.HasMore {
			count += "+"
		}
	}

	name := kindTitle(kind)
	nameWidth := width - lipgloss.Width(marker) - lipgloss.Width(count) - 4
	parts := []styles.RowPart{
		{Text: marker + " "},
		{Text: styles.Pad(name, nameWidth)},
		{Text: count, Foreground: fg(styles.DimGray)},
	}
	if selected {
		parts[1].Foreground = fg(styles.White)
	}
	return styles.RenderListRow(parts, selected, width)
}

func statusFor(statuses []engine.KindStatus, kind domain.ResourceKind) engine.KindStatus {
	for _, st := range statuses {
		if st.Kind == kind {
			return st
		}
	}
	return engine.KindStatus{Kind: kind}
}

// === Item list ===

func (m Model) renderList(width, height int) string {
	border := styles.InactiveBorder
	if m.focus == PaneList {
		border = styles.ActiveBorder
	}
	frameW, frameH := border.GetFrameSize()
	innerW := width - frameW
	innerH := height - frameH

	kind := m.ActiveKind()
	st := statusFor(m.eng.Statuses(), kind)

	header := m.renderListHeader(kind, st, innerW)
	body := m.renderListBody(kind, st, innerW, innerH-2)

	content := lipgloss.JoinVertical(lipgloss.Left, header, "", body)

	return border.
		Width(innerW).
		Height(innerH).
		Render(content)
}

func (m Model) renderListHeader(kind domain.ResourceKind, st engine.KindStatus, width int) string {
	title := styles.TitleStyle.Render(kindTitle(kind))

	meta := ""
	if st.FromCache {
		meta += " " + styles.DimBadgeStyle.Render("cached")
	}
	if st.Advisory != "" {
		room := width - lipgloss.Width(title) - lipgloss.Width(meta) - 1
		meta += " " + styles.WarnStyle.Render(styles.Truncate(st.Advisory, room))
	}

	return title + meta
}

func (m Model) renderListBody(kind domain.ResourceKind, st engine.KindStatus, width, height int) string {
	if height < 1 {
		return ""
	}

	count := st.Count
	if count == 0 {
		switch {
		case st.Loading:
			return styles.DimStyle.Render(fmt.Sprintf("loading %s...", kind))
		case st.Err != nil:
			return styles.ErrorStyle.Render(styles.Truncate(fmt.Sprintf("cannot load %s: %v", kind, st.Err), width))
		default:
			return styles.DimStyle.Render("nothing here yet")
		}
	}

	cursor := m.cursors[kind]
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := start + height
	if end > count {
		end = count
	}

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, styles.RenderListRow(m.rowParts(kind, i, width), i == cursor && m.focus == PaneList, width))
	}
	if st.LoadingMore && len(rows) < height {
		rows = append(rows, styles.DimStyle.Render(" loading more..."))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// rowParts renders one list row for the given collection index
func (m Model) rowParts(kind domain.ResourceKind, i, width int) []styles.RowPart {
	switch kind {
	case domain.KindCourses:
		items := m.eng.Courses().Items
		if i >= len(items) {
			return nil
		}
		c := items[i]
		return []styles.RowPart{
			{Text: styles.Pad(c.Code, 11), Foreground: fg(styles.Indigo)},
			{Text: styles.Truncate(c.Title, width-26)},
			{Text: " " + c.Term, Foreground: fg(styles.DimGray)},
		}

	case domain.KindAssignments:
		items := m.eng.Assignments().Items
		if i >= len(items) {
			return nil
		}
		a := items[i]
		due := a.DueLabel()
		dueFg := fg(styles.DimGray)
		if a.IsPastDue(time.Now()) {
			dueFg = fg(styles.Red)
		}
		parts := []styles.RowPart{
			{Text: styles.Pad(due, 14), Foreground: dueFg},
			{Text: styles.Truncate(a.Title, width-26)},
		}
		if !a.Published {
			parts = append(parts, styles.RowPart{Text: " draft", Foreground: fg(styles.Amber)})
		}
		return parts

	case domain.KindGrades:
		items := m.eng.Grades().Items
		if i >= len(items) {
			return nil
		}
		g := items[i]
		return []styles.RowPart{
			{Text: styles.Pad(g.Letter(), 2), Foreground: fg(letterColor(g))},
			{Text: styles.Pad(fmt.Sprintf("%5.1f%%", g.Percent()), 8)},
			{Text: styles.Truncate(m.assignmentTitle(g.AssignmentID), width-24)},
			{Text: " " + g.Status.String(), Foreground: fg(styles.DimGray)},
		}

	case domain.KindConversations:
		items := m.eng.Conversations().Items
		if i >= len(items) {
			return nil
		}
		cv := items[i]
		marker := " "
		markerFg := fg(styles.DimGray)
		if cv.HasUnread() {
			marker = styles.UnreadChar
			markerFg = fg(styles.Indigo)
		}
		snippet := ""
		if last, ok := cv.LastMessage(); ok {
			snippet = last.Body
			if last.Pending {
				marker = styles.PendingChar
				markerFg = fg(styles.Amber)
			}
		}
		return []styles.RowPart{
			{Text: marker + " ", Foreground: markerFg},
			{Text: styles.Truncate(cv.Subject, width/2)},
			{Text: " " + styles.Truncate(snippet, width/2-8), Foreground: fg(styles.DimGray)},
		}

	case domain.KindUsers:
		items := m.eng.Users().Items
		if i >= len(items) {
			return nil
		}
		u := items[i]
		return []styles.RowPart{
			{Text: styles.Pad(string(u.Role), 9), Foreground: fg(styles.DimGray)},
			{Text: styles.Truncate(u.Name, width-32)},
			{Text: " " + u.Email, Foreground: fg(styles.DimGray)},
		}
	}
	return nil
}

// assignmentTitle resolves an assignment ID against the loaded
// collection, falling back to the raw ID
func (m Model) assignmentTitle(id string) string {
	for _, a := range m.eng.Assignments().Items {
		if a.ID == id {
			return a.Title
		}
	}
	return id
}

func (m Model) userName(id string) string {
	for _, u := range m.eng.Users().Items {
		if u.ID == id {
			return u.Name
		}
	}
	if session, ok := m.eng.Session(); ok && session.UserID == id {
		return session.Name
	}
	return id
}

func letterColor(g domain.Grade) lipgloss.Color {
	switch g.Letter() {
	case "A", "B":
		return styles.Green
	case "C":
		return styles.Amber
	default:
		return styles.Red
	}
}

// === Detail pane ===

func (m Model) renderDetail(width, height int) string {
	border := styles.InactiveBorder
	frameW, frameH := border.GetFrameSize()
	innerW := width - frameW
	innerH := height - frameH

	content := m.detailContent(innerW, innerH)

	return border.
		Width(innerW).
		Height(innerH).
		Render(content)
}

func (m Model) detailContent(width, height int) string {
	kind := m.ActiveKind()
	idx := m.cursors[kind]

	field := func(label, value string) string {
		return styles.DimStyle.Render(label+" ") + styles.SubtitleStyle.Render(value)
	}
	wrap := lipgloss.NewStyle().Width(width).Foreground(styles.LightGray)

	switch kind {
	case domain.KindCourses:
		items := m.eng.Courses().Items
		if idx >= len(items) {
			return styles.DimStyle.Render("no course selected")
		}
		c := items[idx]
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.TitleStyle.Render(styles.Truncate(c.DisplayCode(), width)),
			"",
			field("subject", c.Subject),
			field("term   ", c.Term),
			field("teacher", m.userName(c.TeacherID)),
		)

	case domain.KindAssignments:
		items := m.eng.Assignments().Items
		if idx >= len(items) {
			return styles.DimStyle.Render("no assignment selected")
		}
		a := items[idx]
		state := "published"
		if !a.Published {
			state = "draft, hidden from students"
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.TitleStyle.Render(styles.Truncate(a.Title, width)),
			styles.DimStyle.Render(m.courseCode(a.CourseID)),
			"",
			field("due   ", a.DueLabel()),
			field("points", fmt.Sprintf("%.4g", a.Points)),
			field("state ", state),
			"",
			wrap.Render(a.Instructions),
		)

	case domain.KindGrades:
		items := m.eng.Grades().Items
		if idx >= len(items) {
			return styles.DimStyle.Render("no grade selected")
		}
		g := items[idx]
		lines := []string{
			styles.TitleStyle.Render(styles.Truncate(m.assignmentTitle(g.AssignmentID), width)),
			"",
			field("student", m.userName(g.StudentID)),
			field("score  ", fmt.Sprintf("%.4g / %.4g  (%s)", g.Score, g.MaxScore, g.Letter())),
			field("status ", g.Status.String()),
			styles.RenderScoreBar(g.Percent(), width),
		}
		if g.Comment != "" {
			lines = append(lines, "", wrap.Render(g.Comment))
		}
		if g.GradedBy != "" {
			lines = append(lines, "", styles.DimStyle.Render("graded by "+m.userName(g.GradedBy)))
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)

	case domain.KindConversations:
		items := m.eng.Conversations().Items
		if idx >= len(items) {
			return styles.DimStyle.Render("no conversation selected")
		}
		return m.renderThread(items[idx], width, height)

	case domain.KindUsers:
		items := m.eng.Users().Items
		if idx >= len(items) {
			return styles.DimStyle.Render("no one selected")
		}
		u := items[idx]
		courses := make([]string, 0, len(u.CourseIDs))
		for _, id := range u.CourseIDs {
			courses = append(courses, m.courseCode(id))
		}
		lines := []string{
			styles.TitleStyle.Render(styles.Truncate(u.DisplayName(), width)),
			"",
			field("email", u.Email),
		}
		for i, code := range courses {
			label := "course"
			if i > 0 {
				label = "      "
			}
			lines = append(lines, field(label, code))
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}
	return ""
}

func (m Model) courseCode(id string) string {
	for _, c := range m.eng.Courses().Items {
		if c.ID == id {
			return c.DisplayCode()
		}
	}
	return id
}

// renderThread shows the newest messages that fit the pane
func (m Model) renderThread(cv domain.Conversation, width, height int) string {
	lines := []string{
		styles.TitleStyle.Render(styles.Truncate(cv.Subject, width)),
	}
	if cv.HasUnread() {
		lines = append(lines, styles.AccentStyle.Render(fmt.Sprintf("%d unread", cv.UnreadCount)))
	}
	lines = append(lines, "")

	// Room left after header, two lines per message
	room := (height - len(lines)) / 2
	if room < 1 {
		room = 1
	}
	msgs := cv.Messages
	if len(msgs) > room {
		msgs = msgs[len(msgs)-room:]
		lines = append(lines, styles.DimStyle.Render(fmt.Sprintf("(%d earlier)", len(cv.Messages)-room)))
	}

	for _, msg := range msgs {
		when := time.Unix(msg.SentAt, 0).Format("Jan 2 15:04")
		head := styles.DimStyle.Render(m.userName(msg.AuthorID) + " · " + when)
		if msg.Pending {
			head += " " + styles.PendingDot
		}
		body := styles.SubtitleStyle.Render(styles.Truncate(msg.Body, width-2))
		lines = append(lines, head, "  "+body)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// === Footer ===

func (m Model) renderFooter() string {
	quality := m.eng.Quality()

	var qualityPart string
	switch {
	case !quality.Connected:
		qualityPart = styles.ErrorStyle.Render("● offline")
	case quality.Constrained:
		qualityPart = styles.WarnStyle.Render("● constrained")
	case quality.Metered:
		qualityPart = styles.WarnStyle.Render("● metered")
	default:
		qualityPart = styles.SuccessStyle.Render("● online")
	}

	left := " " + qualityPart
	if t, ok := m.eng.LastSync(); ok {
		left += styles.DimStyle.Render("  synced " + ago(t))
	}
	if adv := m.eng.Advisory(); adv != "" {
		left += "  " + styles.WarnStyle.Render(adv)
	}
	if m.syncing {
		left += "  " + styles.SpinnerStyle.Render(styles.SpinnerFrames[m.spinnerFrame%len(styles.SpinnerFrames)]+" syncing")
	}

	var middle string
	if m.statusMessage != "" {
		switch m.statusType {
		case StatusError:
			middle = styles.ErrorStyle.Render(m.statusMessage)
		case StatusSuccess:
			middle = styles.SuccessStyle.Render(m.statusMessage)
		default:
			middle = styles.SubtitleStyle.Render(m.statusMessage)
		}
	}

	right := styles.DimStyle.Render("? help ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(middle) - lipgloss.Width(right)
	leftGap := gap / 2
	if leftGap < 1 {
		leftGap = 1
	}
	rightGap := gap - leftGap
	if rightGap < 1 {
		rightGap = 1
	}

	return left + pad(leftGap) + middle + pad(rightGap) + right
}

func pad(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

// ago formats a timestamp relative to now
func ago(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2")
	}
}

func kindTitle(kind domain.ResourceKind) string {
	switch kind {
	case domain.KindCourses:
		return "Courses"
	case domain.KindAssignments:
		return "Assignments"
	case domain.KindGrades:
		return "Grades"
	case domain.KindConversations:
		return "Messages"
	case domain.KindUsers:
		return "People"
	}
	return string(kind)
}

// === Overlays ===

func (m Model) renderReports() string {
	lines := []string{styles.ModalTitleStyle.Render("Offline sync report")}

	if len(m.reports) == 0 {
		lines = append(lines, styles.DimStyle.Render("no reports recorded"))
	}
	for _, r := range m.reports {
		if r.HasConflicts() {
			lines = append(lines, styles.WarnStyle.Render(r.Summary()))
			shown := len(r.DivergedIDs)
			if shown > 5 {
				shown = 5
			}
			for _, id := range r.DivergedIDs[:shown] {
				lines = append(lines, styles.DimStyle.Render("  · "+id))
			}
			if len(r.DivergedIDs) > shown {
				lines = append(lines, styles.DimStyle.Render(fmt.Sprintf("  · and %d more", len(r.DivergedIDs)-shown)))
			}
		} else {
			lines = append(lines, styles.SuccessStyle.Render(r.Summary()))
		}
	}

	lines = append(lines, "", styles.DimStyle.Render("esc close · x clear reports"))
	return styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderHelp() string {
	keys := []struct {
		binding string
		desc    string
	}{
		{m.keys.Up.Help().Key, m.keys.Up.Help().Desc},
		{m.keys.Down.Help().Key, m.keys.Down.Help().Desc},
		{m.keys.Left.Help().Key, m.keys.Left.Help().Desc},
		{m.keys.Right.Help().Key, m.keys.Right.Help().Desc},
		{m.keys.Enter.Help().Key, m.keys.Enter.Help().Desc},
		{m.keys.Search.Help().Key, m.keys.Search.Help().Desc},
		{m.keys.Refresh.Help().Key, m.keys.Refresh.Help().Desc},
		{m.keys.RefreshAll.Help().Key, m.keys.RefreshAll.Help().Desc},
		{m.keys.Sync.Help().Key, m.keys.Sync.Help().Desc},
		{m.keys.Compose.Help().Key, m.keys.Compose.Help().Desc},
		{m.keys.Grade.Help().Key, m.keys.Grade.Help().Desc},
		{m.keys.Reports.Help().Key, m.keys.Reports.Help().Desc},
		{m.keys.Logout.Help().Key, m.keys.Logout.Help().Desc},
		{m.keys.Quit.Help().Key, m.keys.Quit.Help().Desc},
	}

	lines := []string{styles.ModalTitleStyle.Render("Keys")}
	for _, k := range keys {
		lines = append(lines,
			styles.HelpKeyStyle.Render(styles.Pad(k.binding, 10))+styles.HelpDescStyle.Render(k.desc))
	}

	return styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderConfirmLogout() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render("Sign out"),
		styles.SubtitleStyle.Render("This clears the cached data for this account."),
		"",
		styles.DimStyle.Render("y to sign out, n to cancel"),
	)
	return styles.ModalStyle.Render(content)
}
