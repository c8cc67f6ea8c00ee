package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kwhalen/slate/internal/domain"
	"github.com/kwhalen/slate/internal/engine"
)

// Command factories for async operations

// WaitForEventCmd blocks on the engine's event channel and delivers
// the next notification. The handler re-issues it, so exactly one
// reader is parked on the channel at a time.
func WaitForEventCmd(events <-chan engine.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return EventsClosedMsg{}
		}
		return EngineEventMsg{Event: ev}
	}
}

// SyncCmd runs a full offline sync sweep
func SyncCmd(eng *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		reports, err := eng.SyncForOffline(ctx)
		return SyncDoneMsg{Reports: reports, Err: err}
	}
}

// SubmitGradesCmd posts a grade batch
func SubmitGradesCmd(eng *engine.Engine, subs []domain.GradeSubmission) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		result, err := eng.SubmitGrades(ctx, subs)
		return GradesSubmittedMsg{Result: result, Err: err}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd clears the status message after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
