package tui

import (
	"github.com/kwhalen/slate/internal/engine"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// EngineEventMsg wraps one state-change notification from the engine.
// Snapshots are re-read on receipt; the event itself only says what moved.
type EngineEventMsg struct {
	Event engine.Event
}

// EventsClosedMsg signals that the engine shut down and no more
// events will arrive
type EventsClosedMsg struct{}

// SyncDoneMsg signals that an explicit offline sync finished
type SyncDoneMsg struct {
	Reports []engine.ConflictReport
	Err     error
}

// GradesSubmittedMsg signals that a grade batch finished
type GradesSubmittedMsg struct {
	Result engine.BatchResult
	Err    error
}

// StatusType indicates the kind of status message
type StatusType int

const (
	StatusInfo StatusType = iota
	StatusSuccess
	StatusError
)

// StatusMsg displays a transient message in the footer
type StatusMsg struct {
	Message string
	Type    StatusType
}

// ClearStatusMsg clears the footer status message
type ClearStatusMsg struct{}

// TickMsg drives the spinner and relative-time refresh
type TickMsg struct{}
