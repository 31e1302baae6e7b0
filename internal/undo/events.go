package undo

import "github.com/mmcdole/shelf/internal/domain"

// Phase of a single delete attempt.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseOptimistic
	PhaseSettled
	PhaseRolledBack
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseOptimistic:
		return "optimistic"
	case PhaseSettled:
		return "settled"
	case PhaseRolledBack:
		return "rolled back"
	default:
		return "unknown"
	}
}

// EventKind identifies what happened to a delete attempt
type EventKind int

const (
	// EventUndoShown: the book left the list and the undo control should appear
	EventUndoShown EventKind = iota
	// EventDeleteConfirmed: the server acknowledged the delete
	EventDeleteConfirmed
	// EventUndoHidden: the undo control should disappear (Phase says why)
	EventUndoHidden
	// EventFailed: a remote call failed (Err is set)
	EventFailed
)

// Event reports progress of a delete attempt to the UI.
type Event struct {
	Kind  EventKind
	Book  domain.Book
	Phase Phase
	Err   error
}

// Observer receives delete attempt events. Calls are made without any
// coordinator lock held and may come from any goroutine.
type Observer interface {
	OnDeleteEvent(ev Event)
}

// NoOpObserver discards events (for testing/batch operations).
type NoOpObserver struct{}

func (NoOpObserver) OnDeleteEvent(Event) {}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Event)

func (f ObserverFunc) OnDeleteEvent(ev Event) { f(ev) }
