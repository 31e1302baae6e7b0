package tui

import (
	"time"

	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/undo"
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

// BooksLoadedMsg signals that the list was replaced from the server
type BooksLoadedMsg struct {
	Books    []domain.Book
	Filtered bool
	Range    string // Human-readable date range when Filtered
}

// SnapshotRestoredMsg signals that the offline snapshot filled the list
type SnapshotRestoredMsg struct {
	Count     int
	FetchedAt time.Time
}

// BookCreatedMsg signals that a new book was added
type BookCreatedMsg struct {
	Book domain.Book
}

// ProgressUpdatedMsg signals that a book's progress changed
type ProgressUpdatedMsg struct {
	Book domain.Book
}

// DeleteStartedMsg signals that a book was removed optimistically
type DeleteStartedMsg struct {
	BookID int64
}

// DeleteEventMsg carries an undo coordinator event
type DeleteEventMsg struct {
	Event undo.Event
}

// UndoDoneMsg signals the end of an undo request
type UndoDoneMsg struct {
	Err error
}

// TickMsg drives the undo countdown
type TickMsg struct {
	Time time.Time
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct {
	Seq int
}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}
