package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/library"
	"github.com/mmcdole/shelf/internal/undo"
)

// Command factories for async operations

const (
	requestTimeout = 30 * time.Second
	tickInterval   = 250 * time.Millisecond
	statusTimeout  = 4 * time.Second
)

// RestoreSnapshotCmd fills the list from the offline cache
func RestoreSnapshotCmd(cmds *library.Commands) tea.Cmd {
	return func() tea.Msg {
		snap, ok := cmds.RestoreSnapshot()
		if !ok {
			return nil
		}
		return SnapshotRestoredMsg{Count: len(snap.Books), FetchedAt: snap.FetchedAt}
	}
}

// LoadBooksCmd loads the whole catalog
func LoadBooksCmd(cmds *library.Commands) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		books, err := cmds.Load(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading books"}
		}
		return BooksLoadedMsg{Books: books}
	}
}

// FilterBooksCmd loads books published within a date range
func FilterBooksCmd(cmds *library.Commands, start, end *domain.Date) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		books, err := cmds.Filter(ctx, start, end)
		if err != nil {
			return ErrMsg{Err: err, Context: "filtering books"}
		}
		if start == nil && end == nil {
			return BooksLoadedMsg{Books: books}
		}
		return BooksLoadedMsg{Books: books, Filtered: true, Range: rangeLabel(start, end)}
	}
}

// CreateBookCmd adds a new book
func CreateBookCmd(cmds *library.Commands, title, author string, published domain.Date) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		book, err := cmds.Create(ctx, title, author, published)
		if err != nil {
			return ErrMsg{Err: err, Context: "adding book"}
		}
		return BookCreatedMsg{Book: *book}
	}
}

// UpdateProgressCmd changes a book's reading progress
func UpdateProgressCmd(cmds *library.Commands, id int64, progress domain.ReadingProgress) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		book, err := cmds.UpdateProgress(ctx, id, progress)
		if err != nil {
			return ErrMsg{Err: err, Context: "updating progress"}
		}
		return ProgressUpdatedMsg{Book: *book}
	}
}

// DeleteBookCmd starts an optimistic delete. The coordinator runs the
// remote call itself and reports through the observer channel.
func DeleteBookCmd(coord *undo.Coordinator, id int64) tea.Cmd {
	return func() tea.Msg {
		if err := coord.Delete(context.Background(), id); err != nil {
			return ErrMsg{Err: err, Context: "deleting book"}
		}
		return DeleteStartedMsg{BookID: id}
	}
}

// UndoDeleteCmd takes back the most recent delete
func UndoDeleteCmd(coord *undo.Coordinator) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return UndoDoneMsg{Err: coord.Undo(ctx)}
	}
}

// WaitForDeleteEventCmd waits for the next coordinator event
func WaitForDeleteEventCmd(ch <-chan undo.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return DeleteEventMsg{Event: ev}
	}
}

// TickCmd creates a tick command for the undo countdown
func TickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// ClearStatusCmd clears the status message after a delay
func ClearStatusCmd(d time.Duration, seq int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}

func rangeLabel(start, end *domain.Date) string {
	switch {
	case start != nil && end != nil:
		return fmt.Sprintf("%s – %s", start, end)
	case start != nil:
		return fmt.Sprintf("since %s", start)
	default:
		return ""
	}
}
