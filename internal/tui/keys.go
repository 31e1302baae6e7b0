package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/mmcdole/shelf/internal/tui/components"
)

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Navigation
	List components.BookListKeyMap

	// Actions
	Quit         key.Binding
	Help         key.Binding
	Escape       key.Binding
	Search       key.Binding
	SearchAuthor key.Binding
	Add          key.Binding
	Delete       key.Binding
	Undo         key.Binding
	Progress     key.Binding
	DateFilter   key.Binding
	ClearFilter  key.Binding
	Refresh      key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		List: components.DefaultBookListKeyMap(),

		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear search"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search titles"),
		),
		SearchAuthor: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "search authors"),
		),
		Add: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new book"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "delete"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "undo delete"),
		),
		Progress: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p", "cycle progress"),
		),
		DateFilter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter by date"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "clear date filter"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Delete, k.Undo, k.Progress, k.Search, k.DateFilter, k.Help, k.Quit}
}

// FullHelp returns every binding, grouped for the help screen
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		k.List.Bindings(),
		{k.Add, k.Delete, k.Undo, k.Progress, k.Refresh},
		{k.Search, k.SearchAuthor, k.Escape, k.DateFilter, k.ClearFilter, k.Help, k.Quit},
	}
}

// Keys is the global key bindings instance
var Keys = DefaultKeyMap()
