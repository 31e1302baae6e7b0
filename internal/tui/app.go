package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/library"
	"github.com/mmcdole/shelf/internal/tui/components"
	"github.com/mmcdole/shelf/internal/tui/styles"
	"github.com/mmcdole/shelf/internal/undo"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateSearching
	StateAdding
	StateFiltering
	StateHelp
)

// SearchField selects what the live search matches against
type SearchField int

const (
	SearchTitle SearchField = iota
	SearchAuthor
)

// Layout
const (
	HeaderHeight = 1
	FooterHeight = 2 // banner/prompt line + status bar
)

// Add form field order
const (
	fieldTitle = iota
	fieldAuthor
	fieldPublished
)

// Date range form field order
const (
	fieldStart = iota
	fieldEnd
)

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Ready bool

	// Services
	Commands *library.Commands
	Queries  *library.Queries
	Undo     *undo.Coordinator
	events   <-chan undo.Event
	logger   *slog.Logger

	// UI Components
	List      *components.BookList
	Search    components.InputModal
	AddForm   components.Form
	RangeForm components.Form
	Banner    components.UndoBanner
	Spinner   spinner.Model

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg   string
	StatusIsErr bool
	statusSeq   int
	Busy        int

	// Search and filter state
	query       string
	searchField SearchField
	rangeStart  *domain.Date
	rangeEnd    *domain.Date
	rangeText   string

	now func() time.Time
}

// NewModel creates a new application model. events is the channel the
// coordinator's ChannelObserver writes to.
func NewModel(
	cmds *library.Commands,
	queries *library.Queries,
	coord *undo.Coordinator,
	events <-chan undo.Event,
	logger *slog.Logger,
) Model {
	if logger == nil {
		logger = slog.Default()
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styles.SpinnerStyle

	list := components.NewBookList("Books")
	list.SetLoading(true)

	return Model{
		State:    StateBrowsing,
		Commands: cmds,
		Queries:  queries,
		Undo:     coord,
		events:   events,
		logger:   logger,
		List:     list,
		Search:   components.NewInputModal(),
		AddForm: components.NewForm("New book", "tab next field · enter save · esc cancel",
			components.FormField{Label: "Title", Placeholder: "The Left Hand of Darkness"},
			components.FormField{Label: "Author", Placeholder: "Ursula K. Le Guin"},
			components.FormField{Label: "Published", Placeholder: "YYYY-MM-DD", CharLimit: 10},
		),
		RangeForm: components.NewForm("Filter by published date", "end defaults to today · both empty shows all",
			components.FormField{Label: "From", Placeholder: "YYYY-MM-DD", CharLimit: 10},
			components.FormField{Label: "To", Placeholder: "YYYY-MM-DD (optional)", CharLimit: 10},
		),
		Spinner: sp,
		Busy:    1, // initial load
		now:     time.Now,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.Sequence(RestoreSnapshotCmd(m.Commands), LoadBooksCmd(m.Commands)),
		WaitForDeleteEventCmd(m.events),
		TickCmd(tickInterval),
		m.Spinner.Tick,
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case TickMsg:
		m.reconcileBanner()
		return m, TickCmd(tickInterval)

	case SnapshotRestoredMsg:
		m.refreshRows()
		m.List.SetLoading(true)
		return m, m.setStatus(fmt.Sprintf("Showing %d cached books from %s", msg.Count, msg.FetchedAt.Local().Format("Jan 2 15:04")), false)

	case BooksLoadedMsg:
		m.finish()
		m.Banner.Hide()
		if msg.Filtered {
			m.rangeText = msg.Range
		} else {
			m.rangeText = ""
			m.rangeStart, m.rangeEnd = nil, nil
		}
		m.refreshRows()
		m.List.SetLoading(false)
		return m, m.setStatus(fmt.Sprintf("Loaded %d books", len(msg.Books)), false)

	case BookCreatedMsg:
		m.finish()
		m.refreshRows()
		m.selectBook(msg.Book.ID)
		return m, m.setStatus(fmt.Sprintf("Added %q", msg.Book.Title), false)

	case ProgressUpdatedMsg:
		m.finish()
		m.refreshRows()
		return m, m.setStatus(fmt.Sprintf("%q marked %s", msg.Book.Title, msg.Book.ReadingProgress.Label()), false)

	case DeleteStartedMsg:
		m.finish()
		m.refreshRows()
		return m, nil

	case DeleteEventMsg:
		cmd := m.handleDeleteEvent(msg.Event)
		return m, tea.Batch(cmd, WaitForDeleteEventCmd(m.events))

	case UndoDoneMsg:
		m.finish()
		m.Banner.SetUndoing(false)
		m.refreshRows()
		switch {
		case msg.Err == nil:
			return m, m.setStatus("Delete undone", false)
		case errors.Is(msg.Err, undo.ErrWindowClosed), errors.Is(msg.Err, domain.ErrNothingToUndo):
			return m, m.setStatus("Nothing to undo", false)
		default:
			// Failure is also reported through EventFailed
			return m, nil
		}

	case ErrMsg:
		m.finish()
		m.List.SetLoading(false)
		m.logger.Debug("request failed", "context", msg.Context, "error", msg.Err)
		return m, m.setStatus(msg.Error(), true)

	case StatusMsg:
		return m, m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		if msg.Seq == m.statusSeq {
			m.StatusMsg = ""
			m.StatusIsErr = false
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.State {
	case StateSearching:
		return m.handleSearchKeys(msg)
	case StateAdding:
		return m.handleAddKeys(msg)
	case StateFiltering:
		return m.handleRangeKeys(msg)
	case StateHelp:
		m.State = StateBrowsing
		return m, nil
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		m.Commands.Persist()
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Escape):
		if m.query != "" {
			m.query = ""
			m.refreshRows()
		}
		return m, nil

	case key.Matches(msg, Keys.Search):
		m.openSearch(SearchTitle)
		return m, nil

	case key.Matches(msg, Keys.SearchAuthor):
		m.openSearch(SearchAuthor)
		return m, nil

	case key.Matches(msg, Keys.Add):
		m.AddForm.Show()
		m.State = StateAdding
		return m, nil

	case key.Matches(msg, Keys.DateFilter):
		m.RangeForm.Show()
		if m.rangeStart != nil {
			m.RangeForm.SetValue(fieldStart, m.rangeStart.String())
		}
		if m.rangeEnd != nil {
			m.RangeForm.SetValue(fieldEnd, m.rangeEnd.String())
		}
		m.State = StateFiltering
		return m, nil

	case key.Matches(msg, Keys.ClearFilter):
		if m.rangeText == "" {
			return m, nil
		}
		m.rangeStart, m.rangeEnd = nil, nil
		return m.request(LoadBooksCmd(m.Commands))

	case key.Matches(msg, Keys.Refresh):
		if m.rangeText != "" {
			return m.request(FilterBooksCmd(m.Commands, m.rangeStart, m.rangeEnd))
		}
		return m.request(LoadBooksCmd(m.Commands))

	case key.Matches(msg, Keys.Delete):
		book, ok := m.List.Selected()
		if !ok {
			return m, nil
		}
		return m.request(DeleteBookCmd(m.Undo, book.ID))

	case key.Matches(msg, Keys.Undo):
		if !m.Banner.IsVisible() {
			return m, m.setStatus("Nothing to undo", false)
		}
		m.Banner.SetUndoing(true)
		return m.request(UndoDeleteCmd(m.Undo))

	case key.Matches(msg, Keys.Progress):
		book, ok := m.List.Selected()
		if !ok {
			return m, nil
		}
		return m.request(UpdateProgressCmd(m.Commands, book.ID, book.ReadingProgress.Next()))
	}

	return m, m.List.Update(msg)
}

func (m *Model) openSearch(field SearchField) {
	prompt := "/"
	if field == SearchAuthor {
		prompt = "author:"
	}
	if field != m.searchField {
		m.query = ""
	}
	m.searchField = field
	m.Search.Show(prompt, m.query)
	m.State = StateSearching
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var done bool
	m.Search, cmd, done = m.Search.Update(msg)
	m.query = m.Search.Value()
	m.refreshRows()
	if done {
		m.State = StateBrowsing
	}
	return m, cmd
}

func (m Model) handleAddKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var submitted bool
	m.AddForm, cmd, submitted = m.AddForm.Update(msg)
	if !m.AddForm.IsVisible() {
		m.State = StateBrowsing
		return m, cmd
	}
	if !submitted {
		return m, cmd
	}

	values := m.AddForm.Values()
	var published domain.Date
	if values[fieldPublished] != "" {
		d, err := domain.ParseDate(values[fieldPublished])
		if err != nil {
			m.AddForm.SetError(err.Error())
			return m, nil
		}
		published = d
	}
	if err := library.ValidateNewBook(values[fieldTitle], values[fieldAuthor], published); err != nil {
		m.AddForm.SetError(err.Error())
		return m, nil
	}

	m.AddForm.Hide()
	m.State = StateBrowsing
	return m.request(CreateBookCmd(m.Commands, values[fieldTitle], values[fieldAuthor], published))
}

func (m Model) handleRangeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var submitted bool
	m.RangeForm, cmd, submitted = m.RangeForm.Update(msg)
	if !m.RangeForm.IsVisible() {
		m.State = StateBrowsing
		return m, cmd
	}
	if !submitted {
		return m, cmd
	}

	values := m.RangeForm.Values()
	start, err := optionalDate(values[fieldStart])
	if err != nil {
		m.RangeForm.SetError("From: " + err.Error())
		return m, nil
	}
	end, err := optionalDate(values[fieldEnd])
	if err != nil {
		m.RangeForm.SetError("To: " + err.Error())
		return m, nil
	}
	if start == nil && end != nil {
		m.RangeForm.SetError("From is required when To is set")
		return m, nil
	}
	if start != nil && end != nil && start.After(*end) {
		m.RangeForm.SetError("From must not be after To")
		return m, nil
	}

	m.RangeForm.Hide()
	m.State = StateBrowsing
	m.rangeStart, m.rangeEnd = start, end
	return m.request(FilterBooksCmd(m.Commands, start, end))
}

func optionalDate(s string) (*domain.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (m *Model) handleDeleteEvent(ev undo.Event) tea.Cmd {
	m.logger.Debug("delete event", "kind", int(ev.Kind), "bookID", ev.Book.ID, "phase", ev.Phase.String())

	switch ev.Kind {
	case undo.EventUndoShown:
		m.Banner.Show(ev.Book, m.now().Add(m.Undo.Window()))
		m.refreshRows()
	case undo.EventUndoHidden:
		if m.Banner.BookID() == ev.Book.ID {
			m.Banner.Hide()
		}
		m.refreshRows()
	case undo.EventDeleteConfirmed:
		// Nothing visible changes until the window closes.
	case undo.EventFailed:
		m.refreshRows()
		return m.setStatus(fmt.Sprintf("%q: %v", ev.Book.Title, ev.Err), true)
	}
	return nil
}

// reconcileBanner hides a banner whose attempt is no longer open.
func (m *Model) reconcileBanner() {
	if !m.Banner.IsVisible() {
		return
	}
	book, phase, ok := m.Undo.Current()
	if ok && book.ID == m.Banner.BookID() && phase == undo.PhaseOptimistic {
		return
	}
	m.Banner.Hide()
	m.refreshRows()
}

// refreshRows rebuilds the list from the store, applying the live search.
func (m *Model) refreshRows() {
	var rows []components.BookRow
	switch {
	case m.query == "":
		for _, b := range m.Queries.Books() {
			rows = append(rows, components.BookRow{Book: b})
		}
	case m.searchField == SearchAuthor:
		for _, b := range m.Queries.ByAuthor(m.query) {
			rows = append(rows, components.BookRow{Book: b})
		}
	default:
		for _, r := range m.Queries.SearchResults(m.query) {
			rows = append(rows, components.BookRow{Book: r.Book, MatchedIndexes: r.MatchedIndexes})
		}
	}

	m.List.SetRows(rows)
	m.List.SetTitle(m.listTitle())
	if m.query != "" {
		m.List.SetEmptyText("No matches")
	} else {
		m.List.SetEmptyText("No books")
	}
}

func (m *Model) selectBook(id int64) {
	for i, r := range m.List.Rows() {
		if r.Book.ID == id {
			m.List.SetSelectedIndex(i)
			return
		}
	}
}

func (m Model) listTitle() string {
	title := "Books"
	if m.rangeText != "" {
		title += " · published " + m.rangeText
	}
	if m.query != "" {
		if m.searchField == SearchAuthor {
			title += fmt.Sprintf(" · author %q", m.query)
		} else {
			title += fmt.Sprintf(" · %q", m.query)
		}
	}
	return title
}

// request dispatches a command whose result message ends a busy period.
func (m Model) request(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.Busy++
	return m, cmd
}

func (m *Model) finish() {
	if m.Busy > 0 {
		m.Busy--
	}
}

func (m *Model) setStatus(msg string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.StatusMsg = msg
	m.StatusIsErr = isErr
	return ClearStatusCmd(statusTimeout, m.statusSeq)
}

func (m *Model) updateLayout() {
	h := m.Height - HeaderHeight - FooterHeight
	if h < 3 {
		h = 3
	}
	m.List.SetSize(m.Width, h)
}
