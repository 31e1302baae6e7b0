package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/tui/styles"
)

// Layout constants for the book list
const (
	// Border adds 1 char on each side (left+right for width, top+bottom for height)
	BorderWidth  = 2
	BorderHeight = 2

	// Title line, column header and the two scroll indicators
	ChromeLines = 4

	dateWidth     = 10
	progressWidth = 2
)

// BookRow is one displayed book with the title positions a search matched
type BookRow struct {
	Book           domain.Book
	MatchedIndexes []int
}

// BookList is a scrollable list of books with a cursor.
type BookList struct {
	rows []BookRow

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width  int
	height int

	title   string
	empty   string
	loading bool

	keys BookListKeyMap
}

// NewBookList creates an empty book list
func NewBookList(title string) *BookList {
	return &BookList{
		title: title,
		empty: "No books",
		keys:  DefaultBookListKeyMap(),
	}
}

// Update handles navigation keys
func (l *BookList) Update(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	count := len(l.rows)
	if count == 0 {
		return nil
	}

	switch {
	case key.Matches(keyMsg, l.keys.Down):
		l.SetSelectedIndex(l.cursor + 1)
	case key.Matches(keyMsg, l.keys.Up):
		l.SetSelectedIndex(l.cursor - 1)
	case key.Matches(keyMsg, l.keys.Home):
		l.cursor = 0
		l.offset = 0
	case key.Matches(keyMsg, l.keys.End):
		l.SetSelectedIndex(count - 1)
	case key.Matches(keyMsg, l.keys.HalfDown):
		l.SetSelectedIndex(l.cursor + l.page()/2)
	case key.Matches(keyMsg, l.keys.HalfUp):
		l.SetSelectedIndex(l.cursor - l.page()/2)
	case key.Matches(keyMsg, l.keys.PageDown):
		l.SetSelectedIndex(l.cursor + l.page())
	case key.Matches(keyMsg, l.keys.PageUp):
		l.SetSelectedIndex(l.cursor - l.page())
	}
	return nil
}

// SetRows replaces the rows, keeping the cursor on the same book when it is
// still present.
func (l *BookList) SetRows(rows []BookRow) {
	var selectedID int64
	hadSelection := false
	if b, ok := l.Selected(); ok {
		selectedID, hadSelection = b.ID, true
	}

	prev := l.cursor
	l.rows = rows
	l.loading = false

	if hadSelection {
		for i, r := range rows {
			if r.Book.ID == selectedID {
				l.SetSelectedIndex(i)
				return
			}
		}
	}
	// Selected book is gone; stay at the same position
	l.SetSelectedIndex(prev)
}

// Rows returns the displayed rows
func (l *BookList) Rows() []BookRow {
	return l.rows
}

// Selected returns the book under the cursor
func (l *BookList) Selected() (domain.Book, bool) {
	if l.cursor < 0 || l.cursor >= len(l.rows) {
		return domain.Book{}, false
	}
	return l.rows[l.cursor].Book, true
}

func (l *BookList) SelectedIndex() int {
	return l.cursor
}

func (l *BookList) SetSelectedIndex(idx int) {
	max := len(l.rows) - 1
	if max < 0 {
		l.cursor = 0
		l.offset = 0
		return
	}
	if idx < 0 {
		idx = 0
	}
	if idx > max {
		idx = max
	}
	l.cursor = idx
	l.ensureVisible()
}

func (l *BookList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.maxVisible = height - BorderHeight - ChromeLines
	if l.maxVisible < 1 {
		l.maxVisible = 1
	}
	l.ensureVisible()
}

func (l *BookList) SetTitle(title string) {
	l.title = title
}

// SetEmptyText sets the message shown when there are no rows
func (l *BookList) SetEmptyText(text string) {
	l.empty = text
}

func (l *BookList) SetLoading(loading bool) {
	l.loading = loading
}

func (l *BookList) IsLoading() bool {
	return l.loading
}

func (l *BookList) Len() int {
	return len(l.rows)
}

func (l *BookList) page() int {
	if l.maxVisible < 2 {
		return 2
	}
	return l.maxVisible
}

func (l *BookList) ensureVisible() {
	if l.maxVisible <= 0 {
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.maxVisible {
		l.offset = l.cursor - l.maxVisible + 1
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

// View renders the list inside a border sized to the list's dimensions
func (l *BookList) View() string {
	style := styles.ActiveBorder
	frameW, frameH := style.GetFrameSize()
	w, h := l.width-frameW, l.height-frameH
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return style.Width(w).Height(h).Render(l.renderContent())
}

// Rendering

func (l *BookList) renderContent() string {
	itemWidth := l.width - BorderWidth
	if itemWidth < 20 {
		itemWidth = 20
	}

	titleLine := styles.AccentStyle.Render(styles.Truncate(l.title, itemWidth))

	if len(l.rows) == 0 {
		msg := l.empty
		if l.loading {
			msg = "Loading..."
		}
		return titleLine + "\n \n" + styles.DimStyle.Render(msg) + "\n "
	}

	titleW, authorW := columnWidths(itemWidth)
	header := styles.DimStyle.Render(" " +
		styles.Pad("", progressWidth) +
		styles.Pad("Title", titleW) + " " +
		styles.Pad("Author", authorW) + " " +
		"Published")

	end := l.offset + l.maxVisible
	if end > len(l.rows) {
		end = len(l.rows)
	}

	lines := make([]string, 0, end-l.offset)
	for i := l.offset; i < end; i++ {
		lines = append(lines, l.renderRow(l.rows[i], i == l.cursor, itemWidth, titleW, authorW))
	}

	// Always reserve the indicator lines to prevent layout shifts
	above := " "
	if l.offset > 0 {
		above = styles.DimStyle.Render(fmt.Sprintf("↑ %d more", l.offset))
	}
	below := " "
	if end < len(l.rows) {
		below = styles.DimStyle.Render(fmt.Sprintf("↓ %d more", len(l.rows)-end))
	}

	return strings.Join([]string{titleLine, header, above, strings.Join(lines, "\n"), below}, "\n")
}

// columnWidths splits the space left after the progress and date columns
// between title and author, roughly 60/40.
func columnWidths(itemWidth int) (title, author int) {
	avail := itemWidth - 2 - progressWidth - dateWidth - 2
	if avail < 10 {
		avail = 10
	}
	author = avail * 2 / 5
	title = avail - author
	return title, author
}

func (l *BookList) renderRow(row BookRow, selected bool, width, titleW, authorW int) string {
	glyph, fg := ProgressIndicator(row.Book.ReadingProgress)

	parts := []styles.RowPart{{Text: styles.Pad(glyph, progressWidth), Foreground: &fg}}
	parts = append(parts, highlightParts(styles.Pad(styles.Truncate(row.Book.Title, titleW), titleW), row.MatchedIndexes)...)
	parts = append(parts,
		styles.RowPart{Text: " " + styles.Pad(styles.Truncate(row.Book.Author, authorW), authorW)},
		styles.RowPart{Text: " " + styles.Pad(row.Book.PublishedDate.String(), dateWidth)},
	)
	return styles.RenderListRow(parts, selected, width)
}

// highlightParts splits text into runs, coloring the matched byte offsets
func highlightParts(text string, matched []int) []styles.RowPart {
	if len(matched) == 0 {
		return []styles.RowPart{{Text: text}}
	}
	set := make(map[int]bool, len(matched))
	for _, i := range matched {
		set[i] = true
	}

	accent := styles.Accent
	var parts []styles.RowPart
	var run strings.Builder
	runMatched := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		p := styles.RowPart{Text: run.String()}
		if runMatched {
			p.Foreground = &accent
		}
		parts = append(parts, p)
		run.Reset()
	}
	for i, r := range text {
		if set[i] != runMatched {
			flush()
			runMatched = set[i]
		}
		run.WriteRune(r)
	}
	flush()
	return parts
}

// ProgressIndicator returns the glyph and color for a reading progress
func ProgressIndicator(p domain.ReadingProgress) (string, lipgloss.Color) {
	switch p {
	case domain.Reading:
		return styles.ReadingChar, styles.Accent
	case domain.Completed:
		return styles.CompletedChar, styles.Good
	case domain.WantToRead:
		return styles.WantToReadChar, styles.Dim
	default:
		return "?", styles.Bad
	}
}
