package components

import (
	"fmt"
	"math"
	"time"

	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/tui/styles"
)

// UndoBanner is the "deleted, press u to undo" line with a countdown.
type UndoBanner struct {
	visible  bool
	book     domain.Book
	deadline time.Time
	undoing  bool
}

// Show displays the banner for book until deadline
func (b *UndoBanner) Show(book domain.Book, deadline time.Time) {
	b.visible = true
	b.book = book
	b.deadline = deadline
	b.undoing = false
}

// Hide removes the banner
func (b *UndoBanner) Hide() {
	b.visible = false
	b.undoing = false
}

// SetUndoing marks an undo request in flight
func (b *UndoBanner) SetUndoing(undoing bool) {
	b.undoing = undoing
}

func (b UndoBanner) IsVisible() bool {
	return b.visible
}

// BookID returns the id of the book the banner is for
func (b UndoBanner) BookID() int64 {
	return b.book.ID
}

// Remaining returns the whole seconds left in the window, rounded up
func (b UndoBanner) Remaining(now time.Time) int {
	left := b.deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}

// View renders the banner
func (b UndoBanner) View(now time.Time, width int) string {
	if !b.visible {
		return ""
	}
	action := fmt.Sprintf("u to undo (%ds)", b.Remaining(now))
	if b.undoing {
		action = "restoring..."
	}
	text := fmt.Sprintf("Deleted %q · %s", b.book.Title, action)
	return styles.BannerStyle.Width(width).Render(styles.Truncate(text, width-2))
}
