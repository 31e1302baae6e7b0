package domain

import "context"

// CatalogQueries: Synchronous, memory-only reads.
// All methods return instantly. NEVER block on network.
// Safe to call from View() and navigation code.
type CatalogQueries interface {
	Books() []Book
	Pending() (Book, bool)
	Search(query string) []Book
	ByAuthor(query string) []Book
	ByProgress(progress ReadingProgress) []Book
	Counts() ProgressCounts
}

// ProgressCounts tallies the visible books by reading progress.
type ProgressCounts struct {
	Total      int
	WantToRead int
	Reading    int
	Completed  int
}

// CatalogCommands: Operations that hit the network.
// Must be called from tea.Cmd functions, never from View().
type CatalogCommands interface {
	Load(ctx context.Context) ([]Book, error)
	Filter(ctx context.Context, start, end *Date) ([]Book, error)
	Get(ctx context.Context, id int64) (*Book, error)
	Create(ctx context.Context, title, author string, published Date) (*Book, error)
	UpdateProgress(ctx context.Context, id int64, progress ReadingProgress) (*Book, error)
}
