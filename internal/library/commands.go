package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mmcdole/shelf/internal/collection"
	"github.com/mmcdole/shelf/internal/domain"
)

// Abandoner drops any open undo opportunity. Implemented by undo.Coordinator.
type Abandoner interface {
	Abandon()
}

// Option configures Commands.
type Option func(*Commands)

// WithClock overrides the clock used to default an open-ended date range.
func WithClock(now func() time.Time) Option {
	return func(c *Commands) {
		if now != nil {
			c.now = now
		}
	}
}

var _ domain.CatalogCommands = (*Commands)(nil)

// Commands provides asynchronous operations that hit network.
// Implements domain.CatalogCommands.
type Commands struct {
	repo     domain.BookRepository
	books    *collection.Store
	undo     Abandoner
	cache    domain.Cache
	now      func() time.Time
	filtered atomic.Bool
	logger   *slog.Logger
}

// NewCommands creates a new Commands instance. cache may be nil.
func NewCommands(
	repo domain.BookRepository,
	books *collection.Store,
	undo Abandoner,
	cache domain.Cache,
	logger *slog.Logger,
	opts ...Option,
) *Commands {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Commands{
		repo:   repo,
		books:  books,
		undo:   undo,
		cache:  cache,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches the whole catalog and replaces the visible list.
func (c *Commands) Load(ctx context.Context) ([]domain.Book, error) {
	books, err := c.repo.List(ctx)
	if err != nil {
		c.logger.Error("failed to fetch books", "error", err)
		return nil, err
	}
	if err := c.replace(books); err != nil {
		return nil, err
	}
	c.filtered.Store(false)
	c.saveSnapshot(books)
	c.logger.Debug("fetched books", "count", len(books))
	return books, nil
}

// Filter lists books published in [start, end]. Both nil lists everything.
// A nil end means today. An end without a start, or a start after the end,
// is ErrInvalidRange.
func (c *Commands) Filter(ctx context.Context, start, end *domain.Date) ([]domain.Book, error) {
	if start == nil && end == nil {
		return c.Load(ctx)
	}
	if start == nil {
		return nil, fmt.Errorf("%w: start date is required", domain.ErrInvalidRange)
	}

	to := domain.DateOf(c.now())
	if end != nil {
		to = *end
	}
	if start.After(to) {
		return nil, fmt.Errorf("%w: %s is after %s", domain.ErrInvalidRange, start, to)
	}

	books, err := c.repo.ListByDateRange(ctx, *start, to)
	if err != nil {
		c.logger.Error("failed to fetch books by date", "error", err, "start", start.String(), "end", to.String())
		return nil, err
	}
	if err := c.replace(books); err != nil {
		return nil, err
	}
	c.filtered.Store(true)
	c.logger.Debug("fetched books by date", "count", len(books), "start", start.String(), "end", to.String())
	return books, nil
}

// Get returns a book from the visible list, falling back to the server.
func (c *Commands) Get(ctx context.Context, id int64) (*domain.Book, error) {
	if book, ok := c.books.Get(id); ok {
		return &book, nil
	}
	book, err := c.repo.Get(ctx, id)
	if err != nil {
		c.logger.Error("failed to fetch book", "error", err, "bookID", id)
		return nil, err
	}
	return book, nil
}

// Create validates and adds a new book, appending the server's record.
func (c *Commands) Create(ctx context.Context, title, author string, published domain.Date) (*domain.Book, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if err := ValidateNewBook(title, author, published); err != nil {
		return nil, err
	}

	book, err := c.repo.Create(ctx, title, author, published)
	if err != nil {
		c.logger.Error("failed to create book", "error", err, "title", title)
		return nil, err
	}
	if err := c.books.Append(*book); err != nil {
		c.logger.Warn("created book not added to list", "error", err, "bookID", book.ID)
		return book, err
	}
	c.logger.Info("created book", "bookID", book.ID, "title", book.Title)
	return book, nil
}

// UpdateProgress sets a book's reading progress on the server, then locally.
func (c *Commands) UpdateProgress(ctx context.Context, id int64, progress domain.ReadingProgress) (*domain.Book, error) {
	if !progress.Valid() {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownProgress, int(progress))
	}

	book, err := c.repo.UpdateProgress(ctx, id, progress)
	if err != nil {
		c.logger.Error("failed to update progress", "error", err, "bookID", id)
		return nil, err
	}
	if err := c.books.UpdateProgress(id, book.ReadingProgress); err != nil {
		c.logger.Warn("updated book not in list", "error", err, "bookID", id)
		return book, err
	}
	c.logger.Debug("updated progress", "bookID", id, "progress", book.ReadingProgress.String())
	return book, nil
}

// RestoreSnapshot fills an empty list from the offline cache.
func (c *Commands) RestoreSnapshot() (domain.Snapshot, bool) {
	if c.cache == nil || c.books.Len() > 0 {
		return domain.Snapshot{}, false
	}
	snap, ok := c.cache.GetSnapshot()
	if !ok {
		return domain.Snapshot{}, false
	}
	if err := c.books.ReplaceAll(snap.Books); err != nil {
		c.logger.Warn("discarding corrupt snapshot", "error", err)
		c.cache.Invalidate()
		return domain.Snapshot{}, false
	}
	c.logger.Debug("restored snapshot", "count", len(snap.Books), "fetchedAt", snap.FetchedAt)
	return snap, true
}

// Persist writes the visible list to the offline cache. Filtered views are skipped.
func (c *Commands) Persist() {
	if c.filtered.Load() {
		return
	}
	c.saveSnapshot(c.books.Books())
}

// Filtered reports whether the visible list came from a date filter.
func (c *Commands) Filtered() bool {
	return c.filtered.Load()
}

// ValidateNewBook checks a create request: every field is required and the
// publication date may not precede MinPublishedDate.
func ValidateNewBook(title, author string, published domain.Date) error {
	var problems []string
	if strings.TrimSpace(title) == "" {
		problems = append(problems, "title is required")
	}
	if strings.TrimSpace(author) == "" {
		problems = append(problems, "author is required")
	}
	switch {
	case published.IsZero():
		problems = append(problems, "published date is required")
	case published.Before(domain.MinPublishedDate):
		problems = append(problems, "published date must be on or after "+domain.MinPublishedDate.String())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidBook, strings.Join(problems, ", "))
	}
	return nil
}

// --- Private helpers ---

// replace swaps the visible list. Any open undo is abandoned first.
func (c *Commands) replace(books []domain.Book) error {
	if c.undo != nil {
		c.undo.Abandon()
	}
	if err := c.books.ReplaceAll(books); err != nil {
		if errors.Is(err, domain.ErrDuplicateID) {
			c.logger.Error("server returned duplicate books", "error", err)
		}
		return err
	}
	return nil
}

func (c *Commands) saveSnapshot(books []domain.Book) {
	if c.cache == nil {
		return
	}
	snap := domain.Snapshot{Books: books, FetchedAt: c.now()}
	if err := c.cache.SaveSnapshot(snap); err != nil {
		c.logger.Error("failed to save snapshot", "error", err)
	}
}
