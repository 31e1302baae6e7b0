package domain

import (
	"context"
)

// BookRepository provides access to the remote catalog.
// Every method either resolves with a value or fails with a *RemoteError.
type BookRepository interface {
	// List returns every book in the catalog
	List(ctx context.Context) ([]Book, error)

	// ListByDateRange returns books published within [start, end] inclusive
	ListByDateRange(ctx context.Context, start, end Date) ([]Book, error)

	// Get returns a single book
	Get(ctx context.Context, id int64) (*Book, error)

	// Create adds a book. The server assigns the id and WantToRead progress.
	Create(ctx context.Context, title, author string, published Date) (*Book, error)

	// Delete removes a book and echoes its id on success.
	// The server retains the record so UndoDelete can restore it.
	Delete(ctx context.Context, id int64) (int64, error)

	// UndoDelete restores a recently deleted book
	UndoDelete(ctx context.Context, id int64) (*Book, error)

	// UpdateProgress sets a book's reading progress
	UpdateProgress(ctx context.Context, id int64, progress ReadingProgress) (*Book, error)
}
