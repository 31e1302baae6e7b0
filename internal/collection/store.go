// Package collection holds the client-side view of the catalog and the
// single pending-delete slot backing undo. It performs no I/O.
package collection

import (
	"fmt"
	"sync"

	"github.com/mmcdole/shelf/internal/domain"
)

// State is a point-in-time copy of the collection.
type State struct {
	Books          []domain.Book
	PendingDeleted *domain.Book
}

// Store owns the collection state. All mutation goes through its methods;
// each one is applied atomically.
type Store struct {
	mu      sync.RWMutex
	books   []domain.Book
	pending *domain.Book
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// ReplaceAll swaps in a fresh listing. The pending slot is left alone.
func (s *Store) ReplaceAll(books []domain.Book) error {
	seen := make(map[int64]struct{}, len(books))
	for _, b := range books {
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("replace: %w: %d", domain.ErrDuplicateID, b.ID)
		}
		seen[b.ID] = struct{}{}
	}

	next := make([]domain.Book, len(books))
	copy(next, books)

	s.mu.Lock()
	s.books = next
	s.mu.Unlock()
	return nil
}

// Append adds a book at the end of the list.
func (s *Store) Append(book domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(book.ID) >= 0 || (s.pending != nil && s.pending.ID == book.ID) {
		return fmt.Errorf("append: %w: %d", domain.ErrDuplicateID, book.ID)
	}
	s.books = append(s.books, book)
	return nil
}

// BeginDelete moves the book out of the list and into the pending slot.
// Whatever occupied the slot before is dropped.
func (s *Store) BeginDelete(id int64) (domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Book{}, fmt.Errorf("delete: %w: %d", domain.ErrNotFound, id)
	}
	removed := s.books[i]
	s.books = append(s.books[:i:i], s.books[i+1:]...)
	s.pending = &removed
	return removed, nil
}

// ConfirmDelete clears the pending slot without restoring it. Safe to call
// when the slot is already empty.
func (s *Store) ConfirmDelete() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

// UndoDelete re-appends the pending book and clears the slot.
func (s *Store) UndoDelete() (domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return domain.Book{}, domain.ErrNothingToUndo
	}
	restored := *s.pending
	s.pending = nil
	if s.indexOf(restored.ID) < 0 {
		s.books = append(s.books, restored)
	}
	return restored, nil
}

// ConfirmDeleteOf clears the pending slot only if it holds id.
func (s *Store) ConfirmDeleteOf(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil || s.pending.ID != id {
		return false
	}
	s.pending = nil
	return true
}

// UndoDeleteOf is UndoDelete restricted to the slot holding id.
func (s *Store) UndoDeleteOf(id int64) (domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil || s.pending.ID != id {
		return domain.Book{}, fmt.Errorf("undo %d: %w", id, domain.ErrNothingToUndo)
	}
	restored := *s.pending
	s.pending = nil
	if s.indexOf(restored.ID) < 0 {
		s.books = append(s.books, restored)
	}
	return restored, nil
}

// Restore puts back a book that already left the pending slot (its undo
// window closed before the server reported a failed delete).
func (s *Store) Restore(book domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(book.ID) >= 0 {
		return fmt.Errorf("restore: %w: %d", domain.ErrDuplicateID, book.ID)
	}
	if s.pending != nil && s.pending.ID == book.ID {
		s.pending = nil
	}
	s.books = append(s.books, book)
	return nil
}

// UpdateProgress sets the reading progress of a listed book in place.
func (s *Store) UpdateProgress(id int64, progress domain.ReadingProgress) error {
	if !progress.Valid() {
		return fmt.Errorf("update progress: %w: %d", domain.ErrUnknownProgress, int(progress))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("update progress: %w: %d", domain.ErrNotFound, id)
	}
	s.books[i].ReadingProgress = progress
	return nil
}

// Get returns a listed book by id.
func (s *Store) Get(id int64) (domain.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.books[i], true
	}
	return domain.Book{}, false
}

// Pending returns the book awaiting delete confirmation, if any.
func (s *Store) Pending() (domain.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.pending == nil {
		return domain.Book{}, false
	}
	return *s.pending, true
}

// Books returns a copy of the listed books in order.
func (s *Store) Books() []domain.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Book, len(s.books))
	copy(out, s.books)
	return out
}

// Len returns the number of listed books.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// Snapshot returns a deep copy of the state for rendering.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{Books: make([]domain.Book, len(s.books))}
	copy(st.Books, s.books)
	if s.pending != nil {
		p := *s.pending
		st.PendingDeleted = &p
	}
	return st
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id int64) int {
	for i := range s.books {
		if s.books[i].ID == id {
			return i
		}
	}
	return -1
}
