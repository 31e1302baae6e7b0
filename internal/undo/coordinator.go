// Package undo sequences optimistic deletes: the book leaves the list at
// once, the remote delete runs in the background, and a short window lets
// the user take it back before the removal is treated as final.
package undo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/shelf/internal/collection"
	"github.com/mmcdole/shelf/internal/domain"
)

const (
	// DefaultWindow is how long the undo control stays available
	DefaultWindow = 5 * time.Second

	defaultRequestTimeout = 30 * time.Second
)

var (
	// ErrWindowClosed indicates the undo window already expired or was taken over
	ErrWindowClosed = errors.New("undo window closed")
)

// Remote is the subset of the catalog server the coordinator needs.
type Remote interface {
	Delete(ctx context.Context, id int64) (int64, error)
	UndoDelete(ctx context.Context, id int64) (*domain.Book, error)
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithWindow overrides the undo window duration
func WithWindow(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.window = d
		}
	}
}

// WithScheduler overrides how the undo window timer is scheduled
func WithScheduler(s Scheduler) Option {
	return func(c *Coordinator) { c.sched = s }
}

// WithObserver registers the receiver of delete attempt events
func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

// WithRequestTimeout bounds each remote call made by the coordinator
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// attempt is one delete from intent to settlement.
type attempt struct {
	book  domain.Book
	timer *Timer

	mu        sync.Mutex
	phase     Phase
	abandoned bool

	// ready is closed once EventUndoShown has been delivered; later events
	// for the attempt wait on it so observers see them in protocol order.
	ready chan struct{}

	// deleteDone is closed once the remote delete settled and any rollback
	// it triggered has been applied.
	deleteDone chan struct{}
	deleteErr  error
}

// Coordinator owns the delete/undo protocol over a collection.Store.
type Coordinator struct {
	remote         Remote
	store          *collection.Store
	sched          Scheduler
	observer       Observer
	window         time.Duration
	requestTimeout time.Duration
	logger         *slog.Logger

	mu      sync.Mutex
	current *attempt

	wg sync.WaitGroup
}

// NewCoordinator creates a coordinator for store backed by remote.
func NewCoordinator(remote Remote, store *collection.Store, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		remote:         remote,
		store:          store,
		sched:          RealScheduler{},
		observer:       NoOpObserver{},
		window:         DefaultWindow,
		requestTimeout: defaultRequestTimeout,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Window returns the configured undo window.
func (c *Coordinator) Window() time.Duration {
	return c.window
}

// Current returns the book whose undo window is open, if any.
func (c *Coordinator) Current() (domain.Book, Phase, bool) {
	c.mu.Lock()
	a := c.current
	c.mu.Unlock()
	if a == nil {
		return domain.Book{}, PhaseIdle, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.book, a.phase, true
}

// Delete removes the book from the store immediately, opens the undo window
// and issues the remote delete in the background. It returns once the local
// removal is applied; the outcome is reported through the Observer.
func (c *Coordinator) Delete(ctx context.Context, id int64) error {
	removed, err := c.store.BeginDelete(id)
	if err != nil {
		return err
	}

	a := &attempt{
		book:       removed,
		phase:      PhaseOptimistic,
		ready:      make(chan struct{}),
		deleteDone: make(chan struct{}),
	}

	// Arm the timer before the attempt becomes visible to Undo.
	c.mu.Lock()
	prev := c.current
	a.timer = NewTimer(c.sched, c.window, func() { c.windowClosed(a) })
	c.current = a
	c.mu.Unlock()

	if prev != nil {
		c.emitFor(prev, c.abandon(prev)...)
	}
	c.emit(Event{Kind: EventUndoShown, Book: removed, Phase: PhaseOptimistic})
	close(a.ready)

	c.logger.Info("book deleted optimistically", "bookID", id, "window", c.window)

	reqCtx := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runDelete(reqCtx, a)
	}()
	return nil
}

// Undo takes back the book whose window is open. It blocks until the remote
// undo settles.
func (c *Coordinator) Undo(ctx context.Context) error {
	c.mu.Lock()
	a := c.current
	c.mu.Unlock()
	if a == nil {
		return domain.ErrNothingToUndo
	}

	if !a.timer.Cancel() {
		return ErrWindowClosed
	}

	c.logger.Debug("undo requested", "bookID", a.book.ID)

	select {
	case <-a.deleteDone:
	case <-ctx.Done():
		err := fmt.Errorf("undo: %w", ctx.Err())
		c.giveUpUndo(a, err)
		return err
	}

	a.mu.Lock()
	deleteErr := a.deleteErr
	a.mu.Unlock()
	if deleteErr != nil {
		// The failed delete already put the book back.
		return nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	restored, err := c.remote.UndoDelete(reqCtx, a.book.ID)
	if err != nil {
		c.logger.Error("failed to undo delete", "error", err, "bookID", a.book.ID)
		c.giveUpUndo(a, err)
		return err
	}

	book := a.book
	if restored != nil {
		book = *restored
	}

	a.mu.Lock()
	c.putBack(book)
	a.phase = PhaseRolledBack
	a.mu.Unlock()
	c.clearCurrent(a)

	c.logger.Info("delete undone", "bookID", book.ID)
	c.emitFor(a, Event{Kind: EventUndoHidden, Book: book, Phase: PhaseRolledBack})
	return nil
}

// Abandon closes any open undo window, treating its delete as final.
// Used before a full list refresh replaces the store contents.
func (c *Coordinator) Abandon() {
	c.mu.Lock()
	a := c.current
	c.current = nil
	c.mu.Unlock()
	if a == nil {
		return
	}
	c.emitFor(a, c.abandon(a)...)
}

// Wait blocks until every background remote call has settled.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// abandon retires an attempt that is no longer current. The caller has
// already replaced or cleared c.current.
func (c *Coordinator) abandon(a *attempt) []Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.abandoned = true
	if !a.timer.Cancel() {
		return nil
	}
	if a.phase != PhaseOptimistic {
		return nil
	}
	a.phase = PhaseSettled
	c.store.ConfirmDeleteOf(a.book.ID)
	c.logger.Debug("undo window abandoned", "bookID", a.book.ID)
	return []Event{{Kind: EventUndoHidden, Book: a.book, Phase: PhaseSettled}}
}

func (c *Coordinator) runDelete(ctx context.Context, a *attempt) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	id, err := c.remote.Delete(ctx, a.book.ID)
	if err == nil && id != a.book.ID {
		err = &domain.RemoteError{
			Op:   "delete",
			Kind: domain.ErrServerRejection,
			Err:  fmt.Errorf("server acknowledged id %d, expected %d", id, a.book.ID),
		}
	}

	if err == nil {
		a.mu.Lock()
		close(a.deleteDone)
		a.mu.Unlock()
		c.logger.Debug("remote delete acknowledged", "bookID", a.book.ID)
		c.emitFor(a, Event{Kind: EventDeleteConfirmed, Book: a.book, Phase: PhaseOptimistic})
		return
	}

	c.logger.Error("failed to delete book", "error", err, "bookID", a.book.ID)

	a.mu.Lock()
	a.deleteErr = err
	a.timer.Cancel()
	wasVisible := a.phase == PhaseOptimistic && !a.abandoned
	c.putBack(a.book)
	a.phase = PhaseRolledBack
	close(a.deleteDone)
	a.mu.Unlock()
	c.clearCurrent(a)

	var events []Event
	if wasVisible {
		events = append(events, Event{Kind: EventUndoHidden, Book: a.book, Phase: PhaseRolledBack})
	}
	events = append(events, Event{Kind: EventFailed, Book: a.book, Phase: PhaseRolledBack, Err: err})
	c.emitFor(a, events...)
}

// windowClosed runs when the undo timer fires.
func (c *Coordinator) windowClosed(a *attempt) {
	a.mu.Lock()
	a.phase = PhaseSettled
	c.store.ConfirmDeleteOf(a.book.ID)
	a.mu.Unlock()
	c.clearCurrent(a)

	c.logger.Debug("undo window closed", "bookID", a.book.ID)
	c.emitFor(a, Event{Kind: EventUndoHidden, Book: a.book, Phase: PhaseSettled})
}

// giveUpUndo leaves the delete standing after a failed undo.
func (c *Coordinator) giveUpUndo(a *attempt, err error) {
	a.mu.Lock()
	if a.phase == PhaseOptimistic {
		a.phase = PhaseSettled
		c.store.ConfirmDeleteOf(a.book.ID)
	}
	a.mu.Unlock()
	c.clearCurrent(a)

	c.emitFor(a,
		Event{Kind: EventUndoHidden, Book: a.book, Phase: PhaseSettled},
		Event{Kind: EventFailed, Book: a.book, Phase: PhaseSettled, Err: err},
	)
}

// putBack returns a book to the list, through the pending slot when it
// still holds this book.
func (c *Coordinator) putBack(book domain.Book) {
	if _, err := c.store.UndoDeleteOf(book.ID); err == nil {
		return
	}
	if err := c.store.Restore(book); err != nil {
		c.logger.Debug("book already back in list", "bookID", book.ID, "error", err)
	}
}

func (c *Coordinator) clearCurrent(a *attempt) {
	c.mu.Lock()
	if c.current == a {
		c.current = nil
	}
	c.mu.Unlock()
}

// emitFor delivers events for a once its EventUndoShown is out.
func (c *Coordinator) emitFor(a *attempt, events ...Event) {
	<-a.ready
	c.emit(events...)
}

func (c *Coordinator) emit(events ...Event) {
	for _, ev := range events {
		c.observer.OnDeleteEvent(ev)
	}
}
