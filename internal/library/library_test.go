package library

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/shelf/internal/adapter"
	"github.com/mmcdole/shelf/internal/collection"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/store"
)

var (
	bookOne   = domain.Book{ID: 1, Title: "Book One", Author: "Author One", PublishedDate: domain.NewDate(2021, time.January, 1)}
	bookTwo   = domain.Book{ID: 2, Title: "Book Two", Author: "Author Two", PublishedDate: domain.NewDate(2022, time.February, 2), ReadingProgress: domain.Reading}
	bookThree = domain.Book{ID: 3, Title: "Dune", Author: "Frank Herbert", PublishedDate: domain.NewDate(1965, time.August, 1), ReadingProgress: domain.Completed}
)

type rangeCall struct {
	start, end domain.Date
}

type fakeRepo struct {
	mu         sync.Mutex
	books      []domain.Book
	ranged     []domain.Book
	err        error
	nextID     int64
	rangeCalls []rangeCall
	listCalls  int
	getCalls   int
	created    []domain.Book
}

func (f *fakeRepo) List(ctx context.Context) ([]domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Book(nil), f.books...), nil
}

func (f *fakeRepo) ListByDateRange(ctx context.Context, start, end domain.Date) ([]domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rangeCalls = append(f.rangeCalls, rangeCall{start, end})
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Book(nil), f.ranged...), nil
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (*domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	for _, b := range f.books {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, &domain.RemoteError{Op: "get", Kind: domain.ErrServerRejection, Err: domain.ErrNotFound}
}

func (f *fakeRepo) Create(ctx context.Context, title, author string, published domain.Date) (*domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	b := domain.Book{ID: f.nextID, Title: title, Author: author, PublishedDate: published}
	f.created = append(f.created, b)
	return &b, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) (int64, error) {
	return id, nil
}

func (f *fakeRepo) UndoDelete(ctx context.Context, id int64) (*domain.Book, error) {
	return nil, errors.New("not used")
}

func (f *fakeRepo) UpdateProgress(ctx context.Context, id int64, p domain.ReadingProgress) (*domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, b := range f.books {
		if b.ID == id {
			b.ReadingProgress = p
			return &b, nil
		}
	}
	return nil, &domain.RemoteError{Op: "update progress", Kind: domain.ErrServerRejection, Err: domain.ErrNotFound}
}

type countingAbandoner struct {
	calls int
}

func (a *countingAbandoner) Abandon() { a.calls++ }

var fixedNow = time.Date(2026, time.October, 14, 15, 30, 0, 0, time.UTC)

type harness struct {
	repo    *fakeRepo
	books   *collection.Store
	undo    *countingAbandoner
	cache   *store.CatalogStore
	cmds    *Commands
	queries *Queries
}

func newHarness(t *testing.T, books ...domain.Book) *harness {
	t.Helper()
	cache, err := store.NewCatalogStore("", "")
	if err != nil {
		t.Fatalf("NewCatalogStore: %v", err)
	}
	h := &harness{
		repo:  &fakeRepo{books: books, nextID: 100},
		books: collection.NewStore(),
		undo:  &countingAbandoner{},
		cache: cache,
	}
	h.cmds = NewCommands(h.repo, h.books, h.undo, cache, adapter.NullLogger(),
		WithClock(func() time.Time { return fixedNow }))
	h.queries = NewQueries(h.books)
	return h
}

func TestLoadReplacesListAndAbandonsUndo(t *testing.T) {
	h := newHarness(t, bookOne, bookTwo)
	if err := h.books.ReplaceAll([]domain.Book{bookThree}); err != nil {
		t.Fatal(err)
	}

	books, err := h.cmds.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(books) != 2 || h.books.Len() != 2 {
		t.Fatalf("len = %d, store = %d", len(books), h.books.Len())
	}
	if _, ok := h.books.Get(bookThree.ID); ok {
		t.Fatal("stale book survived Load")
	}
	if h.undo.calls != 1 {
		t.Fatalf("Abandon calls = %d, want 1", h.undo.calls)
	}

	snap, ok := h.cache.GetSnapshot()
	if !ok || len(snap.Books) != 2 || !snap.FetchedAt.Equal(fixedNow) {
		t.Fatalf("snapshot = %+v, %v", snap, ok)
	}
}

func TestLoadFailureLeavesState(t *testing.T) {
	h := newHarness(t)
	if err := h.books.ReplaceAll([]domain.Book{bookThree}); err != nil {
		t.Fatal(err)
	}
	h.repo.err = &domain.RemoteError{Op: "list", Kind: domain.ErrTransport}

	if _, err := h.cmds.Load(context.Background()); !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	if h.books.Len() != 1 {
		t.Fatalf("store changed on failure: %d", h.books.Len())
	}
	if h.undo.calls != 0 {
		t.Fatal("undo abandoned on failed load")
	}
}

func TestFilter(t *testing.T) {
	start := domain.NewDate(2020, time.January, 1)
	end := domain.NewDate(2021, time.June, 30)
	today := domain.DateOf(fixedNow)

	tests := []struct {
		name      string
		start     *domain.Date
		end       *domain.Date
		wantErr   error
		wantList  bool
		wantRange *rangeCall
	}{
		{name: "no dates lists all", wantList: true},
		{name: "start only ends today", start: &start, wantRange: &rangeCall{start, today}},
		{name: "both dates", start: &start, end: &end, wantRange: &rangeCall{start, end}},
		{name: "end only", end: &end, wantErr: domain.ErrInvalidRange},
		{name: "start after end", start: &end, end: &start, wantErr: domain.ErrInvalidRange},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, bookOne, bookTwo)
			h.repo.ranged = []domain.Book{bookOne}

			books, err := h.cmds.Filter(context.Background(), tc.start, tc.end)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				if h.repo.listCalls != 0 || len(h.repo.rangeCalls) != 0 {
					t.Fatal("invalid range reached the server")
				}
				return
			}
			if err != nil {
				t.Fatalf("Filter: %v", err)
			}
			if tc.wantList {
				if h.repo.listCalls != 1 || len(books) != 2 || h.cmds.Filtered() {
					t.Fatalf("listCalls = %d, books = %d", h.repo.listCalls, len(books))
				}
				return
			}
			if len(h.repo.rangeCalls) != 1 || h.repo.rangeCalls[0] != *tc.wantRange {
				t.Fatalf("range calls = %+v, want %+v", h.repo.rangeCalls, *tc.wantRange)
			}
			if len(books) != 1 || h.books.Len() != 1 || !h.cmds.Filtered() {
				t.Fatalf("books = %+v", books)
			}
		})
	}
}

// Scenario E: a date filter replaces the list wholesale.
func TestFilterReplacesList(t *testing.T) {
	h := newHarness(t, bookOne, bookTwo)
	if _, err := h.cmds.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	h.repo.ranged = []domain.Book{bookTwo}
	start := domain.NewDate(2022, time.January, 1)

	if _, err := h.cmds.Filter(context.Background(), &start, nil); err != nil {
		t.Fatalf("Filter: %v", err)
	}
	got := h.books.Books()
	if len(got) != 1 || got[0].ID != bookTwo.ID {
		t.Fatalf("books = %+v", got)
	}

	// Filtered views never overwrite the offline snapshot.
	h.cmds.Persist()
	snap, _ := h.cache.GetSnapshot()
	if len(snap.Books) != 2 {
		t.Fatalf("snapshot books = %d, want 2", len(snap.Books))
	}
}

func TestGetPrefersStore(t *testing.T) {
	h := newHarness(t, bookOne, bookTwo)
	if err := h.books.ReplaceAll([]domain.Book{bookOne}); err != nil {
		t.Fatal(err)
	}

	if _, err := h.cmds.Get(context.Background(), bookOne.ID); err != nil {
		t.Fatalf("Get local: %v", err)
	}
	if h.repo.getCalls != 0 {
		t.Fatal("local hit went to the server")
	}

	book, err := h.cmds.Get(context.Background(), bookTwo.ID)
	if err != nil || book.ID != bookTwo.ID {
		t.Fatalf("Get remote = %+v, %v", book, err)
	}
	if h.repo.getCalls != 1 {
		t.Fatalf("getCalls = %d, want 1", h.repo.getCalls)
	}
	if h.books.Len() != 1 {
		t.Fatal("remote Get modified the list")
	}

	if _, err := h.cmds.Get(context.Background(), 42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreate(t *testing.T) {
	h := newHarness(t)

	book, err := h.cmds.Create(context.Background(), "  New Book ", "Someone", domain.NewDate(2024, time.March, 1))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if book.ID != 100 || book.Title != "New Book" || book.ReadingProgress != domain.WantToRead {
		t.Fatalf("book = %+v", book)
	}
	if _, ok := h.books.Get(100); !ok {
		t.Fatal("created book not appended")
	}
}

// Scenario C: a server echoing an id already in the list is rejected locally.
func TestCreateDuplicateID(t *testing.T) {
	h := newHarness(t)
	if err := h.books.ReplaceAll([]domain.Book{bookOne}); err != nil {
		t.Fatal(err)
	}
	h.repo.nextID = bookOne.ID

	_, err := h.cmds.Create(context.Background(), "Other", "Someone", domain.NewDate(2024, time.March, 1))
	if !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("err = %v, want ErrDuplicateID", err)
	}
	if h.books.Len() != 1 {
		t.Fatalf("len = %d, want 1", h.books.Len())
	}
}

func TestCreateValidation(t *testing.T) {
	valid := domain.NewDate(2000, time.January, 1)
	tests := []struct {
		name      string
		title     string
		author    string
		published domain.Date
	}{
		{name: "missing title", title: " ", author: "A", published: valid},
		{name: "missing author", title: "T", author: "", published: valid},
		{name: "missing date", title: "T", author: "A"},
		{name: "before 1900", title: "T", author: "A", published: domain.NewDate(1899, time.December, 31)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.cmds.Create(context.Background(), tc.title, tc.author, tc.published)
			if !errors.Is(err, domain.ErrInvalidBook) {
				t.Fatalf("err = %v, want ErrInvalidBook", err)
			}
			if len(h.repo.created) != 0 {
				t.Fatal("invalid book reached the server")
			}
		})
	}

	if err := ValidateNewBook("T", "A", domain.MinPublishedDate); err != nil {
		t.Fatalf("minimum date rejected: %v", err)
	}
}

func TestCreateFailureLeavesState(t *testing.T) {
	h := newHarness(t)
	h.repo.err = &domain.RemoteError{Op: "create", Kind: domain.ErrServerRejection}

	if _, err := h.cmds.Create(context.Background(), "T", "A", domain.NewDate(2000, time.January, 1)); !errors.Is(err, domain.ErrServerRejection) {
		t.Fatalf("err = %v", err)
	}
	if h.books.Len() != 0 {
		t.Fatal("failed create touched the list")
	}
}

// Scenario D: progress follows the server's answer.
func TestUpdateProgress(t *testing.T) {
	h := newHarness(t, bookOne)
	if _, err := h.cmds.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	book, err := h.cmds.UpdateProgress(context.Background(), bookOne.ID, domain.Reading)
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if book.ReadingProgress != domain.Reading {
		t.Fatalf("returned progress = %v", book.ReadingProgress)
	}
	got, _ := h.books.Get(bookOne.ID)
	if got.ReadingProgress != domain.Reading {
		t.Fatalf("stored progress = %v", got.ReadingProgress)
	}
}

func TestUpdateProgressFailureLeavesState(t *testing.T) {
	h := newHarness(t, bookOne)
	if _, err := h.cmds.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	h.repo.err = &domain.RemoteError{Op: "update progress", Kind: domain.ErrTransport}

	if _, err := h.cmds.UpdateProgress(context.Background(), bookOne.ID, domain.Completed); !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("err = %v", err)
	}
	got, _ := h.books.Get(bookOne.ID)
	if got.ReadingProgress != domain.WantToRead {
		t.Fatalf("progress changed on failure: %v", got.ReadingProgress)
	}

	if _, err := h.cmds.UpdateProgress(context.Background(), bookOne.ID, domain.ReadingProgress(9)); !errors.Is(err, domain.ErrUnknownProgress) {
		t.Fatalf("err = %v, want ErrUnknownProgress", err)
	}
}

func TestRestoreSnapshot(t *testing.T) {
	h := newHarness(t)
	if err := h.cache.SaveSnapshot(domain.Snapshot{Books: []domain.Book{bookOne, bookTwo}, FetchedAt: fixedNow}); err != nil {
		t.Fatal(err)
	}

	snap, ok := h.cmds.RestoreSnapshot()
	if !ok || len(snap.Books) != 2 || h.books.Len() != 2 {
		t.Fatalf("restore = %+v, %v", snap, ok)
	}

	// A populated list is never overwritten by the snapshot.
	if _, ok := h.cmds.RestoreSnapshot(); ok {
		t.Fatal("restored over a populated list")
	}
}

func TestRestoreSnapshotDiscardsDuplicates(t *testing.T) {
	h := newHarness(t)
	if err := h.cache.SaveSnapshot(domain.Snapshot{Books: []domain.Book{bookOne, bookOne}}); err != nil {
		t.Fatal(err)
	}
	if _, ok := h.cmds.RestoreSnapshot(); ok {
		t.Fatal("restored a snapshot with duplicate ids")
	}
	if _, ok := h.cache.GetSnapshot(); ok {
		t.Fatal("corrupt snapshot kept")
	}
}

func TestSearch(t *testing.T) {
	h := newHarness(t)
	if err := h.books.ReplaceAll([]domain.Book{bookOne, bookTwo, bookThree}); err != nil {
		t.Fatal(err)
	}

	got := h.queries.Search("dune")
	if len(got) != 1 || got[0].ID != bookThree.ID {
		t.Fatalf("Search(dune) = %+v", got)
	}
	if got := h.queries.Search("BOOK"); len(got) != 2 {
		t.Fatalf("Search(BOOK) = %d results, want 2", len(got))
	}
	if got := h.queries.Search(""); len(got) != 3 {
		t.Fatalf("Search('') = %d results, want 3", len(got))
	}
	if got := h.queries.Search("zzz"); len(got) != 0 {
		t.Fatalf("Search(zzz) = %+v", got)
	}

	results := h.queries.SearchResults("dn")
	if len(results) != 1 || len(results[0].MatchedIndexes) != 2 {
		t.Fatalf("SearchResults(dn) = %+v", results)
	}
}

func TestByAuthor(t *testing.T) {
	h := newHarness(t)
	if err := h.books.ReplaceAll([]domain.Book{bookOne, bookTwo, bookThree}); err != nil {
		t.Fatal(err)
	}

	got := h.queries.ByAuthor("herbert")
	if len(got) != 1 || got[0].ID != bookThree.ID {
		t.Fatalf("ByAuthor(herbert) = %+v", got)
	}
	if got := h.queries.ByAuthor("author"); len(got) != 2 {
		t.Fatalf("ByAuthor(author) = %d results, want 2", len(got))
	}
	if got := h.queries.ByAuthor(""); len(got) != 3 {
		t.Fatalf("ByAuthor('') = %d results", len(got))
	}
}

func TestByProgressAndCounts(t *testing.T) {
	h := newHarness(t)
	if err := h.books.ReplaceAll([]domain.Book{bookOne, bookTwo, bookThree}); err != nil {
		t.Fatal(err)
	}

	if got := h.queries.ByProgress(domain.Reading); len(got) != 1 || got[0].ID != bookTwo.ID {
		t.Fatalf("ByProgress(Reading) = %+v", got)
	}

	want := domain.ProgressCounts{Total: 3, WantToRead: 1, Reading: 1, Completed: 1}
	if got := h.queries.Counts(); got != want {
		t.Fatalf("Counts = %+v, want %+v", got, want)
	}

	if _, err := h.books.BeginDelete(bookOne.ID); err != nil {
		t.Fatal(err)
	}
	if p, ok := h.queries.Pending(); !ok || p.ID != bookOne.ID {
		t.Fatalf("Pending = %+v, %v", p, ok)
	}
	if got := h.queries.Counts().Total; got != 2 {
		t.Fatalf("Total with pending = %d, want 2", got)
	}
}
