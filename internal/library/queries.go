package library

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/shelf/internal/collection"
	"github.com/mmcdole/shelf/internal/domain"
	sahilm "github.com/sahilm/fuzzy"
)

var _ domain.CatalogQueries = (*Queries)(nil)

// Queries provides synchronous, memory-only reads.
// Implements domain.CatalogQueries.
type Queries struct {
	books *collection.Store
}

// NewQueries creates a new Queries instance.
func NewQueries(books *collection.Store) *Queries {
	return &Queries{books: books}
}

// SearchResult is a title match with the matched character positions.
type SearchResult struct {
	Book           domain.Book
	MatchedIndexes []int
	Score          int
}

// titleIndex implements sahilm/fuzzy.Source over lowercase titles
type titleIndex struct {
	books       []domain.Book
	lowerTitles []string
}

func newTitleIndex(books []domain.Book) *titleIndex {
	idx := &titleIndex{books: books, lowerTitles: make([]string, len(books))}
	for i, b := range books {
		idx.lowerTitles[i] = strings.ToLower(b.Title)
	}
	return idx
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *titleIndex) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of books (implements fuzzy.Source)
func (idx *titleIndex) Len() int { return len(idx.books) }

func (q *Queries) Books() []domain.Book {
	return q.books.Books()
}

func (q *Queries) Pending() (domain.Book, bool) {
	return q.books.Pending()
}

// Search ranks visible books by fuzzy title match. An empty query returns all.
func (q *Queries) Search(query string) []domain.Book {
	results := q.SearchResults(query)
	books := make([]domain.Book, len(results))
	for i, r := range results {
		books[i] = r.Book
	}
	return books
}

// SearchResults is Search with match positions for highlighting.
func (q *Queries) SearchResults(query string) []SearchResult {
	books := q.books.Books()
	query = strings.TrimSpace(query)
	if query == "" {
		results := make([]SearchResult, len(books))
		for i, b := range books {
			results[i] = SearchResult{Book: b}
		}
		return results
	}

	idx := newTitleIndex(books)
	matches := sahilm.FindFrom(strings.ToLower(query), idx)
	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{
			Book:           books[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}

// ByAuthor returns visible books whose author contains the query's letters
// in order, closest match first. An empty query returns all.
func (q *Queries) ByAuthor(query string) []domain.Book {
	books := q.books.Books()
	query = strings.TrimSpace(query)
	if query == "" {
		return books
	}

	authors := make([]string, len(books))
	for i, b := range books {
		authors[i] = b.Author
	}
	ranks := fuzzy.RankFindFold(query, authors)
	sort.Stable(ranks)

	out := make([]domain.Book, len(ranks))
	for i, r := range ranks {
		out[i] = books[r.OriginalIndex]
	}
	return out
}

func (q *Queries) ByProgress(progress domain.ReadingProgress) []domain.Book {
	var out []domain.Book
	for _, b := range q.books.Books() {
		if b.ReadingProgress == progress {
			out = append(out, b)
		}
	}
	return out
}

func (q *Queries) Counts() domain.ProgressCounts {
	var c domain.ProgressCounts
	for _, b := range q.books.Books() {
		c.Total++
		switch b.ReadingProgress {
		case domain.WantToRead:
			c.WantToRead++
		case domain.Reading:
			c.Reading++
		case domain.Completed:
			c.Completed++
		}
	}
	return c
}
