package graphql

import (
	"fmt"

	"github.com/mmcdole/shelf/internal/domain"
)

// MapBooks converts catalog DTOs to domain books
func MapBooks(dtos []BookDTO) ([]domain.Book, error) {
	books := make([]domain.Book, 0, len(dtos))
	for _, d := range dtos {
		b, err := MapBook(d)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, nil
}

// MapBook converts a single DTO. A missing readingProgress (the date-range
// query does not select it) maps to WantToRead.
func MapBook(d BookDTO) (domain.Book, error) {
	published, err := domain.ParseDate(d.PublishedDate)
	if err != nil {
		return domain.Book{}, fmt.Errorf("book %d: %w", d.ID, err)
	}

	progress := domain.WantToRead
	if d.ReadingProgress != nil && *d.ReadingProgress != "" {
		progress, err = domain.ParseReadingProgress(*d.ReadingProgress)
		if err != nil {
			return domain.Book{}, fmt.Errorf("book %d: %w", d.ID, err)
		}
	}

	return domain.Book{
		ID:              int64(d.ID),
		Title:           d.Title,
		Author:          d.Author,
		PublishedDate:   published,
		ReadingProgress: progress,
	}, nil
}
