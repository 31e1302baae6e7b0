package graphql

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Request is the body POSTed to the GraphQL endpoint
type Request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Response is the GraphQL response envelope
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []ErrorDTO      `json:"errors,omitempty"`
}

// ErrorDTO is one entry of the GraphQL errors array
type ErrorDTO struct {
	Message        string `json:"message"`
	Path           []any  `json:"path,omitempty"`
	Classification string `json:"classification,omitempty"`
}

// BookDTO mirrors the Book type of the catalog schema
type BookDTO struct {
	ID              FlexID  `json:"id"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	PublishedDate   string  `json:"publishedDate"`
	ReadingProgress *string `json:"readingProgress"`
}

// FlexID accepts both JSON numbers and strings; GraphQL ID scalars are
// serialized as strings while Long results come back as numbers.
type FlexID int64

func (id *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = FlexID(n)
	return nil
}

type findAllBooksData struct {
	FindAllBooks []BookDTO `json:"findAllBooks"`
}

type findBooksByDateData struct {
	FindBooksByDate []BookDTO `json:"findBooksByDate"`
}

type findBookByIDData struct {
	FindBookByID *BookDTO `json:"findBookById"`
}

type createBookData struct {
	CreateBook *BookDTO `json:"createBook"`
}

type deleteBookData struct {
	DeleteBook *FlexID `json:"deleteBook"`
}

type undoDeleteBookData struct {
	UndoDeleteBook *BookDTO `json:"undoDeleteBook"`
}

type updateBookProgressData struct {
	UpdateBookProgress *BookDTO `json:"updateBookProgress"`
}

type typenameData struct {
	Typename string `json:"__typename"`
}
