package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/shelf/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Shelf/1.0"
	endpointPath   = "/graphql"
)

const bookFields = `id
		title
		author
		publishedDate
		readingProgress`

const (
	queryFindAllBooks = `query { findAllBooks { ` + bookFields + ` } }`

	queryFindBooksByDate = `query($startDate: String!, $endDate: String) {
	findBooksByDate(startDate: $startDate, endDate: $endDate) { ` + bookFields + ` }
}`

	queryFindBookByID = `query($id: Int!) { findBookById(id: $id) { ` + bookFields + ` } }`

	mutationCreateBook = `mutation($title: String!, $author: String!, $publishedDate: String!) {
	createBook(title: $title, author: $author, publishedDate: $publishedDate) { ` + bookFields + ` }
}`

	mutationDeleteBook = `mutation($id: Int!) { deleteBook(id: $id) }`

	mutationUndoDeleteBook = `mutation($id: Int!) { undoDeleteBook(id: $id) { ` + bookFields + ` } }`

	mutationUpdateBookProgress = `mutation($id: Int!, $progress: ReadingProgress!) {
	updateBookProgress(id: $id, progress: $progress) { ` + bookFields + ` }
}`
)

// Client implements domain.BookRepository against the catalog's GraphQL API
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new catalog API client. baseURL is the server root;
// requests are POSTed to baseURL + "/graphql".
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: Endpoint(baseURL),
		token:    token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Endpoint normalizes a server URL to its GraphQL endpoint
func Endpoint(baseURL string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(baseURL, endpointPath) {
		return baseURL
	}
	return baseURL + endpointPath
}

// SetToken updates the authentication token
func (c *Client) SetToken(token string) {
	c.token = token
}

// do performs one GraphQL operation and decodes its data into out
func (c *Client) do(ctx context.Context, op, query string, vars map[string]any, out any) error {
	payload, err := json.Marshal(Request{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("catalog request", "op", op, "url", c.endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("catalog request failed", "op", op, "error", err)
		return &domain.RemoteError{Op: op, Kind: domain.ErrTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.RemoteError{Op: op, Kind: domain.ErrTransport, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &domain.RemoteError{Op: op, Kind: domain.ErrAuthFailed}
	case resp.StatusCode != http.StatusOK:
		c.logger.Error("catalog request error", "op", op, "status", resp.StatusCode, "body", string(body))
		return &domain.RemoteError{
			Op:   op,
			Kind: domain.ErrServerRejection,
			Err:  fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}

	var envelope Response
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.logger.Error("JSON parse error", "op", op, "error", err, "bodyLen", len(body))
		return &domain.RemoteError{Op: op, Kind: domain.ErrTransport, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if len(envelope.Errors) > 0 {
		msgs := make([]string, len(envelope.Errors))
		for i, e := range envelope.Errors {
			msgs[i] = e.Message
		}
		c.logger.Warn("catalog rejected request", "op", op, "errors", msgs)
		return &domain.RemoteError{Op: op, Kind: domain.ErrServerRejection, Err: errors.New(strings.Join(msgs, "; "))}
	}

	if out == nil {
		return nil
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return &domain.RemoteError{Op: op, Kind: domain.ErrServerRejection, Err: errors.New("response has no data")}
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &domain.RemoteError{Op: op, Kind: domain.ErrTransport, Err: fmt.Errorf("failed to decode data: %w", err)}
	}
	return nil
}

// mapOne converts a single-book payload; a null book means the server had nothing for id
func mapOne(op string, id int64, dto *BookDTO) (*domain.Book, error) {
	if dto == nil {
		return nil, &domain.RemoteError{Op: op, Kind: domain.ErrServerRejection, Err: fmt.Errorf("%w: %d", domain.ErrNotFound, id)}
	}
	book, err := MapBook(*dto)
	if err != nil {
		return nil, &domain.RemoteError{Op: op, Kind: domain.ErrTransport, Err: err}
	}
	return &book, nil
}

func mapMany(op string, dtos []BookDTO) ([]domain.Book, error) {
	books, err := MapBooks(dtos)
	if err != nil {
		return nil, &domain.RemoteError{Op: op, Kind: domain.ErrTransport, Err: err}
	}
	return books, nil
}

// List returns every book in the catalog
func (c *Client) List(ctx context.Context) ([]domain.Book, error) {
	var data findAllBooksData
	if err := c.do(ctx, "list", queryFindAllBooks, nil, &data); err != nil {
		return nil, err
	}
	return mapMany("list", data.FindAllBooks)
}

// ListByDateRange returns books published within [start, end]
func (c *Client) ListByDateRange(ctx context.Context, start, end domain.Date) ([]domain.Book, error) {
	vars := map[string]any{"startDate": start.String()}
	if !end.IsZero() {
		vars["endDate"] = end.String()
	}

	var data findBooksByDateData
	if err := c.do(ctx, "list by date", queryFindBooksByDate, vars, &data); err != nil {
		return nil, err
	}
	return mapMany("list by date", data.FindBooksByDate)
}

// Get returns a single book
func (c *Client) Get(ctx context.Context, id int64) (*domain.Book, error) {
	var data findBookByIDData
	if err := c.do(ctx, "get", queryFindBookByID, map[string]any{"id": id}, &data); err != nil {
		return nil, err
	}
	return mapOne("get", id, data.FindBookByID)
}

// Create adds a new book
func (c *Client) Create(ctx context.Context, title, author string, published domain.Date) (*domain.Book, error) {
	vars := map[string]any{
		"title":         title,
		"author":        author,
		"publishedDate": published.String(),
	}

	var data createBookData
	if err := c.do(ctx, "create", mutationCreateBook, vars, &data); err != nil {
		return nil, err
	}
	return mapOne("create", 0, data.CreateBook)
}

// Delete removes a book and returns the id the server acknowledged
func (c *Client) Delete(ctx context.Context, id int64) (int64, error) {
	var data deleteBookData
	if err := c.do(ctx, "delete", mutationDeleteBook, map[string]any{"id": id}, &data); err != nil {
		return 0, err
	}
	if data.DeleteBook == nil {
		return 0, &domain.RemoteError{Op: "delete", Kind: domain.ErrServerRejection, Err: fmt.Errorf("%w: %d", domain.ErrNotFound, id)}
	}
	return int64(*data.DeleteBook), nil
}

// UndoDelete restores a recently deleted book
func (c *Client) UndoDelete(ctx context.Context, id int64) (*domain.Book, error) {
	var data undoDeleteBookData
	if err := c.do(ctx, "undo delete", mutationUndoDeleteBook, map[string]any{"id": id}, &data); err != nil {
		return nil, err
	}
	return mapOne("undo delete", id, data.UndoDeleteBook)
}

// UpdateProgress sets a book's reading progress
func (c *Client) UpdateProgress(ctx context.Context, id int64, progress domain.ReadingProgress) (*domain.Book, error) {
	if !progress.Valid() {
		return nil, fmt.Errorf("update progress: %w: %d", domain.ErrUnknownProgress, int(progress))
	}
	vars := map[string]any{"id": id, "progress": progress.String()}

	var data updateBookProgressData
	if err := c.do(ctx, "update progress", mutationUpdateBookProgress, vars, &data); err != nil {
		return nil, err
	}
	return mapOne("update progress", id, data.UpdateBookProgress)
}

// Probe checks that the endpoint answers a GraphQL __typename query.
func (c *Client) Probe(ctx context.Context) error {
	var data typenameData
	if err := c.do(ctx, "probe", `query { __typename }`, nil, &data); err != nil {
		return err
	}
	if data.Typename == "" {
		return &domain.RemoteError{Op: "probe", Kind: domain.ErrServerRejection, Err: errors.New("not a GraphQL endpoint")}
	}
	return nil
}
