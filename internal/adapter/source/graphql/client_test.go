package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/shelf/internal/adapter"
	"github.com/mmcdole/shelf/internal/domain"
)

// fakeServer answers GraphQL requests with canned data keyed on the root field.
type fakeServer struct {
	t        *testing.T
	mu       sync.Mutex
	status   int
	replies  map[string]string // root field -> raw JSON response body
	requests []Request
	headers  []http.Header
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		f.t.Errorf("method = %s, want POST", r.Method)
	}
	if r.URL.Path != "/graphql" {
		f.t.Errorf("path = %s, want /graphql", r.URL.Path)
	}
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		f.t.Errorf("decode request: %v", err)
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.headers = append(f.headers, r.Header.Clone())
	f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}
	for field, body := range f.replies {
		if strings.Contains(req.Query, field) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
			return
		}
	}
	f.t.Errorf("unexpected query: %s", req.Query)
	w.WriteHeader(http.StatusBadRequest)
}

func newTestClient(t *testing.T, f *fakeServer) *Client {
	t.Helper()
	f.t = t
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "", 5*time.Second, adapter.NullLogger())
}

func TestListMapsBooks(t *testing.T) {
	f := &fakeServer{replies: map[string]string{
		"findAllBooks": `{"data":{"findAllBooks":[
			{"id":"1","title":"Book One","author":"Author One","publishedDate":"2021-01-01","readingProgress":"WANT_TO_READ"},
			{"id":2,"title":"Book Two","author":"Author Two","publishedDate":"2022-02-02","readingProgress":"READING"}
		]}}`,
	}}
	c := newTestClient(t, f)

	books, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("len = %d, want 2", len(books))
	}
	if books[0].ID != 1 || books[1].ID != 2 {
		t.Fatalf("ids = %d, %d", books[0].ID, books[1].ID)
	}
	if books[1].ReadingProgress != domain.Reading {
		t.Fatalf("progress = %v, want READING", books[1].ReadingProgress)
	}
	if got := books[0].PublishedDate.String(); got != "2021-01-01" {
		t.Fatalf("published = %s", got)
	}
}

func TestListByDateRangeVariables(t *testing.T) {
	f := &fakeServer{replies: map[string]string{
		"findBooksByDate": `{"data":{"findBooksByDate":[
			{"id":"3","title":"Dated","author":"A","publishedDate":"2020-05-05"}
		]}}`,
	}}
	c := newTestClient(t, f)

	start := domain.NewDate(2020, time.January, 1)
	end := domain.NewDate(2020, time.December, 31)
	books, err := c.ListByDateRange(context.Background(), start, end)
	if err != nil {
		t.Fatalf("ListByDateRange: %v", err)
	}
	if len(books) != 1 || books[0].ReadingProgress != domain.WantToRead {
		t.Fatalf("books = %+v", books)
	}

	vars := f.requests[0].Variables
	if vars["startDate"] != "2020-01-01" || vars["endDate"] != "2020-12-31" {
		t.Fatalf("variables = %v", vars)
	}

	if _, err := c.ListByDateRange(context.Background(), start, domain.Date{}); err != nil {
		t.Fatalf("ListByDateRange without end: %v", err)
	}
	if _, ok := f.requests[1].Variables["endDate"]; ok {
		t.Fatalf("endDate sent for open range: %v", f.requests[1].Variables)
	}
}

func TestCreateSendsFields(t *testing.T) {
	f := &fakeServer{replies: map[string]string{
		"createBook": `{"data":{"createBook":{"id":"9","title":"New","author":"Me","publishedDate":"2024-03-01","readingProgress":"WANT_TO_READ"}}}`,
	}}
	c := newTestClient(t, f)

	book, err := c.Create(context.Background(), "New", "Me", domain.NewDate(2024, time.March, 1))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if book.ID != 9 || book.Title != "New" {
		t.Fatalf("book = %+v", book)
	}
	vars := f.requests[0].Variables
	if vars["title"] != "New" || vars["author"] != "Me" || vars["publishedDate"] != "2024-03-01" {
		t.Fatalf("variables = %v", vars)
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int64
		wantErr error
	}{
		{name: "echo number", body: `{"data":{"deleteBook":4}}`, want: 4},
		{name: "echo string", body: `{"data":{"deleteBook":"4"}}`, want: 4},
		{name: "null", body: `{"data":{"deleteBook":null}}`, wantErr: domain.ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, &fakeServer{replies: map[string]string{"deleteBook": tc.body}})
			got, err := c.Delete(context.Background(), 4)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if got != tc.want {
				t.Fatalf("id = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestUpdateProgressSendsWireName(t *testing.T) {
	f := &fakeServer{replies: map[string]string{
		"updateBookProgress": `{"data":{"updateBookProgress":{"id":"1","title":"T","author":"A","publishedDate":"2021-01-01","readingProgress":"COMPLETED"}}}`,
	}}
	c := newTestClient(t, f)

	book, err := c.UpdateProgress(context.Background(), 1, domain.Completed)
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if book.ReadingProgress != domain.Completed {
		t.Fatalf("progress = %v", book.ReadingProgress)
	}
	if f.requests[0].Variables["progress"] != "COMPLETED" {
		t.Fatalf("variables = %v", f.requests[0].Variables)
	}
}

func TestUndoDeleteNullIsNotFound(t *testing.T) {
	c := newTestClient(t, &fakeServer{replies: map[string]string{
		"undoDeleteBook": `{"data":{"undoDeleteBook":null}}`,
	}})
	_, err := c.UndoDelete(context.Background(), 3)
	if !errors.Is(err, domain.ErrNotFound) || !errors.Is(err, domain.ErrServerRejection) {
		t.Fatalf("err = %v, want ErrNotFound and ErrServerRejection", err)
	}
}

func TestGraphQLErrorsAreRejections(t *testing.T) {
	c := newTestClient(t, &fakeServer{replies: map[string]string{
		"undoDeleteBook": `{"errors":[{"message":"Book not found in recently deleted items with id: 3"}],"data":null}`,
	}})
	_, err := c.UndoDelete(context.Background(), 3)
	if !errors.Is(err, domain.ErrServerRejection) {
		t.Fatalf("err = %v, want ErrServerRejection", err)
	}
	if !strings.Contains(err.Error(), "recently deleted") {
		t.Fatalf("err = %v, want server message", err)
	}
}

func TestHTTPStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, domain.ErrAuthFailed},
		{http.StatusForbidden, domain.ErrAuthFailed},
		{http.StatusInternalServerError, domain.ErrServerRejection},
	}
	for _, tc := range tests {
		c := newTestClient(t, &fakeServer{status: tc.status})
		_, err := c.List(context.Background())
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: err = %v, want %v", tc.status, err, tc.want)
		}
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, "", time.Second, adapter.NullLogger())
	_, err := c.List(context.Background())
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	if !domain.IsRemote(err) {
		t.Fatal("transport error is not a RemoteError")
	}
}

func TestBearerToken(t *testing.T) {
	f := &fakeServer{replies: map[string]string{"findAllBooks": `{"data":{"findAllBooks":[]}}`}}
	c := newTestClient(t, f)
	c.SetToken("abc")

	if _, err := c.List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := f.headers[0].Get("Authorization"); got != "Bearer abc" {
		t.Fatalf("Authorization = %q", got)
	}
}

func TestProbe(t *testing.T) {
	c := newTestClient(t, &fakeServer{replies: map[string]string{"__typename": `{"data":{"__typename":"Query"}}`}})
	if err := c.Probe(context.Background()); err != nil {
		t.Fatalf("Probe: %v", err)
	}
}

func TestEndpoint(t *testing.T) {
	tests := map[string]string{
		"http://localhost:8080":          "http://localhost:8080/graphql",
		"http://localhost:8080/":         "http://localhost:8080/graphql",
		"http://localhost:8080/graphql":  "http://localhost:8080/graphql",
		"https://books.example.com/api/": "https://books.example.com/api/graphql",
	}
	for in, want := range tests {
		if got := Endpoint(in); got != want {
			t.Errorf("Endpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMapBookRejectsUnknownProgress(t *testing.T) {
	bad := "SKIMMING"
	_, err := MapBook(BookDTO{ID: 1, PublishedDate: "2021-01-01", ReadingProgress: &bad})
	if !errors.Is(err, domain.ErrUnknownProgress) {
		t.Fatalf("err = %v, want ErrUnknownProgress", err)
	}
}
