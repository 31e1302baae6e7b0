package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for local collection operations
var (
	// ErrDuplicateID indicates a book with the same id is already held
	ErrDuplicateID = errors.New("book id already present")

	// ErrNotFound indicates the requested book does not exist
	ErrNotFound = errors.New("book not found")

	// ErrNothingToUndo indicates there is no pending delete to restore
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrUnknownProgress indicates an unrecognised reading progress value
	ErrUnknownProgress = errors.New("unknown reading progress")
)

// Sentinel errors for remote operations
var (
	// ErrTransport indicates the request never got a usable answer (offline, timeout, bad body)
	ErrTransport = errors.New("catalog server is unreachable")

	// ErrServerRejection indicates the server answered but refused the operation
	ErrServerRejection = errors.New("catalog server rejected the request")

	// ErrAuthFailed indicates the API token is missing or invalid
	ErrAuthFailed = errors.New("authentication token is invalid")
)

// Sentinel errors for intent validation
var (
	// ErrInvalidBook indicates a create request is missing required fields
	ErrInvalidBook = errors.New("title, author and published date are required")

	// ErrInvalidRange indicates a date-range filter that cannot be issued
	ErrInvalidRange = errors.New("invalid date range")
)

// RemoteError describes a failed call to the catalog server. It unwraps to
// both Kind (ErrTransport, ErrServerRejection or ErrAuthFailed) and the cause.
type RemoteError struct {
	Op   string
	Kind error
	Err  error
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsRemote reports whether err came from the catalog server boundary.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
