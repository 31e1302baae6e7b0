package domain

import "fmt"

// ReadingProgress is how far the user has got with a book.
type ReadingProgress int

const (
	WantToRead ReadingProgress = iota
	Reading
	Completed
)

// AllProgress lists every reading progress value in display order.
var AllProgress = []ReadingProgress{WantToRead, Reading, Completed}

// String returns the wire name (WANT_TO_READ, READING, COMPLETED)
func (p ReadingProgress) String() string {
	switch p {
	case WantToRead:
		return "WANT_TO_READ"
	case Reading:
		return "READING"
	case Completed:
		return "COMPLETED"
	default:
		return fmt.Sprintf("ReadingProgress(%d)", int(p))
	}
}

// Label returns a human-readable name for display
func (p ReadingProgress) Label() string {
	switch p {
	case WantToRead:
		return "Want to read"
	case Reading:
		return "Reading"
	case Completed:
		return "Completed"
	default:
		return "Unknown"
	}
}

// Next cycles WantToRead -> Reading -> Completed -> WantToRead
func (p ReadingProgress) Next() ReadingProgress {
	switch p {
	case WantToRead:
		return Reading
	case Reading:
		return Completed
	case Completed:
		return WantToRead
	default:
		return WantToRead
	}
}

// Valid reports whether p is one of the defined values.
func (p ReadingProgress) Valid() bool {
	switch p {
	case WantToRead, Reading, Completed:
		return true
	default:
		return false
	}
}

// ParseReadingProgress maps a wire name to a ReadingProgress.
func ParseReadingProgress(s string) (ReadingProgress, error) {
	switch s {
	case "WANT_TO_READ":
		return WantToRead, nil
	case "READING":
		return Reading, nil
	case "COMPLETED":
		return Completed, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownProgress, s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (p ReadingProgress) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProgress, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty value decodes as
// WantToRead, the server default for books that never had progress set.
func (p *ReadingProgress) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*p = WantToRead
		return nil
	}
	parsed, err := ParseReadingProgress(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
