package domain

import "time"

// Snapshot is the last catalog listing fetched from the server.
type Snapshot struct {
	Books     []Book    `json:"books"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Cache holds the offline copy of the catalog (BoltDB + memory).
// It is read at startup so the list renders before the network answers.
type Cache interface {
	GetSnapshot() (Snapshot, bool)
	SaveSnapshot(snap Snapshot) error
	Invalidate()
	Close() error
}
