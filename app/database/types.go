package database

import (
	"time"
)

// Feed is a stored feed identity. Immutable once created.
type Feed struct {
	Key   string
	ID    string
	Title string
	URL   string
}

// Author mirrors blog.Person in its stored (JSON) form.
type Author struct {
	Name string `json:"name"`
	URI  string `json:"uri,omitempty"`
}

// Entry is one queued entry as stored in the pending queue.
type Entry struct {
	FeedKey     string
	SortKey     string
	ID          string
	Title       string
	Link        string
	Authors     []Author
	Content     string
	PublishedAt time.Time
}
