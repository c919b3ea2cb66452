package blog

import (
	"time"
)

// FeedData identifies a blog's feed. It is derived once, at first scrape,
// and never changes afterwards even if the remote title does.
type FeedData struct {
	ID    string // feed_url_base/key, the public feed identifier
	Key   string // URL/filesystem-safe slug
	Title string
	URL   string // canonical blog URL
}

// Person is an entry author.
type Person struct {
	Name string
	URI  string
}

// Entry is one normalized post or page, ready for ingest.
type Entry struct {
	ID        string // FeedData.ID + "/" + source post id
	Title     string
	Link      string
	Published time.Time
	Authors   []Person
	Content   string // HTML body, may be empty
}

// EntryIterator is a lazy, single-pass, non-restartable sequence of entries.
// Consuming it performs network I/O. After Next returns false, Err reports
// whether the sequence ended normally or failed mid-stream; a partial
// sequence followed by an error is a valid outcome.
type EntryIterator interface {
	Next() bool
	Entry() Entry
	Err() error
}

// Source is a blog on one of the supported publishing platforms.
type Source interface {
	// FeedData returns the feed identity. No I/O; pure derivation from
	// metadata fetched at construction.
	FeedData() FeedData
	// Entries returns a fresh iterator over the blog's full archive.
	Entries() EntryIterator
}
