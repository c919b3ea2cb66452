package database

import (
	"blogreplay/app/blog"
)

type FeedRepository interface {
	GetFeed(key string) (*Feed, error)
	ListFeeds() ([]Feed, error)
}

type EntryRepository interface {
	// Ingest atomically upserts the feed identity and inserts every entry
	// the iterator yields into the feed's pending queue. If the iterator
	// fails partway the whole transaction rolls back; no partial state is
	// left behind. Returns the number of entries written.
	Ingest(fd blog.FeedData, it blog.EntryIterator) (int, error)

	// DrainOne pops the oldest pending entry for the feed, or nil when the
	// queue is empty.
	DrainOne(feedKey string) (*Entry, error)

	CountPending(feedKey string) (int, error)
}
