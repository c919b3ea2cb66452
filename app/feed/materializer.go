package feed

import (
	"fmt"
	"log/slog"
	"time"

	"blogreplay/app/blog"
	"blogreplay/app/cfg"
	"blogreplay/app/database"
)

// Materializer moves pending entries into rendered Atom files, one entry per
// run. The deliberate one-at-a-time drain throttles how quickly archived
// content reappears in the feed, no matter how much was scraped in bulk.
type Materializer struct {
	feedRepo  database.FeedRepository
	entryRepo database.EntryRepository
}

func NewMaterializer(feedRepo database.FeedRepository, entryRepo database.EntryRepository) *Materializer {
	return &Materializer{feedRepo: feedRepo, entryRepo: entryRepo}
}

// Run materializes at most one pending entry for the feed. It reports
// whether an entry was published; an empty queue is a no-op, not an error.
func (m *Materializer) Run(feedKey string) (bool, error) {
	feed, err := m.feedRepo.GetFeed(feedKey)
	if err != nil {
		return false, err
	}
	if feed == nil {
		return false, fmt.Errorf("unknown feed: %s", feedKey)
	}

	fd := blog.FeedData{ID: feed.ID, Key: feed.Key, Title: feed.Title, URL: feed.URL}
	path := Path(cfg.Get().FeedDir, feedKey)

	doc, err := ReadOrCreate(path, fd)
	if err != nil {
		return false, err
	}

	entry, err := m.entryRepo.DrainOne(feedKey)
	if err != nil {
		return false, err
	}
	if entry == nil {
		slog.Debug("No pending entries", "feed", feedKey)
		return false, nil
	}

	now := time.Now().UTC()
	rendered := toAtomEntry(*entry, now)

	// A re-scrape re-queues entries that were already materialized; an
	// entry id must never appear twice in the rendered file, so an
	// existing copy is replaced in place instead of appended.
	if i := entryIndex(doc.Entries, rendered.ID); i >= 0 {
		doc.Entries[i] = rendered
	} else {
		doc.Entries = append(doc.Entries, rendered)
	}

	// Retention: evict the oldest rendered entries, never the new arrival.
	if max := cfg.Get().MaxEntries; max > 0 && len(doc.Entries) > max {
		doc.Entries = doc.Entries[len(doc.Entries)-max:]
	}

	doc.Updated = now.Format(time.RFC3339)
	if err := doc.Write(path); err != nil {
		return false, err
	}

	slog.Info("Materialized entry", "feed", feedKey, "entry", entry.ID, "rendered", len(doc.Entries))
	return true, nil
}

func entryIndex(entries []AtomEntry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}

// toAtomEntry converts a drained entry with replay semantics: updated is set
// to the materialization time so readers see it as fresh, while published
// keeps the original source timestamp.
func toAtomEntry(entry database.Entry, now time.Time) AtomEntry {
	authors := make([]AtomPerson, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		authors = append(authors, AtomPerson{Name: a.Name, URI: a.URI})
	}

	atomEntry := AtomEntry{
		Title:     entry.Title,
		ID:        entry.ID,
		Published: entry.PublishedAt.UTC().Format(time.RFC3339),
		Updated:   now.Format(time.RFC3339),
		Authors:   authors,
		Links:     []AtomLink{{Href: entry.Link, Rel: "alternate"}},
	}
	if entry.Content != "" {
		atomEntry.Content = &AtomContent{Type: "html", Value: entry.Content}
	}
	return atomEntry
}
