package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"blogreplay/app/blog"
)

// EntryRepositoryImpl handles the per-feed pending queues.
type EntryRepositoryImpl struct {
	db *DB
}

func NewEntryRepository(db *DB) *EntryRepositoryImpl {
	return &EntryRepositoryImpl{db: db}
}

// Ingest consumes the whole entry iterator inside one transaction. The feed
// identity is written once (re-scrapes never change an existing identity),
// and every entry is keyed by its published time so re-ingesting unchanged
// entries overwrites rather than duplicates. Any failure, including an
// iterator error partway through, rolls the whole transaction back.
func (r *EntryRepositoryImpl) Ingest(fd blog.FeedData, it blog.EntryIterator) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin ingest transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO feeds (key, id, title, url)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO NOTHING
	`, fd.Key, fd.ID, fd.Title, fd.URL)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert feed %s: %w", fd.Key, err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO entries (feed_key, sort_key, id, title, link, authors, content)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for it.Next() {
		entry := it.Entry()

		authors, err := marshalAuthors(entry.Authors)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize authors for %s: %w", entry.ID, err)
		}

		sortKey := entry.Published.UTC().Format(time.RFC3339)
		if _, err := stmt.Exec(fd.Key, sortKey, entry.ID, entry.Title, entry.Link, authors, entry.Content); err != nil {
			return 0, fmt.Errorf("failed to insert entry %s: %w", entry.ID, err)
		}
		count++
	}
	if err := it.Err(); err != nil {
		return 0, fmt.Errorf("scrape failed after %d entries: %w", count, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit ingest transaction: %w", err)
	}

	return count, nil
}

// DrainOne pops and removes the lowest-sort-key entry from the feed's
// pending queue, or returns nil when the queue is empty. Safe to call
// repeatedly across process invocations.
func (r *EntryRepositoryImpl) DrainOne(feedKey string) (*Entry, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin drain transaction: %w", err)
	}
	defer tx.Rollback()

	var entry Entry
	var authors string
	err = tx.QueryRow(`
		SELECT feed_key, sort_key, id, title, link, authors, content
		FROM entries
		WHERE feed_key = ?
		ORDER BY sort_key ASC
		LIMIT 1
	`, feedKey).Scan(&entry.FeedKey, &entry.SortKey, &entry.ID, &entry.Title,
		&entry.Link, &authors, &entry.Content)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pending entry for %s: %w", feedKey, err)
	}

	if err := json.Unmarshal([]byte(authors), &entry.Authors); err != nil {
		return nil, fmt.Errorf("failed to parse stored authors for %s: %w", entry.ID, err)
	}
	entry.PublishedAt, err = time.Parse(time.RFC3339, entry.SortKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sort key %q for %s: %w", entry.SortKey, entry.ID, err)
	}

	if _, err := tx.Exec(`
		DELETE FROM entries WHERE feed_key = ? AND sort_key = ?
	`, entry.FeedKey, entry.SortKey); err != nil {
		return nil, fmt.Errorf("failed to remove drained entry %s: %w", entry.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit drain transaction: %w", err)
	}

	return &entry, nil
}

// CountPending returns the number of queued entries for a feed.
func (r *EntryRepositoryImpl) CountPending(feedKey string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM entries WHERE feed_key = ?
	`, feedKey).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending entries for %s: %w", feedKey, err)
	}
	return count, nil
}

func marshalAuthors(people []blog.Person) (string, error) {
	authors := make([]Author, 0, len(people))
	for _, p := range people {
		authors = append(authors, Author{Name: p.Name, URI: p.URI})
	}
	data, err := json.Marshal(authors)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
