package database

import (
	"database/sql"
	"fmt"
)

// FeedRepositoryImpl handles read access to stored feed identities.
type FeedRepositoryImpl struct {
	db *DB
}

func NewFeedRepository(db *DB) *FeedRepositoryImpl {
	return &FeedRepositoryImpl{db: db}
}

// GetFeed returns the stored identity for key, or nil if the feed is unknown.
func (r *FeedRepositoryImpl) GetFeed(key string) (*Feed, error) {
	var feed Feed
	err := r.db.QueryRow(`
		SELECT key, id, title, url FROM feeds WHERE key = ?
	`, key).Scan(&feed.Key, &feed.ID, &feed.Title, &feed.URL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed %s: %w", key, err)
	}
	return &feed, nil
}

// ListFeeds returns all stored feed identities ordered by key.
func (r *FeedRepositoryImpl) ListFeeds() ([]Feed, error) {
	rows, err := r.db.Query(`
		SELECT key, id, title, url FROM feeds ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		var feed Feed
		if err := rows.Scan(&feed.Key, &feed.ID, &feed.Title, &feed.URL); err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, feed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feed rows: %w", err)
	}

	return feeds, nil
}
