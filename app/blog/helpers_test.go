package blog

import (
	"testing"
	"time"

	"blogreplay/app/cfg"
)

// setupTestCfg installs a test configuration and disables the wall-clock
// pauses so scraping tests run instantly.
func setupTestCfg(t *testing.T) {
	t.Helper()

	cfg.Set(&cfg.Cfg{
		BloggerAPIKey: "test-api-key",
		FeedURLBase:   "https://feeds.example.com",
		MaxRetries:    3,
		UserAgent:     "blog-replay-test",
	})

	originalSleep := retrySleep
	originalPause := pagePause
	retrySleep = func(time.Duration) {}
	pagePause = func() {}
	t.Cleanup(func() {
		retrySleep = originalSleep
		pagePause = originalPause
	})
}

// collectEntries drains an iterator, failing the test on iteration errors.
func collectEntries(t *testing.T, it EntryIterator) []Entry {
	t.Helper()

	var entries []Entry
	for it.Next() {
		entries = append(entries, it.Entry())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Iteration failed: %v", err)
	}
	return entries
}

// drainUntilError drains an iterator expecting it to fail, returning the error.
func drainUntilError(t *testing.T, it EntryIterator) error {
	t.Helper()

	for it.Next() {
	}
	err := it.Err()
	if err == nil {
		t.Fatal("Expected iteration to fail")
	}
	return err
}
