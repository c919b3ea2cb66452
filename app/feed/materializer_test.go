package feed

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"blogreplay/app/blog"
	"blogreplay/app/cfg"
	"blogreplay/app/database"
)

type fixedIterator struct {
	entries []blog.Entry
	pos     int
}

func (it *fixedIterator) Next() bool {
	if it.pos >= len(it.entries) {
		return false
	}
	it.pos++
	return true
}

func (it *fixedIterator) Entry() blog.Entry { return it.entries[it.pos-1] }

func (it *fixedIterator) Err() error { return nil }

type materializerFixture struct {
	materializer *Materializer
	entryRepo    *database.EntryRepositoryImpl
	feedDir      string
}

func setupMaterializer(t *testing.T, maxEntries int) *materializerFixture {
	t.Helper()

	dir := t.TempDir()
	cfg.Set(&cfg.Cfg{
		FeedDir:    filepath.Join(dir, "feeds"),
		MaxEntries: maxEntries,
		Version:    "test",
	})

	db, err := database.NewConnection(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	feedRepo := database.NewFeedRepository(db)
	entryRepo := database.NewEntryRepository(db)
	return &materializerFixture{
		materializer: NewMaterializer(feedRepo, entryRepo),
		entryRepo:    entryRepo,
		feedDir:      cfg.Get().FeedDir,
	}
}

func (f *materializerFixture) ingest(t *testing.T, entries []blog.Entry) {
	t.Helper()
	if _, err := f.entryRepo.Ingest(testFeedData(), &fixedIterator{entries: entries}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
}

func (f *materializerFixture) parseRendered(t *testing.T) *gofeed.Feed {
	t.Helper()

	data, err := os.ReadFile(Path(f.feedDir, "test_blog"))
	if err != nil {
		t.Fatalf("Failed to read rendered feed: %v", err)
	}
	parsed, err := gofeed.NewParser().ParseString(string(data))
	if err != nil {
		t.Fatalf("Rendered feed does not parse: %v", err)
	}
	return parsed
}

func archivedEntries(n int) []blog.Entry {
	entries := make([]blog.Entry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, blog.Entry{
			ID:        "https://feeds.example.com/test_blog/" + string(rune('a'+i)),
			Title:     "Entry " + string(rune('A'+i)),
			Link:      "https://example.com/" + string(rune('a'+i)),
			Published: time.Date(2024, time.January, 1+i, 12, 0, 0, 0, time.UTC),
			Authors:   []blog.Person{{Name: "Alice"}},
			Content:   "<p>body</p>",
		})
	}
	return entries
}

func TestRunMaterializesOneEntryPerInvocation(t *testing.T) {
	f := setupMaterializer(t, 0)
	f.ingest(t, archivedEntries(5))

	published, err := f.materializer.Run("test_blog")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !published {
		t.Fatal("Expected an entry to be published")
	}

	parsed := f.parseRendered(t)
	if len(parsed.Items) != 1 {
		t.Fatalf("Expected exactly 1 rendered entry, got %d", len(parsed.Items))
	}
	// oldest first
	if parsed.Items[0].Title != "Entry A" {
		t.Errorf("Expected oldest entry first, got %q", parsed.Items[0].Title)
	}

	pending, err := f.entryRepo.CountPending("test_blog")
	if err != nil {
		t.Fatalf("CountPending failed: %v", err)
	}
	if pending != 4 {
		t.Errorf("Expected 4 entries still queued, got %d", pending)
	}
}

func TestRunAccumulatesAcrossInvocations(t *testing.T) {
	f := setupMaterializer(t, 0)
	f.ingest(t, archivedEntries(3))

	for i := 0; i < 3; i++ {
		if _, err := f.materializer.Run("test_blog"); err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
	}

	parsed := f.parseRendered(t)
	if len(parsed.Items) != 3 {
		t.Fatalf("Expected 3 rendered entries, got %d", len(parsed.Items))
	}
	for i, title := range []string{"Entry A", "Entry B", "Entry C"} {
		if parsed.Items[i].Title != title {
			t.Errorf("Item %d: expected %q, got %q", i, title, parsed.Items[i].Title)
		}
	}
}

func TestRunEnforcesRetention(t *testing.T) {
	f := setupMaterializer(t, 2)
	f.ingest(t, archivedEntries(5))

	for i := 0; i < 5; i++ {
		if _, err := f.materializer.Run("test_blog"); err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
	}

	parsed := f.parseRendered(t)
	if len(parsed.Items) != 2 {
		t.Fatalf("Expected retention to cap at 2 entries, got %d", len(parsed.Items))
	}
	// the two newest survive, oldest were evicted
	if parsed.Items[0].Title != "Entry D" || parsed.Items[1].Title != "Entry E" {
		t.Errorf("Expected newest entries to survive, got %q, %q",
			parsed.Items[0].Title, parsed.Items[1].Title)
	}
}

func TestRunKeepsRenderedEntriesUnique(t *testing.T) {
	f := setupMaterializer(t, 0)
	entries := archivedEntries(2)

	// first scrape-and-replay cycle materializes one entry
	f.ingest(t, entries)
	if _, err := f.materializer.Run("test_blog"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// a re-scrape re-queues everything, including the already-rendered entry
	entries[0].Title = "Entry A (edited)"
	f.ingest(t, entries)

	for i := 0; i < 2; i++ {
		if _, err := f.materializer.Run("test_blog"); err != nil {
			t.Fatalf("Run %d after re-ingest failed: %v", i, err)
		}
	}

	parsed := f.parseRendered(t)
	ids := make(map[string]int)
	for _, item := range parsed.Items {
		ids[item.GUID]++
	}
	for id, n := range ids {
		if n > 1 {
			t.Errorf("Entry id %s rendered %d times", id, n)
		}
	}
	if len(parsed.Items) != 2 {
		t.Fatalf("Expected 2 rendered entries, got %d", len(parsed.Items))
	}
	// the re-materialized copy replaced the original in place
	if parsed.Items[0].Title != "Entry A (edited)" {
		t.Errorf("Expected replaced entry to keep its position, got %q first", parsed.Items[0].Title)
	}
	if parsed.Items[1].Title != "Entry B" {
		t.Errorf("Unexpected second entry %q", parsed.Items[1].Title)
	}
}

func TestRunEmptyQueueIsNoOp(t *testing.T) {
	f := setupMaterializer(t, 0)
	f.ingest(t, nil)

	published, err := f.materializer.Run("test_blog")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if published {
		t.Error("Expected no publication from an empty queue")
	}
	if _, err := os.Stat(Path(f.feedDir, "test_blog")); !os.IsNotExist(err) {
		t.Error("Empty queue must not create a feed file")
	}
}

func TestRunUnknownFeedIsAnError(t *testing.T) {
	f := setupMaterializer(t, 0)

	if _, err := f.materializer.Run("nope"); err == nil {
		t.Error("Expected error for unknown feed key")
	}
}

func TestRunReplaySemantics(t *testing.T) {
	f := setupMaterializer(t, 0)
	f.ingest(t, archivedEntries(1))

	before := time.Now().UTC().Add(-time.Second)
	if _, err := f.materializer.Run("test_blog"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	parsed := f.parseRendered(t)
	item := parsed.Items[0]

	if item.PublishedParsed == nil || !item.PublishedParsed.Equal(time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected original published time, got %v", item.PublishedParsed)
	}
	if item.UpdatedParsed == nil || item.UpdatedParsed.Before(before) {
		t.Errorf("Expected updated time to be the materialization time, got %v", item.UpdatedParsed)
	}
	if len(item.Authors) != 1 || item.Authors[0].Name != "Alice" {
		t.Errorf("Authors not rendered: %+v", item.Authors)
	}
}
