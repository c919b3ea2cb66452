package feed

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"blogreplay/app/blog"
	"blogreplay/app/cfg"
)

func setUmask(mask int) int {
	return syscall.Umask(mask)
}

func testFeedData() blog.FeedData {
	return blog.FeedData{
		ID:    "https://feeds.example.com/test_blog",
		Key:   "test_blog",
		Title: "Test Blog",
		URL:   "https://example.com",
	}
}

func TestReadOrCreateSynthesizesMissingFeed(t *testing.T) {
	cfg.Set(&cfg.Cfg{Version: "1.2.3"})

	path := Path(t.TempDir(), "test_blog")
	doc, err := ReadOrCreate(path, testFeedData())
	if err != nil {
		t.Fatalf("ReadOrCreate failed: %v", err)
	}

	if doc.Title != "Test Blog (blog-replay)" {
		t.Errorf("Unexpected title %q", doc.Title)
	}
	if doc.ID != "https://feeds.example.com/test_blog" {
		t.Errorf("Unexpected id %q", doc.ID)
	}
	if len(doc.Entries) != 0 {
		t.Errorf("Expected empty feed, got %d entries", len(doc.Entries))
	}
	if doc.Generator == nil || doc.Generator.Version != "1.2.3" {
		t.Errorf("Unexpected generator %+v", doc.Generator)
	}

	var self, alternate string
	for _, link := range doc.Links {
		switch link.Rel {
		case "self":
			self = link.Href
		case "alternate":
			alternate = link.Href
		}
	}
	if self != "https://feeds.example.com/test_blog.atom" {
		t.Errorf("Unexpected self link %q", self)
	}
	if alternate != "https://example.com" {
		t.Errorf("Unexpected alternate link %q", alternate)
	}
}

func TestWriteAndReadBack(t *testing.T) {
	cfg.Set(&cfg.Cfg{Version: "dev"})

	path := Path(t.TempDir(), "test_blog")
	doc, err := ReadOrCreate(path, testFeedData())
	if err != nil {
		t.Fatalf("ReadOrCreate failed: %v", err)
	}

	doc.Entries = append(doc.Entries, AtomEntry{
		Title:     "Hello",
		ID:        "https://feeds.example.com/test_blog/1",
		Published: "2024-01-01T12:00:00Z",
		Updated:   "2026-08-01T00:00:00Z",
		Authors:   []AtomPerson{{Name: "Alice", URI: "https://example.com/alice"}},
		Links:     []AtomLink{{Href: "https://example.com/hello", Rel: "alternate"}},
		Content:   &AtomContent{Type: "html", Value: "<p>hi & bye</p>"},
	})

	if err := doc.Write(path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	reloaded, err := ReadOrCreate(path, testFeedData())
	if err != nil {
		t.Fatalf("ReadOrCreate after write failed: %v", err)
	}
	if len(reloaded.Entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(reloaded.Entries))
	}
	entry := reloaded.Entries[0]
	if entry.ID != "https://feeds.example.com/test_blog/1" {
		t.Errorf("Unexpected entry id %q", entry.ID)
	}
	if entry.Content == nil || entry.Content.Value != "<p>hi & bye</p>" {
		t.Errorf("Content not preserved: %+v", entry.Content)
	}
	if len(entry.Authors) != 1 || entry.Authors[0].Name != "Alice" {
		t.Errorf("Authors not preserved: %+v", entry.Authors)
	}
}

func TestWritePinsFilePermissions(t *testing.T) {
	cfg.Set(&cfg.Cfg{Version: "dev"})

	oldMask := setUmask(0o077)
	defer setUmask(oldMask)

	path := Path(filepath.Join(t.TempDir(), "feeds"), "test_blog")
	doc, err := ReadOrCreate(path, testFeedData())
	if err != nil {
		t.Fatalf("ReadOrCreate failed: %v", err)
	}
	if err := doc.Write(path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o644 {
		t.Errorf("Expected permissions 0644, got %04o", perm)
	}
}
