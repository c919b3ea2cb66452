package cfg

import (
	"os"
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadDefaults(t *testing.T) {
	oldArgs := os.Args
	os.Args = []string{"blog-replay", "list"}
	defer func() { os.Args = oldArgs }()

	cfg, args, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}

	if cfg.FeedDir != "./feeds" {
		t.Errorf("Expected feed dir './feeds', got '%s'", cfg.FeedDir)
	}
	if cfg.DBPath != "./blog-replay.db" {
		t.Errorf("Expected db path './blog-replay.db', got '%s'", cfg.DBPath)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("Expected max retries 5, got %d", cfg.MaxRetries)
	}
	if cfg.MaxEntries != 0 {
		t.Errorf("Expected max entries 0 (unbounded), got %d", cfg.MaxEntries)
	}
	if cfg.UserAgent != "blog-replay/"+GetVersion() {
		t.Errorf("Expected default user agent, got '%s'", cfg.UserAgent)
	}

	if len(args) != 1 || args[0] != "list" {
		t.Errorf("Expected remaining args [list], got %v", args)
	}

	if Get() != cfg {
		t.Error("Get should return the loaded config")
	}
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	oldArgs := os.Args
	os.Args = []string{"blog-replay",
		"--feed-url-base", "https://feeds.example.com",
		"--max-retries", "2",
		"--max-entries", "10",
		"scrape", "https://blog.example.com"}
	defer func() { os.Args = oldArgs }()

	cfg, args, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.FeedURLBase != "https://feeds.example.com" {
		t.Errorf("Expected feed URL base override, got '%s'", cfg.FeedURLBase)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("Expected max retries 2, got %d", cfg.MaxRetries)
	}
	if cfg.MaxEntries != 10 {
		t.Errorf("Expected max entries 10, got %d", cfg.MaxEntries)
	}
	if len(args) != 2 || args[0] != "scrape" {
		t.Errorf("Expected subcommand args, got %v", args)
	}
}
