package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Platform credentials
	BloggerAPIKey string `long:"blogger-api-key" env:"BLOGGER_API_KEY" description:"API key for the Blogger v3 API"`

	// Feed identity and output
	FeedURLBase string `long:"feed-url-base" env:"FEED_URL_BASE" description:"Base URL prefixed to feed keys to form feed ids (e.g. https://feeds.example.com)"`
	FeedDir     string `long:"feed-dir" env:"FEED_DIR" default:"./feeds" description:"Directory holding rendered Atom files"`
	MaxEntries  int    `long:"max-entries" env:"MAX_ENTRIES" default:"0" description:"Maximum entries kept in a rendered feed (0 = unbounded)"`

	// Storage
	DBPath string `long:"db-path" env:"DB_PATH" default:"./blog-replay.db" description:"Path to the sqlite database file"`

	// Scraping
	BlogsFile  string `long:"blogs-file" env:"BLOGS_FILE" default:"./blogs.yml" description:"YAML file listing blogs for scrape-all"`
	MaxRetries int    `long:"max-retries" env:"MAX_RETRIES" default:"5" description:"Maximum attempts for a failing HTTP request"`

	// Serving
	Port string `long:"port" env:"PORT" default:"8080" description:"HTTP server port for the serve command"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load parses command-line flags and environment variables and returns the
// configuration along with the remaining positional arguments (the
// subcommand and its args). A nil Cfg with a nil error means help was shown.
func Load() (*Cfg, []string, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	args, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil, nil
			}
		}
		return nil, nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		BloggerAPIKey: raw.BloggerAPIKey,
		FeedURLBase:   raw.FeedURLBase,
		FeedDir:       raw.FeedDir,
		MaxEntries:    raw.MaxEntries,
		DBPath:        raw.DBPath,
		BlogsFile:     raw.BlogsFile,
		MaxRetries:    raw.MaxRetries,
		Port:          raw.Port,
		UserAgent:     cmp.Or(raw.UserAgent, "blog-replay/"+GetVersion()),
		Debug:         raw.Debug,
		Version:       GetVersion(),
	}

	globalCfg = cfg

	return cfg, args, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set installs a configuration directly, bypassing flag parsing. Used by tests.
func Set(c *Cfg) {
	globalCfg = c
}
