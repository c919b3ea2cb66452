package cfg

type Cfg struct {
	// Platform credentials
	BloggerAPIKey string

	// Feed identity and output
	FeedURLBase string
	FeedDir     string
	MaxEntries  int

	// Storage
	DBPath string

	// Scraping
	BlogsFile  string
	MaxRetries int

	// Serving
	Port string

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
