package blog

import (
	"log/slog"
)

// Detect probes each supported platform for blogURL in a fixed priority
// order (WordPress, Blogger, Substack) and returns the first source whose
// probe succeeds. Individual probe failures are logged at debug level but
// never surfaced; if every probe fails the result is ErrUnknownBlogType.
func Detect(client *Client, blogURL string) (Source, error) {
	if src, err := NewWordpressSource(client, blogURL); err == nil {
		return src, nil
	} else {
		slog.Debug("Not a wordpress blog", "url", blogURL, "error", err)
	}

	if src, err := NewBloggerSource(client, blogURL); err == nil {
		return src, nil
	} else {
		slog.Debug("Not a blogger blog", "url", blogURL, "error", err)
	}

	if src, err := NewSubstackSource(client, blogURL); err == nil {
		return src, nil
	} else {
		slog.Debug("Not a substack blog", "url", blogURL, "error", err)
	}

	return nil, ErrUnknownBlogType
}
