package feed

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"blogreplay/app/blog"
	"blogreplay/app/cfg"
)

const (
	atomNS        = "http://www.w3.org/2005/Atom"
	generatorName = "blog-replay"
)

type AtomFeed struct {
	XMLName   xml.Name       `xml:"feed"`
	Xmlns     string         `xml:"xmlns,attr"`
	Title     string         `xml:"title"`
	ID        string         `xml:"id"`
	Updated   string         `xml:"updated"`
	Links     []AtomLink     `xml:"link"`
	Generator *AtomGenerator `xml:"generator"`
	Entries   []AtomEntry    `xml:"entry"`
}

type AtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
}

type AtomGenerator struct {
	Value   string `xml:",chardata"`
	Version string `xml:"version,attr,omitempty"`
}

type AtomPerson struct {
	Name string `xml:"name"`
	URI  string `xml:"uri,omitempty"`
}

type AtomContent struct {
	Type  string `xml:"type,attr,omitempty"`
	Value string `xml:",chardata"`
}

type AtomEntry struct {
	Title     string       `xml:"title"`
	ID        string       `xml:"id"`
	Published string       `xml:"published,omitempty"`
	Updated   string       `xml:"updated"`
	Authors   []AtomPerson `xml:"author"`
	Links     []AtomLink   `xml:"link"`
	Content   *AtomContent `xml:"content"`
}

// Path returns the rendered feed file location for a feed key.
func Path(dir, feedKey string) string {
	return filepath.Join(dir, feedKey+".atom")
}

// ReadOrCreate loads the rendered feed at path, or synthesizes an empty one
// from the feed identity if no file exists yet.
func ReadOrCreate(path string, fd blog.FeedData) (*AtomFeed, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return newAtomFeed(fd), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open feed at %s: %w", path, err)
	}

	var feed AtomFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse feed at %s: %w", path, err)
	}
	return &feed, nil
}

func newAtomFeed(fd blog.FeedData) *AtomFeed {
	return &AtomFeed{
		Xmlns:   atomNS,
		Title:   fmt.Sprintf("%s (%s)", fd.Title, generatorName),
		ID:      fd.ID,
		Updated: time.Now().UTC().Format(time.RFC3339),
		Links: []AtomLink{
			{Href: fd.URL, Rel: "alternate"},
			{Href: fd.ID + ".atom", Rel: "self"},
		},
		Generator: &AtomGenerator{Value: generatorName, Version: cfg.Get().Version},
	}
}

// Write renders the feed to path and pins its permissions: world-readable,
// owner-writable, regardless of umask.
func (f *AtomFeed) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create feed directory: %w", err)
	}

	data, err := xml.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode feed: %w", err)
	}
	data = append([]byte(xml.Header), data...)
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write feed at %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o644); err != nil {
		return fmt.Errorf("failed to set feed permissions at %s: %w", path, err)
	}

	return nil
}
