package blog

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"blogreplay/app/cfg"
)

// substackSearchURL is a package var so tests can point it at a fake API.
var substackSearchURL = "https://substack.com/api/v1/publication/search"

type substackMeta struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Subdomain    string `json:"subdomain"`
	CustomDomain string `json:"custom_domain"`
}

type substackSearchResponse struct {
	Results []substackMeta `json:"results"`
}

// substackAudiencePublic marks posts visible without a subscription; anything
// else is silently dropped.
const substackAudiencePublic = "everyone"

type substackPost struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	PostDate      string `json:"post_date"`
	CanonicalURL  string `json:"canonical_url"`
	Audience      string `json:"audience"`
	PublicationID int    `json:"publication_id"`
}

type substackByline struct {
	Name   string `json:"name"`
	Handle string `json:"handle"`
}

type substackPostDetail struct {
	BodyHTML         string           `json:"body_html"`
	PublishedBylines []substackByline `json:"publishedBylines"`
}

// SubstackSource scrapes a Substack publication. The archive listing is
// offset-paginated and carries no bodies, so every listed post costs a
// second detail fetch.
type SubstackSource struct {
	client     *Client
	meta       substackMeta
	blogURL    string
	archiveURL string
	postsURL   string
	feedID     string

	progress Progress
}

// NewSubstackSource resolves blogURL to a publication via the search API.
// The publication must match either by substack subdomain or by custom
// domain; no match means this is not a Substack blog.
func NewSubstackSource(client *Client, blogURL string) (*SubstackSource, error) {
	c := cfg.Get()

	base, err := url.Parse(blogURL)
	if err != nil {
		return nil, fmt.Errorf("invalid blog URL %s: %w", blogURL, err)
	}
	domain := base.Hostname()
	subdomain, err := substackSubdomain(domain)
	if err != nil {
		return nil, err
	}

	search, err := Retry(c.MaxRetries, func() (substackSearchResponse, error) {
		var r substackSearchResponse
		_, err := client.GetJSON(substackSearchURL, url.Values{"query": {subdomain}}, &r)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("substack publication search for %s: %w", blogURL, err)
	}

	var meta *substackMeta
	for _, result := range search.Results {
		if result.Subdomain == subdomain || (result.CustomDomain != "" && result.CustomDomain == domain) {
			meta = &result
			break
		}
	}
	if meta == nil {
		return nil, fmt.Errorf("no substack publication found for %s", domain)
	}

	archiveURL, err := url.JoinPath(blogURL, "api/v1/archive")
	if err != nil {
		return nil, fmt.Errorf("invalid blog URL %s: %w", blogURL, err)
	}
	postsURL, err := url.JoinPath(blogURL, "api/v1/posts")
	if err != nil {
		return nil, fmt.Errorf("invalid blog URL %s: %w", blogURL, err)
	}

	return &SubstackSource{
		client:     client,
		meta:       *meta,
		blogURL:    blogURL,
		archiveURL: archiveURL,
		postsURL:   postsURL,
		feedID:     c.FeedURLBase + "/" + meta.Subdomain,
		progress:   NopProgress{},
	}, nil
}

// substackSubdomain extracts the publication subdomain: the first label for
// *.substack.com hosts, the second-to-last label for custom domains.
func substackSubdomain(domain string) (string, error) {
	if strings.HasSuffix(domain, "substack.com") {
		sub, _, _ := strings.Cut(domain, ".")
		return sub, nil
	}
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return "", fmt.Errorf("could not find subdomain of %s", domain)
	}
	return labels[len(labels)-2], nil
}

// SetProgress installs a progress observer. Must be called before Entries.
func (s *SubstackSource) SetProgress(p Progress) {
	s.progress = p
}

func (s *SubstackSource) FeedData() FeedData {
	return FeedData{
		ID:    s.feedID,
		Key:   s.meta.Subdomain,
		Title: s.meta.Name,
		URL:   s.blogURL,
	}
}

func (s *SubstackSource) Entries() EntryIterator {
	return &substackIterator{src: s}
}

// substackIterator pulls archive pages by offset, fetching each public
// post's body on demand. Completion is an empty batch; Substack declares no
// total, so there is nothing to verify the count against.
type substackIterator struct {
	src *SubstackSource

	offset  int
	fetched bool
	started bool

	pending []substackPost
	cur     Entry
	err     error
	done    bool
}

func (it *substackIterator) Next() bool {
	for it.err == nil {
		if len(it.pending) > 0 {
			post := it.pending[0]
			it.pending = it.pending[1:]

			entry, err := it.src.toEntry(post)
			if err != nil {
				it.err = err
				return false
			}
			it.src.progress.Add(1)
			it.cur = entry
			return true
		}
		if it.done {
			return false
		}
		it.fill()
	}
	return false
}

func (it *substackIterator) Entry() Entry { return it.cur }

func (it *substackIterator) Err() error { return it.err }

func (it *substackIterator) fill() {
	if !it.started {
		slog.Debug("Scraping substack archive", "publication", it.src.meta.Name)
		it.src.progress.Start("posts", 0)
		it.started = true
	}
	if it.fetched {
		pagePause()
	}

	c := cfg.Get()
	batch, err := Retry(c.MaxRetries, func() ([]substackPost, error) {
		var posts []substackPost
		_, err := it.src.client.GetJSON(it.src.archiveURL, url.Values{"offset": {strconv.Itoa(it.offset)}}, &posts)
		return posts, err
	})
	if err != nil {
		it.err = fmt.Errorf("substack archive at offset %d: %w", it.offset, err)
		return
	}

	it.fetched = true
	if len(batch) == 0 {
		it.done = true
		it.src.progress.Done()
		return
	}

	// The offset advances by the raw batch size; non-public posts are
	// dropped after that so pagination never skips over them.
	it.offset += len(batch)
	for _, post := range batch {
		if post.Audience == substackAudiencePublic {
			it.pending = append(it.pending, post)
		}
	}
}

func (s *SubstackSource) toEntry(post substackPost) (Entry, error) {
	if post.PublicationID != s.meta.ID {
		return Entry{}, consistencyErrorf("substack post %d belongs to publication %d, expected %d",
			post.ID, post.PublicationID, s.meta.ID)
	}

	c := cfg.Get()
	detail, err := Retry(c.MaxRetries, func() (substackPostDetail, error) {
		var d substackPostDetail
		detailURL, err := url.JoinPath(s.postsURL, post.Slug)
		if err != nil {
			return d, fmt.Errorf("invalid post slug %q: %w", post.Slug, err)
		}
		_, err = s.client.GetJSON(detailURL, nil, &d)
		return d, err
	})
	if err != nil {
		return Entry{}, fmt.Errorf("substack post %s: %w", post.Slug, err)
	}

	published, err := time.Parse(time.RFC3339, post.PostDate)
	if err != nil {
		return Entry{}, fmt.Errorf("substack post %s has malformed post_date %q: %w", post.Slug, post.PostDate, err)
	}

	authors := make([]Person, 0, len(detail.PublishedBylines))
	for _, byline := range detail.PublishedBylines {
		authors = append(authors, Person{
			Name: byline.Name,
			URI:  "https://substack.com/@" + byline.Handle,
		})
	}

	return Entry{
		ID:        fmt.Sprintf("%s/%d", s.feedID, post.ID),
		Title:     post.Title,
		Link:      post.CanonicalURL,
		Published: published,
		Authors:   authors,
		Content:   detail.BodyHTML,
	}, nil
}
