package blog

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"blogreplay/app/cfg"
)

// bloggerAPIBase is a package var so tests can point it at a fake API.
var bloggerAPIBase = "https://www.googleapis.com/blogger/v3"

type bloggerItemSummary struct {
	TotalItems int `json:"totalItems"`
}

type bloggerMeta struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	URL         string             `json:"url"`
	Posts       bloggerItemSummary `json:"posts"`
	Pages       bloggerItemSummary `json:"pages"`
}

type bloggerAuthor struct {
	DisplayName string `json:"displayName"`
	URL         string `json:"url"`
}

type bloggerPost struct {
	ID        string        `json:"id"`
	URL       string        `json:"url"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Author    bloggerAuthor `json:"author"`
	Published string        `json:"published"`
}

type bloggerListResponse struct {
	NextPageToken string        `json:"nextPageToken"`
	Items         []bloggerPost `json:"items"`
}

// BloggerSource scrapes a blog hosted on Blogger via the v3 API. Posts and
// pages are separate endpoints, consumed as two sequential sub-streams.
type BloggerSource struct {
	client   *Client
	meta     bloggerMeta
	key      string
	feedID   string
	progress Progress
}

// NewBloggerSource probes the Blogger byurl endpoint for blogURL and returns
// a source when the blog exists there.
func NewBloggerSource(client *Client, blogURL string) (*BloggerSource, error) {
	c := cfg.Get()

	meta, err := Retry(c.MaxRetries, func() (bloggerMeta, error) {
		var m bloggerMeta
		_, err := client.GetJSON(bloggerAPIBase+"/blogs/byurl", url.Values{
			"url": {blogURL},
			"key": {c.BloggerAPIKey},
		}, &m)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("blogger lookup for %s: %w", blogURL, err)
	}
	if meta.ID == "" || meta.Name == "" {
		return nil, fmt.Errorf("blogger lookup for %s returned no blog", blogURL)
	}

	key := SanitizeKey(meta.Name)
	return &BloggerSource{
		client:   client,
		meta:     meta,
		key:      key,
		feedID:   c.FeedURLBase + "/" + key,
		progress: NopProgress{},
	}, nil
}

// SetProgress installs a progress observer. Must be called before Entries.
func (s *BloggerSource) SetProgress(p Progress) {
	s.progress = p
}

func (s *BloggerSource) FeedData() FeedData {
	return FeedData{
		ID:    s.feedID,
		Key:   s.key,
		Title: s.meta.Name,
		URL:   s.meta.URL,
	}
}

func (s *BloggerSource) Entries() EntryIterator {
	return &bloggerIterator{src: s}
}

// bloggerIterator is the pull cursor over the posts and pages sub-streams.
type bloggerIterator struct {
	src *BloggerSource

	// sub-streams in order: posts, then pages
	stream    int
	pageToken string
	fetched   bool // a page of the current stream has been fetched
	seen      int  // items seen in the current stream

	pending []Entry
	cur     Entry
	err     error
	done    bool
}

// bloggerStreams describes the two sub-streams of a Blogger archive.
var bloggerStreams = [2]struct {
	label    string
	endpoint string
}{
	{"posts", "posts"},
	{"pages", "pages"},
}

func (it *bloggerIterator) Next() bool {
	for it.err == nil && !it.done {
		if len(it.pending) > 0 {
			it.cur = it.pending[0]
			it.pending = it.pending[1:]
			return true
		}
		it.fill()
	}
	return false
}

func (it *bloggerIterator) Entry() Entry { return it.cur }

func (it *bloggerIterator) Err() error { return it.err }

// fill fetches the next page of the current sub-stream, advancing to the
// next sub-stream (or finishing) when the current one is exhausted.
func (it *bloggerIterator) fill() {
	if it.stream >= len(bloggerStreams) {
		it.done = true
		return
	}

	stream := bloggerStreams[it.stream]
	expected := it.streamTotal()

	if !it.fetched {
		if expected == 0 {
			it.advanceStream()
			return
		}
		slog.Debug("Scraping blogger stream", "blog", it.src.meta.Name, "stream", stream.label, "expected", expected)
		it.src.progress.Start(stream.label, expected)
	} else {
		pagePause()
	}

	c := cfg.Get()
	endpoint := fmt.Sprintf("%s/blogs/%s/%s", bloggerAPIBase, it.src.meta.ID, stream.endpoint)
	query := url.Values{
		"key":         {c.BloggerAPIKey},
		"orderBy":     {"published"},
		"fetchBodies": {"true"},
	}
	if it.pageToken != "" {
		query.Set("pageToken", it.pageToken)
	}

	resp, err := Retry(c.MaxRetries, func() (bloggerListResponse, error) {
		var r bloggerListResponse
		_, err := it.src.client.GetJSON(endpoint, query, &r)
		return r, err
	})
	if err != nil {
		it.err = fmt.Errorf("blogger %s page: %w", stream.label, err)
		return
	}

	it.fetched = true
	it.seen += len(resp.Items)
	it.src.progress.Add(len(resp.Items))

	for _, post := range resp.Items {
		entry, err := it.src.toEntry(post)
		if err != nil {
			it.err = err
			return
		}
		it.pending = append(it.pending, entry)
	}

	if resp.NextPageToken == "" {
		if it.seen != expected {
			it.err = consistencyErrorf("blogger reported %d %s but returned %d", expected, stream.label, it.seen)
			return
		}
		it.src.progress.Done()
		it.advanceStream()
		return
	}
	it.pageToken = resp.NextPageToken
}

func (it *bloggerIterator) streamTotal() int {
	if it.stream == 0 {
		return it.src.meta.Posts.TotalItems
	}
	return it.src.meta.Pages.TotalItems
}

func (it *bloggerIterator) advanceStream() {
	it.stream++
	it.pageToken = ""
	it.fetched = false
	it.seen = 0
	if it.stream >= len(bloggerStreams) {
		it.done = true
	}
}

func (s *BloggerSource) toEntry(post bloggerPost) (Entry, error) {
	published, err := time.Parse(time.RFC3339, post.Published)
	if err != nil {
		return Entry{}, fmt.Errorf("blogger post %s has malformed published time %q: %w", post.ID, post.Published, err)
	}

	return Entry{
		ID:        s.feedID + "/" + post.ID,
		Title:     post.Title,
		Link:      post.URL,
		Published: published,
		Authors:   []Person{{Name: post.Author.DisplayName, URI: post.Author.URL}},
		Content:   post.Content,
	}, nil
}
