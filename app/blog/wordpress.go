package blog

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"blogreplay/app/cfg"
)

type wordpressMeta struct {
	Name string `json:"name"`
	Home string `json:"home"`
}

type wordpressText struct {
	Rendered string `json:"rendered"`
}

type wordpressPost struct {
	ID      int           `json:"id"`
	DateGMT string        `json:"date_gmt"`
	Link    string        `json:"link"`
	Title   wordpressText `json:"title"`
	Content wordpressText `json:"content"`
	Author  int           `json:"author"`
}

type wordpressUser struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// dateGMTLayout is the naive (offset-less) timestamp the WP REST API uses
// for date_gmt; it is always UTC.
const dateGMTLayout = "2006-01-02T15:04:05"

// WordpressSource scrapes a self-hosted or wordpress.com blog through the
// REST API. Pagination totals come from the X-WP-Total/X-WP-TotalPages
// response headers; author identities from a one-time users lookup.
type WordpressSource struct {
	client  *Client
	meta    wordpressMeta
	apiURL  string // {blog}/wp-json
	key     string
	feedID  string
	authors map[int]string

	progress Progress
}

// NewWordpressSource probes {blogURL}/wp-json/ and returns a source when the
// REST API answers there. The author map is resolved eagerly; a post later
// referencing an id outside it is a fatal consistency error.
func NewWordpressSource(client *Client, blogURL string) (*WordpressSource, error) {
	c := cfg.Get()

	apiURL, err := url.JoinPath(blogURL, "wp-json")
	if err != nil {
		return nil, fmt.Errorf("invalid blog URL %s: %w", blogURL, err)
	}

	meta, err := Retry(c.MaxRetries, func() (wordpressMeta, error) {
		var m wordpressMeta
		_, err := client.GetJSON(apiURL+"/", nil, &m)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("wordpress lookup for %s: %w", blogURL, err)
	}
	if meta.Name == "" && meta.Home == "" {
		return nil, fmt.Errorf("wordpress lookup for %s returned no site info", blogURL)
	}

	authors, err := Retry(c.MaxRetries, func() (map[int]string, error) {
		var users []wordpressUser
		if _, err := client.GetJSON(apiURL+"/wp/v2/users", nil, &users); err != nil {
			return nil, err
		}
		m := make(map[int]string, len(users))
		for _, u := range users {
			m[u.ID] = u.Name
		}
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("wordpress users lookup for %s: %w", blogURL, err)
	}

	key := SanitizeKey(meta.Name)
	return &WordpressSource{
		client:   client,
		meta:     meta,
		apiURL:   apiURL,
		key:      key,
		feedID:   c.FeedURLBase + "/" + key,
		authors:  authors,
		progress: NopProgress{},
	}, nil
}

// SetProgress installs a progress observer. Must be called before Entries.
func (s *WordpressSource) SetProgress(p Progress) {
	s.progress = p
}

func (s *WordpressSource) FeedData() FeedData {
	return FeedData{
		ID:    s.feedID,
		Key:   s.key,
		Title: s.meta.Name,
		URL:   s.meta.Home,
	}
}

func (s *WordpressSource) Entries() EntryIterator {
	return &wordpressIterator{src: s, page: 1}
}

var wordpressStreams = [2]struct {
	label    string
	endpoint string
}{
	{"posts", "wp/v2/posts"},
	{"pages", "wp/v2/pages"},
}

// wordpressIterator pulls posts then pages, one numeric API page at a time.
type wordpressIterator struct {
	src *WordpressSource

	stream int
	page   int
	seen   int

	pending []Entry
	cur     Entry
	err     error
	done    bool
}

func (it *wordpressIterator) Next() bool {
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

func (it *wordpressIterator) Entry() Entry { return it.cur }

func (it *wordpressIterator) Err() error { return it.err }

func (it *wordpressIterator) fill() {
	if it.stream >= len(wordpressStreams) {
		it.done = true
		return
	}

	stream := wordpressStreams[it.stream]
	if it.page > 1 {
		pagePause()
	}

	c := cfg.Get()
	endpoint := it.src.apiURL + "/" + stream.endpoint

	type pageResult struct {
		posts      []wordpressPost
		total      int
		totalPages int
	}

	res, err := Retry(c.MaxRetries, func() (pageResult, error) {
		var posts []wordpressPost
		header, err := it.src.client.GetJSON(endpoint, url.Values{"page": {strconv.Itoa(it.page)}}, &posts)
		if err != nil {
			return pageResult{}, err
		}
		total, err := wpHeaderInt(header, "X-WP-Total")
		if err != nil {
			return pageResult{}, err
		}
		totalPages, err := wpHeaderInt(header, "X-WP-TotalPages")
		if err != nil {
			return pageResult{}, err
		}
		return pageResult{posts: posts, total: total, totalPages: totalPages}, nil
	})
	if err != nil {
		it.err = fmt.Errorf("wordpress %s page %d: %w", stream.label, it.page, err)
		return
	}

	if it.page == 1 {
		slog.Debug("Scraping wordpress stream", "blog", it.src.meta.Name, "stream", stream.label, "expected", res.total)
		it.src.progress.Start(stream.label, res.total)
	}

	it.seen += len(res.posts)
	it.src.progress.Add(len(res.posts))

	for _, post := range res.posts {
		entry, err := it.src.toEntry(post)
		if err != nil {
			it.err = err
			return
		}
		it.pending = append(it.pending, entry)
	}

	if it.page >= res.totalPages {
		if it.seen != res.total {
			it.err = consistencyErrorf("wordpress reported %d %s but returned %d", res.total, stream.label, it.seen)
			return
		}
		it.src.progress.Done()
		it.stream++
		it.page = 1
		it.seen = 0
		if it.stream >= len(wordpressStreams) {
			it.done = true
		}
		return
	}
	it.page++
}

// wpHeaderInt reads a required numeric pagination header; its absence is a
// fatal (non-retryable) error.
func wpHeaderInt(header http.Header, name string) (int, error) {
	v := header.Get(name)
	if v == "" {
		return 0, fmt.Errorf("missing expected %s header", name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("malformed %s header %q: %w", name, v, err)
	}
	return n, nil
}

func (s *WordpressSource) toEntry(post wordpressPost) (Entry, error) {
	name, ok := s.authors[post.Author]
	if !ok {
		return Entry{}, consistencyErrorf("wordpress post %d references unknown author %d", post.ID, post.Author)
	}

	published, err := time.ParseInLocation(dateGMTLayout, post.DateGMT, time.UTC)
	if err != nil {
		return Entry{}, fmt.Errorf("wordpress post %d has malformed date_gmt %q: %w", post.ID, post.DateGMT, err)
	}

	return Entry{
		ID:        fmt.Sprintf("%s/%d", s.feedID, post.ID),
		Title:     post.Title.Rendered,
		Link:      post.Link,
		Published: published,
		Authors:   []Person{{Name: name}},
		Content:   post.Content.Rendered,
	}, nil
}
