package blog

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// pagePause is the rate-limit courtesy delay between successive page fetches
// within one stream. Swapped out in tests.
var pagePause = func() { time.Sleep(time.Second) }

// Client is a thin JSON-over-HTTP helper shared by all platform sources. It
// carries the configured User-Agent and turns non-success responses into
// StatusError so the retry engine can classify them.
type Client struct {
	http      *http.Client
	userAgent string
}

func NewClient(userAgent string) *Client {
	return &Client{
		http:      &http.Client{Timeout: 30 * time.Second},
		userAgent: userAgent,
	}
}

// GetJSON performs a GET request and decodes the JSON response body into out.
// The response headers are returned even on a status failure, since some
// platforms (WordPress) carry pagination state there.
func (c *Client) GetJSON(rawURL string, query url.Values, out any) (http.Header, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid request URL %s: %w", rawURL, err)
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.Header, &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.Header, fmt.Errorf("failed to decode response from %s: %w", rawURL, err)
	}

	return resp.Header, nil
}
