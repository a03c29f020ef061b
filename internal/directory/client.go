// Package directory is a client for the Podcast Index catalog API.
package directory

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://api.podcastindex.org/api/1.0"
	userAgent      = "podscribe/1.0"
)

// Podcast is a search hit from the directory ("feed" in Podcast Index terms).
type Podcast struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Image       string `json:"image"`
	URL         string `json:"url"`
}

// Episode is an episode entry from the directory.
type Episode struct {
	GUID          string `json:"guid"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	EnclosureURL  string `json:"enclosureUrl"`
	Image         string `json:"image"`
	DatePublished int64  `json:"datePublished"` // unix seconds
	Duration      int    `json:"duration"`
}

// Client issues authenticated requests against the Podcast Index API.
// No caching, no retry: transport failures and non-2xx responses fail the call.
type Client struct {
	key     string
	secret  string
	baseURL string
	client  *http.Client
	now     func() time.Time
}

func NewClient(key, secret string, timeout time.Duration) *Client {
	return &Client{
		key:     key,
		secret:  secret,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

// Search queries the directory by term.
func (c *Client) Search(ctx context.Context, query string) ([]Podcast, error) {
	var result struct {
		Feeds []Podcast `json:"feeds"`
	}
	u := c.baseURL + "/search/byterm?q=" + url.QueryEscape(query)
	if err := c.get(ctx, u, &result); err != nil {
		return nil, err
	}
	return result.Feeds, nil
}

// EpisodesByFeedID lists a feed's episodes by its directory id.
func (c *Client) EpisodesByFeedID(ctx context.Context, feedID string) ([]Episode, error) {
	var result struct {
		Items []Episode `json:"items"`
	}
	u := c.baseURL + "/episodes/byfeedid?id=" + url.QueryEscape(feedID)
	if err := c.get(ctx, u, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

func (c *Client) get(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("podcast index request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("podcast index API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// authorize sets the Podcast Index auth headers: the raw key, the current
// Unix timestamp, and a SHA-1 of key+secret+timestamp.
func (c *Client) authorize(req *http.Request) {
	ts := strconv.FormatInt(c.now().Unix(), 10)
	sum := sha1.Sum([]byte(c.key + c.secret + ts))

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Auth-Key", c.key)
	req.Header.Set("X-Auth-Date", ts)
	req.Header.Set("Authorization", hex.EncodeToString(sum[:]))
}
