// Package resolver turns user-supplied channel names, handles, and URLs
// into stable YouTube channel IDs.
package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

var (
	channelIDRe   = regexp.MustCompile(`^UC[0-9A-Za-z_-]{22}$`)
	channelPathRe = regexp.MustCompile(`/channel/(UC[0-9A-Za-z_-]{22})`)
	pageIDRe      = regexp.MustCompile(`"channelId":"(UC[0-9A-Za-z_-]{22})"`)
)

// Resolver resolves channel queries against youtube.com.
type Resolver struct {
	client  HTTPClient
	timeout time.Duration
}

// New creates a Resolver with the given HTTP client.
func New(client HTTPClient) *Resolver {
	return &Resolver{
		client:  client,
		timeout: 15 * time.Second,
	}
}

// Resolve returns the channel ID for a query, which may be a raw
// channel ID, a channel or handle URL, or a bare handle/name. Anything
// that cannot be resolved is an error; callers present it to the user
// as "not found".
func (r *Resolver) Resolve(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("empty channel query")
	}

	if channelIDRe.MatchString(query) {
		return query, nil
	}
	if m := channelPathRe.FindStringSubmatch(query); m != nil {
		return m[1], nil
	}

	return r.scrapeChannelID(ctx, pageURL(query))
}

// pageURL maps a query onto the channel page to scrape. Full YouTube
// URLs are used as-is; everything else is treated as a handle.
func pageURL(query string) string {
	if strings.HasPrefix(query, "http://") || strings.HasPrefix(query, "https://") {
		return query
	}
	handle := strings.TrimPrefix(query, "@")
	return "https://www.youtube.com/@" + url.PathEscape(handle)
}

func (r *Resolver) scrapeChannelID(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "YTNotifyBot/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if m := pageIDRe.FindSubmatch(body); m != nil {
		return string(m[1]), nil
	}
	if m := channelPathRe.FindSubmatch(body); m != nil {
		return string(m[1]), nil
	}
	return "", fmt.Errorf("no channel ID on page %s", pageURL)
}
