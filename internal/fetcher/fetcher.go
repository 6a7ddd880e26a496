// Package fetcher downloads a YouTube channel's video feed and
// normalizes it into a typed snapshot.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// feedURLPrefix is YouTube's per-channel Atom feed endpoint.
const feedURLPrefix = "https://www.youtube.com/feeds/videos.xml?channel_id="

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Snapshot is the normalized state of a channel feed at fetch time.
type Snapshot struct {
	Title   string
	Entries []Entry // newest first, as ordered by the feed
}

// Entry is a single video entry of a channel feed.
type Entry struct {
	VideoID string
	Title   string
	Link    string
	IsShort bool
}

// Fetcher downloads and parses YouTube channel feeds.
type Fetcher struct {
	client  HTTPClient
	timeout time.Duration
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{
		client:  client,
		timeout: 30 * time.Second,
	}
}

// Fetch downloads and parses the feed of the given channel ID.
// Any failure is returned as an error; callers treat it as "no update
// this cycle" and try again on the next poll.
func (f *Fetcher) Fetch(ctx context.Context, channelID string) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURLPrefix+url.QueryEscape(channelID), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "YTNotifyBot/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	snap := &Snapshot{Title: feed.Title}
	for _, item := range feed.Items {
		snap.Entries = append(snap.Entries, Entry{
			VideoID: entryVideoID(item),
			Title:   item.Title,
			Link:    item.Link,
			IsShort: strings.Contains(item.Link, "/shorts/"),
		})
	}
	return snap, nil
}

// entryVideoID extracts the video identifier of a feed item, preferring
// the yt:videoId extension, then the yt:video:… GUID, then the watch
// URL's v parameter.
func entryVideoID(item *gofeed.Item) string {
	if ext, ok := item.Extensions["yt"]; ok {
		if ids, ok := ext["videoId"]; ok && len(ids) > 0 && ids[0].Value != "" {
			return ids[0].Value
		}
	}
	if id, ok := strings.CutPrefix(item.GUID, "yt:video:"); ok && id != "" {
		return id
	}
	if u, err := url.Parse(item.Link); err == nil {
		if v := u.Query().Get("v"); v != "" {
			return v
		}
	}
	return item.GUID
}
