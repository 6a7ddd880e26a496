// Package poller implements the periodic feed-checking loop that
// produces notification events.
package poller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"yt_notify_bot/internal/fetcher"
	"yt_notify_bot/internal/model"
	"yt_notify_bot/internal/queue"
	"yt_notify_bot/internal/storage"
)

// Poller periodically checks all subscribed channels and enqueues an
// event for every newly published video.
type Poller struct {
	store   storage.Store
	fetcher *fetcher.Fetcher
	queue   *queue.Queue
	log     *slog.Logger
	tick    time.Duration
}

// New creates a Poller with the default HTTP client.
func New(store storage.Store, q *queue.Queue, log *slog.Logger) *Poller {
	return NewWithFetcher(store, fetcher.New(http.DefaultClient), q, log)
}

// NewWithFetcher creates a Poller with a custom fetcher (useful for testing).
func NewWithFetcher(store storage.Store, f *fetcher.Fetcher, q *queue.Queue, log *slog.Logger) *Poller {
	return &Poller{
		store:   store,
		fetcher: f,
		queue:   q,
		log:     log,
		tick:    5 * time.Minute,
	}
}

// SetTickInterval overrides the default 5-minute poll interval.
func (p *Poller) SetTickInterval(d time.Duration) {
	p.tick = d
}

// Run starts the poll loop, blocking until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.checkAll(ctx)

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.checkAll(ctx)
		}
	}
}

// checkAll runs one poll cycle over every subscriber that has a
// delivery target. Subscribers without one are skipped entirely, so
// their feeds are never fetched.
func (p *Poller) checkAll(ctx context.Context) {
	for _, subscriberID := range p.store.ListSubscribers() {
		if _, ok := p.store.GetTarget(subscriberID); !ok {
			continue
		}
		for _, feedID := range p.store.ListSubscriptions(subscriberID) {
			if ctx.Err() != nil {
				return
			}
			p.processFeed(ctx, subscriberID, feedID)
		}
	}
}

// processFeed inspects only the newest entry of the feed. Fetch
// failures mean "no update this cycle"; the feed is retried on the next
// tick.
func (p *Poller) processFeed(ctx context.Context, subscriberID, feedID string) {
	p.log.Debug("checking feed", "subscriber", subscriberID, "feed", feedID)

	snap, err := p.fetcher.Fetch(ctx, feedID)
	if err != nil {
		p.log.Error("fetch feed", "feed", feedID, "error", err)
		return
	}
	if len(snap.Entries) == 0 {
		return
	}

	newest := snap.Entries[0]
	if newest.IsShort {
		p.log.Debug("newest entry is short-form, skipping", "feed", feedID, "video", newest.VideoID)
		return
	}
	if !p.store.IsNewItem(feedID, newest.VideoID) {
		return
	}

	if err := p.store.RecordSeen(feedID, newest.VideoID); err != nil {
		p.log.Error("record seen", "feed", feedID, "video", newest.VideoID, "error", err)
	}

	ev := model.Event{
		SubscriberID: subscriberID,
		FeedTitle:    snap.Title,
		Link:         newest.Link,
	}
	if err := p.queue.Put(ctx, ev); err != nil {
		p.log.Warn("enqueue interrupted", "feed", feedID, "error", err)
		return
	}
	p.log.Info("new video", "feed", feedID, "title", snap.Title, "video", newest.VideoID)
}
