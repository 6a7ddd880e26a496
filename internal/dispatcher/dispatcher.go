// Package dispatcher drains the event queue and delivers notifications.
package dispatcher

import (
	"context"
	"log/slog"
	"strconv"

	"golang.org/x/time/rate"

	"yt_notify_bot/internal/bot"
	"yt_notify_bot/internal/model"
	"yt_notify_bot/internal/queue"
	"yt_notify_bot/internal/storage"
)

// Sender is the interface for delivering a message to a chat.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// Dispatcher consumes queued events one at a time, in order. Each event
// is consumed exactly once: delivery failures are logged, never retried.
type Dispatcher struct {
	store   storage.Store
	queue   *queue.Queue
	sender  Sender
	log     *slog.Logger
	limiter *rate.Limiter
}

// New creates a Dispatcher. Sends are rate-limited to stay under
// Telegram's ~30 messages/second bot limit.
func New(store storage.Store, q *queue.Queue, sender Sender, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:   store,
		queue:   q,
		sender:  sender,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(20), 5),
	}
}

// Run starts the consumer loop, blocking until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		ev, err := d.queue.Get(ctx)
		if err != nil {
			return
		}
		d.deliver(ctx, ev)
	}
}

// deliver resolves the event's target at delivery time and sends the
// notification. Whatever happens, the event is done afterwards: a bad
// event must never stall the queue.
func (d *Dispatcher) deliver(ctx context.Context, ev model.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("panic while delivering event", "subscriber", ev.SubscriberID, "panic", r)
		}
	}()

	// The target is looked up now, not at enqueue time: it may have
	// been cleared or changed while the event sat in the queue.
	target, ok := d.store.GetTarget(ev.SubscriberID)
	if !ok {
		d.log.Info("no delivery target, dropping event", "subscriber", ev.SubscriberID, "title", ev.FeedTitle)
		return
	}
	chatID, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		d.log.Warn("invalid delivery target, dropping event", "subscriber", ev.SubscriberID, "target", target)
		return
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return
	}

	text := bot.FormatNotification(ev.FeedTitle, ev.Link)
	if err := d.sender.SendMessage(chatID, text); err != nil {
		d.log.Error("send notification", "subscriber", ev.SubscriberID, "chat_id", chatID, "error", err)
		return
	}
	d.log.Info("notification delivered", "subscriber", ev.SubscriberID, "chat_id", chatID, "title", ev.FeedTitle)
}
