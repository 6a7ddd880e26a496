// Package queue provides the bounded FIFO hand-off between the poller
// and the dispatcher.
package queue

import (
	"context"

	"yt_notify_bot/internal/model"
)

// Queue is a bounded in-process FIFO of notification events. Put blocks
// while the queue is full, Get blocks while it is empty; both unblock
// on context cancellation. It is safe for concurrent use.
type Queue struct {
	ch chan model.Event
}

// New creates a Queue with the given capacity.
func New(capacity int) *Queue {
	return &Queue{ch: make(chan model.Event, capacity)}
}

// Put enqueues an event, blocking until there is room or ctx is done.
func (q *Queue) Put(ctx context.Context, ev model.Event) error {
	select {
	case q.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get dequeues the oldest event, blocking until one is available or ctx
// is done.
func (q *Queue) Get(ctx context.Context) (model.Event, error) {
	select {
	case ev := <-q.ch:
		return ev, nil
	case <-ctx.Done():
		return model.Event{}, ctx.Err()
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.ch)
}
