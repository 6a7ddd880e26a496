// Package model defines the domain types used across the application.
package model

// Event is a single pending notification, produced by the poller and
// consumed exactly once by the dispatcher. The delivery target is not
// part of the event: it is re-resolved from the store at delivery time,
// since it may change while the event sits in the queue.
type Event struct {
	SubscriberID string
	FeedTitle    string
	Link         string
}
