// Package storage defines the persistence interface and its implementations.
package storage

// Store is the interface for all persistence operations. Implementations
// must persist every successful mutation before returning; a returned
// error means the mutation may not have been made durable.
type Store interface {
	AddSubscription(subscriberID, feedID string) (bool, error)
	RemoveSubscription(subscriberID, feedID string) (bool, error)
	ListSubscriptions(subscriberID string) []string
	ClearSubscriptions(subscriberID string) (bool, error)
	ListSubscribers() []string

	SetTarget(subscriberID, targetID string) (bool, error)
	GetTarget(subscriberID string) (string, bool)
	ClearTarget(subscriberID string) (bool, error)

	RemoveSubscriber(subscriberID string) (bool, error)

	IsNewItem(feedID, itemID string) bool
	RecordSeen(feedID, itemID string) error
}
