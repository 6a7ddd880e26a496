package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/lo"
)

// defaultLedgerCapacity bounds how many recently seen item IDs are kept
// per feed before the oldest is evicted.
const defaultLedgerCapacity = 50

const (
	subscriptionsFile = "subscriptions.json"
	targetsFile       = "targets.json"
	seenFile          = "seen.json"
)

// Files implements Store backed by three independent JSON table files.
// Each table is guarded by its own mutex and rewritten whole, via a
// temp file and rename, on every mutation. A crash mid-write can
// therefore affect at most the table being written.
type Files struct {
	dir string
	log *slog.Logger

	subsMu sync.Mutex
	subs   map[string][]string // subscriber ID -> feed IDs

	targetsMu sync.Mutex
	targets   map[string]string // subscriber ID -> target chat ID

	seenMu    sync.Mutex
	seen      map[string][]string // feed ID -> item IDs, oldest first
	ledgerCap int
}

// NewFiles opens (or creates) the table files under dir and hydrates
// the in-memory state. A missing table file is not an error: the table
// starts empty and a warning is logged. An unreadable or malformed
// table file is an error.
func NewFiles(dir string, log *slog.Logger) (*Files, error) {
	f := &Files{
		dir:       dir,
		log:       log,
		subs:      make(map[string][]string),
		targets:   make(map[string]string),
		seen:      make(map[string][]string),
		ledgerCap: defaultLedgerCapacity,
	}

	if err := loadTable(f.path(subscriptionsFile), &f.subs, log); err != nil {
		return nil, err
	}
	if err := loadTable(f.path(targetsFile), &f.targets, log); err != nil {
		return nil, err
	}
	if err := loadTable(f.path(seenFile), &f.seen, log); err != nil {
		return nil, err
	}

	return f, nil
}

// SetLedgerCapacity overrides the default per-feed seen-item capacity.
func (f *Files) SetLedgerCapacity(n int) {
	f.seenMu.Lock()
	defer f.seenMu.Unlock()
	f.ledgerCap = n
}

// AddSubscription subscribes the subscriber to a feed. Returns false
// if the subscription already exists.
func (f *Files) AddSubscription(subscriberID, feedID string) (bool, error) {
	f.subsMu.Lock()
	defer f.subsMu.Unlock()

	if lo.Contains(f.subs[subscriberID], feedID) {
		return false, nil
	}
	f.subs[subscriberID] = append(f.subs[subscriberID], feedID)
	if err := f.saveTable(subscriptionsFile, f.subs); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveSubscription unsubscribes the subscriber from a feed. Returns
// false if no such subscription exists.
func (f *Files) RemoveSubscription(subscriberID, feedID string) (bool, error) {
	f.subsMu.Lock()
	defer f.subsMu.Unlock()

	if !lo.Contains(f.subs[subscriberID], feedID) {
		return false, nil
	}
	f.subs[subscriberID] = lo.Without(f.subs[subscriberID], feedID)
	if len(f.subs[subscriberID]) == 0 {
		delete(f.subs, subscriberID)
	}
	if err := f.saveTable(subscriptionsFile, f.subs); err != nil {
		return false, err
	}
	return true, nil
}

// ListSubscriptions returns the feed IDs the subscriber is subscribed to.
func (f *Files) ListSubscriptions(subscriberID string) []string {
	f.subsMu.Lock()
	defer f.subsMu.Unlock()
	return append([]string(nil), f.subs[subscriberID]...)
}

// ClearSubscriptions removes all of the subscriber's subscriptions.
// Returns false if there were none.
func (f *Files) ClearSubscriptions(subscriberID string) (bool, error) {
	f.subsMu.Lock()
	defer f.subsMu.Unlock()

	if len(f.subs[subscriberID]) == 0 {
		return false, nil
	}
	delete(f.subs, subscriberID)
	if err := f.saveTable(subscriptionsFile, f.subs); err != nil {
		return false, err
	}
	return true, nil
}

// ListSubscribers returns the IDs of all subscribers that have at least
// one subscription.
func (f *Files) ListSubscribers() []string {
	f.subsMu.Lock()
	defer f.subsMu.Unlock()
	return lo.Keys(f.subs)
}

// SetTarget records the delivery target for a subscriber. The first
// target wins: if one is already set, SetTarget returns false and the
// caller must clear it before setting a new one.
func (f *Files) SetTarget(subscriberID, targetID string) (bool, error) {
	f.targetsMu.Lock()
	defer f.targetsMu.Unlock()

	if _, ok := f.targets[subscriberID]; ok {
		return false, nil
	}
	f.targets[subscriberID] = targetID
	if err := f.saveTable(targetsFile, f.targets); err != nil {
		return false, err
	}
	return true, nil
}

// GetTarget returns the subscriber's delivery target, if any.
func (f *Files) GetTarget(subscriberID string) (string, bool) {
	f.targetsMu.Lock()
	defer f.targetsMu.Unlock()
	t, ok := f.targets[subscriberID]
	return t, ok
}

// ClearTarget removes the subscriber's delivery target. Returns false
// if none was set.
func (f *Files) ClearTarget(subscriberID string) (bool, error) {
	f.targetsMu.Lock()
	defer f.targetsMu.Unlock()

	if _, ok := f.targets[subscriberID]; !ok {
		return false, nil
	}
	delete(f.targets, subscriberID)
	if err := f.saveTable(targetsFile, f.targets); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveSubscriber purges the subscriber's subscriptions and target.
// Returns true if anything was removed.
func (f *Files) RemoveSubscriber(subscriberID string) (bool, error) {
	removed, err := f.ClearSubscriptions(subscriberID)
	if err != nil {
		return removed, err
	}
	clearedTarget, err := f.ClearTarget(subscriberID)
	if err != nil {
		return removed || clearedTarget, err
	}
	return removed || clearedTarget, nil
}

// IsNewItem reports whether the item is absent from the feed's ledger
// of recently seen items.
func (f *Files) IsNewItem(feedID, itemID string) bool {
	f.seenMu.Lock()
	defer f.seenMu.Unlock()
	return !lo.Contains(f.seen[feedID], itemID)
}

// RecordSeen appends the item to the feed's ledger, evicting the oldest
// entry when the ledger is at capacity. Recording an item that is
// already present is a no-op.
func (f *Files) RecordSeen(feedID, itemID string) error {
	f.seenMu.Lock()
	defer f.seenMu.Unlock()

	if lo.Contains(f.seen[feedID], itemID) {
		return nil
	}
	ledger := append(f.seen[feedID], itemID)
	if len(ledger) > f.ledgerCap {
		ledger = ledger[len(ledger)-f.ledgerCap:]
	}
	f.seen[feedID] = ledger
	return f.saveTable(seenFile, f.seen)
}

func (f *Files) path(name string) string {
	return filepath.Join(f.dir, name)
}

// saveTable atomically rewrites a whole table file. Callers must hold
// the mutex of the table being written.
func (f *Files) saveTable(name string, table any) error {
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(f.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), f.path(name)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

func loadTable[T any](path string, into *T, log *slog.Logger) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is under the configured data dir
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("table file not found, starting empty", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read table %s: %w", path, err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("parse table %s: %w", path, err)
	}
	return nil
}
