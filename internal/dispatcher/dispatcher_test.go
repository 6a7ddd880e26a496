package dispatcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"yt_notify_bot/internal/model"
	"yt_notify_bot/internal/queue"
	"yt_notify_bot/internal/storage"
)

type sentMessage struct {
	ChatID int64
	Text   string
}

type mockSender struct {
	mu       sync.Mutex
	err      error
	messages []sentMessage
}

func (m *mockSender) SendMessage(chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (m *mockSender) getMessages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]sentMessage, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func newTestStore(t *testing.T) *storage.Files {
	t.Helper()
	s, err := storage.NewFiles(t.TempDir(), discardLogger())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDeliverSendsFormattedMessage(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if _, err := store.SetTarget("100", "200"); err != nil {
		t.Fatalf("set target: %v", err)
	}

	sender := &mockSender{}
	d := New(store, queue.New(1), sender, discardLogger())

	d.deliver(ctx, model.Event{
		SubscriberID: "100",
		FeedTitle:    "Gopher Academy",
		Link:         "https://www.youtube.com/watch?v=vid-3",
	})

	want := []sentMessage{
		{ChatID: 200, Text: "Gopher Academy published a new video:\nhttps://www.youtube.com/watch?v=vid-3"},
	}
	if diff := cmp.Diff(want, sender.getMessages()); diff != "" {
		t.Errorf("sent messages mismatch (-want +got):\n%s", diff)
	}
}

func TestDeliverDropsEventWithoutTarget(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	sender := &mockSender{}
	d := New(store, queue.New(1), sender, discardLogger())

	d.deliver(ctx, model.Event{SubscriberID: "100", FeedTitle: "T", Link: "L"})

	if got := sender.getMessages(); len(got) != 0 {
		t.Errorf("expected no delivery without target, got %v", got)
	}
}

func TestDeliverDropsEventWithInvalidTarget(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if _, err := store.SetTarget("100", "not-a-chat-id"); err != nil {
		t.Fatalf("set target: %v", err)
	}

	sender := &mockSender{}
	d := New(store, queue.New(1), sender, discardLogger())

	d.deliver(ctx, model.Event{SubscriberID: "100", FeedTitle: "T", Link: "L"})

	if got := sender.getMessages(); len(got) != 0 {
		t.Errorf("expected no delivery for invalid target, got %v", got)
	}
}

func TestSendFailureDoesNotStallQueue(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.SetTarget("100", "200"); err != nil {
		t.Fatalf("set target: %v", err)
	}

	q := queue.New(4)
	sender := &mockSender{err: errors.New("telegram unavailable")}
	d := New(store, q, sender, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := q.Put(ctx, model.Event{SubscriberID: "100", FeedTitle: "T", Link: "L"}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	// All events must be consumed despite every send failing.
	deadline := time.After(2 * time.Second)
	for q.Len() > 0 {
		select {
		case <-deadline:
			t.Fatal("queue did not drain after send failures")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop on cancel")
	}
}

func TestTargetClearedAfterEnqueueIsDropped(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if _, err := store.SetTarget("100", "200"); err != nil {
		t.Fatalf("set target: %v", err)
	}

	q := queue.New(1)
	sender := &mockSender{}
	d := New(store, q, sender, discardLogger())

	if err := q.Put(ctx, model.Event{SubscriberID: "100", FeedTitle: "T", Link: "L"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Target is cleared while the event is still queued; the lookup at
	// delivery time must see that and drop the event.
	if _, err := store.ClearTarget("100"); err != nil {
		t.Fatalf("clear target: %v", err)
	}

	ev, err := q.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	d.deliver(ctx, ev)

	if got := sender.getMessages(); len(got) != 0 {
		t.Errorf("expected dropped event, got deliveries %v", got)
	}
	if q.Len() != 0 {
		t.Error("queue should have advanced")
	}
}
