package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"yt_notify_bot/internal/model"
)

func TestFIFOOrder(t *testing.T) {
	ctx := context.Background()
	q := New(4)

	events := []model.Event{
		{SubscriberID: "s1", FeedTitle: "A", Link: "https://example.com/a"},
		{SubscriberID: "s2", FeedTitle: "B", Link: "https://example.com/b"},
		{SubscriberID: "s1", FeedTitle: "C", Link: "https://example.com/c"},
	}
	for _, ev := range events {
		if err := q.Put(ctx, ev); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	if got := q.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}

	var got []model.Event
	for range events {
		ev, err := q.Get(ctx)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		got = append(got, ev)
	}

	if diff := cmp.Diff(events, got); diff != "" {
		t.Errorf("drain order mismatch (-want +got):\n%s", diff)
	}
}

func TestPutBlocksWhenFull(t *testing.T) {
	q := New(1)
	if err := q.Put(context.Background(), model.Event{SubscriberID: "s1"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := q.Put(ctx, model.Event{SubscriberID: "s2"})
	if err == nil {
		t.Fatal("expected put on full queue to block until ctx expiry")
	}
}

func TestGetUnblocksOnCancel(t *testing.T) {
	q := New(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := q.Get(ctx)
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error from cancelled get")
		}
	case <-time.After(time.Second):
		t.Fatal("get did not unblock on cancel")
	}
}
