package notify

import (
	"sync"
	"testing"
	"time"
)

func TestNotifier_PublishNoSubscribers(t *testing.T) {
	n := NewNotifier(10)
	// Should not panic and should not block
	n.Publish(Event{Type: TableCreated, Table: "events"})

	var nilNotifier *Notifier
	nilNotifier.Publish(Event{Type: TableCreated, Table: "events"})
}

func TestNotifier_SubscribeReceivesEvent(t *testing.T) {
	n := NewNotifier(10)
	sub := n.Subscribe("sub-1")

	n.Publish(Event{Type: IndexCreated, Table: "events", Index: "by_type"})

	select {
	case ev := <-sub.Ch:
		if ev.Type != IndexCreated || ev.Table != "events" || ev.Index != "by_type" {
			t.Errorf("unexpected event: %+v", ev)
		}
		if ev.Timestamp == 0 {
			t.Error("timestamp should be set on publish")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive event within timeout")
	}
}

func TestNotifier_TableFilter(t *testing.T) {
	n := NewNotifier(10)
	sub := n.Subscribe("sub-2", "users")

	n.Publish(Event{Type: TableCreated, Table: "events"})
	select {
	case ev := <-sub.Ch:
		t.Fatalf("received unexpected event: %+v", ev)
	default:
	}

	n.Publish(Event{Type: TableDropped, Table: "users"})
	n.Publish(Event{Type: CatalogImported})
	if len(sub.Ch) != 2 {
		t.Fatalf("expected 2 buffered events, got %d", len(sub.Ch))
	}
	if ev := <-sub.Ch; ev.Type != TableDropped {
		t.Errorf("expected TableDropped first, got %v", ev.Type)
	}
	if ev := <-sub.Ch; ev.Type != CatalogImported {
		t.Errorf("expected CatalogImported second, got %v", ev.Type)
	}
}

func TestNotifier_FullChannelDrops(t *testing.T) {
	n := NewNotifier(1)
	sub := n.Subscribe("slow")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			n.Publish(Event{Type: SchemaChanged, Table: "events"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full channel")
	}
	if len(sub.Ch) != 1 {
		t.Errorf("expected 1 buffered event, got %d", len(sub.Ch))
	}
}

func TestNotifier_Unsubscribe(t *testing.T) {
	n := NewNotifier(10)
	sub := n.Subscribe("")
	if sub.ID == "" {
		t.Fatal("expected generated subscriber ID")
	}
	if n.Len() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", n.Len())
	}

	n.Unsubscribe(sub.ID)
	if _, ok := <-sub.Ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
	if n.Len() != 0 {
		t.Errorf("expected 0 subscribers, got %d", n.Len())
	}

	// Unknown IDs are ignored.
	n.Unsubscribe("missing")
}

func TestNotifier_ConcurrentPublishUnsubscribe(t *testing.T) {
	n := NewNotifier(100)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		sub := n.Subscribe("")
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				n.Publish(Event{Type: IndexDropped, Table: "events"})
			}
		}()
		go func(id string) {
			defer wg.Done()
			n.Unsubscribe(id)
		}(sub.ID)
	}
	wg.Wait()

	if n.Len() != 0 {
		t.Errorf("expected all subscribers removed, got %d", n.Len())
	}
}

func TestEventType_String(t *testing.T) {
	if SchemaChanged.String() != "schema_changed" {
		t.Errorf("unexpected name %q", SchemaChanged.String())
	}
	if EventType(99).String() != "unknown" {
		t.Errorf("unexpected name %q", EventType(99).String())
	}
}
