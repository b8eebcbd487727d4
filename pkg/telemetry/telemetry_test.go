package telemetry

import (
	"testing"
	"time"
)

func TestHub_PublishSubscribe(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	events, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	hub.Publish(Event{Type: EventSessionStarted, SessionID: "s1"})

	select {
	case ev := <-events:
		if ev.Type != EventSessionStarted || ev.SessionID != "s1" {
			t.Errorf("unexpected event: %+v", ev)
		}
		if ev.Timestamp.IsZero() {
			t.Error("timestamp not stamped on publish")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestHub_MultipleSubscribers(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	a, unsubA := hub.Subscribe()
	defer unsubA()
	b, unsubB := hub.Subscribe()
	defer unsubB()

	hub.Publish(Event{Type: EventResultDelivered})

	for name, ch := range map[string]<-chan Event{"a": a, "b": b} {
		select {
		case ev := <-ch:
			if ev.Type != EventResultDelivered {
				t.Errorf("subscriber %s: event type = %q", name, ev.Type)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s: timed out", name)
		}
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	events, unsubscribe := hub.Subscribe()
	unsubscribe()
	// Repeat unsubscribe is a no-op.
	unsubscribe()

	hub.Publish(Event{Type: EventParseFailed})

	if _, ok := <-events; ok {
		t.Error("received event after unsubscribe")
	}
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()
	events, _ := hub.Subscribe()

	hub.Close()
	hub.Close()

	if _, ok := <-events; ok {
		t.Error("subscriber channel not closed")
	}

	// A closed hub hands out closed channels and drops publications.
	late, _ := hub.Subscribe()
	hub.Publish(Event{Type: EventSessionDismissed})
	if _, ok := <-late; ok {
		t.Error("subscription on a closed hub received an event")
	}
}
