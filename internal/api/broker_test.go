package api

import (
	"testing"
	"time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	pid := "p1"
	ch := b.Subscribe(pid)

	evt := SSEEvent{Type: "itinerary.plan.created", Data: map[string]any{"planId": pid}}
	b.Publish(pid, evt)

	select {
	case got := <-ch:
		if got.Type != evt.Type {
			t.Fatalf("got type %s, want %s", got.Type, evt.Type)
		}
		if got.Data["planId"].(string) != pid {
			t.Fatalf("bad payload: %+v", got.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe(pid, ch)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("channel should be closed after unsubscribe")
		}
	case <-time.After(50 * time.Millisecond):
		// acceptable if already drained and closed
	}
}

func TestBrokerIsolatesPlans(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("p1")
	defer b.Unsubscribe("p1", ch)
	b.Publish("p2", SSEEvent{Type: "x", Data: map[string]any{}})
	select {
	case <-ch:
		t.Fatal("received event for another plan")
	case <-time.After(50 * time.Millisecond):
	}
}
