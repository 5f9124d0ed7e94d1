// internal/handler/event_bus_test.go
package handler

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/model"
)

func TestEventBusDeliversToSubscriber(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	go bus.Start()
	defer bus.Close()

	sub := bus.Subscribe()

	bus.Publish(model.EventOrderAlert, model.JSONObject{"count": 2}, "WARNING")

	select {
	case event := <-sub:
		if event.EventType != model.EventOrderAlert {
			t.Errorf("event type = %s, want ORDER_ALERT", event.EventType)
		}
		if event.Severity != "WARNING" {
			t.Errorf("severity = %s, want WARNING", event.Severity)
		}
		if event.Data["count"] != 2 {
			t.Errorf("data count = %v, want 2", event.Data["count"])
		}
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestEventBusKeepsRecentHistory(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	go bus.Start()
	defer bus.Close()

	bus.Publish(model.EventScanStarted, nil, "INFO")
	bus.Publish(model.EventScanCompleted, nil, "INFO")

	// Distribution is asynchronous
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(bus.Recent()) == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	recent := bus.Recent()
	if len(recent) != 2 {
		t.Fatalf("recent = %d events, want 2", len(recent))
	}
	if recent[0].EventType != model.EventScanStarted || recent[1].EventType != model.EventScanCompleted {
		t.Errorf("recent order wrong: %s, %s", recent[0].EventType, recent[1].EventType)
	}
}

func TestEventBusHistoryBounded(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	go bus.Start()
	defer bus.Close()

	for i := 0; i < recentEventLimit+20; i++ {
		bus.Publish(model.EventScanLog, model.JSONObject{"i": i}, "INFO")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(bus.Recent()) == recentEventLimit {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	recent := bus.Recent()
	if len(recent) != recentEventLimit {
		t.Fatalf("recent = %d events, want %d", len(recent), recentEventLimit)
	}
	if recent[len(recent)-1].Data["i"] != recentEventLimit+19 {
		t.Errorf("newest event = %v, want %d", recent[len(recent)-1].Data["i"], recentEventLimit+19)
	}
}

func TestEventBusSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	go bus.Start()
	defer bus.Close()

	// Never read from this subscriber
	_ = bus.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			bus.Publish(model.EventScanLog, nil, "INFO")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publishing blocked on a slow subscriber")
	}
}
