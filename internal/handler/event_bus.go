// internal/handler/event_bus.go
package handler

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printer-service/internal/model"
)

const recentEventLimit = 100

// EventBus fans service events out to subscribers and keeps a short
// history so clients that connect late still see what just happened.
type EventBus struct {
	events      chan model.Event
	subscribers []chan model.Event
	recent      []model.Event
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// NewEventBus creates an event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		events: make(chan model.Event, 1000),
		logger: logger.With(zap.String("component", "event-bus")),
	}
}

// Start runs the distribution loop until the event channel is closed
func (eb *EventBus) Start() {
	for event := range eb.events {
		eb.distribute(event)
	}
}

// Close stops the distribution loop
func (eb *EventBus) Close() {
	close(eb.events)
}

// Publish queues an event for distribution. Publishing never blocks, a
// full bus drops the event instead of stalling the caller.
func (eb *EventBus) Publish(eventType model.EventType, data model.JSONObject, severity string) {
	event := model.Event{
		ID:        uuid.New(),
		EventType: eventType,
		Data:      data,
		Timestamp: time.Now(),
		Source:    "printer-service",
		Severity:  severity,
	}

	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(eventType)),
		)
	}
}

// Subscribe returns a channel receiving all future events
func (eb *EventBus) Subscribe() <-chan model.Event {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan model.Event, 100)
	eb.subscribers = append(eb.subscribers, subscriber)
	return subscriber
}

// Recent returns the latest events, newest last
func (eb *EventBus) Recent() []model.Event {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	out := make([]model.Event, len(eb.recent))
	copy(out, eb.recent)
	return out
}

func (eb *EventBus) distribute(event model.Event) {
	eb.mutex.Lock()
	eb.recent = append(eb.recent, event)
	if len(eb.recent) > recentEventLimit {
		eb.recent = eb.recent[len(eb.recent)-recentEventLimit:]
	}
	subscribers := make([]chan model.Event, len(eb.subscribers))
	copy(subscribers, eb.subscribers)
	eb.mutex.Unlock()

	for _, subscriber := range subscribers {
		select {
		case subscriber <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
