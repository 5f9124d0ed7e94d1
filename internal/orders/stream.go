// internal/orders/stream.go
package orders

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// StreamEvent is one message from the upstream order event stream
type StreamEvent struct {
	Type    string `json:"type"`
	OrderID string `json:"orderId,omitempty"`
}

// Stream event types pushed by the upstream order system
const (
	StreamEventConnected = "connection-established"
	StreamEventHeartbeat = "heartbeat"
	StreamEventNewOrder  = "new-order"
)

// Stream keeps a WebSocket subscription to the upstream order system and
// reports on its own health. Polling stays the source of truth, the stream
// only makes the poll loop react faster.
type Stream struct {
	logger  *zap.Logger
	url     string
	onEvent func(StreamEvent)

	mutex       sync.Mutex
	connected   bool
	lastEventAt time.Time
}

// NewStream creates a Stream for the given HTTP base URL and path. The
// onEvent callback runs on the read loop goroutine.
func NewStream(logger *zap.Logger, baseURL, path string, onEvent func(StreamEvent)) *Stream {
	wsURL := baseURL
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	return &Stream{
		logger:  logger.With(zap.String("component", "order-stream")),
		url:     wsURL + path,
		onEvent: onEvent,
	}
}

// Run connects and reconnects until the context is cancelled
func (s *Stream) Run(ctx context.Context) {
	policy := &Policy{
		BaseDelay:    2 * time.Second,
		MaxDelay:     30 * time.Second,
		MaxRetries:   0, // never give up, the watchdog reports staleness
		LongInterval: 30 * time.Second,
	}

	for {
		if err := ctx.Err(); err != nil {
			return
		}

		if err := s.connectAndRead(ctx); err != nil {
			policy.Failure()
			s.logger.Warn("Order stream disconnected",
				zap.Error(err),
				zap.Int("consecutive_failures", policy.Failures()),
			)
		} else {
			policy.Success()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(policy.NextDelay()):
		}
	}
}

func (s *Stream) connectAndRead(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.setConnected(true)
	defer s.setConnected(false)
	s.logger.Info("Order stream connected", zap.String("url", s.url))

	// Close the socket when the context dies so ReadJSON unblocks
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var event StreamEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		s.mutex.Lock()
		s.lastEventAt = time.Now()
		s.mutex.Unlock()

		if s.onEvent != nil {
			s.onEvent(event)
		}
	}
}

func (s *Stream) setConnected(connected bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.connected = connected
	if connected {
		s.lastEventAt = time.Now()
	}
}

// Connected reports whether the socket is currently up
func (s *Stream) Connected() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.connected
}

// LastEventAt returns when the last stream message arrived
func (s *Stream) LastEventAt() time.Time {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.lastEventAt
}

// Healthy reports whether anything, even a heartbeat, arrived within the
// given window. A connected but silent socket counts as unhealthy: that is
// exactly the half-dead state staff need a warning about.
func (s *Stream) Healthy(window time.Duration) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.connected && !s.lastEventAt.IsZero() && time.Since(s.lastEventAt) < window
}
