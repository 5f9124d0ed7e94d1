// internal/orders/client_test.go
package orders

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func TestFetchActiveOrders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"orders": [
				{"_id": "o1", "table": "5", "status": "confirmed", "paymentStatus": "paid", "paymentMethod": "card"},
				{"_id": "o2", "table": "takeaway", "status": "completed", "paymentStatus": "paid", "paymentMethod": "card"},
				{"_id": "o3", "table": "2", "status": "pending", "paymentStatus": "pending", "paymentMethod": "counter-cash"}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(), &Config{BaseURL: server.URL})
	orders, err := client.FetchActiveOrders(context.Background())
	if err != nil {
		t.Fatalf("FetchActiveOrders failed: %v", err)
	}

	// o2 is completed and must be filtered, o3 is a pending counter order
	// and counts as active
	if len(orders) != 2 {
		t.Fatalf("got %d orders, want 2", len(orders))
	}
	if orders[0].ID != "o1" || orders[1].ID != "o3" {
		t.Errorf("unexpected order ids %s, %s", orders[0].ID, orders[1].ID)
	}
	if !orders[0].IsPaid() {
		t.Error("paymentStatus \"paid\" should decode as paid")
	}
	if !orders[0].NotificationWorthy() {
		t.Error("paid online order from upstream should be notification-worthy")
	}
}

func TestFetchActiveOrdersUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error": "database down"}`))
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(), &Config{BaseURL: server.URL})
	if _, err := client.FetchActiveOrders(context.Background()); err == nil {
		t.Fatal("expected an error for an unsuccessful upstream response")
	}
}

func TestFetchActiveOrdersBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(zap.NewNop(), &Config{BaseURL: server.URL})
	if _, err := client.FetchActiveOrders(context.Background()); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

func TestStreamReceivesEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteJSON(StreamEvent{Type: StreamEventConnected})
		conn.WriteJSON(StreamEvent{Type: StreamEventNewOrder, OrderID: "o42"})
		// Hold the socket open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	var (
		mu     sync.Mutex
		events []StreamEvent
	)
	gotNewOrder := make(chan struct{})
	stream := NewStream(zap.NewNop(), server.URL, "/ws/orders", func(e StreamEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
		if e.Type == StreamEventNewOrder {
			close(gotNewOrder)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stream.Run(ctx)

	select {
	case <-gotNewOrder:
	case <-time.After(3 * time.Second):
		t.Fatal("never received the new-order event")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[1].OrderID != "o42" {
		t.Errorf("new-order event order id = %s, want o42", events[1].OrderID)
	}
	if !stream.Healthy(5 * time.Second) {
		t.Error("stream should be healthy right after receiving events")
	}
}
