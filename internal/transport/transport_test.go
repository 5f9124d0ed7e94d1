// internal/transport/transport_test.go
package transport

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"
)

// startListener returns a loopback listener and its port
func startListener(t *testing.T) (net.Listener, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to start listener: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	return ln, ln.Addr().(*net.TCPAddr).Port
}

// closedPort returns a loopback port with nothing listening on it
func closedPort(t *testing.T) int {
	t.Helper()
	ln, port := startListener(t)
	ln.Close()
	return port
}

func TestConnectAndSend(t *testing.T) {
	ln, port := startListener(t)

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 1024)
		n, _ := conn.Read(buf)
		received <- buf[:n]
	}()

	tr := New(zap.NewNop(), time.Second)
	id, err := tr.Connect(context.Background(), "127.0.0.1", port, time.Second)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if id == "" {
		t.Fatal("Connect returned empty connection id")
	}

	payload := []byte{0x1B, 0x40, 'h', 'i', 0x0A}
	if err := tr.Send(context.Background(), id, payload); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := tr.Disconnect(id); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}

	select {
	case got := <-received:
		if !bytes.Equal(got, payload) {
			t.Errorf("listener received %v, want %v", got, payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("listener never received the payload")
	}

	if st := tr.Status(); st.ActiveConnections != 0 {
		t.Errorf("expected 0 active connections after disconnect, got %d", st.ActiveConnections)
	}
}

func TestConnectRefused(t *testing.T) {
	port := closedPort(t)

	tr := New(zap.NewNop(), time.Second)
	_, err := tr.Connect(context.Background(), "127.0.0.1", port, time.Second)
	if !errors.Is(err, ErrConnectionRefused) {
		t.Errorf("expected ErrConnectionRefused, got %v", err)
	}
	if st := tr.Status(); st.ActiveConnections != 0 {
		t.Errorf("failed connect must not leave tracked state, got %d", st.ActiveConnections)
	}
}

func TestSendUnknownConnection(t *testing.T) {
	tr := New(zap.NewNop(), time.Second)
	err := tr.Send(context.Background(), "no-such-id", []byte("x"))
	if !errors.Is(err, ErrConnectionNotOpen) {
		t.Errorf("expected ErrConnectionNotOpen, got %v", err)
	}
}

func TestSendAfterPeerClose(t *testing.T) {
	ln, port := startListener(t)

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	tr := New(zap.NewNop(), time.Second)
	id, err := tr.Connect(context.Background(), "127.0.0.1", port, time.Second)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	conn := <-accepted
	conn.Close()
	// Give the peer reset time to land
	time.Sleep(50 * time.Millisecond)

	// A reset socket may absorb one write into the kernel buffer, the
	// second attempt must surface the failure.
	var sendErr error
	for i := 0; i < 3; i++ {
		sendErr = tr.Send(context.Background(), id, bytes.Repeat([]byte("x"), 4096))
		if sendErr != nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if !errors.Is(sendErr, ErrSendFailed) && !errors.Is(sendErr, ErrConnectionNotOpen) {
		t.Errorf("expected send failure after peer close, got %v", sendErr)
	}
	if st := tr.Status(); st.ActiveConnections != 0 {
		t.Errorf("failed send must untrack the connection, got %d active", st.ActiveConnections)
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	ln, port := startListener(t)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	tr := New(zap.NewNop(), time.Second)
	id, err := tr.Connect(context.Background(), "127.0.0.1", port, time.Second)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := tr.Disconnect(id); err != nil {
		t.Fatalf("first Disconnect failed: %v", err)
	}
	if err := tr.Disconnect(id); err != nil {
		t.Errorf("second Disconnect must be a no-op, got %v", err)
	}
	if err := tr.Disconnect("never-existed"); err != nil {
		t.Errorf("Disconnect of unknown id must be a no-op, got %v", err)
	}
}

func TestResetAll(t *testing.T) {
	ln, port := startListener(t)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	tr := New(zap.NewNop(), time.Second)
	for i := 0; i < 3; i++ {
		if _, err := tr.Connect(context.Background(), "127.0.0.1", port, time.Second); err != nil {
			t.Fatalf("Connect %d failed: %v", i, err)
		}
	}

	if st := tr.Status(); st.ActiveConnections != 3 {
		t.Fatalf("expected 3 active connections, got %d", st.ActiveConnections)
	}
	if cleared := tr.ResetAll(); cleared != 3 {
		t.Errorf("ResetAll cleared %d, want 3", cleared)
	}
	if st := tr.Status(); st.ActiveConnections != 0 {
		t.Errorf("expected 0 active connections after reset, got %d", st.ActiveConnections)
	}
	if cleared := tr.ResetAll(); cleared != 0 {
		t.Errorf("second ResetAll cleared %d, want 0", cleared)
	}
}

func TestProbe(t *testing.T) {
	_, openPort := startListener(t)
	refusedPort := closedPort(t)

	tr := New(zap.NewNop(), time.Second)

	if err := tr.Probe(context.Background(), "127.0.0.1", openPort, time.Second); err != nil {
		t.Errorf("Probe of open port failed: %v", err)
	}
	err := tr.Probe(context.Background(), "127.0.0.1", refusedPort, time.Second)
	if !errors.Is(err, ErrConnectionRefused) {
		t.Errorf("Probe of closed port: expected ErrConnectionRefused, got %v", err)
	}
	if st := tr.Status(); st.ActiveConnections != 0 {
		t.Errorf("Probe must not track connections, got %d", st.ActiveConnections)
	}
}

func TestStatusListsConnectionIDs(t *testing.T) {
	ln, port := startListener(t)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	tr := New(zap.NewNop(), time.Second)
	id1, err := tr.Connect(context.Background(), "127.0.0.1", port, time.Second)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	id2, err := tr.Connect(context.Background(), "127.0.0.1", port, time.Second)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	st := tr.Status()
	if st.ActiveConnections != 2 {
		t.Fatalf("expected 2 active connections, got %d", st.ActiveConnections)
	}
	found := map[string]bool{}
	for _, id := range st.ConnectionIDs {
		found[id] = true
	}
	for _, id := range []string{id1, id2} {
		if !found[id] {
			t.Errorf("Status missing connection id %s", id)
		}
	}

	tr.ResetAll()
}
