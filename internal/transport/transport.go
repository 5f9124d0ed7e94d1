// internal/transport/transport.go
package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConnState represents the lifecycle of a tracked connection
type ConnState string

const (
	StateConnecting ConnState = "CONNECTING"
	StateOpen       ConnState = "OPEN"
	StateSending    ConnState = "SENDING"
	StateClosing    ConnState = "CLOSING"
	StateClosed     ConnState = "CLOSED"
	StateFailed     ConnState = "FAILED"
)

// connection is one tracked raw TCP session to a printer
type connection struct {
	id             string
	conn           *net.TCPConn
	address        string
	state          ConnState
	openedAt       time.Time
	lastActivityAt time.Time
}

// Stats holds cumulative transport counters
type Stats struct {
	TotalConnects int64 `json:"total_connects"`
	TotalSends    int64 `json:"total_sends"`
	BytesWritten  int64 `json:"bytes_written"`
	ErrorCount    int64 `json:"error_count"`
}

// Status describes the currently tracked connections
type Status struct {
	ActiveConnections int      `json:"active_connections"`
	ConnectionIDs     []string `json:"connection_ids"`
}

// Transport manages raw TCP sessions to receipt printers. Every open
// connection is tracked by id so that stuck sessions can always be torn
// down through ResetAll.
type Transport struct {
	mutex       sync.Mutex
	conns       map[string]*connection
	logger      *zap.Logger
	sendTimeout time.Duration
	stats       Stats
}

// New creates a Transport
func New(logger *zap.Logger, sendTimeout time.Duration) *Transport {
	return &Transport{
		conns:       make(map[string]*connection),
		logger:      logger.With(zap.String("component", "transport")),
		sendTimeout: sendTimeout,
	}
}

// Connect opens a raw TCP session to ip:port and returns its connection id.
// A successful connect is the reachability signal: raw printing ports have
// no handshake. On any failure no tracked state or socket is left behind.
func (t *Transport) Connect(ctx context.Context, ip string, port int, timeout time.Duration) (string, error) {
	address := fmt.Sprintf("%s:%d", ip, port)

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		classified := classifyDialError(address, err)
		t.mutex.Lock()
		t.stats.ErrorCount++
		t.mutex.Unlock()
		t.logger.Warn("Printer connect failed",
			zap.String("address", address),
			zap.Error(classified),
		)
		return "", classified
	}

	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return "", fmt.Errorf("dial %s: unexpected connection type %T", address, conn)
	}

	// Socket options for thermal printers: discard on close instead of
	// lingering, flush each command immediately, no keep-alive probes that
	// confuse cheap controllers.
	if err := tcpConn.SetLinger(0); err != nil {
		tcpConn.Close()
		return "", fmt.Errorf("set linger on %s: %w", address, err)
	}
	if err := tcpConn.SetNoDelay(true); err != nil {
		tcpConn.Close()
		return "", fmt.Errorf("set nodelay on %s: %w", address, err)
	}
	if err := tcpConn.SetKeepAlive(false); err != nil {
		tcpConn.Close()
		return "", fmt.Errorf("disable keepalive on %s: %w", address, err)
	}

	now := time.Now()
	c := &connection{
		id:             uuid.New().String(),
		conn:           tcpConn,
		address:        address,
		state:          StateOpen,
		openedAt:       now,
		lastActivityAt: now,
	}

	t.mutex.Lock()
	t.conns[c.id] = c
	t.stats.TotalConnects++
	active := len(t.conns)
	t.mutex.Unlock()

	t.logger.Info("Printer connection opened",
		zap.String("connection_id", c.id),
		zap.String("address", address),
		zap.Int("active_connections", active),
	)
	return c.id, nil
}

// Send writes data to an open connection. A short or failed write tears the
// connection down and removes it from tracking, since a half written
// ESC/POS stream leaves the printer in an undefined state.
func (t *Transport) Send(ctx context.Context, connectionID string, data []byte) error {
	t.mutex.Lock()
	c, ok := t.conns[connectionID]
	if ok {
		c.state = StateSending
	}
	t.mutex.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrConnectionNotOpen, connectionID)
	}

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(deadline)
	} else if t.sendTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(t.sendTimeout))
	}

	n, err := c.conn.Write(data)
	if err != nil {
		t.remove(connectionID, StateFailed)
		c.conn.Close()
		t.logger.Error("Printer send failed",
			zap.String("connection_id", connectionID),
			zap.String("address", c.address),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %s: %v", ErrSendFailed, c.address, err)
	}
	if n != len(data) {
		t.remove(connectionID, StateFailed)
		c.conn.Close()
		return fmt.Errorf("%w: %s: wrote %d of %d bytes", ErrSendFailed, c.address, n, len(data))
	}

	t.mutex.Lock()
	c.state = StateOpen
	c.lastActivityAt = time.Now()
	t.stats.TotalSends++
	t.stats.BytesWritten += int64(len(data))
	t.mutex.Unlock()

	t.logger.Debug("Printer send completed",
		zap.String("connection_id", connectionID),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// Disconnect closes a connection and stops tracking it. Unknown ids are a
// no-op so callers can disconnect unconditionally on their error paths.
func (t *Transport) Disconnect(connectionID string) error {
	c := t.remove(connectionID, StateClosed)
	if c == nil {
		return nil
	}

	// Half-close first so the printer sees a clean end of stream before
	// the socket goes away.
	if err := c.conn.CloseWrite(); err != nil {
		t.logger.Debug("CloseWrite failed, closing anyway",
			zap.String("connection_id", connectionID),
			zap.Error(err),
		)
	}
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("close %s: %w", c.address, err)
	}

	t.logger.Info("Printer connection closed",
		zap.String("connection_id", connectionID),
		zap.String("address", c.address),
		zap.Duration("session", time.Since(c.openedAt)),
	)
	return nil
}

// ResetAll force-closes every tracked connection and reports how many were
// cleared. This is the recovery hammer for stuck print sessions.
func (t *Transport) ResetAll() int {
	t.mutex.Lock()
	cleared := make([]*connection, 0, len(t.conns))
	for _, c := range t.conns {
		c.state = StateClosing
		cleared = append(cleared, c)
	}
	t.conns = make(map[string]*connection)
	t.mutex.Unlock()

	for _, c := range cleared {
		c.conn.Close()
	}

	if len(cleared) > 0 {
		t.logger.Warn("Transport reset", zap.Int("connections_cleared", len(cleared)))
	}
	return len(cleared)
}

// Status returns the ids of all tracked connections
func (t *Transport) Status() Status {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	ids := make([]string, 0, len(t.conns))
	for id := range t.conns {
		ids = append(ids, id)
	}
	return Status{
		ActiveConnections: len(t.conns),
		ConnectionIDs:     ids,
	}
}

// GetStats returns cumulative counters
func (t *Transport) GetStats() Stats {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.stats
}

// Probe checks whether ip:port accepts a TCP connection. The socket is
// closed immediately, nothing is tracked.
func (t *Transport) Probe(ctx context.Context, ip string, port int, timeout time.Duration) error {
	address := fmt.Sprintf("%s:%d", ip, port)

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return classifyDialError(address, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetLinger(0)
	}
	conn.Close()
	return nil
}

// remove untracks a connection and returns it, or nil if unknown
func (t *Transport) remove(connectionID string, state ConnState) *connection {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	c, ok := t.conns[connectionID]
	if !ok {
		return nil
	}
	c.state = state
	delete(t.conns, connectionID)
	return c
}
