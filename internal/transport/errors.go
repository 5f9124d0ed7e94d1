// internal/transport/errors.go
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Sentinel errors returned by the transport. Callers branch on these to
// decide whether a host is absent, slow, or present but not a printer.
var (
	ErrConnectTimeout    = errors.New("connect timeout")
	ErrConnectionRefused = errors.New("connection refused")
	ErrHostUnreachable   = errors.New("host unreachable")
	ErrConnectionNotOpen = errors.New("connection not open")
	ErrSendFailed        = errors.New("send failed")
)

// classifyDialError maps raw dial failures onto the sentinel errors while
// keeping the underlying cause in the chain.
func classifyDialError(address string, err error) error {
	if err == nil {
		return nil
	}

	var sentinel error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		sentinel = ErrConnectTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		sentinel = ErrConnectionRefused
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH):
		sentinel = ErrHostUnreachable
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			sentinel = ErrConnectTimeout
		}
	}

	if sentinel != nil {
		return fmt.Errorf("%w: %s: %v", sentinel, address, err)
	}
	return fmt.Errorf("dial %s: %w", address, err)
}
