// internal/orders/retry.go
package orders

import "time"

// Policy computes poll intervals under failure: exponential backoff from
// BaseDelay doubling per consecutive failure, capped at MaxDelay. After
// MaxRetries consecutive failures polling drops to LongInterval so a dead
// upstream is still re-checked occasionally instead of hammered.
type Policy struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	MaxRetries   int
	LongInterval time.Duration

	failures int
}

// NextDelay returns the wait before the next attempt given the current
// consecutive failure count.
func (p *Policy) NextDelay() time.Duration {
	if p.failures == 0 {
		return 0
	}
	if p.MaxRetries > 0 && p.failures > p.MaxRetries {
		return p.LongInterval
	}

	delay := p.BaseDelay
	for i := 1; i < p.failures; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Failure records a failed attempt
func (p *Policy) Failure() {
	p.failures++
}

// Success resets the failure streak
func (p *Policy) Success() {
	p.failures = 0
}

// Failures returns the current consecutive failure count
func (p *Policy) Failures() int {
	return p.failures
}

// Exhausted reports whether the retry budget is spent and the policy has
// fallen back to the long interval.
func (p *Policy) Exhausted() bool {
	return p.MaxRetries > 0 && p.failures > p.MaxRetries
}
