// internal/orders/retry_test.go
package orders

import (
	"testing"
	"time"
)

func TestPolicyBackoffDoubles(t *testing.T) {
	p := &Policy{
		BaseDelay:    2 * time.Second,
		MaxDelay:     60 * time.Second,
		MaxRetries:   10,
		LongInterval: 5 * time.Minute,
	}

	if d := p.NextDelay(); d != 0 {
		t.Errorf("healthy policy should not delay, got %v", d)
	}

	want := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
		60 * time.Second, // capped
		60 * time.Second,
	}
	for i, w := range want {
		p.Failure()
		if d := p.NextDelay(); d != w {
			t.Errorf("after %d failures NextDelay = %v, want %v", i+1, d, w)
		}
	}
}

func TestPolicyLongIntervalFallback(t *testing.T) {
	p := &Policy{
		BaseDelay:    time.Second,
		MaxDelay:     8 * time.Second,
		MaxRetries:   3,
		LongInterval: 5 * time.Minute,
	}

	for i := 0; i < 3; i++ {
		p.Failure()
	}
	if p.Exhausted() {
		t.Error("policy should not be exhausted at exactly MaxRetries failures")
	}

	p.Failure()
	if !p.Exhausted() {
		t.Error("policy should be exhausted past MaxRetries failures")
	}
	if d := p.NextDelay(); d != 5*time.Minute {
		t.Errorf("exhausted policy NextDelay = %v, want the long interval", d)
	}
}

func TestPolicySuccessResets(t *testing.T) {
	p := &Policy{
		BaseDelay:    time.Second,
		MaxDelay:     8 * time.Second,
		MaxRetries:   3,
		LongInterval: time.Minute,
	}

	for i := 0; i < 5; i++ {
		p.Failure()
	}
	p.Success()

	if p.Failures() != 0 {
		t.Errorf("Failures = %d after success, want 0", p.Failures())
	}
	if d := p.NextDelay(); d != 0 {
		t.Errorf("NextDelay = %v after success, want 0", d)
	}
	if p.Exhausted() {
		t.Error("policy must recover after a success")
	}
}
