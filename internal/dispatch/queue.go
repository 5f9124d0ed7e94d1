// internal/dispatch/queue.go
package dispatch

import (
	"context"
	"sync"
)

// SerialQueue runs submitted jobs one at a time in submission order. Print
// traffic must never interleave: cheap printer controllers handle exactly
// one TCP session, a second connect mid-job wedges them until power cycle.
type SerialQueue struct {
	jobs chan func()
	wg   sync.WaitGroup
	once sync.Once
}

// NewSerialQueue creates a queue with the given submission buffer
func NewSerialQueue(buffer int) *SerialQueue {
	q := &SerialQueue{jobs: make(chan func(), buffer)}
	q.wg.Add(1)
	go q.run()
	return q
}

func (q *SerialQueue) run() {
	defer q.wg.Done()
	for job := range q.jobs {
		job()
	}
}

// Do submits fn and waits for it to finish. If the context expires before
// the job was accepted the job never runs. Once accepted the job owns its
// data until it returns, so the wait is unconditional; cancellation is the
// job's concern, not the queue's.
func (q *SerialQueue) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}

	select {
	case q.jobs <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	}

	<-done
	return nil
}

// Close stops accepting jobs and waits for the worker to drain
func (q *SerialQueue) Close() {
	q.once.Do(func() { close(q.jobs) })
	q.wg.Wait()
}
