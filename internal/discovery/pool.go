// internal/discovery/pool.go
package discovery

import (
	"context"
	"sync"
)

// forEachHost runs fn for every host using a bounded number of worker
// goroutines. Cancelling the context stops new hosts from being handed
// out, in-flight calls finish.
func forEachHost(ctx context.Context, workers int, hosts []string, fn func(host string)) {
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for host := range jobs {
				fn(host)
			}
		}()
	}

feed:
	for _, host := range hosts {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- host:
		}
	}
	close(jobs)
	wg.Wait()
}
