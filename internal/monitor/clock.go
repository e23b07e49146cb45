package monitor

import (
	"context"
	"time"
)

// WallTicks emits the wall time once per interval until ctx is done. A slow
// consumer misses ticks rather than receiving a burst of stale ones.
func WallTicks(ctx context.Context, interval time.Duration) <-chan time.Time {
	ch := make(chan time.Time)
	go func() {
		defer close(ch)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				select {
				case ch <- now:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch
}
