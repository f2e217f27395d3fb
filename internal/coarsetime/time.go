// Package coarsetime caches time.Now at a fixed 50ms tick so hot loops can
// check wall-clock deadlines without the syscall cost of a precise read.
package coarsetime

import (
	"sync/atomic"
	"time"
)

const resolution = 50 * time.Millisecond

var now atomic.Value

func init() {
	now.Store(time.Now())

	t := time.NewTicker(resolution)
	go func() {
		for range t.C {
			now.Store(time.Now())
		}
	}()
}

// Now returns the cached wall-clock time, at most 50ms stale.
func Now() time.Time {
	return now.Load().(time.Time)
}

// Since reports the time elapsed since t at the cached resolution.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}
