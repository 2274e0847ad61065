package http

import (
	"sync"
	"sync/atomic"
	"time"

	"caixinha/internal/cache"
)

const (
	defaultWritesPerMinute = 60
	maxTrackedClients      = 10000
)

// writeLimiter caps roster writes and chat submissions per client IP in
// fixed one-minute windows. Idle clients age out of the LRU.
type writeLimiter struct {
	mu      sync.Mutex
	limit   int
	windows *cache.LRUCache[*writeWindow]
	now     func() time.Time

	rejected atomic.Int64
}

type writeWindow struct {
	start time.Time
	count int
}

func newWriteLimiter(perMinute int) *writeLimiter {
	if perMinute <= 0 {
		perMinute = defaultWritesPerMinute
	}
	return &writeLimiter{
		limit:   perMinute,
		windows: cache.NewLRUCache[*writeWindow](maxTrackedClients, 2*time.Minute),
		now:     time.Now,
	}
}

// allow counts one write for clientIP and reports whether it fits the
// current window.
func (l *writeLimiter) allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	win, ok := l.windows.Get(clientIP)
	if !ok || now.Sub(win.start) >= time.Minute {
		win = &writeWindow{start: now}
	}
	win.count++
	l.windows.Set(clientIP, win)

	if win.count > l.limit {
		l.rejected.Add(1)
		return false
	}
	return true
}

// activeClients drops expired windows and returns how many remain.
func (l *writeLimiter) activeClients() int {
	l.windows.CleanExpired()
	return l.windows.Size()
}
