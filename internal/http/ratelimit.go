package http

import (
	"sync"
	"time"
)

const (
	rateLimitWindow   = time.Minute
	rateLimitRequests = 60

	rateLimitSweepEvery = 5 * time.Minute
	rateLimitStaleAfter = 10 * time.Minute
)

// rateLimiter caps write requests per client IP with a fixed window
// of rateLimitWindow. Read traffic is never throttled.
type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket

	done     chan struct{}
	stopOnce sync.Once
}

type rateBucket struct {
	windowStart time.Time
	seen        time.Time
	count       int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		buckets: make(map[string]*rateBucket),
		done:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b := rl.buckets[clientIP]
	if b == nil || now.Sub(b.windowStart) > rateLimitWindow {
		rl.buckets[clientIP] = &rateBucket{windowStart: now, seen: now, count: 1}
		return true
	}

	b.seen = now
	b.count++
	return b.count <= rateLimitRequests
}

// sweepLoop drops buckets for clients that went quiet, keeping the
// map bounded on long uptimes.
func (rl *rateLimiter) sweepLoop() {
	ticker := time.NewTicker(rateLimitSweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-rateLimitStaleAfter)
			rl.mu.Lock()
			for ip, b := range rl.buckets {
				if b.seen.Before(cutoff) {
					delete(rl.buckets, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}
