package ratelimiter

import (
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// FixedWindowRateLimiter allows limit requests per key in each window. A
// key's window opens with its first request.
type FixedWindowRateLimiter struct {
	sync.Mutex
	clients   map[string]*window
	limit     int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewFixedWindowLimiter(limit int, w time.Duration) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		clients:   make(map[string]*window),
		limit:     limit,
		window:    w,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (rl *FixedWindowRateLimiter) Allow(key string) (bool, time.Duration) {
	rl.Lock()
	defer rl.Unlock()

	now := rl.now()
	rl.sweep(now)

	w, ok := rl.clients[key]
	if !ok || now.Sub(w.start) >= rl.window {
		w = &window{start: now}
		rl.clients[key] = w
	}

	if w.count >= rl.limit {
		return false, w.start.Add(rl.window).Sub(now)
	}
	w.count++
	return true, 0
}

// sweep drops expired windows at most once per window.
func (rl *FixedWindowRateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	for key, w := range rl.clients {
		if now.Sub(w.start) >= rl.window {
			delete(rl.clients, key)
		}
	}
	rl.lastSweep = now
}
