// Package server implements a token bucket rate limiter for per-connection
// throttling that protects the coordinator from abusive clients.
package server

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type rateLimiter struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	tokens    float64
	capacity  float64
	rate      float64
	lastCheck time.Time
}

func newRateLimiter(capacity int, interval time.Duration, clock clockwork.Clock) *rateLimiter {
	if capacity <= 0 {
		capacity = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	rate := float64(capacity) / interval.Seconds()

	return &rateLimiter{
		clock:     clock,
		tokens:    float64(capacity),
		capacity:  float64(capacity),
		rate:      rate,
		lastCheck: clock.Now(),
	}
}

func (rl *rateLimiter) allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	elapsed := now.Sub(rl.lastCheck).Seconds()
	rl.lastCheck = now

	if elapsed > 0 {
		rl.tokens += elapsed * rl.rate
		if rl.tokens > rl.capacity {
			rl.tokens = rl.capacity
		}
	}

	if rl.tokens < 1 {
		return false
	}

	rl.tokens--
	return true
}
