package websocket

import (
	"sync"
	"time"
)

// RateLimiter caps inbound events per connection with a fixed one-minute
// window. State for a connection is reclaimed by Cleanup after inactivity.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	clients map[string]*clientLimit
}

type clientLimit struct {
	eventCount  int
	windowStart time.Time
}

// NewRateLimiter creates a rate limiter allowing limit events per minute per
// connection.
func NewRateLimiter(limit int) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		clients: make(map[string]*clientLimit),
	}
}

// Allow reports whether a connection may send another event.
func (rl *RateLimiter) Allow(connectionID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	limit, exists := rl.clients[connectionID]
	if !exists {
		rl.clients[connectionID] = &clientLimit{eventCount: 1, windowStart: now}
		return true
	}

	if now.Sub(limit.windowStart) >= time.Minute {
		limit.eventCount = 1
		limit.windowStart = now
		return true
	}

	if limit.eventCount >= rl.limit {
		return false
	}

	limit.eventCount++
	return true
}

// Forget drops tracking state for a closed connection.
func (rl *RateLimiter) Forget(connectionID string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.clients, connectionID)
}

// Cleanup removes entries idle for more than five windows. Call
// periodically to bound memory.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for connectionID, limit := range rl.clients {
		if now.Sub(limit.windowStart) > 5*time.Minute {
			delete(rl.clients, connectionID)
		}
	}
}
