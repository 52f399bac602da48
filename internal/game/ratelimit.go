package game

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces per-connection, per-event sliding windows of one
// second. It never touches session state; callers reject the event and move
// on.
type RateLimiter struct {
	mu     sync.Mutex
	limits map[string]int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

// NewRateLimiter takes event name → max events per second. Events without an
// entry pass unchecked.
func NewRateLimiter(limits map[string]int) *RateLimiter {
	return &RateLimiter{
		limits: limits,
		window: time.Second,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records one occurrence of event on connID and reports whether it is
// within the limit. Exactly at the threshold still passes; the next one in
// the same window does not.
func (rl *RateLimiter) Allow(connID, event string) bool {
	limit, limited := rl.limits[event]
	if !limited || limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := connID + "|" + event
	now := rl.now()
	cutoff := now.Add(-rl.window)

	recent := rl.hits[key][:0]
	for _, t := range rl.hits[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	if len(recent) >= limit {
		rl.hits[key] = recent
		return false
	}
	rl.hits[key] = append(recent, now)
	return true
}

// Forget drops all windows for a connection, typically on disconnect.
func (rl *RateLimiter) Forget(connID string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key := range rl.hits {
		if len(key) > len(connID) && key[:len(connID)] == connID && key[len(connID)] == '|' {
			delete(rl.hits, key)
		}
	}
}

// Prune removes windows with no recent hits.
func (rl *RateLimiter) Prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-rl.window)
	for key, times := range rl.hits {
		live := false
		for _, t := range times {
			if t.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(rl.hits, key)
		}
	}
}

// Run prunes on the given interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.Prune()
		case <-ctx.Done():
			return
		}
	}
}
