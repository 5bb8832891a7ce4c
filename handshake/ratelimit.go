package handshake

import (
	"sync"
	"time"
)

// RateLimiter enforces a minimum interval between successive events keyed
// by an arbitrary string (typically a peer identity or remote address).
// It backs min_handshake_interval and min_resolve_interval (§4.D, §7:
// "per (peer, remote-address) at most one handshake per
// min_handshake_interval").
type RateLimiter struct {
	interval time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

// NewRateLimiter builds a limiter enforcing at least interval between
// Allow calls that return true for the same key.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{interval: interval, last: make(map[string]time.Time)}
}

// Allow reports whether an event for key may proceed at now, and if so
// records now as the new last-event time. Calling it for a disallowed
// event does not reset the timer.
func (r *RateLimiter) Allow(key string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if last, ok := r.last[key]; ok && now.Sub(last) < r.interval {
		return false
	}
	r.last[key] = now
	return true
}

// Forget drops any recorded timestamp for key, e.g. on peer removal.
func (r *RateLimiter) Forget(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.last, key)
}

// VerifyCache memoizes on_verify hook results for verify_valid_time,
// rate-limited separately by min_verify_interval (§7: "results cached for
// verify_valid_time").
type VerifyCache struct {
	validFor time.Duration
	limiter  *RateLimiter

	mu      sync.Mutex
	entries map[string]verifyEntry
}

type verifyEntry struct {
	ok        bool
	expiresAt time.Time
}

// NewVerifyCache builds a cache whose entries live for validFor and whose
// underlying hook invocations are throttled to minInterval per key.
func NewVerifyCache(validFor, minInterval time.Duration) *VerifyCache {
	return &VerifyCache{
		validFor: validFor,
		limiter:  NewRateLimiter(minInterval),
		entries:  make(map[string]verifyEntry),
	}
}

// Lookup returns a cached verification result for key, if still valid.
func (c *VerifyCache) Lookup(key string, now time.Time) (ok, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, present := c.entries[key]
	if !present || now.After(e.expiresAt) {
		return false, false
	}
	return e.ok, true
}

// ShouldInvoke reports whether the on_verify hook may be called for key
// right now, honoring min_verify_interval. It does not itself populate
// the cache; call Store with the hook's result afterwards.
func (c *VerifyCache) ShouldInvoke(key string, now time.Time) bool {
	return c.limiter.Allow(key, now)
}

// Store records a fresh verification result for key.
func (c *VerifyCache) Store(key string, ok bool, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = verifyEntry{ok: ok, expiresAt: now.Add(c.validFor)}
}
