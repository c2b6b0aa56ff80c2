// Package ratelimit throttles contact-form submissions per client IP
// using a rolling-window count: at most cap submissions within the
// trailing window. The check and the commit are separate so that only
// accepted submissions count against the cap.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Limiter is the store abstraction behind the rolling-window limit.
// Allow reports whether a submission keyed by key may proceed; Record
// commits an accepted submission; Prune drops expired state.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Record(ctx context.Context, key string) error
	Prune(ctx context.Context) error
}

// HashKey derives the rate-limit key from a client IP. Raw addresses
// never reach the store.
func HashKey(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])[:16]
}

// MemoryLimiter is the single-process implementation: a mutex-guarded
// map of submission timestamps per key.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string][]time.Time
	window  time.Duration
	cap     int

	now func() time.Time // overridable in tests
}

// NewMemoryLimiter creates an in-memory limiter allowing cap
// submissions per key within the trailing window.
func NewMemoryLimiter(window time.Duration, cap int) *MemoryLimiter {
	return &MemoryLimiter{
		entries: make(map[string][]time.Time),
		window:  window,
		cap:     cap,
		now:     time.Now,
	}
}

// Allow prunes expired timestamps for key and reports whether the
// retained count is below the cap. It does not consume a slot.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.pruneKeyLocked(key)
	return len(kept) < l.cap, nil
}

// Record commits one accepted submission for key.
func (l *MemoryLimiter) Record(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[key] = append(l.pruneKeyLocked(key), l.now())
	return nil
}

// Prune drops every key whose submissions have all aged out.
func (l *MemoryLimiter) Prune(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key := range l.entries {
		if kept := l.pruneKeyLocked(key); len(kept) == 0 {
			delete(l.entries, key)
		}
	}
	return nil
}

// pruneKeyLocked retains only timestamps within the window and stores
// the result back. Caller must hold the mutex.
func (l *MemoryLimiter) pruneKeyLocked(key string) []time.Time {
	cutoff := l.now().Add(-l.window)
	var kept []time.Time
	for _, ts := range l.entries[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.entries, key)
	} else {
		l.entries[key] = kept
	}
	return kept
}
