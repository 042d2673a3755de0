// Package ratelimit throttles requests with fixed windows, either in Redis so
// that several API processes share the count, or in process memory.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Limiter interface {
	// Allow records one hit for key and reports whether it is within limit for
	// the current window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) bool
}

// MemoryLimiter counts hits per key inside the current process.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	count     int
	windowEnd time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	if key == "" || limit <= 0 || window <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || !now.Before(b.windowEnd) {
		l.buckets[key] = &bucket{count: 1, windowEnd: now.Add(window)}
		l.sweep(now)
		return true
	}
	if b.count >= limit {
		return false
	}
	b.count++
	return true
}

// sweep drops expired buckets so that one-off clients do not pile up.
func (l *MemoryLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if !now.Before(b.windowEnd) {
			delete(l.buckets, key)
		}
	}
}
