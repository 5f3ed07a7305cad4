package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether a request identified by key may proceed within the
// current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Close()
}

type window struct {
	start time.Time
	count int
}

// MemoryLimiter is a process-local fixed-window counter. Counter state is
// lost on restart and not shared across instances. Stale entries are swept
// periodically so the key set stays bounded.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*window
	window  time.Duration
	max     int
	now     func() time.Time
	done    chan struct{}
	closed  sync.Once
}

// NewMemoryLimiter builds the limiter and starts the sweep loop.
func NewMemoryLimiter(windowDur time.Duration, max int, sweepInterval time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		buckets: make(map[string]*window),
		window:  windowDur,
		max:     max,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go l.sweepLoop(sweepInterval)
	return l
}

// Allow counts the request against the key's window. The window resets once
// more than the window duration has elapsed since its start.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.buckets[key]
	if !ok || now.Sub(entry.start) > l.window {
		entry = &window{start: now}
		l.buckets[key] = entry
	}
	entry.count++
	return entry.count <= l.max, nil
}

// Close stops the sweep loop.
func (l *MemoryLimiter) Close() {
	l.closed.Do(func() { close(l.done) })
}

func (l *MemoryLimiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *MemoryLimiter) sweep() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, entry := range l.buckets {
		if now.Sub(entry.start) > l.window {
			delete(l.buckets, key)
		}
	}
}
