package repository

import (
	"context"
	"sync"
	"time"
)

type memWindow struct {
	count     int64
	expiresAt time.Time
}

type memoryLimiterStore struct {
	mu        sync.Mutex
	windows   map[string]memWindow
	nextSweep time.Time
}

func NewMemoryLimiterStore() LimiterStore {
	return &memoryLimiterStore{
		windows: make(map[string]memWindow),
	}
}

func (s *memoryLimiterStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.sweep(now, window)

	w, ok := s.windows[key]
	if !ok || now.After(w.expiresAt) {
		w = memWindow{expiresAt: now.Add(window)}
	}
	w.count++
	s.windows[key] = w
	return w.count, nil
}

// sweep drops expired windows so one entry per client IP cannot
// accumulate forever. Runs at most once per window; callers hold the lock.
func (s *memoryLimiterStore) sweep(now time.Time, window time.Duration) {
	if now.Before(s.nextSweep) {
		return
	}
	for key, w := range s.windows {
		if now.After(w.expiresAt) {
			delete(s.windows, key)
		}
	}
	s.nextSweep = now.Add(window)
}
