package counter

import (
	"context"
	"strings"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryStore is the in-process counter backend. It is the failover target
// when the shared store is unreachable and the default for single-node runs.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	blocks  map[string]time.Time
	now     func() time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*window),
		blocks:  make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryStore) Consume(_ context.Context, key string, cost, limit int, windowDur time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{count: 0, resetAt: now.Add(windowDur)}
		s.windows[key] = w
	}
	w.count += cost

	remaining := limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   w.count <= limit,
		Remaining: remaining,
		ResetAt:   w.resetAt,
	}, nil
}

func (s *MemoryStore) Peek(_ context.Context, key string, limit int, windowDur time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		return Result{Allowed: true, Remaining: limit, ResetAt: now.Add(windowDur)}, nil
	}
	remaining := limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: w.count < limit, Remaining: remaining, ResetAt: w.resetAt}, nil
}

func (s *MemoryStore) Block(_ context.Context, key string, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[key] = s.now().Add(d)
	return nil
}

func (s *MemoryStore) BlockedUntil(_ context.Context, key string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.blocks[key]
	if !ok {
		return time.Time{}, false, nil
	}
	if !s.now().Before(until) {
		delete(s.blocks, key)
		return time.Time{}, false, nil
	}
	return until, true, nil
}

func (s *MemoryStore) Reset(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.windows {
		if strings.HasPrefix(k, prefix) {
			delete(s.windows, k)
		}
	}
	for k := range s.blocks {
		if strings.HasPrefix(k, prefix) {
			delete(s.blocks, k)
		}
	}
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
