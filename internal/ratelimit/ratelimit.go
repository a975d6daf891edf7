package ratelimit

import (
	"sync"
	"time"
)

// Limiter caps login attempts per caller. Implementations must count the
// attempt atomically with the check so concurrent bursts cannot slip past the
// budget.
type Limiter interface {
	Allow(key string) bool
}

// SlidingWindow keeps per-key attempt timestamps and admits at most limit
// attempts within the trailing window. Attempts are recorded whether or not
// the login later succeeds. Keys whose attempts have all aged out are evicted
// once per window, so the map stays bounded by recently active callers.
type SlidingWindow struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	hits      map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:     limit,
		window:    window,
		hits:      make(map[string][]time.Time),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (s *SlidingWindow) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cut := now.Add(-s.window)
	s.evictStale(cut, now)

	kept := s.hits[key][:0]
	for _, ts := range s.hits[key] {
		if ts.After(cut) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= s.limit {
		s.hits[key] = kept
		return false
	}

	s.hits[key] = append(kept, now)
	return true
}

// evictStale drops keys with no attempt inside the window. Runs at most once
// per window so a burst of distinct callers does not pay a full-map scan on
// every attempt.
func (s *SlidingWindow) evictStale(cut, now time.Time) {
	if now.Sub(s.lastSweep) < s.window {
		return
	}
	s.lastSweep = now

	for k, stamps := range s.hits {
		live := false
		for _, ts := range stamps {
			if ts.After(cut) {
				live = true
				break
			}
		}
		if !live {
			delete(s.hits, k)
		}
	}
}
