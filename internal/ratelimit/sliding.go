// Package ratelimit provides the per-route sliding window limiter used on
// write endpoints.
package ratelimit

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultMaxKeys = 10000

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(key string) Decision
}

type window struct {
	timestamps []time.Time
}

// SlidingWindow allows at most limit hits per key within any trailing window.
// Keys idle for a full window are evicted, and the key set is bounded.
type SlidingWindow struct {
	limit  int
	window time.Duration
	now    func() time.Time

	maxKeys int

	mu   sync.Mutex
	keys *expirable.LRU[string, *window]
}

type Option func(*SlidingWindow)

func WithClock(now func() time.Time) Option {
	return func(s *SlidingWindow) { s.now = now }
}

func WithMaxKeys(n int) Option {
	return func(s *SlidingWindow) {
		if n > 0 {
			s.maxKeys = n
		}
	}
}

func NewSlidingWindow(limit int, per time.Duration, opts ...Option) *SlidingWindow {
	if limit <= 0 {
		limit = 1
	}
	if per <= 0 {
		per = time.Minute
	}

	s := &SlidingWindow{
		limit:   limit,
		window:  per,
		now:     time.Now,
		maxKeys: defaultMaxKeys,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.keys = expirable.NewLRU[string, *window](s.maxKeys, nil, per)
	return s
}

func (s *SlidingWindow) Allow(key string) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.keys.Get(key)
	if !ok {
		w = &window{}
	}

	cutoff := now.Add(-s.window)
	kept := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.timestamps = kept

	if len(w.timestamps) >= s.limit {
		s.keys.Add(key, w)
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: s.window - now.Sub(w.timestamps[0]),
		}
	}

	w.timestamps = append(w.timestamps, now)
	s.keys.Add(key, w)

	return Decision{
		Allowed:   true,
		Remaining: s.limit - len(w.timestamps),
	}
}

func (s *SlidingWindow) Limit() int {
	return s.limit
}
