// Package session holds authenticated upstream sessions for a bounded time.
// The store is a best-effort cache: a missing or expired entry is never an
// error, it is the cue to authenticate again.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	notAfter time.Time
}

// Store maps opaque keys to values with a per-entry expiry. Put and Get are
// safe for concurrent use; overwriting an existing key replaces the entry
// wholesale (last writer wins).
type Store[K comparable, V any] struct {
	lock    sync.RWMutex
	entries map[K]entry[V]
	now     func() time.Time
}

func NewStore[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{
		entries: make(map[K]entry[V]),
		now:     time.Now,
	}
}

// Put inserts or overwrites the entry for key, valid for ttl from now.
func (s *Store[K, V]) Put(key K, value V, ttl time.Duration) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.entries[key] = entry[V]{value: value, notAfter: s.now().Add(ttl)}
}

// Get returns the value for key only if the entry exists and its remaining
// lifetime is strictly greater than margin. The margin lets callers demand
// that the session stays usable for some time after the lookup. Expired
// entries are indistinguishable from missing ones.
func (s *Store[K, V]) Get(key K, margin time.Duration) (V, time.Time, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	e, ok := s.entries[key]
	if !ok || !s.now().Add(margin).Before(e.notAfter) {
		var zero V
		return zero, time.Time{}, false
	}
	return e.value, e.notAfter, true
}

// Len reports the number of entries, expired ones included.
func (s *Store[K, V]) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.entries)
}

// Sweep drops every entry whose expiry has passed and reports how many were
// removed. Expiry is compared against the sweep start time, so an entry
// re-inserted while the sweep runs keeps its fresh expiry and survives.
func (s *Store[K, V]) Sweep() int {
	now := s.now()
	s.lock.Lock()
	defer s.lock.Unlock()
	removed := 0
	for k, e := range s.entries {
		if now.After(e.notAfter) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Run sweeps the store on the given interval until ctx is cancelled.
func (s *Store[K, V]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				slog.Debug("Evicted expired sessions", "count", removed)
			}
		}
	}
}
