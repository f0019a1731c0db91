// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides the keyed store behind every gfxcore cache.
//
// Store[K, V] is an unbounded map with create-once semantics and hit/miss
// statistics. It never evicts: GPU objects such as pipelines must stay
// alive until their owner decides to release them, so removal only happens
// through Delete and Clear, which hand each value to a release callback.
//
//	pipelines := cache.New[string, hal.ComputePipeline](func(_ string, p hal.ComputePipeline) {
//	    device.DestroyComputePipeline(p)
//	})
//	p, err := pipelines.GetOrCreate(key, compile)
//
// Store is safe for concurrent use. It must not be copied after creation.
package cache

import (
	"sync"
	"sync/atomic"
)

// ReleaseFunc is called for every value removed by Delete or Clear.
type ReleaseFunc[K comparable, V any] func(key K, value V)

// Store is a thread-safe, unbounded keyed store with create-once lookups.
type Store[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
	release ReleaseFunc[K, V]

	// Statistics (atomic for lock-free reads)
	hits   atomic.Uint64
	misses atomic.Uint64
}

// Stats holds store statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Hits is the number of lookups that found an entry.
	Hits uint64
	// Misses is the number of lookups that did not.
	Misses uint64
	// HitRate is Hits / (Hits + Misses), 0 when there were no lookups.
	HitRate float64
}

// New creates an empty store. release may be nil.
func New[K comparable, V any](release ReleaseFunc[K, V]) *Store[K, V] {
	return &Store[K, V]{
		entries: make(map[K]V),
		release: release,
	}
}

// Get returns the value for key and whether it was present.
// Get counts towards hit/miss statistics.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	v, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
	return v, ok
}

// Has reports whether key is present without touching statistics.
func (s *Store[K, V]) Has(key K) bool {
	s.mu.RLock()
	_, ok := s.entries[key]
	s.mu.RUnlock()
	return ok
}

// GetOrCreate returns the value for key, calling create on a miss.
//
// create runs with the store locked, so concurrent callers for the same key
// never create twice. A create error is returned as-is and nothing is stored.
func (s *Store[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	// Fast path: read lock
	s.mu.RLock()
	v, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		s.hits.Add(1)
		return v, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if v, ok := s.entries[key]; ok {
		s.hits.Add(1)
		return v, nil
	}
	s.misses.Add(1)

	v, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	s.entries[key] = v
	return v, nil
}

// Set stores value under key. A previous value is replaced without being
// released; call Delete first when it owns resources.
func (s *Store[K, V]) Set(key K, value V) {
	s.mu.Lock()
	s.entries[key] = value
	s.mu.Unlock()
}

// Take removes key and returns its value without releasing it.
func (s *Store[K, V]) Take(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	return v, ok
}

// Delete removes and releases key. Returns true if the entry was present.
func (s *Store[K, V]) Delete(key K) bool {
	v, ok := s.Take(key)
	if ok && s.release != nil {
		s.release(key, v)
	}
	return ok
}

// Clear releases and removes every entry.
func (s *Store[K, V]) Clear() {
	s.mu.Lock()
	entries := s.entries
	s.entries = make(map[K]V)
	s.mu.Unlock()

	if s.release == nil {
		return
	}
	for k, v := range entries {
		s.release(k, v)
	}
}

// Len returns the number of entries.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns current statistics.
func (s *Store[K, V]) Stats() Stats {
	hits := s.hits.Load()
	misses := s.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return Stats{
		Len:     s.Len(),
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate,
	}
}

// ResetStats resets the hit and miss counters.
func (s *Store[K, V]) ResetStats() {
	s.hits.Store(0)
	s.misses.Store(0)
}
