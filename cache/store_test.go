// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

import (
	"errors"
	"strconv"
	"sync"
	"testing"
)

func TestStoreGetOrCreate(t *testing.T) {
	s := New[string, int](nil)
	createCalled := 0

	// First call should create
	val, err := s.GetOrCreate("key1", func() (int, error) {
		createCalled++
		return 100, nil
	})
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if val != 100 {
		t.Errorf("GetOrCreate() = %d, want 100", val)
	}

	// Second call should return cached
	val, _ = s.GetOrCreate("key1", func() (int, error) {
		createCalled++
		return 200, nil
	})
	if val != 100 {
		t.Errorf("GetOrCreate() = %d, want 100 (cached)", val)
	}
	if createCalled != 1 {
		t.Errorf("create called %d times, want 1", createCalled)
	}

	stats := s.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Stats() hits=%d misses=%d, want 1/1", stats.Hits, stats.Misses)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("Stats().HitRate = %v, want 0.5", stats.HitRate)
	}
}

func TestStoreGetOrCreateError(t *testing.T) {
	s := New[string, int](nil)
	errBoom := errors.New("boom")

	_, err := s.GetOrCreate("k", func() (int, error) { return 0, errBoom })
	if !errors.Is(err, errBoom) {
		t.Fatalf("GetOrCreate() error = %v, want %v", err, errBoom)
	}
	if s.Has("k") {
		t.Error("failed create must not store an entry")
	}
}

func TestStoreDeleteAndClearRelease(t *testing.T) {
	released := map[string]int{}
	s := New[string, int](func(k string, _ int) { released[k]++ })

	for i := 0; i < 5; i++ {
		k, v := strconv.Itoa(i), i
		_, _ = s.GetOrCreate(k, func() (int, error) { return v, nil })
	}

	if !s.Delete("0") {
		t.Error("Delete() = false for existing key")
	}
	if s.Delete("0") {
		t.Error("Delete() = true for missing key")
	}
	if v, ok := s.Take("1"); !ok || v != 1 {
		t.Errorf("Take() = %d, %v, want 1, true", v, ok)
	}

	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", s.Len())
	}

	want := map[string]int{"0": 1, "2": 1, "3": 1, "4": 1}
	for k, n := range want {
		if released[k] != n {
			t.Errorf("released[%q] = %d, want %d", k, released[k], n)
		}
	}
	if released["1"] != 0 {
		t.Error("Take must not release the value")
	}
}

func TestStoreNeverEvicts(t *testing.T) {
	s := New[int, int](nil)
	for i := 0; i < 10000; i++ {
		v := i
		_, _ = s.GetOrCreate(v, func() (int, error) { return v, nil })
	}
	if s.Len() != 10000 {
		t.Errorf("Len() = %d, want 10000", s.Len())
	}
}

func TestStoreConcurrentCreateOnce(t *testing.T) {
	s := New[string, int](nil)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.GetOrCreate("shared", func() (int, error) {
				mu.Lock()
				created++
				mu.Unlock()
				return 1, nil
			})
		}()
	}
	wg.Wait()
	if created != 1 {
		t.Errorf("create ran %d times, want 1", created)
	}
}

func TestStoreResetStats(t *testing.T) {
	s := New[string, int](nil)
	s.Get("missing")
	s.ResetStats()
	if st := s.Stats(); st.Misses != 0 || st.HitRate != 0 {
		t.Errorf("Stats() after reset = %+v", st)
	}
}

func TestStoreSetReplacesWithoutRelease(t *testing.T) {
	released := 0
	s := New[string, int](func(string, int) { released++ })
	s.Set("k", 1)
	s.Set("k", 2)
	if v, ok := s.Get("k"); !ok || v != 2 {
		t.Errorf("Get() = %d, %v, want 2, true", v, ok)
	}
	if released != 0 {
		t.Errorf("Set released %d values, want 0", released)
	}
	if st := s.Stats(); st.Hits != 1 || st.Misses != 0 {
		t.Errorf("Stats() = %+v, want Set to leave counters alone", st)
	}
}
