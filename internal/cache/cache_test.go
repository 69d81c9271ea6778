// Coursebridge - Classroom Sync and Coursework Mirroring Backend
// Copyright 2026 Coursebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursebridge/coursebridge

package cache

import (
	"testing"
	"time"
)

func TestTTLCacheGetSet(t *testing.T) {
	c := NewTTLCache(time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("empty cache should miss")
	}

	c.Set("k", "v")
	got, ok := c.Get("k")
	if !ok || got.(string) != "v" {
		t.Errorf("expected hit with %q, got %v %v", "v", got, ok)
	}

	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("deleted key should miss")
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache(10 * time.Millisecond)
	c.Set("k", 1)

	if _, ok := c.Get("k"); !ok {
		t.Fatal("fresh entry should hit")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry should miss")
	}
	if c.Len() != 0 {
		t.Errorf("lazy deletion should have removed the entry, len=%d", c.Len())
	}
}

func TestTTLCachePurge(t *testing.T) {
	c := NewTTLCache(10 * time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)

	time.Sleep(20 * time.Millisecond)
	c.Set("c", 3)

	if dropped := c.Purge(); dropped != 2 {
		t.Errorf("expected 2 purged, got %d", dropped)
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("live entry should survive purge")
	}
}

func TestSlidingWindowCounter(t *testing.T) {
	sw := NewSlidingWindowCounter(time.Minute, 6)

	for i := 0; i < 5; i++ {
		sw.Increment(1)
	}
	if got := sw.Count(); got != 5 {
		t.Errorf("expected count 5, got %d", got)
	}
}

func TestSlidingWindowCounterExpiry(t *testing.T) {
	sw := NewSlidingWindowCounter(50*time.Millisecond, 5)
	sw.Increment(3)

	time.Sleep(70 * time.Millisecond)
	if got := sw.Count(); got != 0 {
		t.Errorf("window elapsed, expected 0, got %d", got)
	}
}

func TestSlidingWindowStore(t *testing.T) {
	s := NewSlidingWindowStore(time.Minute, 10, 0)

	s.Increment("owner-a")
	s.Increment("owner-a")
	s.Increment("owner-b")

	if got := s.Count("owner-a"); got != 2 {
		t.Errorf("owner-a count: expected 2, got %d", got)
	}
	if got := s.Count("owner-b"); got != 1 {
		t.Errorf("owner-b count: expected 1, got %d", got)
	}
	if got := s.Count("owner-c"); got != 0 {
		t.Errorf("unknown key should count 0, got %d", got)
	}

	s.Remove("owner-a")
	if got := s.Count("owner-a"); got != 0 {
		t.Errorf("removed key should count 0, got %d", got)
	}
}

func TestSlidingWindowStoreEviction(t *testing.T) {
	s := NewSlidingWindowStore(time.Minute, 10, 2)

	s.IncrementBy("hot", 5)
	s.IncrementBy("warm", 3)
	s.Increment("new")

	if s.Len() != 2 {
		t.Fatalf("expected 2 counters after eviction, got %d", s.Len())
	}
	if got := s.Count("hot"); got != 5 {
		t.Errorf("hottest key should survive eviction, got %d", got)
	}
}
