// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestLRU_BasicOperations(t *testing.T) {
	c := NewLRU[string, int](3, time.Minute, testclock.NewClock(epoch))

	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	for key, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		got, ok := c.Get(key)
		if !ok || got != want {
			t.Errorf("Get(%q) = %d, %v; want %d, true", key, got, ok, want)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string, int](3, time.Minute, testclock.NewClock(epoch))
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	c.Get("a")
	c.Add("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %q to be present", key)
		}
	}
}

func TestLRU_AddReplacesAndRefreshes(t *testing.T) {
	clk := testclock.NewClock(epoch)
	c := NewLRU[string, int](2, time.Minute, clk)

	c.Add("a", 1)
	clk.Advance(50 * time.Second)
	c.Add("a", 2)
	clk.Advance(50 * time.Second)

	got, ok := c.Get("a")
	if !ok || got != 2 {
		t.Fatalf("Get(a) = %d, %v; want 2, true", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestLRU_Expiry(t *testing.T) {
	clk := testclock.NewClock(epoch)
	c := NewLRU[string, int](4, time.Minute, clk)
	c.Add("a", 1)

	clk.Advance(time.Minute)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry expired at exactly its TTL")
	}

	clk.Advance(time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected entry to expire")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry was not dropped, Len() = %d", c.Len())
	}
}

func TestLRU_CleanupExpired(t *testing.T) {
	clk := testclock.NewClock(epoch)
	c := NewLRU[string, int](4, time.Minute, clk)
	c.Add("old1", 1)
	c.Add("old2", 2)
	clk.Advance(30 * time.Second)
	c.Add("new", 3)
	clk.Advance(45 * time.Second)

	if n := c.CleanupExpired(); n != 2 {
		t.Errorf("CleanupExpired() = %d, want 2", n)
	}
	if _, ok := c.Get("new"); !ok {
		t.Error("unexpired entry was removed")
	}
}

func TestLRU_Remove(t *testing.T) {
	c := NewLRU[int, string](0, 0, nil)
	c.Add(1, "one")

	if !c.Remove(1) {
		t.Error("Remove(1) = false, want true")
	}
	if c.Remove(1) {
		t.Error("second Remove(1) = true, want false")
	}
}

func TestLRU_Stats(t *testing.T) {
	c := NewLRU[string, int](2, time.Minute, testclock.NewClock(epoch))
	c.Add("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	hits, misses, size := c.Stats()
	if hits != 2 || misses != 1 || size != 1 {
		t.Errorf("Stats() = %d, %d, %d; want 2, 1, 1", hits, misses, size)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[string, int](64, time.Minute, nil)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := strconv.Itoa((g*200 + i) % 100)
				c.Add(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 64 {
		t.Errorf("Len() = %d exceeds capacity", c.Len())
	}
}
