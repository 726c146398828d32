package http

import (
	"fmt"
	"testing"
	"time"
)

func TestLRUCache_SetGet(t *testing.T) {
	cache := newLRUCache[string](10, time.Minute)

	cache.Set("a", "alpha")
	if v, ok := cache.Get("a"); !ok || v != "alpha" {
		t.Errorf("Get(a) = %q, %v", v, ok)
	}
	if _, ok := cache.Get("missing"); ok {
		t.Error("Get(missing) = hit, want miss")
	}
}

func TestLRUCache_TTLExpiry(t *testing.T) {
	cache := newLRUCache[int](10, 10*time.Millisecond)

	cache.Set("k", 1)
	time.Sleep(20 * time.Millisecond)
	if _, ok := cache.Get("k"); ok {
		t.Error("expired entry still returned")
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	cache := newLRUCache[int](3, time.Minute)

	for i := 0; i < 4; i++ {
		cache.Set(fmt.Sprintf("k%d", i), i)
	}

	// Oldest entry evicted, newest three remain.
	if _, ok := cache.Get("k0"); ok {
		t.Error("k0 not evicted at capacity")
	}
	for i := 1; i < 4; i++ {
		if _, ok := cache.Get(fmt.Sprintf("k%d", i)); !ok {
			t.Errorf("k%d missing after eviction", i)
		}
	}
}

func TestLRUCache_Purge(t *testing.T) {
	cache := newLRUCache[int](10, time.Minute)

	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Purge()

	if _, ok := cache.Get("a"); ok {
		t.Error("entry survived purge")
	}
	if _, ok := cache.Get("b"); ok {
		t.Error("entry survived purge")
	}
}

func TestLRUCache_CleanExpired(t *testing.T) {
	cache := newLRUCache[int](10, 10*time.Millisecond)

	cache.Set("a", 1)
	cache.Set("b", 2)
	time.Sleep(20 * time.Millisecond)

	if cleaned := cache.CleanExpired(); cleaned != 2 {
		t.Errorf("CleanExpired = %d, want 2", cleaned)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 60; i++ {
		if !rl.allow("1.2.3.4") {
			t.Fatalf("request %d denied under the limit", i+1)
		}
	}
	if rl.allow("1.2.3.4") {
		t.Error("request 61 allowed over the limit")
	}

	// A different client has its own budget.
	if !rl.allow("5.6.7.8") {
		t.Error("fresh client denied")
	}
}
