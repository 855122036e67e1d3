package ingest

import (
	"fmt"
	"testing"
)

func TestDedupCacheSeen(t *testing.T) {
	c := newDedupCache(dedupCapacity, dedupEvictBatch)
	k := dedupKey{name: "siteA.ahu1.supplyTemp", second: "2026-08-31T10:15:00"}

	if c.Seen(k) {
		t.Error("Seen() = true for key never added")
	}

	c.Add(k)
	if !c.Seen(k) {
		t.Error("Seen() = false after Add")
	}

	// Same name, different second is a distinct key.
	k2 := dedupKey{name: k.name, second: "2026-08-31T10:15:01"}
	if c.Seen(k2) {
		t.Error("Seen() = true for different second")
	}
}

func TestDedupCacheAddIdempotent(t *testing.T) {
	c := newDedupCache(dedupCapacity, dedupEvictBatch)
	k := dedupKey{name: "point", second: "2026-08-31T10:15:00"}

	c.Add(k)
	c.Add(k)
	c.Add(k)

	if got := c.Len(); got != 1 {
		t.Errorf("Len() = %d after re-adding same key, want 1", got)
	}
	if got := len(c.order); got != 1 {
		t.Errorf("order length = %d after re-adding same key, want 1", got)
	}
}

func TestDedupCacheEviction(t *testing.T) {
	c := newDedupCache(dedupCapacity, dedupEvictBatch)

	keys := make([]dedupKey, dedupCapacity+1)
	for i := range keys {
		keys[i] = dedupKey{name: fmt.Sprintf("point-%d", i), second: "2026-08-31T10:15:00"}
	}

	// Fill exactly to capacity: no eviction yet.
	for _, k := range keys[:dedupCapacity] {
		c.Add(k)
	}
	if got := c.Len(); got != dedupCapacity {
		t.Fatalf("Len() = %d at capacity, want %d", got, dedupCapacity)
	}

	// One more tips it over and removes the oldest batch.
	c.Add(keys[dedupCapacity])
	want := dedupCapacity + 1 - dedupEvictBatch
	if got := c.Len(); got != want {
		t.Fatalf("Len() = %d after eviction, want %d", got, want)
	}

	// The first evictBatch keys are gone, everything after survives.
	for _, k := range keys[:dedupEvictBatch] {
		if c.Seen(k) {
			t.Errorf("Seen(%v) = true, want evicted", k)
		}
	}
	for _, k := range keys[dedupEvictBatch:] {
		if !c.Seen(k) {
			t.Errorf("Seen(%v) = false, want retained", k)
		}
	}
}

func TestDedupCacheBounded(t *testing.T) {
	c := newDedupCache(dedupCapacity, dedupEvictBatch)

	for i := 0; i < dedupCapacity*5; i++ {
		c.Add(dedupKey{name: fmt.Sprintf("point-%d", i), second: "2026-08-31T10:15:00"})
		if got := c.Len(); got > dedupCapacity {
			t.Fatalf("Len() = %d after %d inserts, want <= %d", got, i+1, dedupCapacity)
		}
	}

	if got, want := c.Len(), len(c.order); got != want {
		t.Errorf("Len() = %d but order holds %d keys", got, want)
	}
}

func TestDedupCacheEvictionReleasesKeys(t *testing.T) {
	c := newDedupCache(dedupCapacity, dedupEvictBatch)

	old := dedupKey{name: "stale-point", second: "2026-08-31T09:00:00"}
	c.Add(old)
	for i := 0; i < dedupCapacity; i++ {
		c.Add(dedupKey{name: fmt.Sprintf("point-%d", i), second: "2026-08-31T10:15:00"})
	}

	if c.Seen(old) {
		t.Fatal("oldest key still present after eviction")
	}

	// An evicted key can be re-admitted.
	c.Add(old)
	if !c.Seen(old) {
		t.Error("Seen() = false after re-adding evicted key")
	}
}
