package ingest

// Dedup cache bounds.
const (
	// dedupCapacity is the entry count past which eviction triggers.
	dedupCapacity = 1000

	// dedupEvictBatch is the number of oldest entries removed per
	// eviction. Batched so the amortised cost per insert stays bounded.
	dedupEvictBatch = 100
)

// dedupKey identifies one reading for duplicate suppression: the canonical
// point name plus its timestamp truncated to one-second resolution.
type dedupKey struct {
	name   string
	second string
}

// dedupCache is a bounded set of recently seen keys, insertion-ordered for
// eviction purposes.
//
// Not safe for concurrent use; the Pipeline serialises access.
type dedupCache struct {
	capacity   int
	evictBatch int
	seen       map[dedupKey]struct{}
	order      []dedupKey
}

func newDedupCache(capacity, evictBatch int) *dedupCache {
	return &dedupCache{
		capacity:   capacity,
		evictBatch: evictBatch,
		seen:       make(map[dedupKey]struct{}, capacity),
		order:      make([]dedupKey, 0, capacity),
	}
}

// Seen reports whether k is in the suppression window.
func (c *dedupCache) Seen(k dedupKey) bool {
	_, ok := c.seen[k]
	return ok
}

// Add inserts k and evicts the oldest batch when the cache grows past
// capacity. Adding a key already present is a no-op.
func (c *dedupCache) Add(k dedupKey) {
	if _, ok := c.seen[k]; ok {
		return
	}
	c.seen[k] = struct{}{}
	c.order = append(c.order, k)

	if len(c.seen) > c.capacity {
		c.evictOldest()
	}
}

// evictOldest removes the evictBatch earliest-inserted keys.
func (c *dedupCache) evictOldest() {
	n := c.evictBatch
	if n > len(c.order) {
		n = len(c.order)
	}
	for _, k := range c.order[:n] {
		delete(c.seen, k)
	}
	c.order = c.order[:copy(c.order, c.order[n:])]
}

// Len returns the number of keys currently in the window.
func (c *dedupCache) Len() int {
	return len(c.seen)
}
