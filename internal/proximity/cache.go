package proximity

import (
	"slices"
	"sync"
	"time"
)

// DefaultTTL is the freshness window of a cached payload.
const DefaultTTL = time.Hour

// Entry is a cached ranked payload. Entries are replaced, never modified.
type Entry struct {
	Fingerprint string
	CreatedAt   time.Time
	Payload     []RankedResult
}

// Cache maps fingerprints to ranked payloads for the life of the process.
//
// Lookup serves an entry while it is younger than the TTL; Store replaces
// the entry wholesale with a fresh timestamp.
// Constraints: stale entries are not purged and stay until the same
// fingerprint is stored again. Concurrent misses for one fingerprint both
// compute and the last Store wins. Payloads are copied in and out.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]Entry
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{ttl: ttl, now: time.Now, entries: make(map[string]Entry)}
}

// SetClock replaces the time source. Used by tests.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Lookup returns the entry for fp if it is younger than the TTL.
func (c *Cache) Lookup(fp string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[fp]
	if !ok || c.now().Sub(e.CreatedAt) >= c.ttl {
		return Entry{}, false
	}
	e.Payload = slices.Clone(e.Payload)
	return e, true
}

// Store overwrites the entry for fp with a fresh timestamp.
func (c *Cache) Store(fp string, payload []RankedResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fp] = Entry{Fingerprint: fp, CreatedAt: c.now(), Payload: slices.Clone(payload)}
}

// Len counts entries, stale ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}
