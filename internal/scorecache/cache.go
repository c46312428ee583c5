// Package scorecache provides LRU caching of parsed scores keyed by file path.
package scorecache

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aylabs/musicore-playback/internal/score"
)

// DefaultCapacity is the default maximum number of cached scores.
// Parsed scores are small relative to the files they come from, so the
// cache is bounded by entry count rather than byte size.
const DefaultCapacity = 16

// LoadFunc parses a score file from disk.
type LoadFunc func(path string) (*score.Score, error)

// Cache is an LRU cache of parsed scores. Entries are keyed by file path
// and invalidated when the file's modification time or size changes, so
// repeated tool calls against an edited score never serve stale notes.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // Most recently used.
	tail    *entry // Least recently used.

	capacity int
	load     LoadFunc

	// Metrics (atomic for lock-free reads).
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// entry is a doubly-linked list node for LRU tracking.
type entry struct {
	path    string
	sc      *score.Score
	modTime time.Time
	size    int64
	prev    *entry
	next    *entry
}

// New creates a score cache with the given capacity, parsing files with
// score.Load. A non-positive capacity falls back to DefaultCapacity.
func New(capacity int) *Cache {
	return NewWithLoader(capacity, score.Load)
}

// NewWithLoader creates a score cache with a custom parse function.
func NewWithLoader(capacity int, load LoadFunc) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Cache{
		entries:  make(map[string]*entry),
		capacity: capacity,
		load:     load,
	}
}

// Load returns the parsed score for path, reading from the cache when the
// file is unchanged since it was cached. A changed file is re-parsed and
// the cached entry replaced. Parse failures are not cached.
// Loads are serialized; the MCP server issues one tool call at a time.
func (c *Cache) Load(path string) (*score.Score, error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		return nil, fmt.Errorf("stat score: %w", statErr)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[path]; ok {
		if ent.modTime.Equal(info.ModTime()) && ent.size == info.Size() {
			c.hits.Add(1)
			c.moveToFront(ent)

			return ent.sc, nil
		}

		// Stale entry; drop it before re-parsing.
		c.removeEntry(ent)
	}

	c.misses.Add(1)

	sc, loadErr := c.load(path)
	if loadErr != nil {
		return nil, loadErr
	}

	for len(c.entries) >= c.capacity && c.tail != nil {
		c.evictions.Add(1)
		c.removeEntry(c.tail)
	}

	ent := &entry{
		path:    path,
		sc:      sc,
		modTime: info.ModTime(),
		size:    info.Size(),
	}

	c.entries[path] = ent
	c.addToFront(ent)

	return sc, nil
}

// Invalidate removes the cached entry for path, if any.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[path]; ok {
		c.removeEntry(ent)
	}
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.head = nil
	c.tail = nil
}

// Len returns the number of cached scores.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Stats returns cache performance metrics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   len(c.entries),
		Capacity:  c.capacity,
	}
}

// Stats holds cache performance metrics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
	Capacity  int
}

// HitRate returns the cache hit rate (0.0 to 1.0).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}

	return float64(s.Hits) / float64(total)
}

// moveToFront moves an entry to the front of the LRU list (most recently used).
func (c *Cache) moveToFront(ent *entry) {
	if ent == c.head {
		return
	}

	c.removeFromList(ent)
	c.addToFront(ent)
}

// addToFront adds an entry to the front of the LRU list.
func (c *Cache) addToFront(ent *entry) {
	ent.prev = nil
	ent.next = c.head

	if c.head != nil {
		c.head.prev = ent
	}

	c.head = ent

	if c.tail == nil {
		c.tail = ent
	}
}

// removeFromList removes an entry from the LRU list.
func (c *Cache) removeFromList(ent *entry) {
	if ent.prev != nil {
		ent.prev.next = ent.next
	} else {
		c.head = ent.next
	}

	if ent.next != nil {
		ent.next.prev = ent.prev
	} else {
		c.tail = ent.prev
	}
}

// removeEntry unlinks an entry from both the list and the map.
func (c *Cache) removeEntry(ent *entry) {
	c.removeFromList(ent)
	delete(c.entries, ent.path)
}
