package preload

import (
	"container/list"
	"sync"
	"time"

	"github.com/wayfind-dev/wayfind/pkg/route"
)

// Config holds configuration for speculative preloading (hover/intent
// prefetch feeding the cache below).
type Config struct {
	// TTL is how long a cached preload result is valid.
	// Default: 30 seconds.
	TTL time.Duration

	// MaxEntries is the maximum number of cached paths.
	// Uses LRU eviction when exceeded. Default: 10.
	MaxEntries int

	// RateLimit is the maximum speculative preloads per second.
	// Excess requests are silently dropped. Default: 5.
	RateLimit float64

	// Concurrency is the maximum simultaneous speculative preloads.
	// Default: 2.
	Concurrency int
}

// DefaultConfig returns the default speculative preload configuration.
func DefaultConfig() *Config {
	return &Config{
		TTL:         30 * time.Second,
		MaxEntries:  10,
		RateLimit:   5.0,
		Concurrency: 2,
	}
}

// CacheEntry holds the preload states computed for one path.
type CacheEntry struct {
	// States maps route ids of the path's hierarchy to completed states.
	States map[route.ID]*State

	// CreatedAt is when this entry was created.
	CreatedAt time.Time

	// ExpiresAt is when this entry expires.
	ExpiresAt time.Time
}

// IsExpired returns true if the entry has expired.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// Cache is an LRU cache of speculative preload results, keyed by
// canonical path. A navigation that hits a fresh entry can seed its
// route states instead of re-running resolvers.
type Cache struct {
	mu      sync.Mutex
	config  *Config
	entries map[string]*list.Element
	order   *list.List // LRU order (front = most recent)
}

// cacheItem holds an entry in the LRU list.
type cacheItem struct {
	key   string
	entry *CacheEntry
}

// NewCache creates a preload cache.
func NewCache(config *Config) *Cache {
	if config == nil {
		config = DefaultConfig()
	}
	return &Cache{
		config:  config,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get retrieves a cached result. Returns nil if not found or expired.
func (c *Cache) Get(path string) *CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[path]
	if !ok {
		return nil
	}

	item := elem.Value.(*cacheItem)
	if item.entry.IsExpired() {
		c.order.Remove(elem)
		delete(c.entries, path)
		return nil
	}

	c.order.MoveToFront(elem)
	return item.entry
}

// Set stores a preload result. If the cache is full, the least recently
// used entry is evicted.
func (c *Cache) Set(path string, states map[route.ID]*State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	entry := &CacheEntry{
		States:    states,
		CreatedAt: now,
		ExpiresAt: now.Add(c.config.TTL),
	}

	if elem, ok := c.entries[path]; ok {
		elem.Value.(*cacheItem).entry = entry
		c.order.MoveToFront(elem)
		return
	}

	for c.order.Len() >= c.config.MaxEntries {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		item := oldest.Value.(*cacheItem)
		c.order.Remove(oldest)
		delete(c.entries, item.key)
	}

	elem := c.order.PushFront(&cacheItem{key: path, entry: entry})
	c.entries[path] = elem
}

// Delete removes a cached entry.
func (c *Cache) Delete(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[path]; ok {
		c.order.Remove(elem)
		delete(c.entries, path)
	}
}

// Clear removes all cached entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order = list.New()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
