package application

import (
	"sync"

	explain "medibill-ai/internal/explain/domain"
)

// Cache holds successful explanations for one session. Entries for
// different keys are independent.
type Cache struct {
	mu      sync.RWMutex
	entries map[explain.Key]explain.Explanation
}

// NewCache constructs an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[explain.Key]explain.Explanation)}
}

// Get returns the cached explanation for key.
func (c *Cache) Get(key explain.Key) (explain.Explanation, bool) {
	if c == nil {
		return explain.Explanation{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[key]
	return value, ok
}

// Put stores an explanation under its own key.
func (c *Cache) Put(value explain.Explanation) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[explain.Key]explain.Explanation)
	}
	c.entries[value.Key()] = value
}

// Len returns the number of cached explanations.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
