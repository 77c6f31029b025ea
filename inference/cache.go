package inference

import "sync"

// Cache holds the most recent result. It keeps no history.
type Cache struct {
	mu     sync.RWMutex
	latest *Result
}

func NewCache() *Cache {
	return &Cache{}
}

// Store overwrites the slot.
func (c *Cache) Store(r Result) {
	c.mu.Lock()
	c.latest = &r
	c.mu.Unlock()
}

// Latest returns the slot contents; ok is false before the first Store.
func (c *Cache) Latest() (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.latest == nil {
		return Result{}, false
	}
	return *c.latest, true
}
