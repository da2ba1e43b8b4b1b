package greengarden

import (
	"sync"

	"greengarden/internal/service"
)

// IdentityCache holds the logged-in user once it has been fetched
// successfully. The first stored value is kept for the cache's lifetime.
type IdentityCache struct {
	mu sync.RWMutex
	id *service.Identity
}

// NewIdentityCache returns an empty cache.
func NewIdentityCache() *IdentityCache {
	return &IdentityCache{}
}

// Load returns the cached identity, if any.
func (c *IdentityCache) Load() (service.Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.id == nil {
		return service.Identity{}, false
	}
	return *c.id, true
}

// Store sets the identity unless one is already cached.
func (c *IdentityCache) Store(id service.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.id == nil {
		c.id = &id
	}
}
