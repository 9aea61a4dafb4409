// cache.go - In-memory cache for project code lookups

package storage

import (
	"sync"
	"time"
)

const cacheTTL = 5 * time.Minute // cached code lookups expire after 5 minutes

// projectCache memoizes exact-code lookups. Codes are stable identifiers, so a
// short TTL keeps repeated analyses of the same project cheap without holding
// stale directory data for long. Only positive hits are cached so a newly
// created project is found immediately.
type projectCache struct {
	entries map[string]cacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
}

type cacheEntry struct {
	project  Project
	loadedAt time.Time
}

func newProjectCache(ttl time.Duration) *projectCache {
	return &projectCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// Get returns a cached project by code if present and still fresh.
func (c *projectCache) Get(code string) (*Project, bool) {
	c.mu.RLock()
	entry, exists := c.entries[code]
	c.mu.RUnlock()

	if !exists || time.Since(entry.loadedAt) >= c.ttl {
		return nil, false
	}

	project := entry.project
	return &project, true
}

// Put stores a positive lookup result.
func (c *projectCache) Put(code string, project *Project) {
	if project == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[code] = cacheEntry{project: *project, loadedAt: time.Now()}
}
