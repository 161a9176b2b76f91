package compliance

import (
	"sync"
	"time"
)

const defaultCacheTTL = 5 * time.Minute

// ResultCache holds the latest check result per document with a fixed TTL.
// Entries expire on read and are replaced whenever a pass completes, so the
// cache never outlives the persisted state it mirrors.
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	result    CheckResult
	expiresAt time.Time
}

// NewResultCache constructs a ResultCache with the given TTL.
func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &ResultCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached result for a document, dropping expired entries.
func (c *ResultCache) Get(documentID string) (CheckResult, bool) {
	if c == nil {
		return CheckResult{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[documentID]
	if !ok {
		return CheckResult{}, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, documentID)
		return CheckResult{}, false
	}
	return entry.result, true
}

// Set stores the latest result for a document.
func (c *ResultCache) Set(documentID string, result CheckResult) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[documentID] = cacheEntry{
		result:    result,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Invalidate removes a document's cached result.
func (c *ResultCache) Invalidate(documentID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, documentID)
}
