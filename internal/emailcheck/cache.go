package emailcheck

import (
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/newsreach/contact-discovery/internal/model"
)

// pruneThreshold bounds how large the cache grows before expired entries
// are swept on insert.
const pruneThreshold = 4096

type cacheEntry struct {
	result    model.EmailValidationResult
	expiresAt time.Time
}

// resultCache holds validation results under a stable hash of
// (email, options) for a fixed TTL. Hits are returned verbatim.
type resultCache struct {
	mu      sync.Mutex
	entries map[uint64]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		entries: make(map[uint64]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(email string, opts Options) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%s|strict=%t", email, opts.Strict))
}

func (c *resultCache) get(key uint64) (model.EmailValidationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return model.EmailValidationResult{}, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return model.EmailValidationResult{}, false
	}
	return copyResult(e.result), true
}

func (c *resultCache) put(key uint64, res model.EmailValidationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= pruneThreshold {
		now := c.now()
		for k, e := range c.entries {
			if !now.Before(e.expiresAt) {
				delete(c.entries, k)
			}
		}
	}
	c.entries[key] = cacheEntry{result: copyResult(res), expiresAt: c.now().Add(c.ttl)}
}

// copyResult deep-copies so callers cannot mutate cached state through the
// suggestions slice.
func copyResult(r model.EmailValidationResult) model.EmailValidationResult {
	out := r
	if r.Suggestions != nil {
		out.Suggestions = append([]string(nil), r.Suggestions...)
	}
	return out
}
