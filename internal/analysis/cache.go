package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"pyfix/internal/config"
)

const defaultCacheEntries = 512

// resultCache memoizes analysis results keyed by a digest of the exact
// inputs: file content, package path, and resolved configuration. Entries
// are evicted oldest-first once the bound is reached.
type resultCache struct {
	mu      sync.Mutex
	entries map[string]Result
	order   []string
	limit   int
}

func newResultCache(limit int) *resultCache {
	if limit < 1 {
		limit = 1
	}
	return &resultCache{
		entries: make(map[string]Result, limit),
		limit:   limit,
	}
}

func (c *resultCache) get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result, ok := c.entries[key]
	return result, ok
}

func (c *resultCache) put(key string, result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; exists {
		c.entries[key] = result
		return
	}
	for len(c.entries) >= c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = result
	c.order = append(c.order, key)
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func requestDigest(req Request) string {
	hasher := sha256.New()
	hasher.Write(req.Content)
	hasher.Write([]byte{0})
	hasher.Write([]byte(req.PackagePath))
	hasher.Write([]byte{0})
	hasher.Write([]byte(configDigest(req.Config)))
	return hex.EncodeToString(hasher.Sum(nil))
}

func configDigest(cfg *config.Config) string {
	if cfg == nil {
		return "default"
	}
	// Marshal sorts map keys, so the digest is deterministic.
	payload, err := json.Marshal(cfg)
	if err != nil {
		return "unmarshalable"
	}
	digest := sha256.Sum256(payload)
	return hex.EncodeToString(digest[:])
}
