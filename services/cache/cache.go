package cache

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ResponseCache is the seam the orchestrator talks through. The in-memory
// implementation below matches on normalized text; a semantic-similarity
// strategy can be swapped in behind the same interface.
type ResponseCache interface {
	// Get returns a cached response for query, if present and fresh
	Get(query string) (string, bool)

	// Put stores a response for query
	Put(query, content string)
}

// Config bounds the in-memory cache.
type Config struct {
	// TTL is how long an entry stays valid
	TTL time.Duration

	// MaxEntries caps the cache size; the oldest entry is evicted first
	MaxEntries int
}

// DefaultConfig returns the default cache bounds.
func DefaultConfig() Config {
	return Config{
		TTL:        time.Hour,
		MaxEntries: 1000,
	}
}

// CacheStats reports hit/miss counters.
type CacheStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

type cacheEntry struct {
	content  string
	storedAt time.Time
}

// MemoryCache is a mutex-guarded exact-match cache with TTL expiry.
type MemoryCache struct {
	config Config
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]cacheEntry
	hits    int64
	misses  int64

	now func() time.Time
}

// NewMemoryCache creates an in-memory response cache.
func NewMemoryCache(config Config, logger *zap.Logger) *MemoryCache {
	if config.TTL <= 0 {
		config.TTL = DefaultConfig().TTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultConfig().MaxEntries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryCache{
		config:  config,
		logger:  logger,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached response for query when present and fresh.
func (c *MemoryCache) Get(query string) (string, bool) {
	key := normalize(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return "", false
	}
	if c.now().Sub(entry.storedAt) > c.config.TTL {
		delete(c.entries, key)
		c.misses++
		return "", false
	}

	c.hits++
	return entry.content, true
}

// Put stores a response, evicting the oldest entry when full.
func (c *MemoryCache) Put(query, content string) {
	key := normalize(query)
	if key == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.config.MaxEntries {
		c.evictOldest()
	}
	c.entries[key] = cacheEntry{
		content:  content,
		storedAt: c.now(),
	}
}

// Stats returns hit/miss counters and the current size.
func (c *MemoryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Hits:    c.hits,
		Misses:  c.misses,
		Entries: len(c.entries),
	}
}

// evictOldest removes the stalest entry. Caller must hold c.mu.
func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
