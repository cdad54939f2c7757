package lang

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/zeebo/xxh3"
)

// Cache memoizes parsed scripts keyed by a hash of their source and parse
// options. ASTs are immutable, so one cached AST may be evaluated by many
// runtimes at once. A Cache is safe for concurrent use.
type Cache struct {
	entries sync.Map // uint64 -> *cacheEntry
	size    atomic.Int64
	limit   int64
}

// cacheEntry parses its source exactly once.
type cacheEntry struct {
	once   sync.Once
	source string
	ast    *AST
	err    error
}

// DefaultCacheLimit is the number of sources a [NewCache] cache holds.
const DefaultCacheLimit = 1024

// NewCache returns an empty cache holding up to [DefaultCacheLimit]
// sources.
func NewCache() *Cache { return NewCacheLimit(DefaultCacheLimit) }

// NewCacheLimit returns an empty cache holding up to limit sources. Adding
// a source to a full cache evicts another one. A limit of zero or less
// means no limit.
func NewCacheLimit(limit int) *Cache {
	return &Cache{limit: int64(limit)}
}

// Parse returns the cached AST for source, parsing it on first use. Parse
// errors are cached too.
func (c *Cache) Parse(ctx context.Context, source string, opts ...Option) (*AST, error) {
	cfg := makeConfig(opts...)
	key := xxh3.HashStringSeed(source, uint64(cfg.maxDepth))

	value, hit := c.entries.LoadOrStore(key, &cacheEntry{source: source})

	entry, ok := value.(*cacheEntry)
	if !ok || entry.source != source {
		// Hash collision with a different source: bypass the cache.
		return ParseString(ctx, source, opts...)
	}

	if !hit && c.size.Add(1) > c.limit && c.limit > 0 {
		c.evict(key)
	}

	cfg.logger.TraceContext(ctx, "cache lookup",
		slog.String("key", strconv.FormatUint(key, 16)),
		slog.Bool("cache_hit", hit))

	entry.once.Do(func() {
		entry.ast, entry.err = ParseString(ctx, source, opts...)
	})

	return entry.ast, entry.err
}

// evict removes one entry other than keep.
func (c *Cache) evict(keep uint64) {
	c.entries.Range(func(key, _ any) bool {
		if key == keep {
			return true
		}

		if _, ok := c.entries.LoadAndDelete(key); ok {
			c.size.Add(-1)
		}

		return false
	})
}

// Len returns the number of cached sources.
func (c *Cache) Len() int {
	n := 0

	c.entries.Range(func(any, any) bool {
		n++

		return true
	})

	return n
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.entries.Clear()
	c.size.Store(0)
}
