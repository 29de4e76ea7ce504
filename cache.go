package magic

import (
	"context"
	"encoding/binary"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache stores classification results for CachingDetector. A shared cache
// (Redis and the like) can be plugged in by implementing it. Implementations
// must be safe for concurrent use.
type Cache interface {
	// Get returns the value stored under key, if present and not expired
	Get(key string) (interface{}, bool)

	// Set stores value under key. A ttl of 0 keeps it until evicted.
	Set(key string, value interface{}, ttl time.Duration)

	Delete(key string)
	Clear()
}

// CacheStats is implemented by caches that count their traffic
type CacheStats interface {
	Stats() CacheStatistics
}

// CacheStatistics is a snapshot of cache counters
type CacheStatistics struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int64
	HitRate   float64
}

// DefaultCacheSize is the entry limit of a MemoryCache created with a
// non-positive size.
const DefaultCacheSize = 10000

type cacheEntry struct {
	value   interface{}
	expires time.Time // zero means no expiry
}

func (e cacheEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// MemoryCache is an in-process Cache holding at most a fixed number of
// entries. When full, the least recently used entry is evicted, so memory
// stays bounded however many distinct buffers are classified.
type MemoryCache struct {
	entries *lru.Cache[string, cacheEntry]

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewMemoryCache creates a cache holding up to size entries
func NewMemoryCache(size int) *MemoryCache {
	if size < 1 {
		size = DefaultCacheSize
	}
	// lru.New only fails for a non-positive size
	entries, _ := lru.New[string, cacheEntry](size)
	return &MemoryCache{entries: entries}
}

func (c *MemoryCache) Get(key string) (interface{}, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	if entry.expired(time.Now()) {
		c.entries.Remove(key)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return entry.value, true
}

func (c *MemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	entry := cacheEntry{value: value}
	if ttl > 0 {
		entry.expires = time.Now().Add(ttl)
	}
	if c.entries.Add(key, entry) {
		c.evictions.Add(1)
	}
}

func (c *MemoryCache) Delete(key string) {
	c.entries.Remove(key)
}

func (c *MemoryCache) Clear() {
	c.entries.Purge()
}

func (c *MemoryCache) Stats() CacheStatistics {
	hits, misses := c.hits.Load(), c.misses.Load()
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return CacheStatistics{
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
		Size:      int64(c.entries.Len()),
		HitRate:   hitRate,
	}
}

var (
	_ Cache      = (*MemoryCache)(nil)
	_ CacheStats = (*MemoryCache)(nil)
)

// CachingDetector memoizes Buffer results of a Pool. Identical bytes
// classified under the same flags and database are answered from the cache.
//
// Only buffers are cached: a path or descriptor may point at content that
// changes between calls. Errors are never cached.
//
// Example:
//
//	pool, _ := magic.NewPool(magic.WithFlags(magic.FlagMimeType))
//	det := magic.NewCachingDetector(pool, magic.NewMemoryCache(50000),
//	    magic.WithCacheTTL(10*time.Minute),
//	)
//	mime, ok, err := det.Buffer(ctx, upload)
type CachingDetector struct {
	pool  *Pool
	cache Cache
	opts  CacheOptions
}

// CacheOptions configures the CachingDetector behavior.
type CacheOptions struct {
	// TTL is the time-to-live for cache entries.
	// Default: 0 (no expiration)
	TTL time.Duration

	// KeyPrefix separates detectors sharing one cache.
	// Default: "magic:"
	KeyPrefix string
}

// CacheOption is a functional option for configuring CachingDetector.
type CacheOption func(*CacheOptions)

// WithCacheTTL sets the TTL for cache entries.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(o *CacheOptions) {
		o.TTL = ttl
	}
}

// WithCacheKeyPrefix sets the prefix for all cache keys.
func WithCacheKeyPrefix(prefix string) CacheOption {
	return func(o *CacheOptions) {
		o.KeyPrefix = prefix
	}
}

// cachedResult is what the detector stores; NoMatch is cached as ok=false.
type cachedResult struct {
	desc string
	ok   bool
}

// NewCachingDetector wraps pool with a result cache. A nil cache means a
// MemoryCache of DefaultCacheSize entries.
func NewCachingDetector(pool *Pool, cache Cache, options ...CacheOption) *CachingDetector {
	opts := CacheOptions{
		KeyPrefix: "magic:",
	}
	for _, opt := range options {
		opt(&opts)
	}
	if cache == nil {
		cache = NewMemoryCache(DefaultCacheSize)
	}

	return &CachingDetector{
		pool:  pool,
		cache: cache,
		opts:  opts,
	}
}

// Pool returns the underlying pool
func (d *CachingDetector) Pool() *Pool {
	return d.pool
}

// Buffer classifies data, consulting the cache first
func (d *CachingDetector) Buffer(ctx context.Context, data []byte) (string, bool, error) {
	key := d.key(data)

	if v, found := d.cache.Get(key); found {
		if r, ok := v.(cachedResult); ok {
			d.pool.metrics.observeCache(true)
			return r.desc, r.ok, nil
		}
	}
	d.pool.metrics.observeCache(false)

	desc, ok, err := d.pool.Buffer(ctx, data)
	if err != nil {
		return "", false, err
	}

	d.cache.Set(key, cachedResult{desc: desc, ok: ok}, d.opts.TTL)
	return desc, ok, nil
}

// Invalidate drops every cached result
func (d *CachingDetector) Invalidate() {
	d.cache.Clear()
}

// key hashes the pool generation, the active flags and the content.
func (d *CachingDetector) key(data []byte) string {
	var hdr [16]byte
	binary.LittleEndian.PutUint64(hdr[:8], d.pool.generation.Load())
	binary.LittleEndian.PutUint64(hdr[8:], uint64(d.pool.Flags()))

	h := xxhash.New()
	_, _ = h.Write(hdr[:])
	_, _ = h.Write(data)

	return d.opts.KeyPrefix + strconv.FormatUint(h.Sum64(), 16) + ":" + strconv.Itoa(len(data))
}
