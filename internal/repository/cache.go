package repository

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"rentsearch/internal/filter"
	"rentsearch/internal/model"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/karlseguin/ccache/v3"
)

const generationKey = "rentsearch:gen"

// CacheOptions configures a CachedStore
type CacheOptions struct {
	MaxSize          int64
	TTL              time.Duration
	MemcachedServers []string
	MemcachedTTL     time.Duration
}

// CachedStore puts a two level read cache in front of a ListingStore. The
// local level is an in-process ccache, the optional shared level is
// memcached. Entries are keyed by a generation number so Invalidate drops
// every cached read at once, on all instances sharing the memcached pool.
type CachedStore struct {
	ListingStore
	local     *ccache.Cache[[]byte]
	remote    *memcache.Client
	ttl       time.Duration
	remoteTTL time.Duration
	gen       atomic.Uint64
}

// NewCachedStore wraps store with a read cache
func NewCachedStore(store ListingStore, opts CacheOptions) *CachedStore {
	if opts.MaxSize <= 0 {
		opts.MaxSize = 1000
	}
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Minute
	}
	c := &CachedStore{
		ListingStore: store,
		local:        ccache.New(ccache.Configure[[]byte]().MaxSize(opts.MaxSize)),
		ttl:          opts.TTL,
		remoteTTL:    opts.MemcachedTTL,
	}
	if len(opts.MemcachedServers) > 0 {
		c.remote = memcache.New(opts.MemcachedServers...)
		if c.remoteTTL <= 0 {
			c.remoteTTL = 5 * time.Minute
		}
		log.Printf("✅ Search cache using memcached at %v", opts.MemcachedServers)
	}
	return c
}

// Count caches ListingStore.Count
func (c *CachedStore) Count(ctx context.Context, preds []filter.Predicate) (int, error) {
	return cached(c, "count", preds, func() (int, error) {
		return c.ListingStore.Count(ctx, preds)
	})
}

// Find caches ListingStore.Find
func (c *CachedStore) Find(ctx context.Context, q *filter.Query) ([]model.Listing, error) {
	return cached(c, "find", q, func() ([]model.Listing, error) {
		return c.ListingStore.Find(ctx, q)
	})
}

// CountByType caches ListingStore.CountByType
func (c *CachedStore) CountByType(ctx context.Context, preds []filter.Predicate) ([]TypeCount, error) {
	return cached(c, "types", preds, func() ([]TypeCount, error) {
		return c.ListingStore.CountByType(ctx, preds)
	})
}

// ListAmenities caches ListingStore.ListAmenities
func (c *CachedStore) ListAmenities(ctx context.Context) ([]model.Amenity, error) {
	return cached(c, "amenities", nil, func() ([]model.Amenity, error) {
		return c.ListingStore.ListAmenities(ctx)
	})
}

// Suggest caches ListingStore.Suggest
func (c *CachedStore) Suggest(ctx context.Context, kind model.SuggestionKind, q string, limit int) ([]string, error) {
	key := []interface{}{kind, q, limit}
	return cached(c, "suggest", key, func() ([]string, error) {
		return c.ListingStore.Suggest(ctx, kind, q, limit)
	})
}

// Invalidate drops every cached read
func (c *CachedStore) Invalidate() {
	c.gen.Add(1)
	c.local.Clear()
	if c.remote == nil {
		return
	}
	if _, err := c.remote.Increment(generationKey, 1); err != nil {
		if err != memcache.ErrCacheMiss {
			log.Printf("⚠️  Failed to bump cache generation: %v", err)
			return
		}
		_ = c.remote.Add(&memcache.Item{Key: generationKey, Value: []byte("1")})
	}
}

// Close stops the cache and closes the wrapped store
func (c *CachedStore) Close() error {
	c.local.Stop()
	return c.ListingStore.Close()
}

// key derives a cache key from the operation, its arguments and the current
// generation. Memcached keys are limited to 250 bytes, hence the digest.
func (c *CachedStore) key(op string, args interface{}) (string, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(raw)
	return fmt.Sprintf("rentsearch:%s:%s:%s", c.generation(), op, hex.EncodeToString(sum[:])), nil
}

func (c *CachedStore) generation() string {
	local := strconv.FormatUint(c.gen.Load(), 10)
	if c.remote == nil {
		return local
	}
	item, err := c.remote.Get(generationKey)
	if err != nil {
		return local
	}
	return local + "." + string(item.Value)
}

func cached[T any](c *CachedStore, op string, args interface{}, load func() (T, error)) (T, error) {
	key, err := c.key(op, args)
	if err != nil {
		return load()
	}

	var value T
	if item := c.local.Get(key); item != nil && !item.Expired() {
		if json.Unmarshal(item.Value(), &value) == nil {
			return value, nil
		}
	}
	if c.remote != nil {
		if item, err := c.remote.Get(key); err == nil {
			if json.Unmarshal(item.Value, &value) == nil {
				c.local.Set(key, item.Value, c.ttl)
				return value, nil
			}
		} else if err != memcache.ErrCacheMiss {
			log.Printf("⚠️  Memcached get failed: %v", err)
		}
	}

	value, err = load()
	if err != nil {
		return value, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return value, nil
	}
	c.local.Set(key, data, c.ttl)
	if c.remote != nil {
		item := &memcache.Item{Key: key, Value: data, Expiration: int32(c.remoteTTL / time.Second)}
		if err := c.remote.Set(item); err != nil {
			log.Printf("⚠️  Memcached set failed: %v", err)
		}
	}
	return value, nil
}
