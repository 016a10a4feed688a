package interceptors

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zoobzio/aspect"
)

// CacheStats counts cache outcomes.
type CacheStats struct {
	Hits   int64
	Misses int64
	Errors int64 // Key, store or decode failures; the call proceeded uncached
}

// Cache memoizes member results in a Store, keyed by member and arguments.
//
// Members without a result, and members with ref or out parameters, are
// never cached. Context parameters are left out of the key. Failed calls
// are not stored. Concurrent misses on the same key share one call.
type Cache struct {
	store  Store
	codec  aspect.Codec
	hasher Hasher
	sealer Sealer
	ttl    time.Duration
	prefix string

	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL sets the lifetime of stored results. Zero keeps them until evicted.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

// WithHasher replaces the Blake2b key hasher.
func WithHasher(h Hasher) CacheOption {
	return func(c *Cache) { c.hasher = h }
}

// WithSealer encrypts entries before they reach the store.
func WithSealer(s Sealer) CacheOption {
	return func(c *Cache) { c.sealer = s }
}

// WithPrefix prepends prefix to every key.
func WithPrefix(prefix string) CacheOption {
	return func(c *Cache) { c.prefix = prefix }
}

// NewCache returns a Cache storing results encoded with codec.
func NewCache(store Store, codec aspect.Codec, opts ...CacheOption) *Cache {
	c := &Cache{
		store:  store,
		codec:  codec,
		hasher: Blake2bHasher(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CapturesArguments implements aspect.ArgumentCapturer.
func (c *Cache) CapturesArguments() bool { return true }

// Intercept implements aspect.Interceptor.
func (c *Cache) Intercept(inv *aspect.Invocation) error {
	m := inv.Method()
	if m.Result == nil || m.ByRef || !inv.Captured() {
		return inv.Proceed()
	}

	key, err := c.key(m, keyArguments(m, inv.Arguments()))
	if err != nil {
		c.errors.Add(1)
		return inv.Proceed()
	}

	ctx := inv.Context()
	if v, ok := c.load(ctx, m, key); ok {
		c.hits.Add(1)
		inv.SetReturnValue(v)
		return nil
	}
	c.misses.Add(1)

	v, err, _ := c.group.Do(key, func() (any, error) {
		if err := inv.Proceed(); err != nil {
			return nil, err
		}
		ret := inv.ReturnValue()
		c.save(ctx, key, ret)
		return ret, nil
	})
	if err != nil {
		return err
	}
	inv.SetReturnValue(v)
	return nil
}

// Invalidate removes the entry for member m called with args.
// Context arguments are omitted from args.
func (c *Cache) Invalidate(ctx context.Context, m *aspect.Member, args ...any) error {
	key, err := c.key(m, args)
	if err != nil {
		return err
	}
	return c.store.Delete(ctx, key)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Errors: c.errors.Load(),
	}
}

func (c *Cache) key(m *aspect.Member, args []any) (string, error) {
	data, err := c.codec.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("cache key for %s: %w", m, err)
	}
	return c.prefix + m.String() + ":" + c.hasher.Hash(data), nil
}

// load returns the decoded entry for key. Undecodable entries are deleted.
func (c *Cache) load(ctx context.Context, m *aspect.Member, key string) (any, bool) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.errors.Add(1)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	if c.sealer != nil {
		if data, err = c.sealer.Open(data); err != nil {
			c.discard(ctx, key)
			return nil, false
		}
	}

	ptr := reflect.New(m.Result)
	if err := c.codec.Unmarshal(data, ptr.Interface()); err != nil {
		c.discard(ctx, key)
		return nil, false
	}
	return ptr.Elem().Interface(), true
}

// save stores v under key. Failures only count; the caller keeps its result.
func (c *Cache) save(ctx context.Context, key string, v any) {
	data, err := c.codec.Marshal(v)
	if err == nil && c.sealer != nil {
		data, err = c.sealer.Seal(data)
	}
	if err == nil {
		err = c.store.Set(ctx, key, data, c.ttl)
	}
	if err != nil {
		c.errors.Add(1)
	}
}

func (c *Cache) discard(ctx context.Context, key string) {
	c.errors.Add(1)
	_ = c.store.Delete(ctx, key)
}

// keyArguments drops the context parameter from captured arguments.
func keyArguments(m *aspect.Member, args []any) []any {
	if m.Context < 0 {
		return args
	}
	out := make([]any, 0, len(args)-1)
	out = append(out, args[:m.Context]...)
	return append(out, args[m.Context+1:]...)
}
