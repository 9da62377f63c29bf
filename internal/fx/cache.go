package fx

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a cached quote is reused.
const DefaultTTL = 12 * time.Hour

type cachedQuote struct {
	quote   Quote
	expires time.Time
}

// Cache wraps a RateSource with a per-pair TTL cache. Concurrent misses
// for the same pair share one upstream call.
type Cache struct {
	inner RateSource
	ttl   time.Duration
	now   func() time.Time

	group  singleflight.Group
	mu     sync.RWMutex
	quotes map[string]cachedQuote
}

// NewCache creates a Cache. ttl <= 0 means DefaultTTL.
func NewCache(inner RateSource, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{inner: inner, ttl: ttl, now: time.Now, quotes: make(map[string]cachedQuote)}
}

// Quote returns a cached quote or fetches a fresh one. The upstream call
// is detached from the caller's cancellation so one impatient caller
// cannot fail the others waiting on it.
func (c *Cache) Quote(ctx context.Context, from, to string) (Quote, error) {
	key := normalize(from) + "->" + normalize(to)

	c.mu.RLock()
	entry, ok := c.quotes[key]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expires) {
		return entry.quote, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		q, err := c.inner.Quote(context.WithoutCancel(ctx), from, to)
		if err != nil {
			return Quote{}, err
		}
		c.mu.Lock()
		c.quotes[key] = cachedQuote{quote: q, expires: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return q, nil
	})

	select {
	case <-ctx.Done():
		return Quote{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Quote{}, res.Err
		}
		return res.Val.(Quote), nil
	}
}
