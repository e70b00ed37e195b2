package marketdata

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"portfolio-manager/models"
)

// DefaultCacheTTL is how long a resolved quote is served without refetching.
const DefaultCacheTTL = 15 * time.Minute

type cachedQuote struct {
	quote      models.Quote
	capturedAt time.Time
}

// QuoteCache is a TTL cache of resolved quotes keyed by normalized symbol.
// It is unbounded and has no janitor; stale entries are simply ignored until
// overwritten or cleared.
type QuoteCache struct {
	items *gocache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewQuoteCache creates an empty cache. A non-positive ttl uses DefaultCacheTTL.
func NewQuoteCache(ttl time.Duration) *QuoteCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &QuoteCache{
		items: gocache.New(ttl, 0),
		ttl:   ttl,
		now:   time.Now,
	}
}

// TTL returns the freshness window.
func (c *QuoteCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached quote if it is still fresh. Missing and stale
// entries both report false.
func (c *QuoteCache) Get(symbol string) (models.Quote, bool) {
	v, ok := c.items.Get(symbol)
	if !ok {
		return models.Quote{}, false
	}
	entry := v.(cachedQuote)
	if !c.fresh(entry) {
		return models.Quote{}, false
	}
	return entry.quote, true
}

// Put stores quote under symbol, replacing any previous entry.
func (c *QuoteCache) Put(symbol string, quote models.Quote) {
	c.items.Set(symbol, cachedQuote{quote: quote, capturedAt: c.now()}, gocache.DefaultExpiration)
}

// Clear drops every entry.
func (c *QuoteCache) Clear() {
	c.items.Flush()
}

// Len returns the number of fresh entries.
func (c *QuoteCache) Len() int {
	n := 0
	for _, item := range c.items.Items() {
		if c.fresh(item.Object.(cachedQuote)) {
			n++
		}
	}
	return n
}

func (c *QuoteCache) fresh(entry cachedQuote) bool {
	return c.now().Sub(entry.capturedAt) < c.ttl
}
