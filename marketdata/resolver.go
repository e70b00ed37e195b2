package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"portfolio-manager/models"
	"portfolio-manager/observability"
	"portfolio-manager/services"
)

const (
	// DefaultResolveConcurrency bounds parallel resolutions in ResolveMany
	DefaultResolveConcurrency = 4

	// flightTimeout bounds a shared upstream walk once it is detached from
	// the caller that started it.
	flightTimeout = 30 * time.Second
)

// QuoteResolver turns a symbol into a quote: fresh cache entry first, then
// each provider in priority order, then the all-zero default quote.
type QuoteResolver struct {
	cache       *QuoteCache
	providers   []services.QuoteProvider
	concurrency int
	group       singleflight.Group
	metrics     *observability.Metrics
}

type resolution struct {
	quote  models.Quote
	result string
}

// NewQuoteResolver creates a resolver over providers, tried in the given order.
func NewQuoteResolver(cache *QuoteCache, concurrency int, providers ...services.QuoteProvider) *QuoteResolver {
	if cache == nil {
		cache = NewQuoteCache(DefaultCacheTTL)
	}
	if concurrency <= 0 {
		concurrency = DefaultResolveConcurrency
	}
	return &QuoteResolver{
		cache:       cache,
		providers:   providers,
		concurrency: concurrency,
		metrics:     observability.GetMetrics(),
	}
}

// WithMetrics records on m instead of the global metrics
func (r *QuoteResolver) WithMetrics(m *observability.Metrics) *QuoteResolver {
	r.metrics = m
	return r
}

// ProviderNames lists the configured providers in priority order
func (r *QuoteResolver) ProviderNames() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

// Resolve returns a usable quote for symbol. The only error is
// models.ErrInvalidSymbol; upstream outages yield the default quote.
func (r *QuoteResolver) Resolve(ctx context.Context, symbol string) (models.Quote, error) {
	sym, err := models.NormalizeSymbol(symbol)
	if err != nil {
		return models.Quote{}, err
	}

	timer := r.metrics.NewTimer()

	if q, ok := r.cache.Get(sym); ok {
		observability.WithSymbol(sym).Debug("quote cache hit")
		timer.ObserveQuote(observability.QuoteResultHit)
		return q, nil
	}

	ch := r.group.DoChan(sym, func() (any, error) {
		// A flight that finished just before this one may have filled the cache.
		if q, ok := r.cache.Get(sym); ok {
			return resolution{quote: q, result: observability.QuoteResultHit}, nil
		}
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		return r.fetch(flightCtx, sym), nil
	})

	var res resolution
	select {
	case <-ctx.Done():
		observability.WithSymbol(sym).Warn("quote resolution abandoned, using default quote", "error", ctx.Err())
		res = resolution{quote: models.NewDefaultQuote(sym), result: observability.QuoteResultDefault}
	case out := <-ch:
		res = out.Val.(resolution)
	}

	timer.ObserveQuote(res.result)
	return res.quote, nil
}

// fetch walks the provider chain once. Only a provider success is cached.
func (r *QuoteResolver) fetch(ctx context.Context, sym string) resolution {
	for _, p := range r.providers {
		log := observability.WithProvider(p.Name()).With("symbol", sym)

		q, err := p.FetchQuote(ctx, sym)
		if err != nil {
			log.Debug("quote provider failed", "error", err)
			continue
		}
		if err := validateQuote(q, sym); err != nil {
			log.Warn("quote provider returned invalid quote", "error", err)
			r.metrics.RecordProviderError(p.Name(), "invalid_quote")
			continue
		}
		if q.Name == "" {
			q.Name = sym
		}

		r.cache.Put(sym, q)
		r.metrics.SetQuoteCacheSize(r.cache.Len())
		log.Debug("quote resolved", "price", q.Price.String())
		return resolution{quote: q, result: observability.QuoteResultMiss}
	}

	observability.WithSymbol(sym).Warn("all quote providers failed, using default quote",
		"providers", len(r.providers))
	return resolution{quote: models.NewDefaultQuote(sym), result: observability.QuoteResultDefault}
}

func validateQuote(q models.Quote, sym string) error {
	if q.Symbol != sym {
		return fmt.Errorf("symbol mismatch: got %q, want %q", q.Symbol, sym)
	}
	if q.Volume < 0 {
		return fmt.Errorf("negative volume %d", q.Volume)
	}
	return nil
}

// ResolveMany resolves the distinct symbols in parallel. Keys of the result
// are normalized symbols. Any invalid symbol fails the whole call before
// anything is fetched.
func (r *QuoteResolver) ResolveMany(ctx context.Context, symbols []string) (map[string]models.Quote, error) {
	distinct := make([]string, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		sym, err := models.NormalizeSymbol(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, s)
		}
		if !seen[sym] {
			seen[sym] = true
			distinct = append(distinct, sym)
		}
	}

	var mu sync.Mutex
	quotes := make(map[string]models.Quote, len(distinct))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, sym := range distinct {
		g.Go(func() error {
			q, err := r.Resolve(gctx, sym)
			if err != nil {
				return err
			}
			mu.Lock()
			quotes[sym] = q
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return quotes, nil
}

// ClearCache drops every cached quote
func (r *QuoteResolver) ClearCache() {
	r.cache.Clear()
	r.metrics.SetQuoteCacheSize(0)
	observability.Info("quote cache cleared")
}

// CacheSize returns the number of fresh cached quotes
func (r *QuoteResolver) CacheSize() int {
	return r.cache.Len()
}
