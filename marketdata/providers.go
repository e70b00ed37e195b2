package marketdata

import (
	"portfolio-manager/config"
	"portfolio-manager/services"
)

// BreakerConfig converts the configured breaker settings
func BreakerConfig(cfg *config.Config) services.CircuitBreakerConfig {
	return services.CircuitBreakerConfig{
		MaxRequests:         cfg.CircuitBreaker.MaxRequests,
		Interval:            cfg.CircuitBreaker.Interval,
		Timeout:             cfg.CircuitBreaker.Timeout,
		ConsecutiveFailures: cfg.CircuitBreaker.ConsecutiveFailures,
	}
}

// ProvidersFromConfig builds the quote providers in resolution order.
// StockAPI is always present; Marketstack and Alpaca need credentials.
func ProvidersFromConfig(cfg *config.Config, breakers *services.CircuitBreakerRegistry) []services.QuoteProvider {
	providers := []services.QuoteProvider{
		services.NewStockAPIService(cfg.StockAPI.BaseURL, cfg.StockAPI.Timeout, breakers),
	}
	if cfg.HasMarketstack() {
		providers = append(providers, services.NewMarketstackService(
			cfg.Marketstack.APIKey, cfg.Marketstack.BaseURL, cfg.Marketstack.Timeout, breakers))
	}
	if cfg.HasAlpaca() {
		providers = append(providers, services.NewAlpacaQuoteService(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, breakers))
	}
	return providers
}

// NewResolverFromConfig wires a resolver with its cache and providers
func NewResolverFromConfig(cfg *config.Config, breakers *services.CircuitBreakerRegistry) *QuoteResolver {
	return NewQuoteResolver(
		NewQuoteCache(cfg.Quotes.CacheTTL),
		cfg.Quotes.ResolveConcurrency,
		ProvidersFromConfig(cfg, breakers)...,
	)
}
