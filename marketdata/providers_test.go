package marketdata

import (
	"slices"
	"testing"

	"portfolio-manager/config"
	"portfolio-manager/services"
)

func TestProvidersFromConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
		want   []string
	}{
		{
			name:   "stockapi only",
			modify: func(c *config.Config) {},
			want:   []string{services.BreakerStockAPI},
		},
		{
			name: "all providers",
			modify: func(c *config.Config) {
				c.Marketstack.APIKey = "key"
				c.Alpaca.APIKey = "key"
				c.Alpaca.APISecret = "secret"
			},
			want: []string{services.BreakerStockAPI, services.BreakerMarketstack, services.BreakerAlpaca},
		},
		{
			name: "alpaca needs a secret",
			modify: func(c *config.Config) {
				c.Alpaca.APIKey = "key"
			},
			want: []string{services.BreakerStockAPI},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewTestConfig()
			tt.modify(cfg)
			breakers := services.NewCircuitBreakerRegistry(BreakerConfig(cfg))

			resolver := NewResolverFromConfig(cfg, breakers)
			if got := resolver.ProviderNames(); !slices.Equal(got, tt.want) {
				t.Errorf("ProviderNames() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBreakerConfig(t *testing.T) {
	cfg := config.NewTestConfig()
	got := BreakerConfig(cfg)
	if got.MaxRequests != 3 || got.ConsecutiveFailures != 5 || got.Timeout != cfg.CircuitBreaker.Timeout {
		t.Errorf("BreakerConfig() = %+v", got)
	}
}
