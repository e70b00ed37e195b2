package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Config holds all application configuration
type Config struct {
	Env string `yaml:"env" env:"ENV" env-default:"development"`

	Database DatabaseConfig `yaml:"database"`

	// Quote providers, in resolution order
	StockAPI    StockAPIConfig    `yaml:"stockapi"`
	Marketstack MarketstackConfig `yaml:"marketstack"`
	Alpaca      AlpacaConfig      `yaml:"alpaca"`

	Quotes         QuotesConfig         `yaml:"quotes"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	HTTP           HTTPConfig           `yaml:"http"`
	Log            LogConfig            `yaml:"log"`
	Display        DisplayConfig        `yaml:"display"`
	Settings       SettingsConfig       `yaml:"settings"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string `yaml:"url" env:"DATABASE_URL"`
}

// StockAPIConfig holds the primary quote API configuration
type StockAPIConfig struct {
	BaseURL string        `yaml:"base_url" env:"STOCK_API_BASE_URL" env-default:"http://localhost:3000"`
	Timeout time.Duration `yaml:"timeout" env:"STOCK_API_TIMEOUT" env-default:"5s"`
}

// MarketstackConfig holds the secondary quote API configuration
type MarketstackConfig struct {
	APIKey  string        `yaml:"api_key" env:"MARKETSTACK_API_KEY"`
	BaseURL string        `yaml:"base_url" env:"MARKETSTACK_BASE_URL" env-default:"http://api.marketstack.com/v1"`
	Timeout time.Duration `yaml:"timeout" env:"MARKETSTACK_TIMEOUT" env-default:"5s"`
}

// AlpacaConfig holds Alpaca market data configuration
type AlpacaConfig struct {
	APIKey    string `yaml:"api_key" env:"ALPACA_API_KEY"`
	APISecret string `yaml:"api_secret" env:"ALPACA_API_SECRET"`
}

// QuotesConfig holds quote resolution settings
type QuotesConfig struct {
	CacheTTL           time.Duration `yaml:"cache_ttl" env:"QUOTE_CACHE_TTL" env-default:"15m"`
	ResolveConcurrency int           `yaml:"resolve_concurrency" env:"QUOTE_RESOLVE_CONCURRENCY" env-default:"4"`
}

// CircuitBreakerConfig holds per-provider breaker settings
type CircuitBreakerConfig struct {
	MaxRequests         uint32        `yaml:"max_requests" env:"CB_MAX_REQUESTS" env-default:"3"`
	Interval            time.Duration `yaml:"interval" env:"CB_INTERVAL" env-default:"60s"`
	Timeout             time.Duration `yaml:"timeout" env:"CB_TIMEOUT" env-default:"30s"`
	ConsecutiveFailures uint32        `yaml:"consecutive_failures" env:"CB_CONSECUTIVE_FAILURES" env-default:"5"`
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Addr               string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	CORSAllowedOrigins string        `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
	RequestTimeout     time.Duration `yaml:"request_timeout" env:"HTTP_REQUEST_TIMEOUT" env-default:"30s"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// DisplayConfig holds presentation settings for the CLI
type DisplayConfig struct {
	Currency string `yaml:"currency" env:"DISPLAY_CURRENCY" env-default:"USD"`
}

// SettingsConfig locates the encrypted provider credentials store
type SettingsConfig struct {
	Dir        string `yaml:"dir" env:"SETTINGS_DIR"`
	Passphrase string `yaml:"passphrase" env:"SETTINGS_PASSPHRASE"`
}

// Load loads configuration from environment variables. When CONFIG_PATH is
// set the YAML file is read first and the environment overrides it.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.StockAPI.BaseURL == "" {
		return fmt.Errorf("STOCK_API_BASE_URL must not be empty")
	}
	if c.StockAPI.Timeout <= 0 {
		return fmt.Errorf("STOCK_API_TIMEOUT must be positive, got %s", c.StockAPI.Timeout)
	}
	if c.Marketstack.Timeout <= 0 {
		return fmt.Errorf("MARKETSTACK_TIMEOUT must be positive, got %s", c.Marketstack.Timeout)
	}
	if c.Quotes.CacheTTL <= 0 {
		return fmt.Errorf("QUOTE_CACHE_TTL must be positive, got %s", c.Quotes.CacheTTL)
	}
	if c.Quotes.ResolveConcurrency <= 0 {
		return fmt.Errorf("QUOTE_RESOLVE_CONCURRENCY must be positive, got %d", c.Quotes.ResolveConcurrency)
	}
	if c.CircuitBreaker.MaxRequests == 0 {
		return fmt.Errorf("CB_MAX_REQUESTS must be positive")
	}
	if c.CircuitBreaker.ConsecutiveFailures == 0 {
		return fmt.Errorf("CB_CONSECUTIVE_FAILURES must be positive")
	}
	if c.CircuitBreaker.Timeout <= 0 {
		return fmt.Errorf("CB_TIMEOUT must be positive, got %s", c.CircuitBreaker.Timeout)
	}
	if c.HTTP.RequestTimeout <= 0 {
		return fmt.Errorf("HTTP_REQUEST_TIMEOUT must be positive, got %s", c.HTTP.RequestTimeout)
	}
	if len(c.Display.Currency) != 3 {
		return fmt.Errorf("DISPLAY_CURRENCY must be an ISO 4217 code, got %q", c.Display.Currency)
	}
	c.Display.Currency = strings.ToUpper(c.Display.Currency)

	return nil
}

// IsProduction reports whether JSON logging and production defaults apply
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// HasDatabase returns true if database configuration is available
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// HasSettings returns true if the credentials store should be opened
func (c *Config) HasSettings() bool {
	return c.Settings.Passphrase != ""
}

// HasMarketstack returns true if the secondary provider can be used
func (c *Config) HasMarketstack() bool {
	return c.Marketstack.APIKey != ""
}

// HasAlpaca returns true if Alpaca configuration is available
func (c *Config) HasAlpaca() bool {
	return c.Alpaca.APIKey != "" && c.Alpaca.APISecret != ""
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		Env: EnvDevelopment,
		StockAPI: StockAPIConfig{
			BaseURL: "http://localhost:3000",
			Timeout: 5 * time.Second,
		},
		Marketstack: MarketstackConfig{
			BaseURL: "http://api.marketstack.com/v1",
			Timeout: 5 * time.Second,
		},
		Quotes: QuotesConfig{
			CacheTTL:           15 * time.Minute,
			ResolveConcurrency: 4,
		},
		CircuitBreaker: CircuitBreakerConfig{
			MaxRequests:         3,
			Interval:            60 * time.Second,
			Timeout:             30 * time.Second,
			ConsecutiveFailures: 5,
		},
		HTTP: HTTPConfig{
			Addr:               ":8080",
			CORSAllowedOrigins: "*",
			RequestTimeout:     30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Display: DisplayConfig{
			Currency: "USD",
		},
	}
}
