package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"portfolio-manager/models"
	"portfolio-manager/observability"
)

// StockAPIService is the primary quote source: a local NSE quote API.
type StockAPIService struct {
	httpClient *http.Client
	baseURL    string
	breakers   *CircuitBreakerRegistry
	metrics    *observability.Metrics
}

// NewStockAPIService creates a new StockAPIService instance
func NewStockAPIService(baseURL string, timeout time.Duration, breakers *CircuitBreakerRegistry) *StockAPIService {
	if breakers == nil {
		breakers = NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	}
	return &StockAPIService{
		httpClient: newHTTPClient(timeout),
		baseURL:    strings.TrimRight(baseURL, "/"),
		breakers:   breakers,
		metrics:    observability.GetMetrics(),
	}
}

func (s *StockAPIService) Name() string { return BreakerStockAPI }

// FetchQuote returns the latest quote for symbol
func (s *StockAPIService) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	timer := s.metrics.NewTimer()
	defer timer.ObserveProvider(BreakerStockAPI)

	quote, err := WithCircuitBreaker(ctx, s.breakers, BreakerStockAPI, func() (models.Quote, error) {
		reqURL := s.baseURL + "/nse/get_quote_info?companyName=" + url.QueryEscape(symbol)
		body, err := fetch(ctx, s.httpClient, reqURL)
		if err != nil {
			return models.Quote{}, err
		}
		return parseStockAPIQuote(body, symbol)
	})
	if err != nil {
		s.metrics.RecordProviderError(BreakerStockAPI, errorType(err))
		return models.Quote{}, fmt.Errorf("stockapi quote for %s: %w", symbol, err)
	}
	return quote, nil
}

func parseStockAPIQuote(body []byte, symbol string) (models.Quote, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return models.Quote{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if _, ok := fields["error"]; ok {
		return models.Quote{}, fmt.Errorf("%w: error response", ErrNoQuoteData)
	}
	rawName, ok := fields["companyName"]
	if !ok {
		return models.Quote{}, fmt.Errorf("%w: missing companyName", ErrNoQuoteData)
	}

	var name string
	if err := json.Unmarshal(rawName, &name); err != nil {
		return models.Quote{}, fmt.Errorf("invalid companyName: %w", err)
	}

	q := models.NewDefaultQuote(symbol)
	q.Name = name

	targets := []struct {
		key string
		dst *decimal.Decimal
	}{
		{"lastPrice", &q.Price},
		{"openPrice", &q.Open},
		{"dayHigh", &q.DayHigh},
		{"dayLow", &q.DayLow},
		{"ytHighPrice", &q.YearHigh},
		{"ytLowPrice", &q.YearLow},
		{"previousClose", &q.PreviousClose},
	}
	for _, t := range targets {
		if err := decodeDecimal(fields, t.key, t.dst); err != nil {
			return models.Quote{}, err
		}
	}

	q.Ask = q.Price
	if err := decodeDecimal(fields, "askPrice", &q.Ask); err != nil {
		return models.Quote{}, err
	}
	q.Bid = q.Price
	if err := decodeDecimal(fields, "bidPrice", &q.Bid); err != nil {
		return models.Quote{}, err
	}

	if raw, ok := fields["totalTradedVolume"]; ok {
		volume, err := parseVolume(raw)
		if err != nil {
			observability.WithSymbol(symbol).Debug("could not parse volume", "raw", string(raw))
		} else {
			q.Volume = volume
		}
	}

	return q, nil
}

// decodeDecimal sets dst from a JSON number or numeric string. Absent and
// null fields leave dst untouched.
func decodeDecimal(fields map[string]json.RawMessage, key string, dst *decimal.Decimal) error {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return nil
	}
	text := string(bytes.TrimSpace(raw))
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(raw, &text); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, text, err)
	}
	*dst = d
	return nil
}

// parseVolume accepts comma grouped values such as "1,234,567".
func parseVolume(raw json.RawMessage) (int64, error) {
	text := string(bytes.TrimSpace(raw))
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, err
		}
	}
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return v, nil
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, err
	}
	return d.IntPart(), nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
