package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"portfolio-manager/models"
	"portfolio-manager/observability"
)

// MarketstackService is the secondary quote source, backed by end-of-day
// data from marketstack.com. Intraday fields are approximated from the last
// daily bar.
type MarketstackService struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	breakers   *CircuitBreakerRegistry
	metrics    *observability.Metrics
}

// NewMarketstackService creates a new MarketstackService instance
func NewMarketstackService(apiKey, baseURL string, timeout time.Duration, breakers *CircuitBreakerRegistry) *MarketstackService {
	if breakers == nil {
		breakers = NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	}
	return &MarketstackService{
		apiKey:     apiKey,
		httpClient: newHTTPClient(timeout),
		baseURL:    strings.TrimRight(baseURL, "/"),
		breakers:   breakers,
		metrics:    observability.GetMetrics(),
	}
}

func (s *MarketstackService) Name() string { return BreakerMarketstack }

type marketstackEOD struct {
	Symbol string           `json:"symbol"`
	Open   *decimal.Decimal `json:"open"`
	Close  *decimal.Decimal `json:"close"`
	High   *decimal.Decimal `json:"high"`
	Low    *decimal.Decimal `json:"low"`
	Volume *float64         `json:"volume"`
}

type marketstackEODResponse struct {
	Error json.RawMessage  `json:"error"`
	Data  []marketstackEOD `json:"data"`
}

// FetchQuote returns the latest end-of-day quote for symbol
func (s *MarketstackService) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	timer := s.metrics.NewTimer()
	defer timer.ObserveProvider(BreakerMarketstack)

	quote, err := WithCircuitBreaker(ctx, s.breakers, BreakerMarketstack, func() (models.Quote, error) {
		params := url.Values{}
		params.Set("access_key", s.apiKey)
		params.Set("symbols", symbol)

		body, err := fetch(ctx, s.httpClient, s.baseURL+"/eod/latest?"+params.Encode())
		if err != nil {
			return models.Quote{}, err
		}
		return parseMarketstackQuote(body, symbol)
	})
	if err != nil {
		s.metrics.RecordProviderError(BreakerMarketstack, errorType(err))
		return models.Quote{}, fmt.Errorf("marketstack quote for %s: %w", symbol, err)
	}

	quote.Name = s.companyName(ctx, symbol)
	return quote, nil
}

func parseMarketstackQuote(body []byte, symbol string) (models.Quote, error) {
	var resp marketstackEODResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.Quote{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(resp.Error) > 0 && !isNull(resp.Error) {
		return models.Quote{}, fmt.Errorf("%w: error response %s", ErrNoQuoteData, string(resp.Error))
	}
	if len(resp.Data) == 0 {
		return models.Quote{}, fmt.Errorf("%w: empty data", ErrNoQuoteData)
	}

	eod := resp.Data[0]
	q := models.NewDefaultQuote(symbol)
	if eod.Close != nil {
		q.Price = *eod.Close
	}
	if eod.Open != nil {
		q.Open = *eod.Open
	}
	if eod.High != nil {
		q.DayHigh = *eod.High
	}
	if eod.Low != nil {
		q.DayLow = *eod.Low
	}
	if eod.Volume != nil {
		q.Volume = int64(*eod.Volume)
	}

	q.Bid = q.Price
	q.Ask = q.Price
	q.PreviousClose = q.Price
	q.YearHigh = q.DayHigh
	q.YearLow = q.DayLow
	return q, nil
}

// companyName looks up the display name. Failures fall back to the symbol
// and never fail the quote.
func (s *MarketstackService) companyName(ctx context.Context, symbol string) string {
	params := url.Values{}
	params.Set("access_key", s.apiKey)

	body, err := fetch(ctx, s.httpClient, s.baseURL+"/tickers/"+url.PathEscape(symbol)+"?"+params.Encode())
	if err != nil {
		observability.WithSymbol(symbol).Debug("marketstack ticker lookup failed", "error", err)
		return symbol
	}

	name, err := extractTickerName(body)
	if err != nil {
		observability.WithSymbol(symbol).Debug("marketstack ticker name missing", "error", err)
		return symbol
	}
	return name
}

func extractTickerName(body []byte) (string, error) {
	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return "", fmt.Errorf("failed to decode ticker: %w", err)
	}

	const path = "$.data.name"
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return "", fmt.Errorf("error reading %q: %w", path, err)
	}
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}

	name, ok := jval.(string)
	if !ok || strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%q is not a name: %v", path, jval)
	}
	return name, nil
}
