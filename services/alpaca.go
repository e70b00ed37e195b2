package services

import (
	"context"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"portfolio-manager/models"
	"portfolio-manager/observability"
)

// snapshotClient is the subset of the Alpaca market data client we use
type snapshotClient interface {
	GetSnapshot(symbol string, req marketdata.GetSnapshotRequest) (*marketdata.Snapshot, error)
}

// AlpacaQuoteService is the optional last-resort quote source, built on the
// Alpaca market data snapshot endpoint.
type AlpacaQuoteService struct {
	dataClient snapshotClient
	breakers   *CircuitBreakerRegistry
	metrics    *observability.Metrics
}

// NewAlpacaQuoteService creates a new AlpacaQuoteService instance
func NewAlpacaQuoteService(apiKey, apiSecret string, breakers *CircuitBreakerRegistry) *AlpacaQuoteService {
	dataClient := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	})
	return newAlpacaQuoteService(dataClient, breakers)
}

func newAlpacaQuoteService(client snapshotClient, breakers *CircuitBreakerRegistry) *AlpacaQuoteService {
	if breakers == nil {
		breakers = NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	}
	return &AlpacaQuoteService{
		dataClient: client,
		breakers:   breakers,
		metrics:    observability.GetMetrics(),
	}
}

func (s *AlpacaQuoteService) Name() string { return BreakerAlpaca }

// FetchQuote returns a quote assembled from the symbol's snapshot
func (s *AlpacaQuoteService) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	timer := s.metrics.NewTimer()
	defer timer.ObserveProvider(BreakerAlpaca)

	quote, err := WithCircuitBreaker(ctx, s.breakers, BreakerAlpaca, func() (models.Quote, error) {
		snapshot, err := s.snapshot(ctx, symbol)
		if err != nil {
			return models.Quote{}, err
		}
		return snapshotToQuote(snapshot, symbol)
	})
	if err != nil {
		s.metrics.RecordProviderError(BreakerAlpaca, errorType(err))
		return models.Quote{}, fmt.Errorf("alpaca quote for %s: %w", symbol, err)
	}
	return quote, nil
}

type snapshotResult struct {
	snapshot *marketdata.Snapshot
	err      error
}

// snapshot races the SDK call, which takes no context, against ctx.
func (s *AlpacaQuoteService) snapshot(ctx context.Context, symbol string) (*marketdata.Snapshot, error) {
	done := make(chan snapshotResult, 1)
	go func() {
		snap, err := s.dataClient.GetSnapshot(symbol, marketdata.GetSnapshotRequest{})
		done <- snapshotResult{snapshot: snap, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("failed to get snapshot: %w", res.err)
		}
		return res.snapshot, nil
	}
}

func snapshotToQuote(snap *marketdata.Snapshot, symbol string) (models.Quote, error) {
	if snap == nil || snap.LatestTrade == nil || snap.LatestTrade.Price <= 0 {
		return models.Quote{}, fmt.Errorf("%w: no latest trade", ErrNoQuoteData)
	}

	q := models.NewDefaultQuote(symbol)
	q.Price = decimal.NewFromFloat(snap.LatestTrade.Price)
	q.Bid = q.Price
	q.Ask = q.Price

	if lq := snap.LatestQuote; lq != nil {
		if lq.BidPrice > 0 {
			q.Bid = decimal.NewFromFloat(lq.BidPrice)
		}
		if lq.AskPrice > 0 {
			q.Ask = decimal.NewFromFloat(lq.AskPrice)
		}
	}
	if bar := snap.DailyBar; bar != nil {
		q.Open = decimal.NewFromFloat(bar.Open)
		q.DayHigh = decimal.NewFromFloat(bar.High)
		q.DayLow = decimal.NewFromFloat(bar.Low)
		q.Volume = int64(bar.Volume)
	}
	if prev := snap.PrevDailyBar; prev != nil {
		q.PreviousClose = decimal.NewFromFloat(prev.Close)
	}
	q.YearHigh = q.DayHigh
	q.YearLow = q.DayLow
	return q, nil
}
