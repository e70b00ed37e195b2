package services

import (
	"context"
	"errors"

	"portfolio-manager/models"
)

// QuoteProvider fetches a single quote from one upstream market data source.
// Failure is reported through the error; providers never cache.
type QuoteProvider interface {
	Name() string
	FetchQuote(ctx context.Context, symbol string) (models.Quote, error)
}

// ErrNoQuoteData means the upstream answered but had nothing usable for the
// symbol (unknown ticker, error payload, empty data set).
var ErrNoQuoteData = errors.New("no quote data")

// Compile-time interface verification
var _ QuoteProvider = (*StockAPIService)(nil)
var _ QuoteProvider = (*MarketstackService)(nil)
var _ QuoteProvider = (*AlpacaQuoteService)(nil)
