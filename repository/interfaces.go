package repository

import (
	"context"

	"portfolio-manager/models"

	"github.com/google/uuid"
)

// Store defines all persistence operations
type Store interface {
	// Health and lifecycle
	Close()
	Health(ctx context.Context) error

	// Transactions
	ListTransactions(ctx context.Context, ownerID int64) ([]models.Transaction, error)
	ListTransactionsBySymbol(ctx context.Context, ownerID int64, symbol string) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, ownerID int64, id uuid.UUID) (*models.Transaction, error)
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	DeleteTransaction(ctx context.Context, ownerID int64, id uuid.UUID) error

	// Stocks
	ListStocks(ctx context.Context) ([]models.Stock, error)
	GetStock(ctx context.Context, symbol string) (*models.Stock, error)
	UpsertStock(ctx context.Context, stock *models.Stock) error
	DeleteStock(ctx context.Context, symbol string) error

	// Portfolios
	GetOrCreatePortfolio(ctx context.Context, ownerID int64) (*models.PortfolioMeta, error)
	UpdatePortfolioName(ctx context.Context, ownerID int64, name string) error
	UpdatePortfolioDescription(ctx context.Context, ownerID int64, description string) error
	SavePortfolioSnapshot(ctx context.Context, p *models.Portfolio) error
}

// Compile-time interface verification
var (
	_ Store = (*Repository)(nil)
	_ Store = (*MemoryStore)(nil)
)
