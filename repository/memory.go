package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"portfolio-manager/models"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests and when no database is
// configured. Data is lost on restart.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions map[int64][]models.Transaction
	stocks       map[string]models.Stock
	portfolios   map[int64]models.PortfolioMeta
	snapshots    map[int64]models.Portfolio
	now          func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[int64][]models.Transaction),
		stocks:       make(map[string]models.Stock),
		portfolios:   make(map[int64]models.PortfolioMeta),
		snapshots:    make(map[int64]models.Portfolio),
		now:          time.Now,
	}
}

func (m *MemoryStore) Close() {}

func (m *MemoryStore) Health(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStore) ListTransactions(ctx context.Context, ownerID int64) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	txs := slices.Clone(m.transactions[ownerID])
	sortTransactions(txs)
	if txs == nil {
		txs = make([]models.Transaction, 0)
	}
	return txs, nil
}

func (m *MemoryStore) ListTransactionsBySymbol(ctx context.Context, ownerID int64, symbol string) ([]models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	txs := make([]models.Transaction, 0)
	for _, tx := range m.transactions[ownerID] {
		if tx.Symbol == symbol {
			txs = append(txs, tx)
		}
	}
	sortTransactions(txs)
	return txs, nil
}

func (m *MemoryStore) GetTransaction(ctx context.Context, ownerID int64, id uuid.UUID) (*models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, tx := range m.transactions[ownerID] {
		if tx.ID == id {
			return &tx, nil
		}
	}
	return nil, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
}

func (m *MemoryStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.transactions[tx.OwnerID] {
		if existing.ID == tx.ID || existing.Seq == tx.Seq {
			return fmt.Errorf("failed to create transaction: duplicate id %s or seq %d", tx.ID, tx.Seq)
		}
	}
	m.transactions[tx.OwnerID] = append(m.transactions[tx.OwnerID], *tx)
	return nil
}

func (m *MemoryStore) DeleteTransaction(ctx context.Context, ownerID int64, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	txs := m.transactions[ownerID]
	i := slices.IndexFunc(txs, func(tx models.Transaction) bool { return tx.ID == id })
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	m.transactions[ownerID] = slices.Delete(txs, i, i+1)
	return nil
}

func (m *MemoryStore) ListStocks(ctx context.Context) ([]models.Stock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stocks := make([]models.Stock, 0, len(m.stocks))
	for _, s := range m.stocks {
		stocks = append(stocks, s)
	}
	slices.SortFunc(stocks, func(a, b models.Stock) int { return strings.Compare(a.Symbol, b.Symbol) })
	return stocks, nil
}

func (m *MemoryStore) GetStock(ctx context.Context, symbol string) (*models.Stock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.stocks[symbol]
	if !ok {
		return nil, fmt.Errorf("stock %s: %w", symbol, ErrNotFound)
	}
	return &s, nil
}

func (m *MemoryStore) UpsertStock(ctx context.Context, stock *models.Stock) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stocks[stock.Symbol] = *stock
	return nil
}

func (m *MemoryStore) DeleteStock(ctx context.Context, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.stocks[symbol]; !ok {
		return fmt.Errorf("stock %s: %w", symbol, ErrNotFound)
	}
	delete(m.stocks, symbol)
	return nil
}

func (m *MemoryStore) GetOrCreatePortfolio(ctx context.Context, ownerID int64) (*models.PortfolioMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.portfolios[ownerID]
	if !ok {
		now := m.now()
		p = models.PortfolioMeta{
			OwnerID:   ownerID,
			Name:      models.DefaultPortfolioName,
			CreatedAt: now,
			UpdatedAt: now,
		}
		m.portfolios[ownerID] = p
	}
	return &p, nil
}

func (m *MemoryStore) UpdatePortfolioName(ctx context.Context, ownerID int64, name string) error {
	return m.updatePortfolio(ownerID, func(p *models.PortfolioMeta) { p.Name = name })
}

func (m *MemoryStore) UpdatePortfolioDescription(ctx context.Context, ownerID int64, description string) error {
	return m.updatePortfolio(ownerID, func(p *models.PortfolioMeta) { p.Description = description })
}

func (m *MemoryStore) updatePortfolio(ownerID int64, apply func(*models.PortfolioMeta)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.portfolios[ownerID]
	if !ok {
		return fmt.Errorf("portfolio for owner %d: %w", ownerID, ErrNotFound)
	}
	apply(&p)
	p.UpdatedAt = m.now()
	m.portfolios[ownerID] = p
	return nil
}

func (m *MemoryStore) SavePortfolioSnapshot(ctx context.Context, p *models.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.portfolios[p.OwnerID]; !ok {
		return fmt.Errorf("portfolio for owner %d: %w", p.OwnerID, ErrNotFound)
	}
	snapshot := *p
	snapshot.Positions = nil
	m.snapshots[p.OwnerID] = snapshot
	return nil
}

// Snapshot returns the last saved valuation totals for ownerID.
func (m *MemoryStore) Snapshot(ownerID int64) (models.Portfolio, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.snapshots[ownerID]
	return p, ok
}

// sortTransactions matches the ORDER BY executed_at, seq of the SQL store
func sortTransactions(txs []models.Transaction) {
	slices.SortStableFunc(txs, func(a, b models.Transaction) int {
		if c := a.ExecutedAt.Compare(b.ExecutedAt); c != 0 {
			return c
		}
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})
}
