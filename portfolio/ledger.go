package portfolio

import (
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"portfolio-manager/models"
)

// Ledger is the append-only transaction history of one owner, kept in
// chronological order. It is safe for concurrent use.
type Ledger struct {
	mu      sync.RWMutex
	ownerID int64
	txs     []models.Transaction
	lastSeq int64
}

// NewLedger builds a ledger from already persisted transactions. The rows
// are not re-validated; replay problems surface during valuation.
func NewLedger(ownerID int64, txs ...models.Transaction) *Ledger {
	l := &Ledger{ownerID: ownerID}
	l.Load(txs)
	return l
}

// Load replaces the ledger contents with txs, without validation.
func (l *Ledger) Load(txs []models.Transaction) {
	sorted := slices.Clone(txs)
	sortChronologically(sorted)

	var lastSeq int64
	for _, tx := range sorted {
		lastSeq = max(lastSeq, tx.Seq)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.txs = sorted
	l.lastSeq = lastSeq
}

func (l *Ledger) OwnerID() int64 {
	return l.ownerID
}

// Append validates tx and records it. The symbol's history, with tx placed
// at its chronological position, must never hold a negative quantity.
// On success tx carries its assigned ID, owner and sequence number.
func (l *Ledger) Append(tx *models.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	candidate := *tx
	candidate.OwnerID = l.ownerID
	candidate.Seq = l.lastSeq + 1
	if candidate.ID == uuid.Nil {
		candidate.ID = uuid.New()
	}

	history := make([]models.Transaction, 0, len(l.txs)+1)
	for _, existing := range l.txs {
		if existing.Symbol == candidate.Symbol {
			history = append(history, existing)
		}
	}
	history = append(history, candidate)
	sortChronologically(history)

	if err := checkHoldings(history); err != nil {
		return err
	}

	l.txs = append(l.txs, candidate)
	sortChronologically(l.txs)
	l.lastSeq = candidate.Seq
	*tx = candidate
	return nil
}

// checkHoldings replays a single symbol's quantities
func checkHoldings(history []models.Transaction) error {
	held := decimal.Zero
	for _, tx := range history {
		switch tx.Type {
		case models.TransactionTypeBuy:
			held = held.Add(tx.Quantity)
		case models.TransactionTypeSell:
			if tx.Quantity.GreaterThan(held) {
				return fmt.Errorf("%w: selling %s %s on %s but only %s held",
					ErrInsufficientHoldings, tx.Quantity, tx.Symbol, tx.ExecutedAt.Format("2006-01-02"), held)
			}
			held = held.Sub(tx.Quantity)
		}
	}
	return nil
}

// TransactionsFor yields the symbol's transactions in chronological order.
// The sequence is a snapshot and can be ranged over repeatedly.
func (l *Ledger) TransactionsFor(symbol string) iter.Seq[models.Transaction] {
	sym, _ := models.NormalizeSymbol(symbol)

	l.mu.RLock()
	snapshot := make([]models.Transaction, 0)
	for _, tx := range l.txs {
		if tx.Symbol == sym {
			snapshot = append(snapshot, tx)
		}
	}
	l.mu.RUnlock()

	return slices.Values(snapshot)
}

// Transactions yields every transaction in chronological order.
func (l *Ledger) Transactions() iter.Seq[models.Transaction] {
	l.mu.RLock()
	snapshot := slices.Clone(l.txs)
	l.mu.RUnlock()

	return slices.Values(snapshot)
}

// Symbols returns the distinct symbols in the ledger, sorted.
func (l *Ledger) Symbols() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	seen := make(map[string]bool)
	symbols := make([]string, 0)
	for _, tx := range l.txs {
		if !seen[tx.Symbol] {
			seen[tx.Symbol] = true
			symbols = append(symbols, tx.Symbol)
		}
	}
	slices.Sort(symbols)
	return symbols
}

// Len returns the number of transactions.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.txs)
}

// Get returns the transaction with the given id.
func (l *Ledger) Get(id uuid.UUID) (models.Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, tx := range l.txs {
		if tx.ID == id {
			return tx, true
		}
	}
	return models.Transaction{}, false
}

// RemoveByID drops a transaction. The remaining history is not
// re-validated.
func (l *Ledger) RemoveByID(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := slices.IndexFunc(l.txs, func(tx models.Transaction) bool { return tx.ID == id })
	if i < 0 {
		return false
	}
	l.txs = slices.Delete(l.txs, i, i+1)
	return true
}

func sortChronologically(txs []models.Transaction) {
	slices.SortStableFunc(txs, func(a, b models.Transaction) int {
		switch {
		case a.Less(&b):
			return -1
		case b.Less(&a):
			return 1
		default:
			return 0
		}
	})
}

// Verify replays every symbol's history and reports the first point where
// holdings would go negative.
func (l *Ledger) Verify() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bySymbol := make(map[string][]models.Transaction)
	for _, tx := range l.txs {
		bySymbol[tx.Symbol] = append(bySymbol[tx.Symbol], tx)
	}
	for _, history := range bySymbol {
		if err := checkHoldings(history); err != nil {
			return err
		}
	}
	return nil
}
