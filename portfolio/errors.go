package portfolio

import "errors"

var (
	// ErrInsufficientHoldings rejects a sell that would take the held
	// quantity below zero at some point in the symbol's history.
	ErrInsufficientHoldings = errors.New("insufficient holdings")

	// ErrLedgerIntegrity reports a stored history that cannot be replayed,
	// typically after administrative edits.
	ErrLedgerIntegrity = errors.New("ledger integrity violation")
)
