package models

import "errors"

// Validation errors. Callers match them with errors.Is; the wrapped message
// carries the offending field.
var (
	ErrInvalidSymbol      = errors.New("invalid symbol")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidStock       = errors.New("invalid stock")
)
