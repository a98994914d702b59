package ledger

import "errors"

var (
	ErrNotFound            = errors.New("position not found")
	ErrAlreadyClosed       = errors.New("position already closed")
	ErrInvalidSide         = errors.New("invalid side")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnknownAccount      = errors.New("unknown account")
)
