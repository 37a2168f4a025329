package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Specific errors wrap one of these so callers can classify with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidOperation   = errors.New("invalid operation")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrAlreadyTerminal    = errors.New("transaction already in a terminal state")
)

var (
	// Wallet errors
	ErrWalletNotFound    = fmt.Errorf("wallet %w", ErrNotFound)
	ErrWalletExists      = fmt.Errorf("%w: wallet already exists for user", ErrInvalidOperation)
	ErrSameWallet        = fmt.Errorf("%w: cannot transfer to own wallet", ErrInvalidOperation)
	ErrWalletNumberTaken = fmt.Errorf("%w: wallet number already taken", ErrInvalidOperation)

	// Transaction errors
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrInvalidAmount       = fmt.Errorf("%w: amount must be positive", ErrInvalidOperation)
	ErrInvalidTransition   = fmt.Errorf("%w: invalid status transition", ErrInvalidOperation)

	// User errors
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
)
