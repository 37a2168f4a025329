package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInconsistentLedger is returned when wallet balances do not match settled deposits.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: wallet balances do not equal settled deposits")
)

// LedgerReport is the result of a consistency check.
type LedgerReport struct {
	TotalBalance  decimal.Decimal
	TotalDeposits decimal.Decimal
	Consistent    bool
}

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// CheckConsistency verifies that money was neither created nor destroyed.
// Transfers only move funds between wallets, so the sum of all balances must
// equal the sum of all settled deposits.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*LedgerReport, error) {
	totalBalance, totalDeposits, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	report := &LedgerReport{
		TotalBalance:  totalBalance,
		TotalDeposits: totalDeposits,
		Consistent:    totalBalance.Equal(totalDeposits),
	}

	if !report.Consistent {
		return report, ErrInconsistentLedger
	}

	return report, nil
}
