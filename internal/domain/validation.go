package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrAmountTooLarge      = fmt.Errorf("%w: amount exceeds maximum allowed", ErrInvalidOperation)
	ErrAmountTooSmall      = fmt.Errorf("%w: amount below minimum allowed", ErrInvalidOperation)
	ErrInvalidWalletNumber = fmt.Errorf("%w: invalid wallet number", ErrInvalidOperation)
	ErrInvalidReference    = fmt.Errorf("%w: invalid transaction reference", ErrInvalidOperation)
)

// Validation constants
const (
	MaxAmount       = "100000000" // 100 million
	MinAmount       = "0.01"
	DefaultPageSize = 50
	MaxPageSize     = 50
)

var walletNumberRegex = regexp.MustCompile(`^[0-9]{10}$`)

// ValidateAmount validates a deposit or transfer amount in major units.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if _, err := ToMinorUnits(amount); err != nil {
		return err
	}

	minAmount, _ := decimal.NewFromString(MinAmount)
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinAmount)
	}

	maxAmount, _ := decimal.NewFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAmount)
	}

	return nil
}

// ValidateWalletNumber validates the public wallet number format.
func ValidateWalletNumber(number string) error {
	if !walletNumberRegex.MatchString(strings.TrimSpace(number)) {
		return fmt.Errorf("%w: must be %d digits", ErrInvalidWalletNumber, WalletNumberLength)
	}

	return nil
}

// ValidateReference rejects empty or oversized references before they reach storage.
func ValidateReference(reference string) error {
	if reference == "" || len(reference) > 100 {
		return ErrInvalidReference
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
