package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// DepositRequest represents a request to fund the caller's wallet.
// Amount is in major units and may be sent as a JSON number or string.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Validate checks the deposit amount.
func (r *DepositRequest) Validate() error {
	return domain.ValidateAmount(r.Amount)
}

// TransferRequest represents a request to move funds to another wallet.
type TransferRequest struct {
	WalletNumber string          `json:"wallet_number"`
	Amount       decimal.Decimal `json:"amount"`
}

// ToUseCaseInput validates the request and converts it to use case input.
func (r *TransferRequest) ToUseCaseInput(payerUserID string) (usecase.TransferInput, error) {
	number := strings.TrimSpace(r.WalletNumber)
	if err := domain.ValidateWalletNumber(number); err != nil {
		return usecase.TransferInput{}, err
	}
	if err := domain.ValidateAmount(r.Amount); err != nil {
		return usecase.TransferInput{}, err
	}

	return usecase.TransferInput{
		PayerUserID:          payerUserID,
		ReceiverWalletNumber: number,
		Amount:               r.Amount,
	}, nil
}
