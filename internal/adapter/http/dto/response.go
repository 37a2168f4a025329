package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// formatMoney renders amounts with two decimal places, e.g. "1250.50".
func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(domain.MinorUnitExponent)
}

// WalletResponse represents a wallet in API responses.
type WalletResponse struct {
	ID           string    `json:"id"`
	WalletNumber string    `json:"wallet_number"`
	Balance      string    `json:"balance"`
	CreatedAt    time.Time `json:"created_at"`
}

// WalletFromDomain converts a domain wallet to response.
func WalletFromDomain(w *domain.Wallet) *WalletResponse {
	return &WalletResponse{
		ID:           w.ID,
		WalletNumber: w.WalletNumber,
		Balance:      formatMoney(w.Balance),
		CreatedAt:    w.CreatedAt,
	}
}

// BalanceResponse is the body of the balance endpoint.
type BalanceResponse struct {
	Balance string `json:"balance"`
}

// BalanceFromDomain converts a domain wallet to a balance response.
func BalanceFromDomain(w *domain.Wallet) *BalanceResponse {
	return &BalanceResponse{Balance: formatMoney(w.Balance)}
}

// WalletDetailsResponse is the body of the wallet details endpoint.
type WalletDetailsResponse struct {
	WalletNumber string `json:"wallet_number"`
	Balance      string `json:"balance"`
	OwnerName    string `json:"owner_name"`
	OwnerEmail   string `json:"owner_email"`
}

// WalletDetailsFromUseCase converts wallet details to response.
func WalletDetailsFromUseCase(d *usecase.WalletDetails) *WalletDetailsResponse {
	return &WalletDetailsResponse{
		WalletNumber: d.Wallet.WalletNumber,
		Balance:      formatMoney(d.Wallet.Balance),
		OwnerName:    d.OwnerName,
		OwnerEmail:   d.OwnerEmail,
	}
}

// DepositResponse tells the payer where to complete the payment.
type DepositResponse struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
}

// DepositFromUseCase converts a deposit result to response.
func DepositFromUseCase(r *usecase.DepositResult) *DepositResponse {
	return &DepositResponse{
		Reference:        r.Reference,
		AuthorizationURL: r.AuthorizationURL,
	}
}

// DepositStatusResponse is the body of the deposit status endpoint.
type DepositStatusResponse struct {
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// DepositStatusFromDomain converts a deposit transaction to response.
func DepositStatusFromDomain(t *domain.Transaction) *DepositStatusResponse {
	return &DepositStatusResponse{
		Reference:     t.Reference,
		Status:        string(t.Status),
		Amount:        formatMoney(t.Amount),
		FailureReason: t.FailureReason,
	}
}

// TransferResponse is the body returned after a completed transfer.
type TransferResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Reference string `json:"reference"`
	Amount    string `json:"amount"`
}

// TransferFromDomain converts a transfer transaction to response.
func TransferFromDomain(t *domain.Transaction) *TransferResponse {
	return &TransferResponse{
		Status:    string(t.Status),
		Message:   "Transfer completed",
		Reference: t.Reference,
		Amount:    formatMoney(t.Amount),
	}
}

// TransactionResponse represents one history entry.
type TransactionResponse struct {
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	Status      string    `json:"status"`
	Reference   string    `json:"reference"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// TransactionFromDomain converts a domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		Type:        string(t.Type),
		Amount:      formatMoney(t.Amount),
		Status:      string(t.Status),
		Reference:   t.Reference,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txns []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// LedgerReportResponse is the body of the consistency check endpoint.
type LedgerReportResponse struct {
	Status        string `json:"status"`
	Consistent    bool   `json:"consistent"`
	TotalBalance  string `json:"total_balance"`
	TotalDeposits string `json:"total_deposits"`
}

// LedgerReportFromUseCase converts a ledger report to response.
func LedgerReportFromUseCase(r *usecase.LedgerReport) *LedgerReportResponse {
	status := "consistent"
	if !r.Consistent {
		status = "inconsistent"
	}
	return &LedgerReportResponse{
		Status:        status,
		Consistent:    r.Consistent,
		TotalBalance:  formatMoney(r.TotalBalance),
		TotalDeposits: formatMoney(r.TotalDeposits),
	}
}

// WebhookAck is returned to the gateway for every authenticated webhook.
type WebhookAck struct {
	Status bool `json:"status"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
