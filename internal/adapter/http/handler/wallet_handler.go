package handler

import (
	"context"
	"net/http"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// WalletService defines the behavior needed by WalletHandler.
type WalletService interface {
	ProvisionWallet(ctx context.Context, userID string) (*domain.Wallet, bool, error)
	GetBalance(ctx context.Context, userID string) (*domain.Wallet, error)
	GetDetails(ctx context.Context, userID string) (*usecase.WalletDetails, error)
	ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error)
}

// WalletHandler handles wallet read and provisioning requests.
type WalletHandler struct {
	walletUC WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletUC WalletService) *WalletHandler {
	return &WalletHandler{walletUC: walletUC}
}

// Provision returns the caller's wallet, creating it on first use.
func (h *WalletHandler) Provision(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	wallet, created, err := h.walletUC.ProvisionWallet(r.Context(), userID)
	if err != nil {
		writeDomainError(w, "failed to provision wallet", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, dto.WalletFromDomain(wallet))
}

// Balance returns the caller's balance.
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	wallet, err := h.walletUC.GetBalance(r.Context(), userID)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(wallet))
}

// Details returns the caller's wallet number, balance and owner.
func (h *WalletHandler) Details(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	details, err := h.walletUC.GetDetails(r.Context(), userID)
	if err != nil {
		writeDomainError(w, "failed to get wallet details", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletDetailsFromUseCase(details))
}

// Transactions lists the caller's deposits and transfers, newest first.
func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	limit := parseIntQuery(r, "limit", domain.DefaultPageSize)
	offset := parseIntQuery(r, "offset", 0)

	txns, err := h.walletUC.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txns))
}
