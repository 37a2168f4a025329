package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// DepositService defines the behavior needed by DepositHandler.
type DepositService interface {
	Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*usecase.DepositResult, error)
	GetDepositStatus(ctx context.Context, userID, reference string) (*domain.Transaction, error)
}

// DepositHandler handles deposit requests.
type DepositHandler struct {
	depositUC DepositService
}

// NewDepositHandler creates a new DepositHandler.
func NewDepositHandler(depositUC DepositService) *DepositHandler {
	return &DepositHandler{depositUC: depositUC}
}

// Create starts a deposit and returns the gateway payment page.
func (h *DepositHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req dto.DepositRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	result, err := h.depositUC.Deposit(r.Context(), userID, req.Amount)
	if err != nil {
		writeDomainError(w, "failed to initialize deposit", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.DepositFromUseCase(result))
}

// Status returns the state of one of the caller's deposits.
func (h *DepositHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	reference := chi.URLParam(r, "reference")
	if reference == "" {
		writeError(w, http.StatusBadRequest, "missing reference", "")
		return
	}

	txn, err := h.depositUC.GetDepositStatus(r.Context(), userID, reference)
	if err != nil {
		writeDomainError(w, "failed to get deposit status", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DepositStatusFromDomain(txn))
}
