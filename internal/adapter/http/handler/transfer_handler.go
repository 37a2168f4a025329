package handler

import (
	"context"
	"net/http"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	Transfer(ctx context.Context, input usecase.TransferInput) (*domain.Transaction, error)
}

// TransferHandler handles wallet-to-wallet transfers.
type TransferHandler struct {
	transferUC TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferUC TransferService) *TransferHandler {
	return &TransferHandler{transferUC: transferUC}
}

// Create moves funds from the caller's wallet to another wallet.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transfer", err.Error())
		return
	}

	txn, err := h.transferUC.Transfer(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to transfer", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(txn))
}
