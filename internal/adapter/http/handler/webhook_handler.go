package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/adapter/gateway/paystack"
	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/logging"
)

// maxWebhookBody bounds the payload read from the gateway.
const maxWebhookBody = 1 << 20

// WebhookService defines the behavior needed by WebhookHandler.
type WebhookService interface {
	Handle(ctx context.Context, payload []byte, signature string) error
}

// WebhookHandler receives payment notifications from the gateway.
type WebhookHandler struct {
	webhookUC WebhookService
	logger    zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookUC WebhookService, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{webhookUC: webhookUC, logger: logger}
}

// Receive authenticates the raw body and hands it to the reconciler.
// Every authenticated notification is acknowledged with 200 so the gateway
// stops retrying; only a bad signature or an unreadable body is refused.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large", "")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read body", "")
		return
	}

	signature := r.Header.Get(paystack.SignatureHeader)

	if err := h.webhookUC.Handle(r.Context(), payload, signature); err != nil {
		log := logging.FromContext(r.Context(), h.logger)
		if errors.Is(err, domain.ErrInvalidSignature) {
			log.Warn().Msg("webhook rejected: invalid signature")
			writeError(w, http.StatusUnauthorized, "invalid signature", "")
			return
		}
		log.Error().Err(err).Msg("webhook handling failed")
		writeError(w, http.StatusInternalServerError, "webhook processing failed", "")
		return
	}

	writeJSON(w, http.StatusOK, dto.WebhookAck{Status: true})
}
