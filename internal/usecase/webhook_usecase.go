package usecase

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
)

// WebhookEvent is the gateway notification body.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

// WebhookData carries the payment fields of a notification. Amount is in minor units.
type WebhookData struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

// WebhookUseCase applies authenticated gateway notifications to the ledger.
type WebhookUseCase struct {
	verifier WebhookVerifier
	settler  Settler
	metrics  MetricsRecorder
	logger   zerolog.Logger
}

// NewWebhookUseCase creates a new WebhookUseCase.
func NewWebhookUseCase(verifier WebhookVerifier, settler Settler, metrics MetricsRecorder, logger zerolog.Logger) *WebhookUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}

	return &WebhookUseCase{
		verifier: verifier,
		settler:  settler,
		metrics:  metrics,
		logger:   logger.With().Str("component", "webhook").Logger(),
	}
}

// Handle verifies payload against signature and applies it.
// Only an authentication failure is returned as an error; once the sender is
// trusted the notification is acknowledged whatever happens downstream, and
// the sweeper picks up anything that could not be applied.
func (uc *WebhookUseCase) Handle(ctx context.Context, payload []byte, signature string) error {
	if signature == "" || !uc.verifier.VerifySignature(payload, signature) {
		uc.metrics.ObserveWebhook(OutcomeInvalid)
		uc.logger.Warn().Bool("signature_present", signature != "").Msg("webhook signature rejected")

		return domain.ErrInvalidSignature
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		uc.metrics.ObserveWebhook(OutcomeIgnored)
		uc.logger.Warn().Err(err).Msg("malformed webhook payload")

		return nil
	}

	if event.Event != WebhookEventChargeSuccess || event.Data.Reference == "" {
		uc.metrics.ObserveWebhook(OutcomeIgnored)
		uc.logger.Debug().Str("event", event.Event).Msg("webhook event ignored")

		return nil
	}

	var (
		outcome SettleOutcome
		err     error
	)

	if event.Data.Status == GatewayStatusSuccess {
		outcome, err = uc.settler.ApplySuccess(ctx, SettleInput{
			Reference:       event.Data.Reference,
			ConfirmedAmount: domain.FromMinorUnits(event.Data.Amount),
			Source:          SettleSourceWebhook,
		})
	} else {
		outcome, err = uc.settler.ApplyFailure(ctx, FailInput{
			Reference: event.Data.Reference,
			Reason:    domain.FailureReasonGatewayDeclined,
			Source:    SettleSourceWebhook,
		})
	}

	if err != nil {
		uc.metrics.ObserveWebhook(OutcomeError)
		uc.logger.Error().
			Err(err).
			Str("reference", event.Data.Reference).
			Str("status", event.Data.Status).
			Msg("failed to apply webhook")

		return nil
	}

	uc.metrics.ObserveWebhook(OutcomeSuccess)
	uc.logger.Info().
		Str("reference", event.Data.Reference).
		Str("status", event.Data.Status).
		Str("outcome", string(outcome)).
		Msg("webhook processed")

	return nil
}
