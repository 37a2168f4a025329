package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
)

// retry runs operation through r, or once when no retrier is configured.
func retry(ctx context.Context, r Retrier, operation func() error) error {
	if r == nil {
		return operation()
	}

	return r.Retry(ctx, operation)
}

// outcomeFor classifies an error for metrics: caller mistakes are "rejected",
// everything else is "error".
func outcomeFor(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidOperation),
		errors.Is(err, domain.ErrInsufficientFunds):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}

func newDepositEvent(
	id string,
	txn *domain.Transaction,
	eventType string,
	amount decimal.Decimal,
	source SettleSource,
	reason string,
	at time.Time,
) *domain.OutboxEvent {
	payload := domain.DepositSettledEvent{
		Reference: txn.Reference,
		UserID:    txn.UserID,
		Amount:    amount.StringFixed(domain.MinorUnitExponent),
		Status:    string(txn.Status),
		Source:    string(source),
		Reason:    reason,
	}
	if txn.ReceiverWalletID != nil {
		payload.WalletID = *txn.ReceiverWalletID
	}

	return &domain.OutboxEvent{
		ID:            id,
		AggregateID:   txn.Reference,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     eventType,
		Payload:       domain.MarshalState(payload),
		CreatedAt:     at,
	}
}

func transactionState(txn *domain.Transaction) domain.JSON {
	return domain.JSON{
		"reference":      txn.Reference,
		"type":           string(txn.Type),
		"status":         string(txn.Status),
		"amount":         txn.Amount.String(),
		"user_id":        txn.UserID,
		"failure_reason": txn.FailureReason,
	}
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) ObserveTransfer(string, decimal.Decimal, time.Duration) {}
func (NopMetrics) ObserveDeposit(string)                                  {}
func (NopMetrics) ObserveSettlement(SettleSource, SettleOutcome)          {}
func (NopMetrics) ObserveWebhook(string)                                  {}
func (NopMetrics) ObserveSweep(*SweepReport, time.Duration)               {}
