package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
)

// SettleSource names the channel that reported a gateway outcome.
type SettleSource string

const (
	SettleSourceWebhook   SettleSource = "webhook"
	SettleSourceSweeper   SettleSource = "sweeper"
	SettleSourceInitiator SettleSource = "initiator"
)

// SettleOutcome describes what a settlement call did to the ledger.
type SettleOutcome string

const (
	SettleApplied            SettleOutcome = "applied"
	SettleAlreadySucceeded   SettleOutcome = "already_succeeded"
	SettleAlreadyFailed      SettleOutcome = "already_failed"
	SettleLateSuccessBlocked SettleOutcome = "late_success_blocked"
	SettleUnknownReference   SettleOutcome = "unknown_reference"
)

// SettleInput is a confirmed successful payment.
type SettleInput struct {
	Reference       string
	ConfirmedAmount decimal.Decimal
	Source          SettleSource
}

// FailInput is a confirmed failed or abandoned payment.
type FailInput struct {
	Reference string
	Reason    string
	Source    SettleSource
}

// SettlementUseCase moves pending deposits to a terminal state.
// Webhook and sweeper both go through it; the status compare-and-set guarantees
// that at most one caller credits a wallet for a given reference.
type SettlementUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	txnRepo    TransactionRepository
	outboxRepo OutboxRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	retrier    Retrier
	metrics    MetricsRecorder
	logger     zerolog.Logger
}

// NewSettlementUseCase creates a new SettlementUseCase.
func NewSettlementUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	txnRepo TransactionRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	retrier Retrier,
	metrics MetricsRecorder,
	logger zerolog.Logger,
) *SettlementUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}

	return &SettlementUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		txnRepo:    txnRepo,
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
		retrier:    retrier,
		metrics:    metrics,
		logger:     logger.With().Str("component", "settlement").Logger(),
	}
}

// ApplySuccess credits the deposit's wallet by the confirmed amount if, and only if,
// the deposit is still pending. Repeated or concurrent calls for the same reference
// are no-ops after the first.
func (uc *SettlementUseCase) ApplySuccess(ctx context.Context, input SettleInput) (SettleOutcome, error) {
	if input.ConfirmedAmount.LessThanOrEqual(decimal.Zero) {
		return "", domain.ErrInvalidAmount
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	var outcome SettleOutcome
	err := retry(ctx, uc.retrier, func() error {
		var err error
		outcome, err = uc.applySuccess(ctx, input)
		return err
	})
	if err != nil {
		return "", err
	}

	uc.metrics.ObserveSettlement(input.Source, outcome)

	return outcome, nil
}

func (uc *SettlementUseCase) applySuccess(ctx context.Context, input SettleInput) (SettleOutcome, error) {
	current, err := uc.txnRepo.GetByReference(ctx, input.Reference)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			uc.logger.Warn().
				Str("reference", input.Reference).
				Str("source", string(input.Source)).
				Msg("success reported for unknown deposit")

			return SettleUnknownReference, nil
		}

		return "", err
	}

	if current.Type != domain.TransactionTypeDeposit {
		uc.logger.Warn().
			Str("reference", input.Reference).
			Str("type", string(current.Type)).
			Msg("success reported for non-deposit transaction")

		return SettleUnknownReference, nil
	}

	if current.Status == domain.TransactionStatusSuccess {
		uc.logger.Debug().
			Str("reference", input.Reference).
			Str("source", string(input.Source)).
			Msg("deposit already settled")

		return SettleAlreadySucceeded, nil
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	confirmed := input.ConfirmedAmount

	txn, swapped, err := uc.txnRepo.CompareAndSetStatus(ctx, tx, domain.StatusTransition{
		Reference: input.Reference,
		Type:      domain.TransactionTypeDeposit,
		From:      domain.TransactionStatusPending,
		To:        domain.TransactionStatusSuccess,
		Amount:    &confirmed,
		At:        now,
	})
	if err != nil {
		return "", err
	}

	if !swapped {
		switch txn.Status {
		case domain.TransactionStatusSuccess:
			uc.logger.Debug().
				Str("reference", input.Reference).
				Str("source", string(input.Source)).
				Msg("deposit already settled")

			return SettleAlreadySucceeded, nil
		case domain.TransactionStatusFailed:
			return uc.blockLateSuccess(ctx, tx, txn, input, now)
		default:
			return "", fmt.Errorf("deposit %s: %w from %s", txn.Reference, domain.ErrInvalidTransition, txn.Status)
		}
	}

	if txn.ReceiverWalletID == nil {
		return "", fmt.Errorf("deposit %s has no receiver wallet", txn.Reference)
	}

	if !current.Amount.Equal(input.ConfirmedAmount) {
		uc.logger.Warn().
			Str("reference", txn.Reference).
			Str("initiated_amount", current.Amount.String()).
			Str("confirmed_amount", input.ConfirmedAmount.String()).
			Msg("confirmed amount differs from initiated amount")
	}

	if _, err := uc.walletRepo.Credit(ctx, tx, *txn.ReceiverWalletID, input.ConfirmedAmount, now); err != nil {
		return "", err
	}

	event := newDepositEvent(uc.idGen.Generate(), txn, domain.EventTypeDepositSucceeded, input.ConfirmedAmount, input.Source, "", now)
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}

	uc.logger.Info().
		Str("reference", txn.Reference).
		Str("user_id", txn.UserID).
		Str("amount", input.ConfirmedAmount.String()).
		Str("source", string(input.Source)).
		Msg("deposit settled")

	return SettleApplied, nil
}

// blockLateSuccess records a success report for a deposit that was already failed.
// The wallet is not credited; operators resolve these from the audit trail.
func (uc *SettlementUseCase) blockLateSuccess(
	ctx context.Context,
	tx Transaction,
	txn *domain.Transaction,
	input SettleInput,
	now time.Time,
) (SettleOutcome, error) {
	uc.logger.Error().
		Str("reference", txn.Reference).
		Str("user_id", txn.UserID).
		Str("amount", input.ConfirmedAmount.String()).
		Str("failure_reason", txn.FailureReason).
		Str("source", string(input.Source)).
		Msg("success reported for failed deposit, not crediting")

	if err := uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       domain.SystemActor,
		Action:       string(domain.AuditActionDepositLateSuccess),
		ResourceType: domain.AggregateTypeTransaction,
		ResourceID:   txn.Reference,
		BeforeState:  transactionState(txn),
		AfterState: domain.JSON{
			"confirmed_amount": input.ConfirmedAmount.String(),
			"source":           string(input.Source),
		},
		Status:       string(domain.AuditStatusFailure),
		ErrorMessage: "late success blocked",
		CreatedAt:    now,
	}); err != nil {
		return "", err
	}

	event := newDepositEvent(uc.idGen.Generate(), txn, domain.EventTypeDepositLateSuccess, input.ConfirmedAmount, input.Source, txn.FailureReason, now)
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}

	return SettleLateSuccessBlocked, nil
}

// ApplyFailure marks a pending deposit failed. Deposits already in a terminal
// state are left untouched.
func (uc *SettlementUseCase) ApplyFailure(ctx context.Context, input FailInput) (SettleOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	var outcome SettleOutcome
	err := retry(ctx, uc.retrier, func() error {
		var err error
		outcome, err = uc.applyFailure(ctx, input)
		return err
	})
	if err != nil {
		return "", err
	}

	uc.metrics.ObserveSettlement(input.Source, outcome)

	return outcome, nil
}

func (uc *SettlementUseCase) applyFailure(ctx context.Context, input FailInput) (SettleOutcome, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	txn, swapped, err := uc.txnRepo.CompareAndSetStatus(ctx, tx, domain.StatusTransition{
		Reference:     input.Reference,
		Type:          domain.TransactionTypeDeposit,
		From:          domain.TransactionStatusPending,
		To:            domain.TransactionStatusFailed,
		FailureReason: input.Reason,
		At:            now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return SettleUnknownReference, nil
		}

		return "", err
	}

	if !swapped {
		if txn.Status == domain.TransactionStatusSuccess {
			uc.logger.Warn().
				Str("reference", txn.Reference).
				Str("reason", input.Reason).
				Msg("failure reported for settled deposit, ignoring")

			return SettleAlreadySucceeded, nil
		}

		return SettleAlreadyFailed, nil
	}

	event := newDepositEvent(uc.idGen.Generate(), txn, domain.EventTypeDepositFailed, txn.Amount, input.Source, input.Reason, now)
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}

	uc.logger.Info().
		Str("reference", txn.Reference).
		Str("reason", input.Reason).
		Str("source", string(input.Source)).
		Msg("deposit failed")

	return SettleApplied, nil
}
