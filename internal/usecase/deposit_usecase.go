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

// InitializeRequest asks the gateway to start a payment.
type InitializeRequest struct {
	Email       string
	AmountMinor int64
	Reference   string
}

// InitializeResult is the gateway's answer to InitializeRequest.
type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// VerifyResult is the gateway's view of a payment.
type VerifyResult struct {
	Reference   string
	Status      string
	AmountMinor int64
}

// DepositResult is returned to the payer to complete the payment.
type DepositResult struct {
	Reference        string
	AuthorizationURL string
}

// DepositUseCase starts deposits with the payment gateway.
type DepositUseCase struct {
	txManager      TransactionManager
	walletRepo     WalletRepository
	txnRepo        TransactionRepository
	userRepo       UserRepository
	outboxRepo     OutboxRepository
	gateway        PaymentGateway
	settler        Settler
	idGen          IDGenerator
	refGen         ReferenceGenerator
	gatewayTimeout time.Duration
	metrics        MetricsRecorder
	logger         zerolog.Logger
}

// DepositDeps groups the collaborators of DepositUseCase.
type DepositDeps struct {
	TxManager      TransactionManager
	WalletRepo     WalletRepository
	TxnRepo        TransactionRepository
	UserRepo       UserRepository
	OutboxRepo     OutboxRepository
	Gateway        PaymentGateway
	Settler        Settler
	IDGen          IDGenerator
	RefGen         ReferenceGenerator
	GatewayTimeout time.Duration
	Metrics        MetricsRecorder
	Logger         zerolog.Logger
}

// NewDepositUseCase creates a new DepositUseCase.
func NewDepositUseCase(deps DepositDeps) *DepositUseCase {
	if deps.GatewayTimeout <= 0 {
		deps.GatewayTimeout = DefaultGatewayTimeout
	}
	if deps.Metrics == nil {
		deps.Metrics = NopMetrics{}
	}

	return &DepositUseCase{
		txManager:      deps.TxManager,
		walletRepo:     deps.WalletRepo,
		txnRepo:        deps.TxnRepo,
		userRepo:       deps.UserRepo,
		outboxRepo:     deps.OutboxRepo,
		gateway:        deps.Gateway,
		settler:        deps.Settler,
		idGen:          deps.IDGen,
		refGen:         deps.RefGen,
		gatewayTimeout: deps.GatewayTimeout,
		metrics:        deps.Metrics,
		logger:         deps.Logger.With().Str("component", "deposit").Logger(),
	}
}

// Deposit records a pending deposit and asks the gateway for a payment page.
// The pending record is committed before the gateway is contacted, so a payment
// can always be matched to it.
func (uc *DepositUseCase) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*DepositResult, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		uc.metrics.ObserveDeposit(OutcomeRejected)
		return nil, err
	}

	amountMinor, err := domain.ToMinorUnits(amount)
	if err != nil {
		uc.metrics.ObserveDeposit(OutcomeRejected)
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		uc.metrics.ObserveDeposit(outcomeFor(err))
		return nil, err
	}

	wallet, err := uc.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		uc.metrics.ObserveDeposit(outcomeFor(err))
		return nil, err
	}

	txn, err := uc.createPending(ctx, userID, wallet.ID, amount)
	if err != nil {
		uc.metrics.ObserveDeposit(OutcomeError)
		return nil, err
	}

	gctx, cancel := context.WithTimeout(ctx, uc.gatewayTimeout)
	res, err := uc.gateway.Initialize(gctx, InitializeRequest{
		Email:       user.Email,
		AmountMinor: amountMinor,
		Reference:   txn.Reference,
	})
	cancel()

	if err != nil {
		uc.logger.Error().
			Err(err).
			Str("reference", txn.Reference).
			Str("user_id", userID).
			Msg("gateway initialize failed")

		// The caller may have gone away; the failure must still be recorded.
		if _, ferr := uc.settler.ApplyFailure(context.WithoutCancel(ctx), FailInput{
			Reference: txn.Reference,
			Reason:    domain.FailureReasonGatewayInitialize,
			Source:    SettleSourceInitiator,
		}); ferr != nil {
			uc.logger.Error().Err(ferr).Str("reference", txn.Reference).Msg("failed to mark deposit failed")
		}

		uc.metrics.ObserveDeposit(OutcomeError)

		if errors.Is(err, domain.ErrGatewayUnavailable) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	if res.Reference != "" {
		if err := uc.txnRepo.SetGatewayReference(ctx, txn.Reference, res.Reference, time.Now().UTC()); err != nil {
			uc.logger.Warn().Err(err).Str("reference", txn.Reference).Msg("failed to store gateway reference")
		}
	}

	uc.metrics.ObserveDeposit(OutcomeSuccess)
	uc.logger.Info().
		Str("reference", txn.Reference).
		Str("user_id", userID).
		Str("amount", amount.String()).
		Msg("deposit initiated")

	return &DepositResult{
		Reference:        txn.Reference,
		AuthorizationURL: res.AuthorizationURL,
	}, nil
}

func (uc *DepositUseCase) createPending(ctx context.Context, userID, walletID string, amount decimal.Decimal) (*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	receiverID := walletID
	txn := &domain.Transaction{
		ID:               uc.idGen.Generate(),
		Reference:        uc.refGen.Generate(),
		Type:             domain.TransactionTypeDeposit,
		Status:           domain.TransactionStatusPending,
		Amount:           amount,
		UserID:           userID,
		ReceiverWalletID: &receiverID,
		Description:      depositDescription,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
		return nil, err
	}

	if err := uc.outboxRepo.Create(ctx, tx, newDepositEvent(uc.idGen.Generate(), txn, domain.EventTypeDepositInitiated, amount, SettleSourceInitiator, "", now)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return txn, nil
}

// GetDepositStatus returns a deposit owned by userID.
func (uc *DepositUseCase) GetDepositStatus(ctx context.Context, userID, reference string) (*domain.Transaction, error) {
	if err := domain.ValidateReference(reference); err != nil {
		return nil, err
	}

	txn, err := uc.txnRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	if txn.Type != domain.TransactionTypeDeposit || txn.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}

	return txn, nil
}
