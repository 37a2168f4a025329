package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
)

// TransferUseCase handles wallet-to-wallet transfers.
type TransferUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	txnRepo    TransactionRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	refGen     ReferenceGenerator
	retrier    Retrier
	metrics    MetricsRecorder
	logger     zerolog.Logger
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	txnRepo TransactionRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	refGen ReferenceGenerator,
	retrier Retrier,
	metrics MetricsRecorder,
	logger zerolog.Logger,
) *TransferUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}

	return &TransferUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		txnRepo:    txnRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		refGen:     refGen,
		retrier:    retrier,
		metrics:    metrics,
		logger:     logger.With().Str("component", "transfer").Logger(),
	}
}

// TransferInput represents input for a transfer.
type TransferInput struct {
	PayerUserID          string
	ReceiverWalletNumber string
	Amount               decimal.Decimal
}

// Transfer moves amount from the payer's wallet to the wallet with the given number.
// Both balances change in one database transaction, or neither does.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*domain.Transaction, error) {
	start := time.Now()

	txn, err := uc.transfer(ctx, input)

	uc.metrics.ObserveTransfer(outcomeFor(err), input.Amount, time.Since(start))

	if err != nil {
		uc.logger.Info().
			Err(err).
			Str("user_id", input.PayerUserID).
			Str("receiver_wallet_number", input.ReceiverWalletNumber).
			Str("amount", input.Amount.String()).
			Msg("transfer rejected")

		return nil, err
	}

	uc.logger.Info().
		Str("reference", txn.Reference).
		Str("user_id", input.PayerUserID).
		Str("amount", txn.Amount.String()).
		Msg("transfer completed")

	return txn, nil
}

func (uc *TransferUseCase) transfer(ctx context.Context, input TransferInput) (*domain.Transaction, error) {
	// 0. Validate inputs before starting transaction
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if err := domain.ValidateWalletNumber(input.ReceiverWalletNumber); err != nil {
		return nil, err
	}

	payer, err := uc.walletRepo.GetByUserID(ctx, input.PayerUserID)
	if err != nil {
		return nil, err
	}

	receiver, err := uc.walletRepo.GetByWalletNumber(ctx, input.ReceiverWalletNumber)
	if err != nil {
		return nil, err
	}

	if payer.ID == receiver.ID {
		return nil, domain.ErrSameWallet
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	var txn *domain.Transaction
	err = retry(ctx, uc.retrier, func() error {
		var err error
		txn, err = uc.execute(ctx, input.PayerUserID, payer.ID, receiver, input.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	return txn, nil
}

func (uc *TransferUseCase) execute(
	ctx context.Context,
	payerUserID, payerWalletID string,
	receiver *domain.Wallet,
	amount decimal.Decimal,
) (*domain.Transaction, error) {
	// 1. Sort wallet IDs (DEADLOCK PREVENTION)
	walletIDs := []string{payerWalletID, receiver.ID}
	sort.Strings(walletIDs)

	// 2. Begin transaction
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 3. Lock wallets in sorted order
	wallets, err := uc.walletRepo.GetByIDsForUpdate(ctx, tx, walletIDs)
	if err != nil {
		return nil, err
	}

	if len(wallets) != len(walletIDs) {
		return nil, domain.ErrWalletNotFound
	}

	var payer *domain.Wallet
	for _, w := range wallets {
		if w.ID == payerWalletID {
			payer = w
		}
	}

	if payer == nil {
		return nil, domain.ErrWalletNotFound
	}

	if !payer.CanDebit(amount) {
		return nil, domain.ErrInsufficientFunds
	}

	// 4. Move funds
	now := time.Now().UTC()

	if _, err := uc.walletRepo.Debit(ctx, tx, payer.ID, amount, now); err != nil {
		return nil, err
	}

	if _, err := uc.walletRepo.Credit(ctx, tx, receiver.ID, amount, now); err != nil {
		return nil, err
	}

	// 5. Record the transfer
	senderID, receiverID := payer.ID, receiver.ID
	txn := &domain.Transaction{
		ID:               uc.idGen.Generate(),
		Reference:        uc.refGen.Generate(),
		Type:             domain.TransactionTypeTransfer,
		Status:           domain.TransactionStatusSuccess,
		Amount:           amount,
		UserID:           payerUserID,
		SenderWalletID:   &senderID,
		ReceiverWalletID: &receiverID,
		Description:      "Transfer to " + receiver.WalletNumber,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
		return nil, err
	}

	if err := uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   txn.Reference,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     domain.EventTypeTransferCompleted,
		Payload: domain.MarshalState(domain.TransferCompletedEvent{
			Reference:        txn.Reference,
			SenderWalletID:   senderID,
			ReceiverWalletID: receiverID,
			Amount:           amount.StringFixed(domain.MinorUnitExponent),
		}),
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	// 6. Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return txn, nil
}
