package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
)

// WalletDetails is a wallet together with its owner's contact data.
type WalletDetails struct {
	Wallet     *domain.Wallet
	OwnerName  string
	OwnerEmail string
}

// WalletUseCase handles wallet provisioning and read-side queries.
type WalletUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	txnRepo    TransactionRepository
	userRepo   UserRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	numberGen  WalletNumberGenerator
	logger     zerolog.Logger
}

// NewWalletUseCase creates a new WalletUseCase.
func NewWalletUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	txnRepo TransactionRepository,
	userRepo UserRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	numberGen WalletNumberGenerator,
	logger zerolog.Logger,
) *WalletUseCase {
	return &WalletUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		txnRepo:    txnRepo,
		userRepo:   userRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		numberGen:  numberGen,
		logger:     logger.With().Str("component", "wallet").Logger(),
	}
}

// ProvisionWallet returns the user's wallet, creating it on first call.
func (uc *WalletUseCase) ProvisionWallet(ctx context.Context, userID string) (*domain.Wallet, bool, error) {
	wallet, err := uc.walletRepo.GetByUserID(ctx, userID)
	if err == nil {
		return wallet, false, nil
	}
	if !errors.Is(err, domain.ErrWalletNotFound) {
		return nil, false, err
	}

	if _, err := uc.userRepo.GetByID(ctx, userID); err != nil {
		return nil, false, err
	}

	for attempt := 0; attempt < maxWalletNumberAttempts; attempt++ {
		wallet, err = uc.create(ctx, userID)
		switch {
		case err == nil:
			uc.logger.Info().
				Str("user_id", userID).
				Str("wallet_number", wallet.WalletNumber).
				Msg("wallet created")

			return wallet, true, nil
		case errors.Is(err, domain.ErrWalletNumberTaken):
			continue
		case errors.Is(err, domain.ErrWalletExists):
			// Lost a race with a concurrent provision for the same user.
			wallet, err = uc.walletRepo.GetByUserID(ctx, userID)
			return wallet, false, err
		default:
			return nil, false, err
		}
	}

	return nil, false, err
}

func (uc *WalletUseCase) create(ctx context.Context, userID string) (*domain.Wallet, error) {
	number, err := uc.numberGen.Generate()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:           uc.idGen.Generate(),
		WalletNumber: number,
		UserID:       userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.walletRepo.Create(ctx, tx, wallet); err != nil {
		return nil, err
	}

	if err := uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   wallet.ID,
		AggregateType: domain.AggregateTypeWallet,
		EventType:     domain.EventTypeWalletCreated,
		Payload: domain.MarshalState(domain.WalletCreatedEvent{
			WalletID:     wallet.ID,
			WalletNumber: wallet.WalletNumber,
			UserID:       userID,
		}),
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return wallet, nil
}

// GetBalance returns the user's wallet.
func (uc *WalletUseCase) GetBalance(ctx context.Context, userID string) (*domain.Wallet, error) {
	return uc.walletRepo.GetByUserID(ctx, userID)
}

// GetDetails returns the user's wallet and owner information.
func (uc *WalletUseCase) GetDetails(ctx context.Context, userID string) (*WalletDetails, error) {
	wallet, err := uc.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &WalletDetails{
		Wallet:     wallet,
		OwnerName:  user.Name,
		OwnerEmail: user.Email,
	}, nil
}

// ListTransactions returns the user's transactions, newest first.
func (uc *WalletUseCase) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.txnRepo.ListByUser(ctx, userID, limit, offset)
}
