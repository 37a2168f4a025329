package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/postgres/generated"
	"github.com/iho/gowallet/internal/usecase"
)

// Unique constraints on wallets, as named in the schema.
const (
	constraintWalletUser   = "wallets_user_id_key"
	constraintWalletNumber = "wallets_wallet_number_key"
)

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	queries *generated.Queries
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(db generated.DBTX) *WalletRepository {
	return &WalletRepository{
		queries: generated.New(db),
	}
}

// Create inserts a wallet within a transaction.
func (r *WalletRepository) Create(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	err = queries.CreateWallet(ctx, generated.CreateWalletParams{
		ID:           wallet.ID,
		WalletNumber: wallet.WalletNumber,
		UserID:       wallet.UserID,
		Balance:      decimalToNumeric(wallet.Balance),
		CreatedAt:    timeToPgTimestamptz(wallet.CreatedAt),
		UpdatedAt:    timeToPgTimestamptz(wallet.UpdatedAt),
	})
	if constraint, ok := uniqueViolation(err); ok {
		switch constraint {
		case constraintWalletUser:
			return domain.ErrWalletExists
		case constraintWalletNumber:
			return domain.ErrWalletNumberTaken
		}
	}

	return err
}

// GetByID retrieves a wallet by ID.
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	row, err := r.queries.GetWalletByID(ctx, id)
	if err != nil {
		return nil, walletError(err)
	}

	return rowToWallet(row), nil
}

// GetByUserID retrieves the wallet owned by a user.
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	row, err := r.queries.GetWalletByUserID(ctx, userID)
	if err != nil {
		return nil, walletError(err)
	}

	return rowToWallet(row), nil
}

// GetByWalletNumber retrieves a wallet by its public number.
func (r *WalletRepository) GetByWalletNumber(ctx context.Context, walletNumber string) (*domain.Wallet, error) {
	row, err := r.queries.GetWalletByNumber(ctx, walletNumber)
	if err != nil {
		return nil, walletError(err)
	}

	return rowToWallet(row), nil
}

// GetByIDsForUpdate retrieves wallets with FOR UPDATE locks taken in id order.
func (r *WalletRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Wallet, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	rows, err := queries.GetWalletsByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}

	wallets := make([]*domain.Wallet, 0, len(rows))
	for _, row := range rows {
		wallets = append(wallets, rowToWallet(row))
	}

	return wallets, nil
}

// Debit subtracts amount in SQL, guarded by balance >= amount.
func (r *WalletRepository) Debit(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, updatedAt time.Time) (decimal.Decimal, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := queries.DebitWallet(ctx, generated.DebitWalletParams{
		ID:        id,
		Amount:    decimalToNumeric(amount),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrInsufficientFunds
		}

		return decimal.Zero, fmt.Errorf("debit wallet %s: %w", id, err)
	}

	return numericToDecimal(balance), nil
}

// Credit adds amount in SQL.
func (r *WalletRepository) Credit(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, updatedAt time.Time) (decimal.Decimal, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := queries.CreditWallet(ctx, generated.CreditWalletParams{
		ID:        id,
		Amount:    decimalToNumeric(amount),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrWalletNotFound
		}

		return decimal.Zero, fmt.Errorf("credit wallet %s: %w", id, err)
	}

	return numericToDecimal(balance), nil
}

func walletError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrWalletNotFound
	}

	return err
}

func rowToWallet(row generated.Wallet) *domain.Wallet {
	return &domain.Wallet{
		ID:           row.ID,
		WalletNumber: row.WalletNumber,
		UserID:       row.UserID,
		Balance:      numericToDecimal(row.Balance),
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}
}
