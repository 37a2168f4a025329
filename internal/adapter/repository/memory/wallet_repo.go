package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	store *Store
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(store *Store) *WalletRepository {
	return &WalletRepository{store: store}
}

// Create inserts a wallet, enforcing one wallet per user and unique wallet numbers.
func (r *WalletRepository) Create(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.walletsByUser[wallet.UserID]; ok {
		return domain.ErrWalletExists
	}

	if _, ok := s.walletsByNumber[wallet.WalletNumber]; ok {
		return domain.ErrWalletNumberTaken
	}

	w := cloneWallet(wallet)
	s.wallets[w.ID] = w
	s.walletsByUser[w.UserID] = w.ID
	s.walletsByNumber[w.WalletNumber] = w.ID

	t.onRollback(func() {
		delete(s.wallets, w.ID)
		delete(s.walletsByUser, w.UserID)
		delete(s.walletsByNumber, w.WalletNumber)
	})

	return nil
}

// GetByID retrieves a wallet by ID.
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	w, ok := r.store.wallets[id]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}

	return cloneWallet(w), nil
}

// GetByUserID retrieves the wallet owned by a user.
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	r.store.mu.RLock()
	id, ok := r.store.walletsByUser[userID]
	r.store.mu.RUnlock()

	if !ok {
		return nil, domain.ErrWalletNotFound
	}

	return r.GetByID(ctx, id)
}

// GetByWalletNumber retrieves a wallet by its public number.
func (r *WalletRepository) GetByWalletNumber(ctx context.Context, walletNumber string) (*domain.Wallet, error) {
	r.store.mu.RLock()
	id, ok := r.store.walletsByNumber[walletNumber]
	r.store.mu.RUnlock()

	if !ok {
		return nil, domain.ErrWalletNotFound
	}

	return r.GetByID(ctx, id)
}

// GetByIDsForUpdate retrieves wallets in ascending id order. The open
// transaction already excludes other writers.
func (r *WalletRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Wallet, error) {
	if _, err := asTx(tx); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	wallets := make([]*domain.Wallet, 0, len(sorted))
	for _, id := range sorted {
		if w, ok := r.store.wallets[id]; ok {
			wallets = append(wallets, cloneWallet(w))
		}
	}

	return wallets, nil
}

// Debit subtracts amount if the balance covers it.
func (r *WalletRepository) Debit(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, updatedAt time.Time) (decimal.Decimal, error) {
	return r.adjust(tx, id, amount.Neg(), updatedAt)
}

// Credit adds amount to the balance.
func (r *WalletRepository) Credit(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, updatedAt time.Time) (decimal.Decimal, error) {
	return r.adjust(tx, id, amount, updatedAt)
}

func (r *WalletRepository) adjust(tx usecase.Transaction, id string, delta decimal.Decimal, updatedAt time.Time) (decimal.Decimal, error) {
	t, err := asTx(tx)
	if err != nil {
		return decimal.Zero, err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[id]
	if !ok {
		return decimal.Zero, domain.ErrWalletNotFound
	}

	next := w.Balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, domain.ErrInsufficientFunds
	}

	prevBalance, prevUpdated := w.Balance, w.UpdatedAt
	w.Balance = next
	w.UpdatedAt = updatedAt

	t.onRollback(func() {
		w.Balance = prevBalance
		w.UpdatedAt = prevUpdated
	})

	return next, nil
}
