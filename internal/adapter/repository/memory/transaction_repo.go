package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// ErrDuplicateReference mirrors the unique constraint on transaction references.
var ErrDuplicateReference = errors.New("memory: duplicate transaction reference")

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// Create inserts a transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.txns[txn.Reference]; ok {
		return ErrDuplicateReference
	}

	s.txns[txn.Reference] = cloneTransaction(txn)
	t.onRollback(func() {
		delete(s.txns, txn.Reference)
	})

	return nil
}

// GetByReference retrieves a transaction by reference.
func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	txn, ok := r.store.txns[reference]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}

	return cloneTransaction(txn), nil
}

// CompareAndSetStatus applies transition if the stored status equals transition.From.
func (r *TransactionRepository) CompareAndSetStatus(ctx context.Context, tx usecase.Transaction, transition domain.StatusTransition) (*domain.Transaction, bool, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, false, err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.txns[transition.Reference]
	if !ok || txn.Type != transition.Type {
		return nil, false, domain.ErrTransactionNotFound
	}

	if txn.Status != transition.From {
		return cloneTransaction(txn), false, nil
	}

	prev := cloneTransaction(txn)
	if err := txn.Transition(transition.To, transition.FailureReason, transition.At); err != nil {
		return nil, false, err
	}
	if transition.Amount != nil {
		txn.Amount = *transition.Amount
	}

	t.onRollback(func() {
		s.txns[prev.Reference] = prev
	})

	return cloneTransaction(txn), true, nil
}

// SetGatewayReference stores the gateway's own reference for a deposit.
func (r *TransactionRepository) SetGatewayReference(ctx context.Context, reference, gatewayReference string, updatedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	txn, ok := r.store.txns[reference]
	if !ok {
		return domain.ErrTransactionNotFound
	}

	txn.GatewayReference = &gatewayReference
	txn.UpdatedAt = updatedAt

	return nil
}

// ListByUser lists transactions initiated by or paid to the user, newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	walletID := s.walletsByUser[userID]

	var items []*domain.Transaction
	for _, txn := range s.txns {
		incoming := walletID != "" && txn.ReceiverWalletID != nil && *txn.ReceiverWalletID == walletID
		if txn.UserID == userID || incoming {
			items = append(items, cloneTransaction(txn))
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].Reference > items[j].Reference
	})

	return page(items, limit, offset), nil
}

// ListPendingDeposits lists pending deposits created in [createdAfter, createdBefore),
// least recently verified first.
func (r *TransactionRepository) ListPendingDeposits(ctx context.Context, createdAfter, createdBefore time.Time, limit int) ([]*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var items []*domain.Transaction
	for _, txn := range r.store.txns {
		if txn.Type != domain.TransactionTypeDeposit || txn.Status != domain.TransactionStatusPending {
			continue
		}
		if txn.CreatedAt.Before(createdAfter) || !txn.CreatedAt.Before(createdBefore) {
			continue
		}
		items = append(items, cloneTransaction(txn))
	}

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i].LastVerifiedAt, items[j].LastVerifiedAt
		switch {
		case a == nil && b != nil:
			return true
		case a != nil && b == nil:
			return false
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	return page(items, limit, 0), nil
}

// ExpirePendingDeposits fails pending deposits created before createdBefore.
func (r *TransactionRepository) ExpirePendingDeposits(ctx context.Context, tx usecase.Transaction, createdBefore, at time.Time) ([]*domain.Transaction, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*domain.Transaction
	for _, txn := range s.txns {
		if txn.Type != domain.TransactionTypeDeposit || txn.Status != domain.TransactionStatusPending {
			continue
		}
		if !txn.CreatedAt.Before(createdBefore) {
			continue
		}

		prev := cloneTransaction(txn)
		if err := txn.Transition(domain.TransactionStatusFailed, domain.FailureReasonExpired, at); err != nil {
			return nil, err
		}
		t.onRollback(func() {
			s.txns[prev.Reference] = prev
		})

		expired = append(expired, cloneTransaction(txn))
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].CreatedAt.Before(expired[j].CreatedAt)
	})

	return expired, nil
}

// RecordVerifyAttempt bumps the verify counter of a transaction.
func (r *TransactionRepository) RecordVerifyAttempt(ctx context.Context, reference string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	txn, ok := r.store.txns[reference]
	if !ok {
		return domain.ErrTransactionNotFound
	}

	txn.VerifyAttempts++
	verifiedAt := at
	txn.LastVerifiedAt = &verifiedAt

	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}

	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}
