// Package memory is an in-process implementation of the ledger storage ports.
// Write transactions are serialized and undone on rollback, which gives the
// same atomicity and single-writer guarantees the SQL implementation gets
// from row locks.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// ErrTxClosed is returned when a committed or rolled back transaction is used.
var ErrTxClosed = errors.New("memory: transaction already closed")

// Store holds all in-memory state.
type Store struct {
	sem chan struct{}

	mu              sync.RWMutex
	wallets         map[string]*domain.Wallet
	walletsByUser   map[string]string
	walletsByNumber map[string]string
	txns            map[string]*domain.Transaction
	users           map[string]*domain.User
	outbox          []*domain.OutboxEvent
	audit           []*domain.AuditLog
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		sem:             make(chan struct{}, 1),
		wallets:         make(map[string]*domain.Wallet),
		walletsByUser:   make(map[string]string),
		walletsByNumber: make(map[string]string),
		txns:            make(map[string]*domain.Transaction),
		users:           make(map[string]*domain.User),
	}
}

// Begin starts a write transaction. Only one may be open at a time.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	select {
	case s.sem <- struct{}{}:
		return &Tx{store: s}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AddUser registers an account holder.
func (s *Store) AddUser(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := *user
	s.users[u.ID] = &u
}

// Tx is a serialized write transaction with an undo log.
type Tx struct {
	store *Store
	undo  []func()
	done  bool
}

// Commit keeps all changes made in the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxClosed
	}

	t.done = true
	t.undo = nil
	<-t.store.sem

	return nil
}

// Rollback reverts all changes made in the transaction. It is a no-op after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}

	t.done = true

	t.store.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.store.mu.Unlock()

	t.undo = nil
	<-t.store.sem

	return nil
}

func (t *Tx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t == nil {
		return nil, errors.New("memory: foreign or nil transaction")
	}

	if t.done {
		return nil, ErrTxClosed
	}

	return t, nil
}

func cloneWallet(w *domain.Wallet) *domain.Wallet {
	c := *w
	return &c
}

func cloneTransaction(t *domain.Transaction) *domain.Transaction {
	c := *t
	c.SenderWalletID = cloneString(t.SenderWalletID)
	c.ReceiverWalletID = cloneString(t.ReceiverWalletID)
	c.GatewayReference = cloneString(t.GatewayReference)
	if t.LastVerifiedAt != nil {
		at := *t.LastVerifiedAt
		c.LastVerifiedAt = &at
	}

	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}

	c := *s
	return &c
}
