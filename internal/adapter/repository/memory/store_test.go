package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/adapter/repository/memory"
	"github.com/iho/gowallet/internal/domain"
)

func TestStore_RollbackUndoesWrites(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	wallets := memory.NewWalletRepository(store)
	txns := memory.NewTransactionRepository(store)
	outbox := memory.NewOutboxRepository(store)
	now := time.Now().UTC()

	tx, _ := store.Begin(ctx)
	if err := wallets.Create(ctx, tx, &domain.Wallet{ID: "w1", WalletNumber: "1000000001", UserID: "u1"}); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if _, err := wallets.Credit(ctx, tx, "w1", decimal.NewFromInt(10), now); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	tx, _ = store.Begin(ctx)
	if _, err := wallets.Debit(ctx, tx, "w1", decimal.NewFromInt(4), now); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if err := txns.Create(ctx, tx, &domain.Transaction{Reference: "WS_1", Type: domain.TransactionTypeTransfer, Status: domain.TransactionStatusSuccess}); err != nil {
		t.Fatalf("create txn: %v", err)
	}
	if err := outbox.Create(ctx, tx, &domain.OutboxEvent{ID: "e1"}); err != nil {
		t.Fatalf("create event: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	w, err := wallets.GetByID(ctx, "w1")
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if !w.Balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("balance = %s, want 10", w.Balance)
	}
	if _, err := txns.GetByReference(ctx, "WS_1"); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("expected rolled back transaction to be gone, got %v", err)
	}
	if events, _ := outbox.GetUnpublished(ctx, 10); len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}

	if err := tx.Commit(ctx); !errors.Is(err, memory.ErrTxClosed) {
		t.Errorf("expected ErrTxClosed, got %v", err)
	}
}

func TestStore_DebitNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	wallets := memory.NewWalletRepository(store)

	tx, _ := store.Begin(ctx)
	_ = wallets.Create(ctx, tx, &domain.Wallet{ID: "w1", WalletNumber: "1000000001", UserID: "u1"})

	if _, err := wallets.Debit(ctx, tx, "w1", decimal.NewFromInt(1), time.Now()); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
	_ = tx.Commit(ctx)
}

func TestStore_BeginHonoursContext(t *testing.T) {
	store := memory.NewStore()

	tx, err := store.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := store.Begin(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded while another transaction is open, got %v", err)
	}
}

func TestStore_CompareAndSetStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	txns := memory.NewTransactionRepository(store)
	now := time.Now().UTC()

	tx, _ := store.Begin(ctx)
	_ = txns.Create(ctx, tx, &domain.Transaction{Reference: "WS_1", Type: domain.TransactionTypeDeposit, Status: domain.TransactionStatusPending, Amount: decimal.NewFromInt(5)})
	_ = tx.Commit(ctx)

	confirmed := decimal.NewFromInt(6)
	transition := domain.StatusTransition{
		Reference: "WS_1",
		Type:      domain.TransactionTypeDeposit,
		From:      domain.TransactionStatusPending,
		To:        domain.TransactionStatusSuccess,
		Amount:    &confirmed,
		At:        now,
	}

	tx, _ = store.Begin(ctx)
	got, swapped, err := txns.CompareAndSetStatus(ctx, tx, transition)
	if err != nil || !swapped {
		t.Fatalf("first swap: swapped=%v err=%v", swapped, err)
	}
	if !got.Amount.Equal(confirmed) {
		t.Errorf("amount = %s, want %s", got.Amount, confirmed)
	}
	_ = tx.Commit(ctx)

	tx, _ = store.Begin(ctx)
	got, swapped, err = txns.CompareAndSetStatus(ctx, tx, transition)
	if err != nil || swapped {
		t.Fatalf("second swap: swapped=%v err=%v", swapped, err)
	}
	if got.Status != domain.TransactionStatusSuccess {
		t.Errorf("status = %s, want success", got.Status)
	}

	transition.Type = domain.TransactionTypeTransfer
	if _, _, err := txns.CompareAndSetStatus(ctx, tx, transition); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("expected ErrTransactionNotFound for type mismatch, got %v", err)
	}
	_ = tx.Rollback(ctx)
}
