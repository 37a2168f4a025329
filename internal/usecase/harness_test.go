package usecase_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/adapter/repository/memory"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

type seqGenerator struct {
	prefix string
	n      atomic.Int64
}

func (g *seqGenerator) Generate() string {
	return fmt.Sprintf("%s%06d", g.prefix, g.n.Add(1))
}

type fixedNumbers struct {
	numbers []string
	i       int
}

func (g *fixedNumbers) Generate() (string, error) {
	if g.i >= len(g.numbers) {
		return "", fmt.Errorf("no more wallet numbers")
	}
	n := g.numbers[g.i]
	g.i++
	return n, nil
}

type harness struct {
	store   *memory.Store
	wallets *memory.WalletRepository
	txns    *memory.TransactionRepository
	users   *memory.UserRepository
	outbox  *memory.OutboxRepository
	audit   *memory.AuditRepository
	ledger  *memory.LedgerRepository
	ids     *seqGenerator
	refs    *seqGenerator
	settler *usecase.SettlementUseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := memory.NewStore()
	h := &harness{
		store:   store,
		wallets: memory.NewWalletRepository(store),
		txns:    memory.NewTransactionRepository(store),
		users:   memory.NewUserRepository(store),
		outbox:  memory.NewOutboxRepository(store),
		audit:   memory.NewAuditRepository(store),
		ledger:  memory.NewLedgerRepository(store),
		ids:     &seqGenerator{prefix: "id-"},
		refs:    &seqGenerator{prefix: "WS_"},
	}

	h.settler = usecase.NewSettlementUseCase(store, h.wallets, h.txns, h.outbox, h.audit, h.ids, nil, nil, zerolog.Nop())

	return h
}

// addWallet registers a user with a wallet. A positive balance is funded by a
// settled deposit so the ledger stays consistent.
func (h *harness) addWallet(t *testing.T, userID, number string, balance decimal.Decimal) *domain.Wallet {
	t.Helper()

	ctx := context.Background()
	now := time.Now().UTC()

	h.store.AddUser(&domain.User{ID: userID, Email: userID + "@example.com", Name: "User " + userID, CreatedAt: now, UpdatedAt: now})

	wallet := &domain.Wallet{ID: "w-" + userID, WalletNumber: number, UserID: userID, CreatedAt: now, UpdatedAt: now}

	tx, err := h.store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	if err := h.wallets.Create(ctx, tx, wallet); err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	if balance.IsPositive() {
		walletID := wallet.ID
		if err := h.txns.Create(ctx, tx, &domain.Transaction{
			ID:               h.ids.Generate(),
			Reference:        h.refs.Generate(),
			Type:             domain.TransactionTypeDeposit,
			Status:           domain.TransactionStatusSuccess,
			Amount:           balance,
			UserID:           userID,
			ReceiverWalletID: &walletID,
			CreatedAt:        now,
			UpdatedAt:        now,
		}); err != nil {
			t.Fatalf("seed deposit: %v", err)
		}

		if _, err := h.wallets.Credit(ctx, tx, wallet.ID, balance, now); err != nil {
			t.Fatalf("seed balance: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	return wallet
}

func (h *harness) addPendingDeposit(t *testing.T, wallet *domain.Wallet, reference string, amount decimal.Decimal, createdAt time.Time) {
	t.Helper()

	ctx := context.Background()

	tx, err := h.store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	walletID := wallet.ID
	if err := h.txns.Create(ctx, tx, &domain.Transaction{
		ID:               h.ids.Generate(),
		Reference:        reference,
		Type:             domain.TransactionTypeDeposit,
		Status:           domain.TransactionStatusPending,
		Amount:           amount,
		UserID:           wallet.UserID,
		ReceiverWalletID: &walletID,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}); err != nil {
		t.Fatalf("create pending deposit: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func (h *harness) balance(t *testing.T, walletID string) decimal.Decimal {
	t.Helper()

	w, err := h.wallets.GetByID(context.Background(), walletID)
	if err != nil {
		t.Fatalf("get wallet %s: %v", walletID, err)
	}

	return w.Balance
}

func (h *harness) status(t *testing.T, reference string) domain.TransactionStatus {
	t.Helper()

	txn, err := h.txns.GetByReference(context.Background(), reference)
	if err != nil {
		t.Fatalf("get transaction %s: %v", reference, err)
	}

	return txn.Status
}

func (h *harness) assertConsistent(t *testing.T) {
	t.Helper()

	report, err := usecase.NewLedgerUseCase(h.ledger).CheckConsistency(context.Background())
	if err != nil {
		t.Fatalf("ledger inconsistent: balances=%s deposits=%s err=%v", report.TotalBalance, report.TotalDeposits, err)
	}
}

func (h *harness) eventsOfType(t *testing.T, eventType string) []*domain.OutboxEvent {
	t.Helper()

	events, err := h.outbox.GetUnpublished(context.Background(), 0)
	if err != nil {
		t.Fatalf("get outbox: %v", err)
	}

	var out []*domain.OutboxEvent
	for _, e := range events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}

	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
