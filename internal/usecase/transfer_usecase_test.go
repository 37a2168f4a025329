package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
	"github.com/iho/gowallet/internal/usecase/mocks"
)

func newTransferUseCase(h *harness, metrics usecase.MetricsRecorder) *usecase.TransferUseCase {
	return usecase.NewTransferUseCase(h.store, h.wallets, h.txns, h.outbox, h.ids, h.refs, nil, metrics, zerolog.Nop())
}

func TestTransferUseCase_Transfer(t *testing.T) {
	tests := []struct {
		name           string
		payerBalance   string
		receiverNumber string
		amount         string
		errorType      error
		wantPayer      string
		wantReceiver   string
	}{
		{
			name:           "successful transfer",
			payerBalance:   "500",
			receiverNumber: "2000000002",
			amount:         "200",
			wantPayer:      "300",
			wantReceiver:   "200",
		},
		{
			name:           "transfer entire balance",
			payerBalance:   "500",
			receiverNumber: "2000000002",
			amount:         "500",
			wantPayer:      "0",
			wantReceiver:   "500",
		},
		{
			name:           "reject insufficient funds",
			payerBalance:   "100",
			receiverNumber: "2000000002",
			amount:         "200",
			errorType:      domain.ErrInsufficientFunds,
			wantPayer:      "100",
			wantReceiver:   "0",
		},
		{
			name:           "reject transfer to own wallet",
			payerBalance:   "500",
			receiverNumber: "1000000001",
			amount:         "10",
			errorType:      domain.ErrSameWallet,
			wantPayer:      "500",
			wantReceiver:   "0",
		},
		{
			name:           "reject unknown receiver",
			payerBalance:   "500",
			receiverNumber: "9999999999",
			amount:         "10",
			errorType:      domain.ErrWalletNotFound,
			wantPayer:      "500",
			wantReceiver:   "0",
		},
		{
			name:           "reject malformed wallet number",
			payerBalance:   "500",
			receiverNumber: "12ab",
			amount:         "10",
			errorType:      domain.ErrInvalidWalletNumber,
			wantPayer:      "500",
			wantReceiver:   "0",
		},
		{
			name:           "reject zero amount",
			payerBalance:   "500",
			receiverNumber: "2000000002",
			amount:         "0",
			errorType:      domain.ErrInvalidAmount,
			wantPayer:      "500",
			wantReceiver:   "0",
		},
		{
			name:           "reject sub-minor-unit amount",
			payerBalance:   "500",
			receiverNumber: "2000000002",
			amount:         "1.005",
			errorType:      domain.ErrInvalidAmount,
			wantPayer:      "500",
			wantReceiver:   "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			payer := h.addWallet(t, "alice", "1000000001", dec(tt.payerBalance))
			receiver := h.addWallet(t, "bob", "2000000002", decimal.Zero)

			uc := newTransferUseCase(h, nil)
			txn, err := uc.Transfer(context.Background(), usecase.TransferInput{
				PayerUserID:          "alice",
				ReceiverWalletNumber: tt.receiverNumber,
				Amount:               dec(tt.amount),
			})

			if tt.errorType != nil {
				if !errors.Is(err, tt.errorType) {
					t.Errorf("expected error %v, got %v", tt.errorType, err)
				}
				if txn != nil {
					t.Errorf("expected nil transaction on error, got %+v", txn)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if txn.Type != domain.TransactionTypeTransfer || txn.Status != domain.TransactionStatusSuccess {
					t.Errorf("unexpected transaction %s/%s", txn.Type, txn.Status)
				}
				if *txn.SenderWalletID != payer.ID || *txn.ReceiverWalletID != receiver.ID {
					t.Errorf("unexpected wallets on transaction")
				}
				if got := h.eventsOfType(t, domain.EventTypeTransferCompleted); len(got) != 1 {
					t.Errorf("expected one transfer.completed event, got %d", len(got))
				}
			}

			if got := h.balance(t, payer.ID); !got.Equal(dec(tt.wantPayer)) {
				t.Errorf("payer balance = %s, want %s", got, tt.wantPayer)
			}
			if got := h.balance(t, receiver.ID); !got.Equal(dec(tt.wantReceiver)) {
				t.Errorf("receiver balance = %s, want %s", got, tt.wantReceiver)
			}

			h.assertConsistent(t)
		})
	}
}

func TestTransferUseCase_PayerWithoutWallet(t *testing.T) {
	h := newHarness(t)
	h.addWallet(t, "bob", "2000000002", decimal.Zero)

	_, err := newTransferUseCase(h, nil).Transfer(context.Background(), usecase.TransferInput{
		PayerUserID:          "ghost",
		ReceiverWalletNumber: "2000000002",
		Amount:               dec("1"),
	})
	if !errors.Is(err, domain.ErrWalletNotFound) {
		t.Errorf("expected ErrWalletNotFound, got %v", err)
	}
}

func TestTransferUseCase_ConcurrentTransfersNeverOverdraw(t *testing.T) {
	h := newHarness(t)
	payer := h.addWallet(t, "alice", "1000000001", dec("500"))
	receiver := h.addWallet(t, "bob", "2000000002", decimal.Zero)
	uc := newTransferUseCase(h, nil)

	const attempts = 12

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := uc.Transfer(context.Background(), usecase.TransferInput{
				PayerUserID:          "alice",
				ReceiverWalletNumber: "2000000002",
				Amount:               dec("100"),
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientFunds):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 5 || rejected != attempts-5 {
		t.Errorf("succeeded=%d rejected=%d, want 5/%d", succeeded, rejected, attempts-5)
	}
	if got := h.balance(t, payer.ID); !got.IsZero() {
		t.Errorf("payer balance = %s, want 0", got)
	}
	if got := h.balance(t, receiver.ID); !got.Equal(dec("500")) {
		t.Errorf("receiver balance = %s, want 500", got)
	}

	h.assertConsistent(t)
}

func TestTransferUseCase_OpposingTransfers(t *testing.T) {
	h := newHarness(t)
	a := h.addWallet(t, "alice", "1000000001", dec("1000"))
	b := h.addWallet(t, "bob", "2000000002", dec("1000"))
	uc := newTransferUseCase(h, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := uc.Transfer(context.Background(), usecase.TransferInput{PayerUserID: "alice", ReceiverWalletNumber: "2000000002", Amount: dec("10")}); err != nil {
				t.Errorf("alice->bob: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := uc.Transfer(context.Background(), usecase.TransferInput{PayerUserID: "bob", ReceiverWalletNumber: "1000000001", Amount: dec("10")}); err != nil {
				t.Errorf("bob->alice: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := h.balance(t, a.ID).Add(h.balance(t, b.ID)); !got.Equal(dec("2000")) {
		t.Errorf("total = %s, want 2000", got)
	}

	h.assertConsistent(t)
}

func TestTransferUseCase_BeginFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	walletRepo := mocks.NewMockWalletRepository(ctrl)
	txManager := mocks.NewMockTransactionManager(ctrl)
	metrics := mocks.NewMockMetricsRecorder(ctrl)
	beginErr := errors.New("connection refused")

	walletRepo.EXPECT().GetByUserID(gomock.Any(), "alice").Return(&domain.Wallet{ID: "w-a", WalletNumber: "1000000001", UserID: "alice", Balance: dec("50")}, nil)
	walletRepo.EXPECT().GetByWalletNumber(gomock.Any(), "2000000002").Return(&domain.Wallet{ID: "w-b", WalletNumber: "2000000002", UserID: "bob"}, nil)
	txManager.EXPECT().Begin(gomock.Any()).Return(nil, beginErr)
	metrics.EXPECT().ObserveTransfer(usecase.OutcomeError, gomock.Any(), gomock.Any())

	uc := usecase.NewTransferUseCase(txManager, walletRepo, nil, nil, nil, nil, nil, metrics, zerolog.Nop())
	_, err := uc.Transfer(context.Background(), usecase.TransferInput{
		PayerUserID:          "alice",
		ReceiverWalletNumber: "2000000002",
		Amount:               dec("10"),
	})
	if !errors.Is(err, beginErr) {
		t.Errorf("expected begin error, got %v", err)
	}
}

func TestTransferUseCase_UsesRetrier(t *testing.T) {
	h := newHarness(t)
	h.addWallet(t, "alice", "1000000001", dec("50"))
	h.addWallet(t, "bob", "2000000002", decimal.Zero)

	ctrl := gomock.NewController(t)
	retrier := mocks.NewMockRetrier(ctrl)
	retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, op func() error) error {
		return op()
	})

	uc := usecase.NewTransferUseCase(h.store, h.wallets, h.txns, h.outbox, h.ids, h.refs, retrier, nil, zerolog.Nop())
	if _, err := uc.Transfer(context.Background(), usecase.TransferInput{
		PayerUserID:          "alice",
		ReceiverWalletNumber: "2000000002",
		Amount:               dec("25"),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
