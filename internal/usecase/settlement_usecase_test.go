package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
	"github.com/iho/gowallet/internal/usecase/mocks"
)

func TestSettlementUseCase_ApplySuccess(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*testing.T, *harness, *domain.Wallet)
		reference   string
		amount      string
		want        usecase.SettleOutcome
		wantBalance string
		wantStatus  domain.TransactionStatus
	}{
		{
			name: "credits pending deposit",
			setup: func(t *testing.T, h *harness, w *domain.Wallet) {
				h.addPendingDeposit(t, w, "WS_DEP1", dec("50"), time.Now().UTC())
			},
			reference:   "WS_DEP1",
			amount:      "50",
			want:        usecase.SettleApplied,
			wantBalance: "50",
			wantStatus:  domain.TransactionStatusSuccess,
		},
		{
			name: "credits confirmed amount when it differs",
			setup: func(t *testing.T, h *harness, w *domain.Wallet) {
				h.addPendingDeposit(t, w, "WS_DEP1", dec("50"), time.Now().UTC())
			},
			reference:   "WS_DEP1",
			amount:      "49.5",
			want:        usecase.SettleApplied,
			wantBalance: "49.5",
			wantStatus:  domain.TransactionStatusSuccess,
		},
		{
			name: "second success is a no-op",
			setup: func(t *testing.T, h *harness, w *domain.Wallet) {
				h.addPendingDeposit(t, w, "WS_DEP1", dec("50"), time.Now().UTC())
				if _, err := h.settler.ApplySuccess(context.Background(), usecase.SettleInput{Reference: "WS_DEP1", ConfirmedAmount: dec("50"), Source: usecase.SettleSourceWebhook}); err != nil {
					t.Fatalf("first settle: %v", err)
				}
			},
			reference:   "WS_DEP1",
			amount:      "50",
			want:        usecase.SettleAlreadySucceeded,
			wantBalance: "50",
			wantStatus:  domain.TransactionStatusSuccess,
		},
		{
			name: "late success after failure is blocked",
			setup: func(t *testing.T, h *harness, w *domain.Wallet) {
				h.addPendingDeposit(t, w, "WS_DEP1", dec("50"), time.Now().UTC())
				if _, err := h.settler.ApplyFailure(context.Background(), usecase.FailInput{Reference: "WS_DEP1", Reason: domain.FailureReasonExpired, Source: usecase.SettleSourceSweeper}); err != nil {
					t.Fatalf("fail: %v", err)
				}
			},
			reference:   "WS_DEP1",
			amount:      "50",
			want:        usecase.SettleLateSuccessBlocked,
			wantBalance: "0",
			wantStatus:  domain.TransactionStatusFailed,
		},
		{
			name:        "unknown reference",
			setup:       func(*testing.T, *harness, *domain.Wallet) {},
			reference:   "WS_NOPE",
			amount:      "50",
			want:        usecase.SettleUnknownReference,
			wantBalance: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			w := h.addWallet(t, "alice", "1000000001", dec("0"))
			tt.setup(t, h, w)

			got, err := h.settler.ApplySuccess(context.Background(), usecase.SettleInput{
				Reference:       tt.reference,
				ConfirmedAmount: dec(tt.amount),
				Source:          usecase.SettleSourceWebhook,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, h.balance(t, w.ID).Equal(dec(tt.wantBalance)), "balance = %s, want %s", h.balance(t, w.ID), tt.wantBalance)

			if tt.wantStatus != "" {
				assert.Equal(t, tt.wantStatus, h.status(t, tt.reference))
			}

			h.assertConsistent(t)
		})
	}
}

func TestSettlementUseCase_LateSuccessIsAudited(t *testing.T) {
	h := newHarness(t)
	w := h.addWallet(t, "alice", "1000000001", dec("0"))
	h.addPendingDeposit(t, w, "WS_DEP1", dec("50"), time.Now().UTC())

	ctx := context.Background()
	_, err := h.settler.ApplyFailure(ctx, usecase.FailInput{Reference: "WS_DEP1", Reason: domain.FailureReasonExpired, Source: usecase.SettleSourceSweeper})
	require.NoError(t, err)

	outcome, err := h.settler.ApplySuccess(ctx, usecase.SettleInput{Reference: "WS_DEP1", ConfirmedAmount: dec("50"), Source: usecase.SettleSourceWebhook})
	require.NoError(t, err)
	require.Equal(t, usecase.SettleLateSuccessBlocked, outcome)

	logs, err := h.audit.List(ctx, domain.AuditFilter{ResourceID: "WS_DEP1"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, string(domain.AuditActionDepositLateSuccess), logs[0].Action)
	assert.Equal(t, domain.SystemActor, logs[0].UserID)

	assert.Len(t, h.eventsOfType(t, domain.EventTypeDepositLateSuccess), 1)
	assert.Len(t, h.eventsOfType(t, domain.EventTypeDepositSucceeded), 0)
}

func TestSettlementUseCase_ApplySuccessRejectsNonPositiveAmount(t *testing.T) {
	h := newHarness(t)

	_, err := h.settler.ApplySuccess(context.Background(), usecase.SettleInput{Reference: "WS_DEP1", ConfirmedAmount: dec("0")})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestSettlementUseCase_ApplySuccessIgnoresTransfers(t *testing.T) {
	h := newHarness(t)
	h.addWallet(t, "alice", "1000000001", dec("100"))
	h.addWallet(t, "bob", "2000000002", dec("0"))

	txn, err := newTransferUseCase(h, nil).Transfer(context.Background(), usecase.TransferInput{
		PayerUserID:          "alice",
		ReceiverWalletNumber: "2000000002",
		Amount:               dec("10"),
	})
	require.NoError(t, err)

	outcome, err := h.settler.ApplySuccess(context.Background(), usecase.SettleInput{Reference: txn.Reference, ConfirmedAmount: dec("10")})
	require.NoError(t, err)
	assert.Equal(t, usecase.SettleUnknownReference, outcome)
	h.assertConsistent(t)
}

func TestSettlementUseCase_ApplyFailure(t *testing.T) {
	h := newHarness(t)
	w := h.addWallet(t, "alice", "1000000001", dec("0"))
	h.addPendingDeposit(t, w, "WS_FAIL", dec("20"), time.Now().UTC())
	h.addPendingDeposit(t, w, "WS_DONE", dec("30"), time.Now().UTC())

	ctx := context.Background()
	_, err := h.settler.ApplySuccess(ctx, usecase.SettleInput{Reference: "WS_DONE", ConfirmedAmount: dec("30"), Source: usecase.SettleSourceWebhook})
	require.NoError(t, err)

	tests := []struct {
		name      string
		reference string
		want      usecase.SettleOutcome
	}{
		{name: "fails pending deposit", reference: "WS_FAIL", want: usecase.SettleApplied},
		{name: "repeat failure is a no-op", reference: "WS_FAIL", want: usecase.SettleAlreadyFailed},
		{name: "never fails a settled deposit", reference: "WS_DONE", want: usecase.SettleAlreadySucceeded},
		{name: "unknown reference", reference: "WS_NOPE", want: usecase.SettleUnknownReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.settler.ApplyFailure(ctx, usecase.FailInput{Reference: tt.reference, Reason: domain.FailureReasonGatewayDeclined, Source: usecase.SettleSourceWebhook})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	failed, err := h.txns.GetByReference(ctx, "WS_FAIL")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, failed.Status)
	assert.Equal(t, domain.FailureReasonGatewayDeclined, failed.FailureReason)

	assert.Equal(t, domain.TransactionStatusSuccess, h.status(t, "WS_DONE"))
	assert.True(t, h.balance(t, w.ID).Equal(dec("30")))
	assert.Len(t, h.eventsOfType(t, domain.EventTypeDepositFailed), 1)
	h.assertConsistent(t)
}

func TestSettlementUseCase_ConcurrentReportsCreditOnce(t *testing.T) {
	h := newHarness(t)
	w := h.addWallet(t, "alice", "1000000001", dec("0"))
	h.addPendingDeposit(t, w, "WS_RACE", dec("75"), time.Now().UTC())

	const webhooks, sweeps = 8, 8

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)

	report := func(source usecase.SettleSource) {
		defer wg.Done()

		outcome, err := h.settler.ApplySuccess(context.Background(), usecase.SettleInput{
			Reference:       "WS_RACE",
			ConfirmedAmount: dec("75"),
			Source:          source,
		})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if outcome == usecase.SettleApplied {
			applied++
		} else if outcome != usecase.SettleAlreadySucceeded {
			t.Errorf("unexpected outcome %s", outcome)
		}
	}

	for i := 0; i < webhooks; i++ {
		wg.Add(1)
		go report(usecase.SettleSourceWebhook)
	}
	for i := 0; i < sweeps; i++ {
		wg.Add(1)
		go report(usecase.SettleSourceSweeper)
	}
	wg.Wait()

	assert.Equal(t, 1, applied)
	assert.True(t, h.balance(t, w.ID).Equal(dec("75")), "balance = %s", h.balance(t, w.ID))
	assert.Len(t, h.eventsOfType(t, domain.EventTypeDepositSucceeded), 1)
	h.assertConsistent(t)
}

func TestSettlementUseCase_CreditFailureRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)

	txManager := mocks.NewMockTransactionManager(ctrl)
	tx := mocks.NewMockTransaction(ctrl)
	walletRepo := mocks.NewMockWalletRepository(ctrl)
	txnRepo := mocks.NewMockTransactionRepository(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)
	creditErr := errors.New("disk full")
	walletID := "w-alice"

	pending := &domain.Transaction{Reference: "WS_DEP1", Type: domain.TransactionTypeDeposit, Status: domain.TransactionStatusPending, Amount: dec("10"), ReceiverWalletID: &walletID}
	settled := *pending
	settled.Status = domain.TransactionStatusSuccess

	txnRepo.EXPECT().GetByReference(gomock.Any(), "WS_DEP1").Return(pending, nil)
	txManager.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	txnRepo.EXPECT().CompareAndSetStatus(gomock.Any(), tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, tr domain.StatusTransition) (*domain.Transaction, bool, error) {
			assert.Equal(t, domain.TransactionStatusPending, tr.From)
			assert.Equal(t, domain.TransactionStatusSuccess, tr.To)
			return &settled, true, nil
		})
	walletRepo.EXPECT().Credit(gomock.Any(), tx, walletID, gomock.Any(), gomock.Any()).Return(dec("0"), creditErr)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil)

	uc := usecase.NewSettlementUseCase(txManager, walletRepo, txnRepo, nil, nil, idGen, nil, nil, zerolog.Nop())
	_, err := uc.ApplySuccess(context.Background(), usecase.SettleInput{Reference: "WS_DEP1", ConfirmedAmount: dec("10"), Source: usecase.SettleSourceWebhook})
	assert.ErrorIs(t, err, creditErr)
}
