package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
	"github.com/iho/gowallet/internal/usecase/mocks"
)

func newDepositUseCase(h *harness, gateway usecase.PaymentGateway, metrics usecase.MetricsRecorder) *usecase.DepositUseCase {
	return usecase.NewDepositUseCase(usecase.DepositDeps{
		TxManager:  h.store,
		WalletRepo: h.wallets,
		TxnRepo:    h.txns,
		UserRepo:   h.users,
		OutboxRepo: h.outbox,
		Gateway:    gateway,
		Settler:    h.settler,
		IDGen:      h.ids,
		RefGen:     h.refs,
		Metrics:    metrics,
		Logger:     zerolog.Nop(),
	})
}

func TestDepositUseCase_Deposit(t *testing.T) {
	h := newHarness(t)
	w := h.addWallet(t, "alice", "1000000001", dec("0"))

	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockPaymentGateway(ctrl)
	metrics := mocks.NewMockMetricsRecorder(ctrl)

	gateway.EXPECT().Initialize(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req usecase.InitializeRequest) (*usecase.InitializeResult, error) {
			assert.Equal(t, int64(5000), req.AmountMinor)
			assert.Equal(t, "alice@example.com", req.Email)

			// The pending record is visible before the gateway is called.
			txn, err := h.txns.GetByReference(ctx, req.Reference)
			require.NoError(t, err)
			assert.Equal(t, domain.TransactionStatusPending, txn.Status)

			return &usecase.InitializeResult{
				AuthorizationURL: "https://checkout.paystack.com/abc",
				AccessCode:       "abc",
				Reference:        req.Reference,
			}, nil
		})
	metrics.EXPECT().ObserveDeposit(usecase.OutcomeSuccess)

	res, err := newDepositUseCase(h, gateway, metrics).Deposit(context.Background(), "alice", dec("50"))
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", res.AuthorizationURL)

	txn, err := h.txns.GetByReference(context.Background(), res.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeDeposit, txn.Type)
	assert.Equal(t, domain.TransactionStatusPending, txn.Status)
	assert.True(t, txn.Amount.Equal(dec("50")))
	assert.Equal(t, w.ID, *txn.ReceiverWalletID)
	require.NotNil(t, txn.GatewayReference)
	assert.Equal(t, res.Reference, *txn.GatewayReference)

	assert.True(t, h.balance(t, w.ID).IsZero(), "deposit must not credit before settlement")
	assert.Len(t, h.eventsOfType(t, domain.EventTypeDepositInitiated), 1)
}

func TestDepositUseCase_GatewayFailureFailsDeposit(t *testing.T) {
	tests := []struct {
		name       string
		gatewayErr error
	}{
		{name: "transport error", gatewayErr: errors.New("dial tcp: connection refused")},
		{name: "gateway unavailable", gatewayErr: domain.ErrGatewayUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			w := h.addWallet(t, "alice", "1000000001", dec("0"))

			ctrl := gomock.NewController(t)
			gateway := mocks.NewMockPaymentGateway(ctrl)

			var reference string
			gateway.EXPECT().Initialize(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, req usecase.InitializeRequest) (*usecase.InitializeResult, error) {
					reference = req.Reference
					return nil, tt.gatewayErr
				})

			res, err := newDepositUseCase(h, gateway, nil).Deposit(context.Background(), "alice", dec("50"))
			assert.Nil(t, res)
			assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)

			txn, err := h.txns.GetByReference(context.Background(), reference)
			require.NoError(t, err)
			assert.Equal(t, domain.TransactionStatusFailed, txn.Status)
			assert.Equal(t, domain.FailureReasonGatewayInitialize, txn.FailureReason)
			assert.True(t, h.balance(t, w.ID).IsZero())
		})
	}
}

func TestDepositUseCase_FailureIsRecordedAfterCallerCancels(t *testing.T) {
	h := newHarness(t)
	h.addWallet(t, "alice", "1000000001", dec("0"))

	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockPaymentGateway(ctrl)

	ctx, cancel := context.WithCancel(context.Background())

	var reference string
	gateway.EXPECT().Initialize(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req usecase.InitializeRequest) (*usecase.InitializeResult, error) {
			reference = req.Reference
			cancel()
			return nil, context.Canceled
		})

	_, err := newDepositUseCase(h, gateway, nil).Deposit(ctx, "alice", dec("10"))
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
	assert.Equal(t, domain.TransactionStatusFailed, h.status(t, reference))
}

func TestDepositUseCase_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		amount    string
		errorType error
	}{
		{name: "zero amount", userID: "alice", amount: "0", errorType: domain.ErrInvalidAmount},
		{name: "negative amount", userID: "alice", amount: "-5", errorType: domain.ErrInvalidAmount},
		{name: "too many decimals", userID: "alice", amount: "10.001", errorType: domain.ErrInvalidAmount},
		{name: "above maximum", userID: "alice", amount: "100000000.01", errorType: domain.ErrAmountTooLarge},
		{name: "unknown user", userID: "ghost", amount: "10", errorType: domain.ErrUserNotFound},
		{name: "user without wallet", userID: "carol", amount: "10", errorType: domain.ErrWalletNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.addWallet(t, "alice", "1000000001", dec("0"))
			h.store.AddUser(&domain.User{ID: "carol", Email: "carol@example.com"})

			ctrl := gomock.NewController(t)
			gateway := mocks.NewMockPaymentGateway(ctrl)

			_, err := newDepositUseCase(h, gateway, nil).Deposit(context.Background(), tt.userID, dec(tt.amount))
			assert.ErrorIs(t, err, tt.errorType)
		})
	}
}

func TestDepositUseCase_GetDepositStatus(t *testing.T) {
	h := newHarness(t)
	h.addWallet(t, "alice", "1000000001", dec("0"))
	h.addWallet(t, "bob", "2000000002", dec("0"))

	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockPaymentGateway(ctrl)
	gateway.EXPECT().Initialize(gomock.Any(), gomock.Any()).Return(&usecase.InitializeResult{AuthorizationURL: "https://pay"}, nil)

	uc := newDepositUseCase(h, gateway, nil)
	res, err := uc.Deposit(context.Background(), "alice", dec("12.34"))
	require.NoError(t, err)

	txn, err := uc.GetDepositStatus(context.Background(), "alice", res.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusPending, txn.Status)
	assert.Nil(t, txn.GatewayReference)

	_, err = uc.GetDepositStatus(context.Background(), "bob", res.Reference)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)

	_, err = uc.GetDepositStatus(context.Background(), "alice", "WS_MISSING")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)

	_, err = uc.GetDepositStatus(context.Background(), "alice", "")
	assert.ErrorIs(t, err, domain.ErrInvalidReference)
}
