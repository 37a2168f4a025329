package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
	"github.com/iho/gowallet/internal/usecase/mocks"
)

func TestWebhookUseCase_Handle(t *testing.T) {
	success := []byte(`{"event":"charge.success","data":{"reference":"WS_DEP1","amount":5000,"status":"success"}}`)
	declined := []byte(`{"event":"charge.success","data":{"reference":"WS_DEP1","amount":5000,"status":"failed"}}`)

	tests := []struct {
		name      string
		payload   []byte
		signature string
		valid     bool
		setup     func(*mocks.MockSettler, *mocks.MockMetricsRecorder)
		errorType error
	}{
		{
			name:      "missing signature",
			payload:   success,
			signature: "",
			setup: func(_ *mocks.MockSettler, m *mocks.MockMetricsRecorder) {
				m.EXPECT().ObserveWebhook(usecase.OutcomeInvalid)
			},
			errorType: domain.ErrInvalidSignature,
		},
		{
			name:      "bad signature",
			payload:   success,
			signature: "deadbeef",
			valid:     false,
			setup: func(_ *mocks.MockSettler, m *mocks.MockMetricsRecorder) {
				m.EXPECT().ObserveWebhook(usecase.OutcomeInvalid)
			},
			errorType: domain.ErrInvalidSignature,
		},
		{
			name:      "successful charge",
			payload:   success,
			signature: "sig",
			valid:     true,
			setup: func(s *mocks.MockSettler, m *mocks.MockMetricsRecorder) {
				s.EXPECT().ApplySuccess(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, in usecase.SettleInput) (usecase.SettleOutcome, error) {
						if in.Reference != "WS_DEP1" || !in.ConfirmedAmount.Equal(dec("50")) || in.Source != usecase.SettleSourceWebhook {
							return "", errors.New("unexpected settle input")
						}
						return usecase.SettleApplied, nil
					})
				m.EXPECT().ObserveWebhook(usecase.OutcomeSuccess)
			},
		},
		{
			name:      "declined charge",
			payload:   declined,
			signature: "sig",
			valid:     true,
			setup: func(s *mocks.MockSettler, m *mocks.MockMetricsRecorder) {
				s.EXPECT().ApplyFailure(gomock.Any(), usecase.FailInput{
					Reference: "WS_DEP1",
					Reason:    domain.FailureReasonGatewayDeclined,
					Source:    usecase.SettleSourceWebhook,
				}).Return(usecase.SettleApplied, nil)
				m.EXPECT().ObserveWebhook(usecase.OutcomeSuccess)
			},
		},
		{
			name:      "other event is ignored",
			payload:   []byte(`{"event":"transfer.success","data":{"reference":"WS_DEP1"}}`),
			signature: "sig",
			valid:     true,
			setup: func(_ *mocks.MockSettler, m *mocks.MockMetricsRecorder) {
				m.EXPECT().ObserveWebhook(usecase.OutcomeIgnored)
			},
		},
		{
			name:      "malformed body is acknowledged",
			payload:   []byte(`{not json`),
			signature: "sig",
			valid:     true,
			setup: func(_ *mocks.MockSettler, m *mocks.MockMetricsRecorder) {
				m.EXPECT().ObserveWebhook(usecase.OutcomeIgnored)
			},
		},
		{
			name:      "missing reference is ignored",
			payload:   []byte(`{"event":"charge.success","data":{"amount":100,"status":"success"}}`),
			signature: "sig",
			valid:     true,
			setup: func(_ *mocks.MockSettler, m *mocks.MockMetricsRecorder) {
				m.EXPECT().ObserveWebhook(usecase.OutcomeIgnored)
			},
		},
		{
			name:      "settlement error is acknowledged",
			payload:   success,
			signature: "sig",
			valid:     true,
			setup: func(s *mocks.MockSettler, m *mocks.MockMetricsRecorder) {
				s.EXPECT().ApplySuccess(gomock.Any(), gomock.Any()).Return(usecase.SettleOutcome(""), errors.New("db down"))
				m.EXPECT().ObserveWebhook(usecase.OutcomeError)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			verifier := mocks.NewMockWebhookVerifier(ctrl)
			settler := mocks.NewMockSettler(ctrl)
			metrics := mocks.NewMockMetricsRecorder(ctrl)

			if tt.signature != "" {
				verifier.EXPECT().VerifySignature(tt.payload, tt.signature).Return(tt.valid)
			}
			tt.setup(settler, metrics)

			err := usecase.NewWebhookUseCase(verifier, settler, metrics, zerolog.Nop()).Handle(context.Background(), tt.payload, tt.signature)
			if tt.errorType != nil {
				assert.ErrorIs(t, err, tt.errorType)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type acceptAll struct{}

func (acceptAll) VerifySignature([]byte, string) bool { return true }

func TestWebhookUseCase_ReplayedWebhookCreditsOnce(t *testing.T) {
	h := newHarness(t)
	w := h.addWallet(t, "alice", "1000000001", dec("0"))
	h.addPendingDeposit(t, w, "WS_DEP1", dec("50"), time.Now().UTC())

	uc := usecase.NewWebhookUseCase(acceptAll{}, h.settler, nil, zerolog.Nop())
	payload := []byte(`{"event":"charge.success","data":{"reference":"WS_DEP1","amount":5000,"status":"success"}}`)

	for i := 0; i < 3; i++ {
		assert.NoError(t, uc.Handle(context.Background(), payload, "sig"))
	}

	assert.True(t, h.balance(t, w.ID).Equal(dec("50")), "balance = %s", h.balance(t, w.ID))
	assert.Equal(t, domain.TransactionStatusSuccess, h.status(t, "WS_DEP1"))
	h.assertConsistent(t)
}
