package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/adapter/gateway/paystack"
	"github.com/iho/gowallet/internal/domain"
)

type webhookServiceStub struct {
	payload   []byte
	signature string
	err       error
}

func (s *webhookServiceStub) Handle(ctx context.Context, payload []byte, signature string) error {
	s.payload = payload
	s.signature = signature
	return s.err
}

func TestWebhookHandler_PassesRawBodyAndSignature(t *testing.T) {
	body := `{"event":"charge.success","data":{"reference":"WS_1","amount":5000,"status":"success"}}`
	svc := &webhookServiceStub{}
	handler := NewWebhookHandler(svc, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/wallet/paystack/webhook", bytes.NewBufferString(body))
	req.Header.Set(paystack.SignatureHeader, "abc123")
	rec := httptest.NewRecorder()
	handler.Receive(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if string(svc.payload) != body || svc.signature != "abc123" {
		t.Fatalf("payload or signature not passed through: %q %q", svc.payload, svc.signature)
	}
	if rec.Body.String() != "{\"status\":true}\n" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestWebhookHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{"invalid signature", `{}`, domain.ErrInvalidSignature, http.StatusUnauthorized},
		{"unexpected error", `{}`, errors.New("boom"), http.StatusInternalServerError},
		{"oversized body", strings.Repeat("a", maxWebhookBody+1), nil, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewWebhookHandler(&webhookServiceStub{err: tt.err}, zerolog.Nop())

			rec := httptest.NewRecorder()
			handler.Receive(rec, httptest.NewRequest(http.MethodPost, "/api/v1/wallet/paystack/webhook", strings.NewReader(tt.body)))

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}
}
