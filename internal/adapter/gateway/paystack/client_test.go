package paystack_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gowallet/internal/adapter/gateway/paystack"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

type recordedRequest struct {
	operation string
	status    string
}

type observer struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (o *observer) ObserveGatewayRequest(operation, status string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, recordedRequest{operation: operation, status: status})
}

func newClient(t *testing.T, handler http.HandlerFunc, obs paystack.RequestObserver) *paystack.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return paystack.NewClient(paystack.Config{
		SecretKey: "sk_test_secret",
		BaseURL:   server.URL,
		Timeout:   time.Second,
	}, obs, zerolog.Nop())
}

func TestClient_Initialize(t *testing.T) {
	obs := &observer{}
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice@example.com", body["email"])
		assert.Equal(t, float64(500000), body["amount"])
		assert.Equal(t, "WS_01J", body["reference"])

		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"WS_01J"}}`))
	}, obs)

	result, err := client.Initialize(context.Background(), usecase.InitializeRequest{
		Email:       "alice@example.com",
		AmountMinor: 500000,
		Reference:   "WS_01J",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", result.AuthorizationURL)
	assert.Equal(t, "abc", result.AccessCode)
	assert.Equal(t, "WS_01J", result.Reference)
	assert.Equal(t, []recordedRequest{{operation: "initialize", status: "ok"}}, obs.requests)
}

func TestClient_Verify(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transaction/verify/WS_01J", r.URL.Path)

		_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"reference":"WS_01J","status":"success","amount":100000}}`))
	}, nil)

	result, err := client.Verify(context.Background(), "WS_01J")
	require.NoError(t, err)
	assert.Equal(t, usecase.GatewayStatusSuccess, result.Status)
	assert.Equal(t, int64(100000), result.AmountMinor)
	assert.True(t, domain.FromMinorUnits(result.AmountMinor).Equal(domain.FromMinorUnits(100000)))
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		wantUnavailable bool
		wantAPIError    bool
		wantObserved    string
	}{
		{
			name:            "server error is transient",
			status:          http.StatusBadGateway,
			body:            `upstream down`,
			wantUnavailable: true,
			wantObserved:    "unavailable",
		},
		{
			name:         "client error is a rejection",
			status:       http.StatusBadRequest,
			body:         `{"status":false,"message":"Invalid key"}`,
			wantAPIError: true,
			wantObserved: "rejected",
		},
		{
			name:         "false status is a rejection",
			status:       http.StatusOK,
			body:         `{"status":false,"message":"Transaction reference not found"}`,
			wantAPIError: true,
			wantObserved: "rejected",
		},
		{
			name:         "non JSON error body",
			status:       http.StatusNotFound,
			body:         `not found`,
			wantAPIError: true,
			wantObserved: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &observer{}
			client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, obs)

			_, err := client.Verify(context.Background(), "WS_X")
			require.Error(t, err)
			assert.Equal(t, tt.wantUnavailable, errors.Is(err, domain.ErrGatewayUnavailable))
			var apiErr *paystack.APIError
			assert.Equal(t, tt.wantAPIError, errors.As(err, &apiErr))
			require.Len(t, obs.requests, 1)
			assert.Equal(t, tt.wantObserved, obs.requests[0].status)
		})
	}
}

func TestClient_TimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	client := paystack.NewClient(paystack.Config{
		SecretKey: "sk",
		BaseURL:   server.URL,
		Timeout:   50 * time.Millisecond,
	}, nil, zerolog.Nop())

	_, err := client.Initialize(context.Background(), usecase.InitializeRequest{Email: "a@b.c", AmountMinor: 100, Reference: "WS_1"})
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
}

func TestClient_VerifySignature(t *testing.T) {
	client := paystack.NewClient(paystack.Config{SecretKey: "sk_test_secret"}, nil, zerolog.Nop())
	payload := []byte(`{"event":"charge.success","data":{"reference":"WS_1","amount":5000}}`)
	signature := paystack.Sign("sk_test_secret", payload)

	assert.Len(t, signature, 128)
	assert.True(t, client.VerifySignature(payload, signature))
	assert.False(t, client.VerifySignature(payload, ""))
	assert.False(t, client.VerifySignature(payload, paystack.Sign("other", payload)))
	assert.False(t, client.VerifySignature(append(payload, ' '), signature), "signature must cover the exact bytes")

	unconfigured := paystack.NewClient(paystack.Config{}, nil, zerolog.Nop())
	assert.False(t, unconfigured.VerifySignature(payload, paystack.Sign("", payload)))
}
