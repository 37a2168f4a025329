// Package paystack talks to the Paystack transaction API and authenticates its webhooks.
package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

const (
	// DefaultBaseURL is the public Paystack API.
	DefaultBaseURL = "https://api.paystack.co"

	// SignatureHeader carries hex(HMAC-SHA512(secret, body)) on webhooks.
	SignatureHeader = "x-paystack-signature"

	maxResponseBytes = 1 << 20
)

// APIError is a non-retryable rejection from the gateway.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack: status %d: %s", e.StatusCode, e.Message)
}

// RequestObserver receives per-request instrumentation.
type RequestObserver interface {
	ObserveGatewayRequest(operation, status string, duration time.Duration)
}

// Config configures a Client.
type Config struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

// Client implements usecase.PaymentGateway and usecase.WebhookVerifier.
type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
	observer   RequestObserver
	logger     zerolog.Logger
}

var (
	_ usecase.PaymentGateway  = (*Client)(nil)
	_ usecase.WebhookVerifier = (*Client)(nil)
)

// NewClient creates a new Paystack client. observer may be nil.
func NewClient(cfg Config, observer RequestObserver, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = usecase.DefaultGatewayTimeout
	}

	return &Client{
		secretKey:  cfg.SecretKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		observer:   observer,
		logger:     logger.With().Str("component", "paystack").Logger(),
	}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeRequest struct {
	Email     string `json:"email"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
}

// Initialize starts a payment and returns the page the payer must visit.
func (c *Client) Initialize(ctx context.Context, req usecase.InitializeRequest) (*usecase.InitializeResult, error) {
	body, err := json.Marshal(initializeRequest{
		Email:     req.Email,
		Amount:    req.AmountMinor,
		Reference: req.Reference,
	})
	if err != nil {
		return nil, err
	}

	var data initializeData
	if err := c.do(ctx, "initialize", http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		return nil, err
	}

	if data.AuthorizationURL == "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "missing authorization_url"}
	}

	return &usecase.InitializeResult{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

// Verify asks the gateway for the current state of a payment.
func (c *Client) Verify(ctx context.Context, reference string) (*usecase.VerifyResult, error) {
	var data verifyData
	if err := c.do(ctx, "verify", http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &data); err != nil {
		return nil, err
	}

	if data.Reference == "" {
		data.Reference = reference
	}

	return &usecase.VerifyResult{
		Reference:   data.Reference,
		Status:      strings.ToLower(data.Status),
		AmountMinor: data.Amount,
	}, nil
}

// VerifySignature checks the webhook signature over the raw request body.
func (c *Client) VerifySignature(payload []byte, signature string) bool {
	if c.secretKey == "" || signature == "" {
		return false
	}

	expected := Sign(c.secretKey, payload)

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// Sign returns hex(HMAC-SHA512(secret, payload)).
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)

	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) do(ctx context.Context, operation, method, path string, body []byte, out any) error {
	start := time.Now()
	status := "ok"
	defer func() {
		if c.observer != nil {
			c.observer.ObserveGatewayRequest(operation, status, time.Since(start))
		}
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		status = "error"
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		status = "unavailable"
		c.logger.Warn().Err(err).Str("operation", operation).Msg("gateway request failed")
		return fmt.Errorf("%w: %s: %v", domain.ErrGatewayUnavailable, operation, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		status = "unavailable"
		return fmt.Errorf("%w: %s: read body: %v", domain.ErrGatewayUnavailable, operation, err)
	}

	if res.StatusCode >= http.StatusInternalServerError {
		status = "unavailable"
		c.logger.Warn().Int("status", res.StatusCode).Str("operation", operation).Msg("gateway server error")
		return fmt.Errorf("%w: %s: status %d", domain.ErrGatewayUnavailable, operation, res.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		status = "error"
		if res.StatusCode >= http.StatusMultipleChoices {
			return &APIError{StatusCode: res.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("paystack: decode %s response: %w", operation, err)
	}

	if res.StatusCode >= http.StatusMultipleChoices || !env.Status {
		status = "rejected"
		return &APIError{StatusCode: res.StatusCode, Message: env.Message}
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		status = "error"
		return fmt.Errorf("paystack: decode %s data: %w", operation, err)
	}

	return nil
}
