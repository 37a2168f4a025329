package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/adapter/http/handler"
	"github.com/iho/gowallet/internal/adapter/http/middleware"
	"github.com/iho/gowallet/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	WalletHandler   *handler.WalletHandler
	DepositHandler  *handler.DepositHandler
	TransferHandler *handler.TransferHandler
	WebhookHandler  *handler.WebhookHandler
	LedgerHandler   *handler.LedgerHandler
	HealthHandler   *handler.HealthHandler

	TokenVerifier    middleware.TokenVerifier
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	// WebhookLimiter throttles the unauthenticated webhook endpoint. Optional.
	WebhookLimiter *middleware.RateLimiter
	// MetricsHandler serves /metrics. Optional.
	MetricsHandler http.Handler
	Logger         zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Metrics)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	auth := middleware.AuthMiddleware(cfg.TokenVerifier)

	idempotent := func(h http.HandlerFunc) http.Handler { return h }
	if cfg.IdempotencyStore != nil {
		mw := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
		idempotent = func(h http.HandlerFunc) http.Handler { return mw.Wrap(h) }
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/wallet", func(r chi.Router) {
			// The gateway authenticates with a body signature, not a bearer token.
			r.Group(func(r chi.Router) {
				if cfg.WebhookLimiter != nil {
					r.Use(cfg.WebhookLimiter.Limit)
				}
				r.Post("/paystack/webhook", cfg.WebhookHandler.Receive)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth)

				r.Post("/", cfg.WalletHandler.Provision)
				r.Get("/balance", cfg.WalletHandler.Balance)
				r.Get("/details", cfg.WalletHandler.Details)
				r.Get("/transactions", cfg.WalletHandler.Transactions)

				// Idempotency wraps the handler inside auth so keys are scoped per user.
				r.Method(http.MethodPost, "/deposit", idempotent(cfg.DepositHandler.Create))
				r.Get("/deposit/{reference}/status", cfg.DepositHandler.Status)
				r.Method(http.MethodPost, "/transfer", idempotent(cfg.TransferHandler.Create))
			})
		})

		r.With(auth).Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
	})

	return r
}
