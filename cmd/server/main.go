package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/gowallet/internal/adapter/http"
	"github.com/iho/gowallet/internal/adapter/gateway/paystack"
	"github.com/iho/gowallet/internal/adapter/http/handler"
	"github.com/iho/gowallet/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/gowallet/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gowallet/internal/adapter/repository/redis"
	"github.com/iho/gowallet/internal/infrastructure/auth"
	"github.com/iho/gowallet/internal/infrastructure/config"
	"github.com/iho/gowallet/internal/infrastructure/eventpublisher"
	"github.com/iho/gowallet/internal/infrastructure/logger"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
	"github.com/iho/gowallet/internal/infrastructure/postgres"
	"github.com/iho/gowallet/internal/infrastructure/redis"
	"github.com/iho/gowallet/internal/infrastructure/scheduler"
	"github.com/iho/gowallet/internal/usecase"
)

const (
	limiterCleanupInterval = time.Minute
	limiterMaxIdle         = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New(logger.Config{})
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.MigrateOnStart {
		if err := postgres.RunMigrations(cfg.DatabaseURL, log); err != nil {
			return err
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	defer cancel()

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(connectCtx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(connectCtx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	walletRepo := postgresRepo.NewWalletRepository(pool)
	txnRepo := postgresRepo.NewTransactionRepository(pool)
	userRepo := postgresRepo.NewUserRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	retrier := postgresRepo.NewRetrier(log)
	idGen := postgresRepo.NewULIDGenerator()
	refGen := postgresRepo.NewReferenceGenerator()
	numberGen := postgresRepo.NewWalletNumberGenerator()
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	gateway := paystack.NewClient(paystack.Config{
		SecretKey: cfg.PaystackSecretKey,
		BaseURL:   cfg.PaystackBaseURL,
		Timeout:   cfg.PaystackTimeout,
	}, m, log)

	// Use cases
	settlementUC := usecase.NewSettlementUseCase(txManager, walletRepo, txnRepo, outboxRepo, auditRepo, idGen, retrier, m, log)
	walletUC := usecase.NewWalletUseCase(txManager, walletRepo, txnRepo, userRepo, outboxRepo, idGen, numberGen, log)
	depositUC := usecase.NewDepositUseCase(usecase.DepositDeps{
		TxManager:      txManager,
		WalletRepo:     walletRepo,
		TxnRepo:        txnRepo,
		UserRepo:       userRepo,
		OutboxRepo:     outboxRepo,
		Gateway:        gateway,
		Settler:        settlementUC,
		IDGen:          idGen,
		RefGen:         refGen,
		GatewayTimeout: cfg.PaystackTimeout,
		Metrics:        m,
		Logger:         log,
	})
	transferUC := usecase.NewTransferUseCase(txManager, walletRepo, txnRepo, outboxRepo, idGen, refGen, retrier, m, log)
	webhookUC := usecase.NewWebhookUseCase(gateway, settlementUC, m, log)
	ledgerUC := usecase.NewLedgerUseCase(ledgerRepo)
	sweeperUC := usecase.NewSweeperUseCase(txManager, txnRepo, outboxRepo, gateway, settlementUC, idGen, usecase.SweeperConfig{
		ExpireAfter: cfg.SweepExpireAfter,
		VerifyAfter: cfg.SweepVerifyAfter,
		BatchSize:   cfg.SweepBatchSize,
		ItemTimeout: cfg.SweepItemTimeout,
	}, m, log)

	// Background workers
	sched := scheduler.New(sweeperUC, redisRepo.NewLocker(redisClient), scheduler.Config{
		Schedule: cfg.SweepSchedule,
		LockTTL:  cfg.SweepLockTTL,
	}, log)
	if err := sched.Start(); err != nil {
		return err
	}

	publisher, closePublisher, err := newEventPublisher(cfg, log)
	if err != nil {
		sched.Stop()
		return err
	}
	defer func() {
		if err := closePublisher(); err != nil {
			log.Warn().Err(err).Msg("failed to close event publisher")
		}
	}()

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	relay := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  publisher,
		Observer:   m,
		Logger:     log,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		_ = relay.Start(workerCtx)
	}()

	webhookLimiter := middleware.NewRateLimiter(cfg.WebhookRateLimit, cfg.WebhookRateBurst, "webhook", m)
	go webhookLimiter.RunCleanup(workerCtx, limiterCleanupInterval, limiterMaxIdle)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		WalletHandler:    handler.NewWalletHandler(walletUC),
		DepositHandler:   handler.NewDepositHandler(depositUC),
		TransferHandler:  handler.NewTransferHandler(transferUC),
		WebhookHandler:   handler.NewWebhookHandler(webhookUC, log),
		LedgerHandler:    handler.NewLedgerHandler(ledgerUC),
		HealthHandler:    handler.NewHealthHandler(healthChecks(pool, redisClient)...),
		TokenVerifier:    auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		WebhookLimiter:   webhookLimiter,
		MetricsHandler:   promhttp.Handler(),
		Logger:           log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	select {
	case <-sched.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn().Msg("sweep did not stop before shutdown timeout")
	}

	stopWorkers()
	<-relayDone

	return runErr
}

// newEventPublisher returns the configured outbox sink and a function that
// releases its resources.
func newEventPublisher(cfg *config.Config, log zerolog.Logger) (eventpublisher.Publisher, func() error, error) {
	switch cfg.EventPublisher {
	case "amqp":
		p, err := eventpublisher.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to amqp: %w", err)
		}
		log.Info().Str("exchange", cfg.AMQPExchange).Msg("publishing events to amqp")
		return p, p.Close, nil
	case "log", "":
		return eventpublisher.NewLogPublisher(log), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown event publisher %q", cfg.EventPublisher)
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

func healthChecks(db pinger, cache *goredis.Client) []handler.HealthCheck {
	return []handler.HealthCheck{
		{Name: "postgres", Ping: db.Ping},
		{Name: "redis", Ping: redis.Ping(cache)},
	}
}
