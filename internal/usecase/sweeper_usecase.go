package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
)

// ErrSweepInProgress is returned when Run is called while another run is active.
var ErrSweepInProgress = errors.New("sweep already in progress")

// SweeperConfig tunes the reconciliation sweep.
type SweeperConfig struct {
	ExpireAfter time.Duration
	VerifyAfter time.Duration
	BatchSize   int
	ItemTimeout time.Duration
	Now         func() time.Time
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	Expired      int
	Verified     int
	Settled      int
	Failed       int
	StillPending int
	Errors       int
}

// SweeperUseCase resolves deposits whose webhook never arrived.
type SweeperUseCase struct {
	txManager  TransactionManager
	txnRepo    TransactionRepository
	outboxRepo OutboxRepository
	gateway    PaymentGateway
	settler    Settler
	idGen      IDGenerator
	cfg        SweeperConfig
	metrics    MetricsRecorder
	logger     zerolog.Logger

	running sync.Mutex
}

// NewSweeperUseCase creates a new SweeperUseCase.
func NewSweeperUseCase(
	txManager TransactionManager,
	txnRepo TransactionRepository,
	outboxRepo OutboxRepository,
	gateway PaymentGateway,
	settler Settler,
	idGen IDGenerator,
	cfg SweeperConfig,
	metrics MetricsRecorder,
	logger zerolog.Logger,
) *SweeperUseCase {
	if cfg.ExpireAfter <= 0 {
		cfg.ExpireAfter = DefaultExpireAfter
	}
	if cfg.VerifyAfter <= 0 {
		cfg.VerifyAfter = DefaultVerifyAfter
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultSweepBatchSize
	}
	if cfg.ItemTimeout <= 0 {
		cfg.ItemTimeout = DefaultGatewayTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}

	return &SweeperUseCase{
		txManager:  txManager,
		txnRepo:    txnRepo,
		outboxRepo: outboxRepo,
		gateway:    gateway,
		settler:    settler,
		idGen:      idGen,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger.With().Str("component", "sweeper").Logger(),
	}
}

// Run expires stale deposits, then re-verifies a batch of pending ones with the gateway.
// A failure on one deposit never stops the rest of the batch.
func (uc *SweeperUseCase) Run(ctx context.Context) (*SweepReport, error) {
	if !uc.running.TryLock() {
		return nil, ErrSweepInProgress
	}
	defer uc.running.Unlock()

	start := time.Now()
	now := uc.cfg.Now().UTC()
	report := &SweepReport{}

	expired, expireErr := uc.expire(ctx, now)
	if expireErr != nil {
		uc.logger.Error().Err(expireErr).Msg("failed to expire pending deposits")
	}
	report.Expired = expired

	candidates, err := uc.txnRepo.ListPendingDeposits(ctx, now.Add(-uc.cfg.ExpireAfter), now.Add(-uc.cfg.VerifyAfter), uc.cfg.BatchSize)
	if err != nil {
		uc.metrics.ObserveSweep(report, time.Since(start))
		return report, errors.Join(expireErr, fmt.Errorf("list pending deposits: %w", err))
	}

	for _, txn := range candidates {
		if ctx.Err() != nil {
			break
		}

		uc.verify(ctx, txn, report)
	}

	uc.metrics.ObserveSweep(report, time.Since(start))
	uc.logger.Info().
		Int("expired", report.Expired).
		Int("verified", report.Verified).
		Int("settled", report.Settled).
		Int("failed", report.Failed).
		Int("still_pending", report.StillPending).
		Int("errors", report.Errors).
		Dur("duration", time.Since(start)).
		Msg("sweep completed")

	if expireErr != nil {
		return report, fmt.Errorf("expire pending deposits: %w", expireErr)
	}

	return report, ctx.Err()
}

func (uc *SweeperUseCase) expire(ctx context.Context, now time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	expired, err := uc.txnRepo.ExpirePendingDeposits(ctx, tx, now.Add(-uc.cfg.ExpireAfter), now)
	if err != nil {
		return 0, err
	}

	for _, txn := range expired {
		event := newDepositEvent(uc.idGen.Generate(), txn, domain.EventTypeDepositFailed, txn.Amount, SettleSourceSweeper, domain.FailureReasonExpired, now)
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	for _, txn := range expired {
		uc.logger.Info().
			Str("reference", txn.Reference).
			Time("created_at", txn.CreatedAt).
			Msg("pending deposit expired")
	}

	return len(expired), nil
}

func (uc *SweeperUseCase) verify(ctx context.Context, txn *domain.Transaction, report *SweepReport) {
	log := uc.logger.With().Str("reference", txn.Reference).Logger()

	if err := uc.txnRepo.RecordVerifyAttempt(ctx, txn.Reference, uc.cfg.Now().UTC()); err != nil {
		log.Warn().Err(err).Msg("failed to record verify attempt")
	}

	ictx, cancel := context.WithTimeout(ctx, uc.cfg.ItemTimeout)
	res, err := uc.gateway.Verify(ictx, txn.Reference)
	cancel()

	report.Verified++

	if err != nil {
		report.Errors++
		log.Warn().Err(err).Msg("gateway verify failed, will retry next sweep")

		return
	}

	switch res.Status {
	case GatewayStatusSuccess:
		outcome, err := uc.settler.ApplySuccess(ctx, SettleInput{
			Reference:       txn.Reference,
			ConfirmedAmount: domain.FromMinorUnits(res.AmountMinor),
			Source:          SettleSourceSweeper,
		})
		if err != nil {
			report.Errors++
			log.Error().Err(err).Msg("failed to settle verified deposit")

			return
		}
		if outcome == SettleApplied {
			report.Settled++
		}
	case GatewayStatusFailed, GatewayStatusAbandoned, GatewayStatusReversed:
		outcome, err := uc.settler.ApplyFailure(ctx, FailInput{
			Reference: txn.Reference,
			Reason:    domain.FailureReasonGatewayDeclined,
			Source:    SettleSourceSweeper,
		})
		if err != nil {
			report.Errors++
			log.Error().Err(err).Msg("failed to fail declined deposit")

			return
		}
		if outcome == SettleApplied {
			report.Failed++
		}
	default:
		// In-flight or unrecognised status: retried next sweep, the expiry ceiling bounds it.
		report.StillPending++
		log.Debug().Str("gateway_status", res.Status).Msg("deposit still pending at gateway")
	}
}
