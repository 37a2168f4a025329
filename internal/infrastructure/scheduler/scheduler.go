// Package scheduler runs the reconciliation sweep on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/usecase"
)

const sweepLockName = "reconciliation-sweep"

// Sweeper runs one reconciliation sweep.
type Sweeper interface {
	Run(ctx context.Context) (*usecase.SweepReport, error)
}

// Locker provides a lock shared by all replicas.
type Locker interface {
	TryAcquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, bool, error)
}

// Config configures the scheduler.
type Config struct {
	Schedule string
	LockTTL  time.Duration
}

// Scheduler triggers sweeps. Runs never overlap: cron skips a tick while the
// previous run is active, and the shared lock keeps other replicas out.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	locker  Locker
	cfg     Config
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Scheduler. locker may be nil for a single instance.
func New(sweeper Sweeper, locker Locker, cfg Config, logger zerolog.Logger) *Scheduler {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}

	logger = logger.With().Str("component", "scheduler").Logger()
	cronLog := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog))),
		sweeper: sweeper,
		locker:  locker,
		cfg:     cfg,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start registers the sweep job and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.tick); err != nil {
		return fmt.Errorf("schedule sweep %q: %w", s.cfg.Schedule, err)
	}

	s.logger.Info().Str("schedule", s.cfg.Schedule).Msg("scheduled reconciliation sweep")
	s.cron.Start()

	return nil
}

// Stop cancels a running sweep and returns a context that is done once it has returned.
func (s *Scheduler) Stop() context.Context {
	s.cancel()
	return s.cron.Stop()
}

// RunOnce runs a sweep under the shared lock.
func (s *Scheduler) RunOnce(ctx context.Context) (*usecase.SweepReport, error) {
	if s.locker == nil {
		return s.sweeper.Run(ctx)
	}

	release, ok, err := s.locker.TryAcquire(ctx, sweepLockName, s.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: held by another instance", usecase.ErrSweepInProgress)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn().Err(err).Msg("failed to release sweep lock")
		}
	}()

	return s.sweeper.Run(ctx)
}

func (s *Scheduler) tick() {
	report, err := s.RunOnce(s.ctx)
	if report == nil {
		s.logger.Warn().Err(err).Msg("sweep skipped")
		return
	}

	var event *zerolog.Event
	msg := "sweep finished"
	if err != nil {
		event = s.logger.Error().Err(err)
		msg = "sweep finished with errors"
	} else {
		event = s.logger.Info()
	}

	event.
		Int("expired", report.Expired).
		Int("verified", report.Verified).
		Int("settled", report.Settled).
		Int("failed", report.Failed).
		Int("still_pending", report.StillPending).
		Int("errors", report.Errors).
		Msg(msg)
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
