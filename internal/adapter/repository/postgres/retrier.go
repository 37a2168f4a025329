package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// SQLSTATE codes that mean the whole unit of work can safely run again.
const (
	pgErrSerializationFailure = "40001"
	pgErrDeadlock             = "40P01"
	pgErrLockNotAvailable     = "55P03"
)

// RetryConfig bounds how long a conflicting transaction is retried.
type RetryConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryConfig suits short wallet transactions.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:      3,
	InitialInterval: 50 * time.Millisecond,
	MaxInterval:     time.Second,
	MaxElapsedTime:  10 * time.Second,
}

// Retrier implements usecase.Retrier. Only lock conflicts are retried; every
// other error is returned after the first attempt.
type Retrier struct {
	cfg    RetryConfig
	logger zerolog.Logger
}

// NewRetrier creates a Retrier with DefaultRetryConfig.
func NewRetrier(logger zerolog.Logger) *Retrier {
	return NewRetrierWithConfig(DefaultRetryConfig, logger)
}

// NewRetrierWithConfig creates a Retrier with explicit limits.
func NewRetrierWithConfig(cfg RetryConfig, logger zerolog.Logger) *Retrier {
	return &Retrier{
		cfg:    cfg,
		logger: logger.With().Str("component", "retrier").Logger(),
	}
}

// Retry runs operation until it succeeds, fails permanently or the budget runs out.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.cfg.InitialInterval
	exp.MaxInterval = r.cfg.MaxInterval
	exp.MaxElapsedTime = r.cfg.MaxElapsedTime

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, r.cfg.MaxRetries), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := operation()
		if err == nil {
			return nil
		}

		code, ok := retryableCode(err)
		if !ok {
			return backoff.Permanent(err)
		}

		r.logger.Warn().
			Err(err).
			Str("sqlstate", code).
			Int("attempt", attempt).
			Msg("lock conflict, retrying transaction")

		return err
	}, policy)
}

func retryableCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}

	switch pgErr.Code {
	case pgErrSerializationFailure, pgErrDeadlock, pgErrLockNotAvailable:
		return pgErr.Code, true
	}
	return pgErr.Code, false
}
