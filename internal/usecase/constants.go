package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultGatewayTimeout bounds a single call to the payment gateway.
	DefaultGatewayTimeout = 15 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultExpireAfter is how long a deposit may stay pending before it is failed.
	DefaultExpireAfter = 72 * time.Hour

	// DefaultVerifyAfter is the minimum age before the sweeper asks the gateway about a deposit.
	DefaultVerifyAfter = 5 * time.Minute

	// DefaultSweepBatchSize is the number of deposits re-verified per sweep.
	DefaultSweepBatchSize = 10

	// maxWalletNumberAttempts bounds retries on wallet number collisions.
	maxWalletNumberAttempts = 5

	depositDescription = "Wallet deposit via Paystack"
)

// Gateway transaction statuses returned by Verify.
const (
	GatewayStatusSuccess    = "success"
	GatewayStatusFailed     = "failed"
	GatewayStatusAbandoned  = "abandoned"
	GatewayStatusReversed   = "reversed"
	GatewayStatusOngoing    = "ongoing"
	GatewayStatusPending    = "pending"
	GatewayStatusProcessing = "processing"
	GatewayStatusQueued     = "queued"
)

// Webhook event types acted upon.
const (
	WebhookEventChargeSuccess = "charge.success"
)

// Outcome labels for metrics.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	OutcomeIgnored  = "ignored"
	OutcomeInvalid  = "invalid_signature"
)
