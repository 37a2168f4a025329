package usecase

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
)

// WalletRepository defines data access for wallets.
// Balance changes go through Debit and Credit, which apply the arithmetic in storage.
type WalletRepository interface {
	Create(ctx context.Context, tx Transaction, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error)
	GetByWalletNumber(ctx context.Context, walletNumber string) (*domain.Wallet, error)
	// GetByIDsForUpdate locks the wallets in ascending id order.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Wallet, error)
	// Debit subtracts amount only if the balance covers it, returning ErrInsufficientFunds otherwise.
	Debit(ctx context.Context, tx Transaction, id string, amount decimal.Decimal, updatedAt time.Time) (decimal.Decimal, error)
	Credit(ctx context.Context, tx Transaction, id string, amount decimal.Decimal, updatedAt time.Time) (decimal.Decimal, error)
}

// TransactionRepository defines data access for ledger transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	GetByReference(ctx context.Context, reference string) (*domain.Transaction, error)
	// CompareAndSetStatus applies the transition only if the stored status equals From.
	// It returns the stored row and whether this call performed the transition.
	CompareAndSetStatus(ctx context.Context, tx Transaction, transition domain.StatusTransition) (*domain.Transaction, bool, error)
	SetGatewayReference(ctx context.Context, reference, gatewayReference string, updatedAt time.Time) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error)
	// ListPendingDeposits returns pending deposits created in [createdAfter, createdBefore),
	// least recently verified first.
	ListPendingDeposits(ctx context.Context, createdAfter, createdBefore time.Time, limit int) ([]*domain.Transaction, error)
	// ExpirePendingDeposits fails every pending deposit created before the cutoff and returns them.
	ExpirePendingDeposits(ctx context.Context, tx Transaction, createdBefore, at time.Time) ([]*domain.Transaction, error)
	RecordVerifyAttempt(ctx context.Context, reference string, at time.Time) error
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	// CheckConsistency returns the sum of all wallet balances and the sum of all
	// successful deposits.
	CheckConsistency(ctx context.Context) (totalBalance, totalDeposits decimal.Decimal, err error)
}

// UserRepository reads account holders.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// ReferenceGenerator generates unique, sortable transaction references.
type ReferenceGenerator interface {
	Generate() string
}

// WalletNumberGenerator generates candidate public wallet numbers.
type WalletNumberGenerator interface {
	Generate() (string, error)
}

// IdempotencyInFlight is the value CheckAndSet reports for a key whose first
// request has not finished yet.
const IdempotencyInFlight = "processing"

// IsIdempotencyInFlight reports whether a value returned by CheckAndSet belongs
// to a request that is still running.
func IsIdempotencyInFlight(value []byte) bool {
	return value == nil || string(value) == IdempotencyInFlight
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request did not complete, so it can be retried.
	Release(ctx context.Context, key string) error
}

// PaymentGateway is the external card/bank payment processor.
type PaymentGateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

// WebhookVerifier authenticates gateway notifications.
type WebhookVerifier interface {
	VerifySignature(payload []byte, signature string) bool
}

// Settler applies confirmed gateway outcomes to the ledger.
type Settler interface {
	ApplySuccess(ctx context.Context, input SettleInput) (SettleOutcome, error)
	ApplyFailure(ctx context.Context, input FailInput) (SettleOutcome, error)
}

// MetricsRecorder receives business events for instrumentation.
type MetricsRecorder interface {
	ObserveTransfer(outcome string, amount decimal.Decimal, duration time.Duration)
	ObserveDeposit(outcome string)
	ObserveSettlement(source SettleSource, outcome SettleOutcome)
	ObserveWebhook(outcome string)
	ObserveSweep(report *SweepReport, duration time.Duration)
}
