package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes externally funded deposits from internal transfers.
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeTransfer TransactionType = "transfer"
)

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed from s.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusSuccess || s == TransactionStatusFailed
}

// CanTransition reports whether moving from s to next is allowed.
// Only pending transactions may move, and only to a terminal state.
func (s TransactionStatus) CanTransition(next TransactionStatus) bool {
	return s == TransactionStatusPending && next.IsTerminal()
}

// Failure reasons recorded on failed deposits.
const (
	FailureReasonGatewayInitialize = "gateway_initialize_failed"
	FailureReasonGatewayDeclined   = "gateway_declined"
	FailureReasonExpired           = "expired"
)

// Transaction is a ledger record of a deposit or a transfer.
type Transaction struct {
	ID               string
	Reference        string
	Type             TransactionType
	Status           TransactionStatus
	Amount           decimal.Decimal
	UserID           string
	SenderWalletID   *string
	ReceiverWalletID *string
	GatewayReference *string
	Description      string
	FailureReason    string
	VerifyAttempts   int32
	LastVerifiedAt   *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsPending reports whether the transaction still awaits an outcome.
func (t *Transaction) IsPending() bool {
	return t.Status == TransactionStatusPending
}

// StatusTransition describes a compare-and-set on a transaction's status.
// The update applies only if the stored status equals From. A non-nil Amount
// replaces the recorded amount with the one confirmed by the gateway.
type StatusTransition struct {
	Reference     string
	Type          TransactionType
	From          TransactionStatus
	To            TransactionStatus
	Amount        *decimal.Decimal
	FailureReason string
	At            time.Time
}

// Transition moves the transaction to status to.
func (t *Transaction) Transition(to TransactionStatus, failureReason string, at time.Time) error {
	if !t.Status.CanTransition(to) {
		if t.Status.IsTerminal() {
			return ErrAlreadyTerminal
		}

		return ErrInvalidTransition
	}

	t.Status = to
	if to == TransactionStatusFailed {
		t.FailureReason = failureReason
	}
	t.UpdatedAt = at

	return nil
}
