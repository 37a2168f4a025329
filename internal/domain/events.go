package domain

import "time"

// Event types
const (
	EventTypeDepositInitiated   = "deposit.initiated"
	EventTypeDepositSucceeded   = "deposit.succeeded"
	EventTypeDepositFailed      = "deposit.failed"
	EventTypeDepositLateSuccess = "deposit.late_success"
	EventTypeTransferCompleted  = "transfer.completed"
	EventTypeWalletCreated      = "wallet.created"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
	AggregateTypeWallet      = "wallet"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// DepositSettledEvent payload for deposit.succeeded, deposit.failed and deposit.late_success
type DepositSettledEvent struct {
	Reference string `json:"reference"`
	UserID    string `json:"user_id"`
	WalletID  string `json:"wallet_id,omitempty"`
	Amount    string `json:"amount"`
	Status    string `json:"status"`
	Source    string `json:"source"`
	Reason    string `json:"reason,omitempty"`
}

// TransferCompletedEvent payload
type TransferCompletedEvent struct {
	Reference        string `json:"reference"`
	SenderWalletID   string `json:"sender_wallet_id"`
	ReceiverWalletID string `json:"receiver_wallet_id"`
	Amount           string `json:"amount"`
}

// WalletCreatedEvent payload
type WalletCreatedEvent struct {
	WalletID     string `json:"wallet_id"`
	WalletNumber string `json:"wallet_number"`
	UserID       string `json:"user_id"`
}
