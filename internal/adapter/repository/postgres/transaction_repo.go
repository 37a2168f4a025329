package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/postgres/generated"
	"github.com/iho/gowallet/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{
		queries: generated.New(db),
	}
}

// Create inserts a transaction within a transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	return queries.CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:               txn.ID,
		Reference:        txn.Reference,
		Type:             string(txn.Type),
		Status:           string(txn.Status),
		Amount:           decimalToNumeric(txn.Amount),
		UserID:           txn.UserID,
		SenderWalletID:   stringPtrToText(txn.SenderWalletID),
		ReceiverWalletID: stringPtrToText(txn.ReceiverWalletID),
		GatewayReference: stringPtrToText(txn.GatewayReference),
		Description:      txn.Description,
		FailureReason:    txn.FailureReason,
		CreatedAt:        timeToPgTimestamptz(txn.CreatedAt),
		UpdatedAt:        timeToPgTimestamptz(txn.UpdatedAt),
	})
}

// GetByReference retrieves a transaction by reference.
func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	row, err := r.queries.GetTransactionByReference(ctx, reference)
	if err != nil {
		return nil, transactionError(err)
	}

	return rowToTransaction(row), nil
}

// CompareAndSetStatus runs a single conditional UPDATE. When no row matches, the
// current row is read back in the same transaction so the caller can tell
// "already moved" from "does not exist".
func (r *TransactionRepository) CompareAndSetStatus(ctx context.Context, tx usecase.Transaction, transition domain.StatusTransition) (*domain.Transaction, bool, error) {
	if !transition.From.CanTransition(transition.To) {
		return nil, false, domain.ErrInvalidTransition
	}

	queries, err := queriesFor(tx)
	if err != nil {
		return nil, false, err
	}

	var amount pgtype.Numeric
	if transition.Amount != nil {
		amount = decimalToNumeric(*transition.Amount)
	}

	failureReason := ""
	if transition.To == domain.TransactionStatusFailed {
		failureReason = transition.FailureReason
	}

	row, err := queries.CompareAndSetTransactionStatus(ctx, generated.CompareAndSetTransactionStatusParams{
		Reference:     transition.Reference,
		Type:          string(transition.Type),
		FromStatus:    string(transition.From),
		ToStatus:      string(transition.To),
		Amount:        amount,
		FailureReason: failureReason,
		UpdatedAt:     timeToPgTimestamptz(transition.At),
	})
	if err == nil {
		return rowToTransaction(row), true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	current, err := queries.GetTransactionByReference(ctx, transition.Reference)
	if err != nil {
		return nil, false, transactionError(err)
	}
	if current.Type != string(transition.Type) {
		return nil, false, domain.ErrTransactionNotFound
	}

	return rowToTransaction(current), false, nil
}

// SetGatewayReference stores the gateway's own reference for a deposit.
func (r *TransactionRepository) SetGatewayReference(ctx context.Context, reference, gatewayReference string, updatedAt time.Time) error {
	n, err := r.queries.SetTransactionGatewayReference(ctx, generated.SetTransactionGatewayReferenceParams{
		Reference:        reference,
		GatewayReference: pgtype.Text{String: gatewayReference, Valid: true},
		UpdatedAt:        timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// ListByUser lists transactions initiated by or paid to the user, newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListTransactionsByUser(ctx, generated.ListTransactionsByUserParams{
		UserID: userID,
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows), nil
}

// ListPendingDeposits lists pending deposits created in [createdAfter, createdBefore),
// least recently verified first.
func (r *TransactionRepository) ListPendingDeposits(ctx context.Context, createdAfter, createdBefore time.Time, limit int) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListPendingDeposits(ctx, generated.ListPendingDepositsParams{
		CreatedAfter:  timeToPgTimestamptz(createdAfter),
		CreatedBefore: timeToPgTimestamptz(createdBefore),
		Limit:         int32(limit),
	})
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows), nil
}

// ExpirePendingDeposits fails pending deposits created before createdBefore.
func (r *TransactionRepository) ExpirePendingDeposits(ctx context.Context, tx usecase.Transaction, createdBefore, at time.Time) ([]*domain.Transaction, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	rows, err := queries.ExpirePendingDeposits(ctx, generated.ExpirePendingDepositsParams{
		CreatedBefore: timeToPgTimestamptz(createdBefore),
		FailureReason: domain.FailureReasonExpired,
		UpdatedAt:     timeToPgTimestamptz(at),
	})
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows), nil
}

// RecordVerifyAttempt bumps the verify counter of a transaction.
func (r *TransactionRepository) RecordVerifyAttempt(ctx context.Context, reference string, at time.Time) error {
	n, err := r.queries.RecordVerifyAttempt(ctx, generated.RecordVerifyAttemptParams{
		Reference:      reference,
		LastVerifiedAt: timeToPgTimestamptz(at),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

func transactionError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrTransactionNotFound
	}

	return err
}

func rowsToTransactions(rows []generated.Transaction) []*domain.Transaction {
	txns := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txns = append(txns, rowToTransaction(row))
	}

	return txns
}

func rowToTransaction(row generated.Transaction) *domain.Transaction {
	return &domain.Transaction{
		ID:               row.ID,
		Reference:        row.Reference,
		Type:             domain.TransactionType(row.Type),
		Status:           domain.TransactionStatus(row.Status),
		Amount:           numericToDecimal(row.Amount),
		UserID:           row.UserID,
		SenderWalletID:   textToStringPtr(row.SenderWalletID),
		ReceiverWalletID: textToStringPtr(row.ReceiverWalletID),
		GatewayReference: textToStringPtr(row.GatewayReference),
		Description:      row.Description,
		FailureReason:    row.FailureReason,
		VerifyAttempts:   row.VerifyAttempts,
		LastVerifiedAt:   timestamptzToPtr(row.LastVerifiedAt),
		CreatedAt:        row.CreatedAt.Time,
		UpdatedAt:        row.UpdatedAt.Time,
	}
}
