package usecase

import (
	"context"
	"fmt"

	"github.com/iho/gowallet/internal/domain"
)

const (
	// DefaultAuditLimit is the page size used when a filter sets no limit.
	DefaultAuditLimit = 50
	// MaxAuditLimit caps a single page of audit entries.
	MaxAuditLimit = 500
)

// AuditUseCase reads the audit trail written by settlements and the sweeper.
type AuditUseCase struct {
	auditRepo AuditRepository
}

// NewAuditUseCase creates a new AuditUseCase.
func NewAuditUseCase(auditRepo AuditRepository) *AuditUseCase {
	return &AuditUseCase{auditRepo: auditRepo}
}

// List returns audit entries matching filter, newest first.
func (uc *AuditUseCase) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", domain.ErrInvalidOperation)
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultAuditLimit
	}
	if filter.Limit > MaxAuditLimit {
		filter.Limit = MaxAuditLimit
	}

	logs, err := uc.auditRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}

	return logs, nil
}
