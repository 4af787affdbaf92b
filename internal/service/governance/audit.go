// Package governance exposes the audit trail of administrative and
// ingestion actions.
package governance

import (
	"context"

	"grantscope/internal/domain"
)

// AuditService provides read access to the audit log.
type AuditService struct {
	repo domain.AuditRepository
}

// NewAuditService creates an AuditService.
func NewAuditService(repo domain.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// List returns audit entries, newest first.
func (s *AuditService) List(ctx context.Context, page domain.PageRequest) ([]domain.AuditEntry, int64, error) {
	return s.repo.List(ctx, page)
}
