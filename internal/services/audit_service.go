package services

import (
	"context"
	"fmt"

	"github.com/krosit/flota-api/internal/models"
	"github.com/krosit/flota-api/internal/repository"
	"github.com/krosit/flota-api/pkg/logger"
)

// AuditService records who did what. Standalone actions go through Log;
// ledger mutations build their record with Entry and hand it to the
// repository closure so it commits atomically with the mutation.
type AuditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new audit service.
func NewAuditService(repo repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Entry builds an audit record without persisting it.
func (s *AuditService) Entry(actor Actor, action, entity, entityID, description string) *models.AuditLog {
	return &models.AuditLog{
		UserID:      actor.UserID,
		Action:      action,
		Entity:      entity,
		EntityID:    entityID,
		Description: description,
		IPAddress:   actor.IP,
	}
}

// Log records an audit entry. A failed write is logged but never fails the
// caller's operation.
func (s *AuditService) Log(ctx context.Context, actor Actor, action, entity, entityID, description string) {
	if err := s.repo.Create(ctx, s.Entry(actor, action, entity, entityID, description)); err != nil {
		logger.Error(fmt.Sprintf("audit write failed: %v", err))
	}
}

// List retrieves audit logs with filters. Staff only.
func (s *AuditService) List(ctx context.Context, actor Actor, query *repository.ListQuery) ([]models.AuditLog, int64, error) {
	if !actor.IsStaff() {
		return nil, 0, ErrUnauthorized
	}
	return s.repo.List(ctx, query)
}
