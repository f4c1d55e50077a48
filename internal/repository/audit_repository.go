package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/krosit/flota-api/internal/models"
)

// AuditRepository handles the append-only audit trail. Records written as
// part of a ledger transaction go through the audit closures of the ledger
// repositories; Create covers standalone actions (CRUD, auth, exports).
type AuditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, query *ListQuery) ([]models.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *auditRepository) List(ctx context.Context, query *ListQuery) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	db := r.db.WithContext(ctx).Model(&models.AuditLog{})

	if action, ok := query.Filters["action"]; ok && action != "" {
		db = db.Where("action = ?", action)
	}
	if entity, ok := query.Filters["entity"]; ok && entity != "" {
		db = db.Where("entity = ?", entity)
	}
	if userID, ok := query.Filters["user_id"]; ok && userID != "" {
		db = db.Where("user_id = ?", userID)
	}
	if from, ok := query.Filters["from"]; ok && from != "" {
		db = db.Where("created_at >= ?", from)
	}
	if to, ok := query.Filters["to"]; ok && to != "" {
		db = db.Where("created_at <= ?", to)
	}
	if query.Search != "" {
		db = db.Where("description ILIKE ?", "%"+query.Search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("User").
		Order("created_at DESC, id DESC").
		Offset(query.offset()).
		Limit(query.limit()).
		Find(&logs).Error
	return logs, total, err
}
