package repository

import (
	"context"
	"fmt"

	"github.com/arclabs/arc/models"
	"gorm.io/gorm"
)

// AuditLogRepositoryImpl implements AuditLogRepository
type AuditLogRepositoryImpl struct {
	*BaseRepository[models.AuditLog, models.AuditLogFilter]
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &AuditLogRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AuditLog, models.AuditLogFilter](db),
	}
}

// ListByWorkspace retrieves audit entries for one workspace, newest first
func (r *AuditLogRepositoryImpl) ListByWorkspace(ctx context.Context, workspaceID uint, limit, offset int) ([]*models.AuditLog, error) {
	db := r.getDB(ctx)

	var logs []*models.AuditLog
	err := db.Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs by workspace: %w", err)
	}

	return logs, nil
}

// ListByEntityType retrieves audit entries for one entity type, newest first
func (r *AuditLogRepositoryImpl) ListByEntityType(ctx context.Context, entityType models.EntityType, limit, offset int) ([]*models.AuditLog, error) {
	db := r.getDB(ctx)

	var logs []*models.AuditLog
	err := db.Where("entity_type = ?", entityType).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs by entity type: %w", err)
	}

	return logs, nil
}
