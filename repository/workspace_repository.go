// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/arclabs/arc/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkspaceRepositoryImpl implements WorkspaceRepository interface
type WorkspaceRepositoryImpl struct {
	*BaseRepository[models.Workspace, models.WorkspaceFilter]
}

// NewWorkspaceRepository creates a new workspace repository
func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &WorkspaceRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Workspace, models.WorkspaceFilter](db),
	}
}

// ByUUID retrieves a workspace by its UUID
func (r *WorkspaceRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	db := r.getDB(ctx)

	var workspace models.Workspace
	err := db.Where("uuid = ?", id).First(&workspace).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find workspace by UUID %s: %w", id, err)
	}

	return &workspace, nil
}
