package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountConnectionRepositoryImpl implements AccountConnectionRepository
type AccountConnectionRepositoryImpl struct {
	*BaseRepository[models.AccountConnection, models.AccountConnectionFilter]
}

// NewAccountConnectionRepository creates a new account connection repository
func NewAccountConnectionRepository(db *gorm.DB) AccountConnectionRepository {
	return &AccountConnectionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AccountConnection, models.AccountConnectionFilter](db),
	}
}

// ByUUID retrieves a connection by its UUID
func (r *AccountConnectionRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.AccountConnection, error) {
	db := r.getDB(ctx)

	var conn models.AccountConnection
	err := db.Where("uuid = ?", id).First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find connection by UUID %s: %w", id, err)
	}

	return &conn, nil
}

// ByWorkspaceAndPlatform retrieves the single connection for one platform in a workspace
func (r *AccountConnectionRepositoryImpl) ByWorkspaceAndPlatform(ctx context.Context, workspaceID uint, platform models.Platform) (*models.AccountConnection, error) {
	db := r.getDB(ctx)

	var conn models.AccountConnection
	err := db.Where("workspace_id = ? AND platform = ?", workspaceID, platform).First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find connection for workspace %d platform %s: %w", workspaceID, platform, err)
	}

	return &conn, nil
}

// Upsert inserts or merges the connection row keyed by (workspace_id, platform).
// The incoming credential envelope and status win on conflict.
func (r *AccountConnectionRepositoryImpl) Upsert(ctx context.Context, conn *models.AccountConnection) error {
	if conn.WorkspaceID == 0 || !conn.Platform.Valid() {
		return fmt.Errorf("account connection (workspace=%d, platform=%q): %w", conn.WorkspaceID, conn.Platform, ErrNotPersistable)
	}

	db := r.getDB(ctx)
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "workspace_id"}, {Name: "platform"}},
		DoUpdates: clause.Assignments(map[string]any{
			"credentials": clause.Expr{SQL: "EXCLUDED.credentials"},
			"status":      clause.Expr{SQL: "EXCLUDED.status"},
			"updated_at":  utils.UTCNow(),
			"created_at":  clause.Expr{SQL: "LEAST(account_connections.created_at, EXCLUDED.created_at)"},
		}),
	}).Create(conn).Error
}

// UpdateStatus flips the lifecycle status of a connection
func (r *AccountConnectionRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status models.ConnectionStatus) error {
	db := r.getDB(ctx)

	err := db.Model(&models.AccountConnection{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": utils.UTCNow()}).Error
	if err != nil {
		return fmt.Errorf("failed to update connection %d status: %w", id, err)
	}

	return nil
}
