package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChannelRepositoryImpl implements ChannelRepository
type ChannelRepositoryImpl struct {
	*BaseRepository[models.Channel, models.ChannelFilter]
}

// NewChannelRepository creates a new channel repository
func NewChannelRepository(db *gorm.DB) ChannelRepository {
	return &ChannelRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Channel, models.ChannelFilter](db),
	}
}

// ByNaturalKey retrieves a channel by (workspace_id, platform, external_id)
func (r *ChannelRepositoryImpl) ByNaturalKey(ctx context.Context, workspaceID uint, platform models.Platform, externalID string) (*models.Channel, error) {
	db := r.getDB(ctx)

	var channel models.Channel
	err := db.Where("workspace_id = ? AND platform = ? AND external_id = ?", workspaceID, platform, externalID).
		First(&channel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find channel %s/%s: %w", platform, externalID, err)
	}

	return &channel, nil
}

// Upsert inserts or merges the channel row keyed by (workspace_id, platform, external_id)
func (r *ChannelRepositoryImpl) Upsert(ctx context.Context, channel *models.Channel) error {
	if channel.WorkspaceID == 0 || !channel.Platform.Valid() || channel.ExternalID == "" {
		return fmt.Errorf("channel (workspace=%d, platform=%q, external_id=%q): %w",
			channel.WorkspaceID, channel.Platform, channel.ExternalID, ErrNotPersistable)
	}

	db := r.getDB(ctx)
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "workspace_id"}, {Name: "platform"}, {Name: "external_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"name":       clause.Expr{SQL: "EXCLUDED.name"},
			"updated_at": utils.UTCNow(),
			"created_at": clause.Expr{SQL: "LEAST(channels.created_at, EXCLUDED.created_at)"},
		}),
	}).Create(channel).Error
}
