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

// ContentItemRepositoryImpl implements ContentItemRepository
type ContentItemRepositoryImpl struct {
	*BaseRepository[models.ContentItem, models.ContentItemFilter]
}

// NewContentItemRepository creates a new content item repository
func NewContentItemRepository(db *gorm.DB) ContentItemRepository {
	return &ContentItemRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ContentItem, models.ContentItemFilter](db),
	}
}

// ByNaturalKey retrieves a content item by (channel_id, platform, external_id)
func (r *ContentItemRepositoryImpl) ByNaturalKey(ctx context.Context, channelID uint, platform models.Platform, externalID string) (*models.ContentItem, error) {
	db := r.getDB(ctx)

	var item models.ContentItem
	err := db.Where("channel_id = ? AND platform = ? AND external_id = ?", channelID, platform, externalID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find content item %s/%s: %w", platform, externalID, err)
	}

	return &item, nil
}

// Upsert inserts or merges the content item keyed by (channel_id, platform,
// external_id). Re-ingesting the same external record updates the row in
// place; the fresh metrics snapshot wins.
func (r *ContentItemRepositoryImpl) Upsert(ctx context.Context, item *models.ContentItem) error {
	if item.ChannelID == 0 || !item.Platform.Valid() || item.ExternalID == "" {
		return fmt.Errorf("content item (channel=%d, platform=%q, external_id=%q): %w",
			item.ChannelID, item.Platform, item.ExternalID, ErrNotPersistable)
	}

	db := r.getDB(ctx)
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "channel_id"}, {Name: "platform"}, {Name: "external_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"title":        clause.Expr{SQL: "EXCLUDED.title"},
			"published_at": clause.Expr{SQL: "EXCLUDED.published_at"},
			"metrics":      clause.Expr{SQL: "EXCLUDED.metrics"},
			"updated_at":   utils.UTCNow(),
			"created_at":   clause.Expr{SQL: "LEAST(content_items.created_at, EXCLUDED.created_at)"},
		}),
	}).Create(item).Error
}
