package repository

import (
	"context"
	"fmt"

	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepositoryImpl implements CommentRepository
type CommentRepositoryImpl struct {
	*BaseRepository[models.Comment, models.CommentFilter]
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &CommentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Comment, models.CommentFilter](db),
	}
}

// Upsert inserts or merges the comment keyed by (content_item_id, platform, external_id)
func (r *CommentRepositoryImpl) Upsert(ctx context.Context, comment *models.Comment) error {
	if comment.ContentItemID == 0 || !comment.Platform.Valid() || comment.ExternalID == "" {
		return fmt.Errorf("comment (content_item=%d, platform=%q, external_id=%q): %w",
			comment.ContentItemID, comment.Platform, comment.ExternalID, ErrNotPersistable)
	}

	db := r.getDB(ctx)
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "content_item_id"}, {Name: "platform"}, {Name: "external_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"author":       clause.Expr{SQL: "EXCLUDED.author"},
			"text":         clause.Expr{SQL: "EXCLUDED.text"},
			"like_count":   clause.Expr{SQL: "EXCLUDED.like_count"},
			"sentiment":    clause.Expr{SQL: "EXCLUDED.sentiment"},
			"topic_tags":   clause.Expr{SQL: "EXCLUDED.topic_tags"},
			"published_at": clause.Expr{SQL: "EXCLUDED.published_at"},
			"updated_at":   utils.UTCNow(),
			"created_at":   clause.Expr{SQL: "LEAST(comments.created_at, EXCLUDED.created_at)"},
		}),
	}).Create(comment).Error
}

// ListByContentItem retrieves comments for one content item with pagination
func (r *CommentRepositoryImpl) ListByContentItem(ctx context.Context, contentItemID uint, limit, offset int) ([]*models.Comment, error) {
	db := r.getDB(ctx)

	var comments []*models.Comment
	err := db.Where("content_item_id = ?", contentItemID).
		Order("published_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments by content item: %w", err)
	}

	return comments, nil
}
