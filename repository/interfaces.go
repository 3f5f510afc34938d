// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/arclabs/arc/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
}

// WorkspaceRepository defines operations for workspaces
type WorkspaceRepository interface {
	Repository[models.Workspace, models.WorkspaceFilter]
	ByUUID(ctx context.Context, uuid uuid.UUID) (*models.Workspace, error)
}

// AccountConnectionRepository defines operations for platform connections
type AccountConnectionRepository interface {
	Repository[models.AccountConnection, models.AccountConnectionFilter]
	ByUUID(ctx context.Context, uuid uuid.UUID) (*models.AccountConnection, error)
	ByWorkspaceAndPlatform(ctx context.Context, workspaceID uint, platform models.Platform) (*models.AccountConnection, error)
	Upsert(ctx context.Context, conn *models.AccountConnection) error
	UpdateStatus(ctx context.Context, id uint, status models.ConnectionStatus) error
}

// ChannelRepository defines operations for external channels
type ChannelRepository interface {
	Repository[models.Channel, models.ChannelFilter]
	ByNaturalKey(ctx context.Context, workspaceID uint, platform models.Platform, externalID string) (*models.Channel, error)
	Upsert(ctx context.Context, channel *models.Channel) error
}

// ContentItemRepository defines operations for content items
type ContentItemRepository interface {
	Repository[models.ContentItem, models.ContentItemFilter]
	ByNaturalKey(ctx context.Context, channelID uint, platform models.Platform, externalID string) (*models.ContentItem, error)
	Upsert(ctx context.Context, item *models.ContentItem) error
}

// CommentRepository defines operations for comments
type CommentRepository interface {
	Repository[models.Comment, models.CommentFilter]
	Upsert(ctx context.Context, comment *models.Comment) error
	ListByContentItem(ctx context.Context, contentItemID uint, limit, offset int) ([]*models.Comment, error)
}

// CampaignRepository defines operations for campaigns
type CampaignRepository interface {
	Repository[models.Campaign, models.CampaignFilter]
	ByUUID(ctx context.Context, uuid uuid.UUID) (*models.Campaign, error)
	ListByWorkspace(ctx context.Context, workspaceID uint, limit, offset int) ([]*models.Campaign, error)
}

// SpendTotals carries SQL-side sums over spend facts for one period bucket
type SpendTotals struct {
	TotalSpend       float64
	TotalRevenue     float64
	TotalConversions int64
	RowCount         int64
}

// SpendRepository defines operations for raw spend facts
type SpendRepository interface {
	Repository[models.Spend, models.SpendFilter]
	Upsert(ctx context.Context, spend *models.Spend) error
	SumForPeriod(ctx context.Context, campaignID uint, from, to time.Time) (*SpendTotals, error)
	ListForCampaign(ctx context.Context, campaignID uint, from, to time.Time) ([]*models.Spend, error)
}

// ROIViewRepository defines operations for rollup views
type ROIViewRepository interface {
	Repository[models.ROIView, models.ROIViewFilter]
	Upsert(ctx context.Context, view *models.ROIView) error
	ByNaturalKey(ctx context.Context, campaignID uint, period models.RollupPeriod, attributionModel string) (*models.ROIView, error)
	ListByCampaign(ctx context.Context, campaignID uint) ([]*models.ROIView, error)
}

// JobRunRepository defines operations for job run bookkeeping
type JobRunRepository interface {
	Repository[models.JobRun, models.JobRunFilter]
	ByUUID(ctx context.Context, uuid uuid.UUID) (*models.JobRun, error)
	TransitionTo(ctx context.Context, run *models.JobRun, status models.JobRunStatus) error
	ListByTypeAndStatus(ctx context.Context, jobType string, status *models.JobRunStatus, limit, offset int) ([]*models.JobRun, error)
	SweepStaleRunning(ctx context.Context, olderThan time.Time) (int64, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByWorkspace(ctx context.Context, workspaceID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByEntityType(ctx context.Context, entityType models.EntityType, limit, offset int) ([]*models.AuditLog, error)
}
