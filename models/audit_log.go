package models

import (
	"encoding/json"
	"time"

	"github.com/arclabs/arc/utils"
	"gorm.io/gorm"
)

// AuditAction classifies a sensitive mutation
type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

// EntityType names the entity classes known to the audit trail and the
// tenant-isolation interceptor.
type EntityType string

const (
	EntityUser        EntityType = "user"
	EntityWorkspace   EntityType = "workspace"
	EntityConnection  EntityType = "connection"
	EntityCampaign    EntityType = "campaign"
	EntityChannel     EntityType = "channel"
	EntityContentItem EntityType = "content_item"
	EntityComment     EntityType = "comment"
	EntitySpend       EntityType = "spend"
	EntityROIView     EntityType = "roi_view"
)

// AuditLog is the append-only record of a sensitive mutation. For deletes
// only the identifying filter goes into Metadata, never the removed payload.
type AuditLog struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      string          `gorm:"size:64;index:idx_audit_logs_user_id" json:"user_id"`
	WorkspaceID uint            `gorm:"not null;index:idx_audit_logs_workspace_id" json:"workspace_id"`
	Action      AuditAction     `gorm:"size:16;not null;index:idx_audit_logs_action" json:"action"`
	EntityType  EntityType      `gorm:"size:32;not null;index:idx_audit_logs_entity_type" json:"entity_type"`
	EntityID    string          `gorm:"size:64" json:"entity_id"`
	Metadata    json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time       `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_audit_logs_created_at" json:"created_at"`
}

// TableName returns the table name for the model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate is called before creating a new record
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = utils.UTCNow()
	}
	return nil
}

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint        `json:"id,omitempty"`
	UserID        *string      `json:"user_id,omitempty"`
	WorkspaceID   *uint        `json:"workspace_id,omitempty"`
	Action        *AuditAction `json:"action,omitempty"`
	EntityType    *EntityType  `json:"entity_type,omitempty"`
	CreatedAfter  *time.Time   `json:"created_after,omitempty"`
	CreatedBefore *time.Time   `json:"created_before,omitempty"`
}
