package models

import (
	"time"

	"github.com/arclabs/arc/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workspace is the tenant boundary. Every workspace-scoped row carries a
// workspace reference, directly or transitively through its campaign.
type Workspace struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_workspaces_uuid" json:"uuid"`
	Name      string     `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_workspaces_created_at" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	Campaigns   []Campaign          `gorm:"foreignKey:WorkspaceID" json:"campaigns,omitempty"`
	Channels    []Channel           `gorm:"foreignKey:WorkspaceID" json:"channels,omitempty"`
	Connections []AccountConnection `gorm:"foreignKey:WorkspaceID" json:"connections,omitempty"`
}

// TableName returns the table name for the model
func (Workspace) TableName() string {
	return "workspaces"
}

// BeforeCreate is called before creating a new record
func (w *Workspace) BeforeCreate(tx *gorm.DB) error {
	if w.UUID == uuid.Nil {
		w.UUID = uuid.New()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (w *Workspace) BeforeUpdate(tx *gorm.DB) error {
	w.UpdatedAt = utils.UTCNowPtr()
	return nil
}

// WorkspaceFilter represents filter criteria for workspaces
type WorkspaceFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	Name          *string    `json:"name,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
