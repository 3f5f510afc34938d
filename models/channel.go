package models

import (
	"time"

	"github.com/arclabs/arc/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Channel represents one external account or handle on a platform.
// Natural key: (workspace_id, platform, external_id).
type Channel struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_channels_uuid" json:"uuid"`
	WorkspaceID uint       `gorm:"not null;uniqueIndex:uk_channels_natural_key;index:idx_channels_workspace_id" json:"workspace_id"`
	Platform    Platform   `gorm:"size:32;not null;uniqueIndex:uk_channels_natural_key" json:"platform"`
	ExternalID  string     `gorm:"size:255;not null;uniqueIndex:uk_channels_natural_key" json:"external_id"`
	Name        string     `gorm:"size:255" json:"name"`
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`

	// Relations
	Workspace    *Workspace    `gorm:"foreignKey:WorkspaceID;references:ID" json:"workspace,omitempty"`
	ContentItems []ContentItem `gorm:"foreignKey:ChannelID" json:"content_items,omitempty"`
}

// TableName returns the table name for the model
func (Channel) TableName() string {
	return "channels"
}

// BeforeCreate is called before creating a new record
func (c *Channel) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Channel) BeforeUpdate(tx *gorm.DB) error {
	c.UpdatedAt = utils.UTCNowPtr()
	return nil
}

// ChannelFilter represents filter criteria for channels
type ChannelFilter struct {
	ID          *uint      `json:"id,omitempty"`
	UUID        *uuid.UUID `json:"uuid,omitempty"`
	WorkspaceID *uint      `json:"workspace_id,omitempty"`
	Platform    *Platform  `json:"platform,omitempty"`
	ExternalID  *string    `json:"external_id,omitempty"`
}
