package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arclabs/arc/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// UTMParams carries the tracking parameters attached to campaign links
type UTMParams struct {
	Source   string `json:"source,omitempty"`
	Medium   string `json:"medium,omitempty"`
	Campaign string `json:"campaign,omitempty"`
	Term     string `json:"term,omitempty"`
	Content  string `json:"content,omitempty"`
}

// Value implements the driver.Valuer interface for UTMParams
func (u UTMParams) Value() (driver.Value, error) {
	return json.Marshal(u)
}

// Scan implements the sql.Scanner interface for UTMParams
func (u *UTMParams) Scan(value any) error {
	if value == nil {
		*u = UTMParams{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into UTMParams", value)
	}

	return json.Unmarshal(bytes, u)
}

// Campaign is a workspace-scoped marketing campaign. Spend facts and rollup
// views hang off it, inheriting its workspace scope.
type Campaign struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_campaigns_uuid" json:"uuid"`
	WorkspaceID uint           `gorm:"not null;index:idx_campaigns_workspace_id" json:"workspace_id"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Objective   string         `gorm:"size:64" json:"objective"`
	StartDate   *time.Time     `gorm:"type:date" json:"start_date,omitempty"`
	EndDate     *time.Time     `gorm:"type:date" json:"end_date,omitempty"`
	ChannelIDs  pq.StringArray `gorm:"type:text[]" json:"channel_ids"`
	Budget      float64        `gorm:"type:decimal(14,2);not null;default:0" json:"budget"`
	UTM         UTMParams      `gorm:"type:jsonb;not null;default:'{}'" json:"utm"`
	CreatedAt   time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_campaigns_created_at" json:"created_at"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`

	// Relations
	Workspace *Workspace `gorm:"foreignKey:WorkspaceID;references:ID" json:"workspace,omitempty"`
	Spends    []Spend    `gorm:"foreignKey:CampaignID" json:"spends,omitempty"`
	ROIViews  []ROIView  `gorm:"foreignKey:CampaignID" json:"roi_views,omitempty"`
}

// TableName returns the table name for the model
func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeCreate is called before creating a new record
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Campaign) BeforeUpdate(tx *gorm.DB) error {
	c.UpdatedAt = utils.UTCNowPtr()
	return nil
}

// CampaignFilter represents filter criteria for campaigns
type CampaignFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	WorkspaceID   *uint      `json:"workspace_id,omitempty"`
	Name          *string    `json:"name,omitempty"`
	Objective     *string    `json:"objective,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
