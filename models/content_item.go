package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arclabs/arc/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MetricsSnapshotVersion is the current schema version of the counter bag.
// Bump it when adding fields so consumers can branch on old rows.
const MetricsSnapshotVersion = 1

// MetricsSnapshot is the typed counter bag refreshed on each ingest.
// Originally an untyped JSON column; the schema is versioned and validated
// at the boundary instead of left fully dynamic.
type MetricsSnapshot struct {
	SchemaVersion int   `json:"schema_version"`
	Views         int64 `json:"views,omitempty"`
	Likes         int64 `json:"likes,omitempty"`
	Comments      int64 `json:"comments,omitempty"`
	Shares        int64 `json:"shares,omitempty"`
}

// Value implements the driver.Valuer interface for MetricsSnapshot
func (m MetricsSnapshot) Value() (driver.Value, error) {
	if m.SchemaVersion == 0 {
		m.SchemaVersion = MetricsSnapshotVersion
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for MetricsSnapshot
func (m *MetricsSnapshot) Scan(value any) error {
	if value == nil {
		*m = MetricsSnapshot{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into MetricsSnapshot", value)
	}

	return json.Unmarshal(bytes, m)
}

// ContentItem is a piece of published content with a metrics snapshot.
// Natural key: (channel_id, platform, external_id). The workspace reference
// is denormalized from the owning channel for tenant scope checks.
type ContentItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uk_content_items_uuid" json:"uuid"`
	ChannelID   uint            `gorm:"not null;uniqueIndex:uk_content_items_natural_key" json:"channel_id"`
	WorkspaceID uint            `gorm:"not null;index:idx_content_items_workspace_id" json:"workspace_id"`
	Platform    Platform        `gorm:"size:32;not null;uniqueIndex:uk_content_items_natural_key" json:"platform"`
	ExternalID  string          `gorm:"size:255;not null;uniqueIndex:uk_content_items_natural_key" json:"external_id"`
	Title       string          `gorm:"type:text" json:"title"`
	PublishedAt *time.Time      `json:"published_at,omitempty"`
	Metrics     MetricsSnapshot `gorm:"type:jsonb;not null;default:'{}'" json:"metrics"`
	CreatedAt   time.Time       `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`

	// Relations
	Channel  *Channel  `gorm:"foreignKey:ChannelID;references:ID" json:"channel,omitempty"`
	Comments []Comment `gorm:"foreignKey:ContentItemID" json:"comments,omitempty"`
}

// TableName returns the table name for the model
func (ContentItem) TableName() string {
	return "content_items"
}

// BeforeCreate is called before creating a new record
func (c *ContentItem) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *ContentItem) BeforeUpdate(tx *gorm.DB) error {
	c.UpdatedAt = utils.UTCNowPtr()
	return nil
}

// SanitizeText strips unsafe markup from free-text fields accepted from
// external sources. Titles arrive from platform APIs and are rendered in
// the dashboard.
func (c *ContentItem) SanitizeText(clean func(string) string) {
	c.Title = clean(c.Title)
}

// ContentItemFilter represents filter criteria for content items
type ContentItemFilter struct {
	ID          *uint      `json:"id,omitempty"`
	UUID        *uuid.UUID `json:"uuid,omitempty"`
	ChannelID   *uint      `json:"channel_id,omitempty"`
	WorkspaceID *uint      `json:"workspace_id,omitempty"`
	Platform    *Platform  `json:"platform,omitempty"`
	ExternalID  *string    `json:"external_id,omitempty"`
}
