package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/arclabs/arc/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Sentiment is the label attached to a comment by the analysis service
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Valid checks if the sentiment label is known
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for Sentiment
func (s *Sentiment) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = Sentiment(v)
	case []byte:
		*s = Sentiment(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Sentiment", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for Sentiment
func (s Sentiment) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid Sentiment: %s", s)
	}
	return string(s), nil
}

// Comment is externally-sourced user feedback on a content item.
// Natural key: (content_item_id, platform, external_id). Text is sanitized
// before it reaches storage.
type Comment struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UUID          uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_comments_uuid" json:"uuid"`
	ContentItemID uint           `gorm:"not null;uniqueIndex:uk_comments_natural_key" json:"content_item_id"`
	WorkspaceID   uint           `gorm:"not null;index:idx_comments_workspace_id" json:"workspace_id"`
	Platform      Platform       `gorm:"size:32;not null;uniqueIndex:uk_comments_natural_key" json:"platform"`
	ExternalID    string         `gorm:"size:255;not null;uniqueIndex:uk_comments_natural_key" json:"external_id"`
	Author        string         `gorm:"size:255" json:"author"`
	Text          string         `gorm:"type:text;not null" json:"text"`
	LikeCount     int64          `gorm:"not null;default:0" json:"like_count"`
	Sentiment     Sentiment      `gorm:"size:16;not null;default:'neutral'" json:"sentiment"`
	TopicTags     pq.StringArray `gorm:"type:text[]" json:"topic_tags"`
	PublishedAt   *time.Time     `json:"published_at,omitempty"`
	CreatedAt     time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt     *time.Time     `json:"updated_at,omitempty"`

	// Relations
	ContentItem *ContentItem `gorm:"foreignKey:ContentItemID;references:ID" json:"content_item,omitempty"`
}

// TableName returns the table name for the model
func (Comment) TableName() string {
	return "comments"
}

// BeforeCreate is called before creating a new record
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Sentiment == "" {
		c.Sentiment = SentimentNeutral
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Comment) BeforeUpdate(tx *gorm.DB) error {
	c.UpdatedAt = utils.UTCNowPtr()
	return nil
}

// SanitizeText strips unsafe markup from the comment body and author handle
func (c *Comment) SanitizeText(clean func(string) string) {
	c.Text = clean(c.Text)
	c.Author = clean(c.Author)
}

// CommentFilter represents filter criteria for comments
type CommentFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	ContentItemID *uint      `json:"content_item_id,omitempty"`
	WorkspaceID   *uint      `json:"workspace_id,omitempty"`
	Platform      *Platform  `json:"platform,omitempty"`
	ExternalID    *string    `json:"external_id,omitempty"`
	Sentiment     *Sentiment `json:"sentiment,omitempty"`
}
