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

// DerivedMetricsVersion is the current schema version of the derived bag
const DerivedMetricsVersion = 1

// DerivedMetrics holds the standard marketing ratios computed from the raw
// counters of one spend row. Values are rounded to 2 fraction digits and
// resolve to 0 on division by zero so they always render.
type DerivedMetrics struct {
	SchemaVersion int     `json:"schema_version"`
	CTR           float64 `json:"ctr"`
	CPC           float64 `json:"cpc"`
	CPM           float64 `json:"cpm"`
	ROAS          float64 `json:"roas"`
}

// Value implements the driver.Valuer interface for DerivedMetrics
func (d DerivedMetrics) Value() (driver.Value, error) {
	if d.SchemaVersion == 0 {
		d.SchemaVersion = DerivedMetricsVersion
	}
	return json.Marshal(d)
}

// Scan implements the sql.Scanner interface for DerivedMetrics
func (d *DerivedMetrics) Scan(value any) error {
	if value == nil {
		*d = DerivedMetrics{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into DerivedMetrics", value)
	}

	return json.Unmarshal(bytes, d)
}

// Spend is the raw daily fact row ingested from an ad platform.
// Natural key: (campaign_id, platform, date). Date is day granularity.
type Spend struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_spends_uuid" json:"uuid"`
	CampaignID  uint           `gorm:"not null;uniqueIndex:uk_spends_natural_key;index:idx_spends_campaign_id" json:"campaign_id"`
	Platform    Platform       `gorm:"size:32;not null;uniqueIndex:uk_spends_natural_key" json:"platform"`
	Date        time.Time      `gorm:"type:date;not null;uniqueIndex:uk_spends_natural_key;index:idx_spends_date" json:"date"`
	Spend       float64        `gorm:"type:decimal(14,2);not null;default:0" json:"spend"`
	Impressions int64          `gorm:"not null;default:0" json:"impressions"`
	Clicks      int64          `gorm:"not null;default:0" json:"clicks"`
	Conversions int64          `gorm:"not null;default:0" json:"conversions"`
	Revenue     float64        `gorm:"type:decimal(14,2);not null;default:0" json:"revenue"`
	Derived     DerivedMetrics `gorm:"type:jsonb;not null;default:'{}'" json:"derived"`
	CreatedAt   time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`

	// Relations
	Campaign *Campaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
}

// TableName returns the table name for the model
func (Spend) TableName() string {
	return "spends"
}

// BeforeCreate is called before creating a new record
func (s *Spend) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	s.Date = utils.DateOnly(s.Date)
	if s.CreatedAt.IsZero() {
		s.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (s *Spend) BeforeUpdate(tx *gorm.DB) error {
	s.UpdatedAt = utils.UTCNowPtr()
	return nil
}

// SpendFilter represents filter criteria for spend facts
type SpendFilter struct {
	ID         *uint      `json:"id,omitempty"`
	UUID       *uuid.UUID `json:"uuid,omitempty"`
	CampaignID *uint      `json:"campaign_id,omitempty"`
	Platform   *Platform  `json:"platform,omitempty"`
	DateAfter  *time.Time `json:"date_after,omitempty"`
	DateBefore *time.Time `json:"date_before,omitempty"`
}
