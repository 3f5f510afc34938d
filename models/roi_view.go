package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/arclabs/arc/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RollupPeriod labels the time bucket of a rollup view
type RollupPeriod string

const (
	PeriodDaily   RollupPeriod = "daily"
	PeriodWeekly  RollupPeriod = "weekly"
	PeriodMonthly RollupPeriod = "monthly"
)

// Valid checks if the period label is known
func (p RollupPeriod) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for RollupPeriod
func (p *RollupPeriod) Scan(value any) error {
	if value == nil {
		*p = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*p = RollupPeriod(v)
	case []byte:
		*p = RollupPeriod(string(v))
	default:
		return fmt.Errorf("cannot scan %T into RollupPeriod", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for RollupPeriod
func (p RollupPeriod) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid RollupPeriod: %s", p)
	}
	return string(p), nil
}

// Bucket returns the [start, end) range of the period containing ref.
// Weekly buckets start on Monday, matching the dashboard's reporting weeks.
func (p RollupPeriod) Bucket(ref time.Time) (time.Time, time.Time) {
	day := utils.DateOnly(ref)
	switch p {
	case PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case PeriodMonthly:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	default:
		return day, day.AddDate(0, 0, 1)
	}
}

// AttributionModelLastClick is the only model the pipeline currently
// partitions by; the label is opaque to the rollup itself.
const AttributionModelLastClick = "LAST_CLICK"

// ROIView is the materialized rollup for one (campaign, period,
// attribution model) grouping. It is always derivable from the current
// Spend rows and rebuilt on every ingest that touches the campaign.
type ROIView struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	UUID             uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uk_roi_views_uuid" json:"uuid"`
	CampaignID       uint         `gorm:"not null;uniqueIndex:uk_roi_views_natural_key;index:idx_roi_views_campaign_id" json:"campaign_id"`
	Period           RollupPeriod `gorm:"size:16;not null;uniqueIndex:uk_roi_views_natural_key" json:"period"`
	AttributionModel string       `gorm:"size:32;not null;uniqueIndex:uk_roi_views_natural_key" json:"attribution_model"`
	Spend            float64      `gorm:"type:decimal(14,2);not null;default:0" json:"spend"`
	Revenue          float64      `gorm:"type:decimal(14,2);not null;default:0" json:"revenue"`
	Conversions      int64        `gorm:"not null;default:0" json:"conversions"`
	CAC              float64      `gorm:"type:decimal(14,2);not null;default:0" json:"cac"`
	ROAS             float64      `gorm:"type:decimal(14,2);not null;default:0" json:"roas"`
	CLV              float64      `gorm:"type:decimal(14,2);not null;default:0" json:"clv"`
	CreatedAt        time.Time    `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt        *time.Time   `json:"updated_at,omitempty"`

	// Relations
	Campaign *Campaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
}

// TableName returns the table name for the model
func (ROIView) TableName() string {
	return "roi_views"
}

// BeforeCreate is called before creating a new record
func (v *ROIView) BeforeCreate(tx *gorm.DB) error {
	if v.UUID == uuid.Nil {
		v.UUID = uuid.New()
	}
	if v.AttributionModel == "" {
		v.AttributionModel = AttributionModelLastClick
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (v *ROIView) BeforeUpdate(tx *gorm.DB) error {
	v.UpdatedAt = utils.UTCNowPtr()
	return nil
}

// ROIViewFilter represents filter criteria for rollup views
type ROIViewFilter struct {
	ID               *uint         `json:"id,omitempty"`
	UUID             *uuid.UUID    `json:"uuid,omitempty"`
	CampaignID       *uint         `json:"campaign_id,omitempty"`
	Period           *RollupPeriod `json:"period,omitempty"`
	AttributionModel *string       `json:"attribution_model,omitempty"`
}
