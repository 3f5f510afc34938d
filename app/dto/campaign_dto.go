package dto

import (
	"time"
)

// UTMParamsDTO carries campaign link tracking parameters
type UTMParamsDTO struct {
	Source   string `json:"source,omitempty"`
	Medium   string `json:"medium,omitempty"`
	Campaign string `json:"campaign,omitempty"`
	Term     string `json:"term,omitempty"`
	Content  string `json:"content,omitempty"`
}

// CreateCampaignRequest represents the request to create a new campaign
type CreateCampaignRequest struct {
	WorkspaceUUID string        `json:"-"`
	Name          string        `json:"name" validate:"required,min=1,max=255"`
	Objective     string        `json:"objective,omitempty" validate:"omitempty,max=64"`
	StartDate     *time.Time    `json:"start_date,omitempty"`
	EndDate       *time.Time    `json:"end_date,omitempty"`
	ChannelIDs    []string      `json:"channel_ids,omitempty"`
	Budget        float64       `json:"budget,omitempty" validate:"omitempty,gte=0"`
	UTM           *UTMParamsDTO `json:"utm,omitempty"`
}

// CampaignResponse represents a campaign in API responses
type CampaignResponse struct {
	UUID       string        `json:"uuid"`
	Name       string        `json:"name"`
	Objective  string        `json:"objective,omitempty"`
	StartDate  *time.Time    `json:"start_date,omitempty"`
	EndDate    *time.Time    `json:"end_date,omitempty"`
	ChannelIDs []string      `json:"channel_ids,omitempty"`
	Budget     float64       `json:"budget"`
	UTM        *UTMParamsDTO `json:"utm,omitempty"`
	CreatedAt  string        `json:"created_at"`
}

// ListCampaignsRequest represents the request to list campaigns in a workspace
type ListCampaignsRequest struct {
	WorkspaceUUID string `json:"-"`
	Page          int    `json:"page,omitempty" validate:"omitempty,min=1"`
	PageSize      int    `json:"page_size,omitempty" validate:"omitempty,min=1,max=100"`
}

// ListCampaignsResponse represents the paginated campaign listing
type ListCampaignsResponse struct {
	Campaigns []CampaignResponse `json:"campaigns"`
	Page      int                `json:"page"`
	PageSize  int                `json:"page_size"`
}

// ROIViewResponse represents one rollup row in API responses
type ROIViewResponse struct {
	Period           string  `json:"period"`
	AttributionModel string  `json:"attribution_model"`
	Spend            float64 `json:"spend"`
	Revenue          float64 `json:"revenue"`
	Conversions      int64   `json:"conversions"`
	CAC              float64 `json:"cac"`
	ROAS             float64 `json:"roas"`
	CLV              float64 `json:"clv"`
	UpdatedAt        string  `json:"updated_at,omitempty"`
}

// CampaignROIResponse represents the rollup views of one campaign
type CampaignROIResponse struct {
	CampaignUUID string            `json:"campaign_uuid"`
	Views        []ROIViewResponse `json:"views"`
}
