package dto

import (
	"time"
)

// TriggerIngestRequest represents the request to start an ingestion job
type TriggerIngestRequest struct {
	WorkspaceUUID string     `json:"-"`
	Platform      string     `json:"-"`
	CampaignUUID  *string    `json:"campaign_uuid,omitempty" validate:"omitempty,uuid"`
	From          *time.Time `json:"from,omitempty"`
	To            *time.Time `json:"to,omitempty"`
}

// TriggerIngestResponse represents the accepted ingestion job
type TriggerIngestResponse struct {
	Message    string `json:"message"`
	JobRunUUID string `json:"job_run_uuid"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

// JobRunSummaryDTO represents the outcome counters of a finished run
type JobRunSummaryDTO struct {
	RecordsWritten int    `json:"records_written"`
	RecordsFailed  int    `json:"records_failed"`
	Error          string `json:"error,omitempty"`
}

// JobRunResponse represents one job run in API responses
type JobRunResponse struct {
	UUID       string           `json:"uuid"`
	Type       string           `json:"type"`
	Status     string           `json:"status"`
	Summary    JobRunSummaryDTO `json:"summary"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// ListJobRunsRequest represents the request to list job runs
type ListJobRunsRequest struct {
	Type     string `json:"type,omitempty"`
	Status   string `json:"status,omitempty" validate:"omitempty,oneof=PENDING RUNNING COMPLETED FAILED"`
	Page     int    `json:"page,omitempty" validate:"omitempty,min=1"`
	PageSize int    `json:"page_size,omitempty" validate:"omitempty,min=1,max=100"`
}

// ListJobRunsResponse represents the paginated job run listing
type ListJobRunsResponse struct {
	Runs     []JobRunResponse `json:"runs"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}
