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

// JobRunStatus represents the status of one ingestion attempt
type JobRunStatus string

const (
	JobRunStatusPending   JobRunStatus = "PENDING"
	JobRunStatusRunning   JobRunStatus = "RUNNING"
	JobRunStatusCompleted JobRunStatus = "COMPLETED"
	JobRunStatusFailed    JobRunStatus = "FAILED"
)

// String returns the string representation of the status
func (s JobRunStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s JobRunStatus) Valid() bool {
	switch s {
	case JobRunStatusPending, JobRunStatusRunning, JobRunStatusCompleted, JobRunStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status can never change again
func (s JobRunStatus) IsTerminal() bool {
	return s == JobRunStatusCompleted || s == JobRunStatusFailed
}

// Scan implements the sql.Scanner interface for JobRunStatus
func (s *JobRunStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = JobRunStatus(v)
	case []byte:
		*s = JobRunStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into JobRunStatus", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for JobRunStatus
func (s JobRunStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid JobRunStatus: %s", s)
	}
	return string(s), nil
}

// JobRunSummary is the outcome of one completed run
type JobRunSummary struct {
	RecordsWritten int    `json:"records_written"`
	RecordsFailed  int    `json:"records_failed"`
	Error          string `json:"error,omitempty"`
}

// Value implements the driver.Valuer interface for JobRunSummary
func (s JobRunSummary) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface for JobRunSummary
func (s *JobRunSummary) Scan(value any) error {
	if value == nil {
		*s = JobRunSummary{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JobRunSummary", value)
	}

	return json.Unmarshal(bytes, s)
}

// JobRun is the append-only record of one ingestion attempt. Rows are never
// mutated after reaching a terminal status; queue retries open fresh rows.
type JobRun struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uk_job_runs_uuid" json:"uuid"`
	Type        string          `gorm:"size:64;not null;index:idx_job_runs_type" json:"type"`
	Status      JobRunStatus    `gorm:"size:16;not null;default:'PENDING';index:idx_job_runs_status" json:"status"`
	Payload     json.RawMessage `gorm:"type:jsonb" json:"payload,omitempty"`
	Summary     JobRunSummary   `gorm:"type:jsonb;not null;default:'{}'" json:"summary"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
	CreatedAt   time.Time       `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_job_runs_created_at" json:"created_at"`
	WorkspaceID uint            `gorm:"not null;index:idx_job_runs_workspace_id" json:"workspace_id"`
}

// TableName returns the table name for the model
func (JobRun) TableName() string {
	return "job_runs"
}

// BeforeCreate is called before creating a new record
func (j *JobRun) BeforeCreate(tx *gorm.DB) error {
	if j.UUID == uuid.Nil {
		j.UUID = uuid.New()
	}
	if j.Status == "" {
		j.Status = JobRunStatusPending
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = utils.UTCNow()
	}
	return nil
}

// CanTransitionTo checks if the run can transition to the given status.
// Transitions are strictly forward: PENDING -> RUNNING -> {COMPLETED|FAILED}.
func (j *JobRun) CanTransitionTo(newStatus JobRunStatus) bool {
	switch j.Status {
	case JobRunStatusPending:
		return newStatus == JobRunStatusRunning
	case JobRunStatusRunning:
		return newStatus == JobRunStatusCompleted || newStatus == JobRunStatusFailed
	default:
		return false
	}
}

// JobRunFilter represents filter criteria for job runs
type JobRunFilter struct {
	ID            *uint         `json:"id,omitempty"`
	UUID          *uuid.UUID    `json:"uuid,omitempty"`
	Type          *string       `json:"type,omitempty"`
	Status        *JobRunStatus `json:"status,omitempty"`
	WorkspaceID   *uint         `json:"workspace_id,omitempty"`
	CreatedAfter  *time.Time    `json:"created_after,omitempty"`
	CreatedBefore *time.Time    `json:"created_before,omitempty"`
}
