package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInvalidJobRunTransition is returned when a run is pushed backwards or
// out of a terminal status.
var ErrInvalidJobRunTransition = errors.New("invalid job run status transition")

// JobRunRepositoryImpl implements JobRunRepository
type JobRunRepositoryImpl struct {
	*BaseRepository[models.JobRun, models.JobRunFilter]
}

// NewJobRunRepository creates a new job run repository
func NewJobRunRepository(db *gorm.DB) JobRunRepository {
	return &JobRunRepositoryImpl{
		BaseRepository: NewBaseRepository[models.JobRun, models.JobRunFilter](db),
	}
}

// ByUUID retrieves a job run by its UUID
func (r *JobRunRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.JobRun, error) {
	db := r.getDB(ctx)

	var run models.JobRun
	err := db.Where("uuid = ?", id).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find job run by UUID %s: %w", id, err)
	}

	return &run, nil
}

// TransitionTo advances the run along PENDING -> RUNNING -> {COMPLETED|FAILED}
// and stamps started_at / finished_at as the run crosses them. Backward moves
// and edits of terminal rows are rejected.
func (r *JobRunRepositoryImpl) TransitionTo(ctx context.Context, run *models.JobRun, status models.JobRunStatus) error {
	if !run.CanTransitionTo(status) {
		return fmt.Errorf("job run %s: %s -> %s: %w", run.UUID, run.Status, status, ErrInvalidJobRunTransition)
	}

	now := utils.UTCNow()
	updates := map[string]any{"status": status}
	switch status {
	case models.JobRunStatusRunning:
		run.StartedAt = &now
		updates["started_at"] = now
	case models.JobRunStatusCompleted, models.JobRunStatusFailed:
		run.FinishedAt = &now
		updates["finished_at"] = now
		updates["summary"] = run.Summary
	}

	db := r.getDB(ctx)
	result := db.Model(&models.JobRun{}).
		Where("id = ? AND status = ?", run.ID, run.Status).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to transition job run %s to %s: %w", run.UUID, status, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job run %s already left status %s: %w", run.UUID, run.Status, ErrInvalidJobRunTransition)
	}

	run.Status = status
	return nil
}

// ListByTypeAndStatus retrieves job runs, newest first. Type and status are
// optional narrowing filters.
func (r *JobRunRepositoryImpl) ListByTypeAndStatus(ctx context.Context, jobType string, status *models.JobRunStatus, limit, offset int) ([]*models.JobRun, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.JobRun{})
	if jobType != "" {
		query = query.Where("type = ?", jobType)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var runs []*models.JobRun
	err := query.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list job runs: %w", err)
	}

	return runs, nil
}

// SweepStaleRunning fails RUNNING rows whose worker died without reporting.
// Called once on startup before workers begin pulling tasks.
func (r *JobRunRepositoryImpl) SweepStaleRunning(ctx context.Context, olderThan time.Time) (int64, error) {
	db := r.getDB(ctx)

	now := utils.UTCNow()
	result := db.Model(&models.JobRun{}).
		Where("status = ? AND started_at < ?", models.JobRunStatusRunning, olderThan).
		Updates(map[string]any{
			"status":      models.JobRunStatusFailed,
			"finished_at": now,
			"summary":     models.JobRunSummary{Error: "abandoned: worker exited before reporting an outcome"},
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to sweep stale running job runs: %w", result.Error)
	}

	return result.RowsAffected, nil
}
