// Package worker wires ingestion jobs onto the durable Redis-backed queue.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	businessflow "github.com/arclabs/arc/business_flow"
	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/utils"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// IngestTaskPayload is the queue-side envelope. The job run row is the
// durable record; the task only carries its UUID.
type IngestTaskPayload struct {
	JobRunUUID uuid.UUID `json:"job_run_uuid"`
}

// QueueForPlatform maps a platform to its dedicated queue
func QueueForPlatform(platform models.Platform) string {
	switch platform {
	case models.PlatformYouTube:
		return utils.QueueYouTube
	case models.PlatformInstagram:
		return utils.QueueInstagram
	case models.PlatformGoogleAds:
		return utils.QueueGoogleAds
	case models.PlatformMetaAds:
		return utils.QueueMetaAds
	default:
		return ""
	}
}

// Enqueuer pushes persisted job runs onto the queue. Implements
// businessflow.JobEnqueuer.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer creates an enqueuer backed by an asynq client
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueIngest places the run on its platform's queue. MaxRetry counts
// retries after the first attempt, so the cap covers attempts in total.
func (e *Enqueuer) EnqueueIngest(ctx context.Context, run *models.JobRun, platform models.Platform) error {
	queue := QueueForPlatform(platform)
	if queue == "" {
		return fmt.Errorf("no queue for platform %s", platform)
	}

	payload, err := json.Marshal(IngestTaskPayload{JobRunUUID: run.UUID})
	if err != nil {
		return fmt.Errorf("failed to encode task payload: %w", err)
	}

	task := asynq.NewTask(businessflow.IngestJobType(platform), payload)
	_, err = e.client.EnqueueContext(ctx, task,
		asynq.Queue(queue),
		asynq.MaxRetry(utils.MaxIngestAttempts-1),
		asynq.Timeout(10*time.Minute),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue ingest task for run %s: %w", run.UUID, err)
	}

	return nil
}
