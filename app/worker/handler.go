package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	businessflow "github.com/arclabs/arc/business_flow"
	"github.com/hibiken/asynq"
)

// IngestTaskHandler executes ingestion tasks pulled from the queue
type IngestTaskHandler struct {
	flow businessflow.IngestFlow
}

// NewIngestTaskHandler creates a new ingest task handler
func NewIngestTaskHandler(flow businessflow.IngestFlow) *IngestTaskHandler {
	return &IngestTaskHandler{flow: flow}
}

// ProcessTask runs one ingestion attempt. Only retryable upstream failures
// go back to the queue; everything else is marked SkipRetry so asynq
// archives the task instead of hammering a dead connection.
func (h *IngestTaskHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload IngestTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		recordJobResult(task.Type(), "malformed")
		return fmt.Errorf("malformed task payload: %v: %w", err, asynq.SkipRetry)
	}

	summary, err := h.flow.ExecuteIngestJob(ctx, payload.JobRunUUID)
	if err != nil {
		if businessflow.IsRetryableFetchError(err) {
			recordJobResult(task.Type(), "retried")
			log.Printf("ingest run %s will retry: %v", payload.JobRunUUID, err)
			return err
		}
		recordJobResult(task.Type(), "failed")
		log.Printf("ingest run %s failed terminally: %v", payload.JobRunUUID, err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	recordJobResult(task.Type(), "completed")
	recordBatchCounts(task.Type(), summary.RecordsWritten, summary.RecordsFailed)
	if summary.RecordsFailed > 0 {
		log.Printf("ingest run %s completed with %d/%d records failed",
			payload.JobRunUUID, summary.RecordsFailed, summary.RecordsWritten+summary.RecordsFailed)
	}
	return nil
}
