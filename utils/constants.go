package utils

import (
	"time"
)

// Queue names, one per external platform. Weights and concurrency are
// configured in app/worker; the higher-volume video platform gets more slots.
const (
	QueueYouTube   = "ingest:youtube"
	QueueInstagram = "ingest:instagram"
	QueueGoogleAds = "ingest:ads:google"
	QueueMetaAds   = "ingest:ads:meta"
)

// Retry policy for ingestion tasks
const (
	// MaxIngestAttempts is the retry cap; after this the task is archived
	// and must be re-enqueued by an operator.
	MaxIngestAttempts = 5

	// IngestRetryBase is the base delay for exponential backoff between attempts.
	IngestRetryBase = 30 * time.Second
)

// StaleJobRunThreshold is how long a RUNNING job run may sit before the
// startup sweep treats it as abandoned by a dead process.
const StaleJobRunThreshold = 30 * time.Minute
