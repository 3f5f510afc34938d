package worker

import (
	"math"
	"time"

	businessflow "github.com/arclabs/arc/business_flow"
	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/utils"
	"github.com/hibiken/asynq"
)

// Queue weights. One server drains all queues with a bounded global
// concurrency; YouTube carries the highest volume and gets double weight.
func queueWeights() map[string]int {
	return map[string]int{
		utils.QueueYouTube:   2,
		utils.QueueInstagram: 1,
		utils.QueueGoogleAds: 1,
		utils.QueueMetaAds:   1,
	}
}

// retryDelay backs off exponentially from the base delay: 30s, 60s, 120s, ...
func retryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	return utils.IngestRetryBase * time.Duration(math.Pow(2, float64(n)))
}

// NewServer builds the queue server with per-platform queues and the
// shared retry policy.
func NewServer(redisOpt asynq.RedisClientOpt, concurrency int) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 5
	}
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:    concurrency,
		Queues:         queueWeights(),
		RetryDelayFunc: retryDelay,
	})
}

// NewMux registers the ingest handler for every platform's task type
func NewMux(handler *IngestTaskHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	for _, platform := range models.AllPlatforms() {
		mux.HandleFunc(businessflow.IngestJobType(platform), handler.ProcessTask)
	}
	return mux
}
