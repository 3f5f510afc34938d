package worker

import (
	"testing"
	"time"

	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/utils"
	"github.com/stretchr/testify/assert"
)

func TestQueueForPlatform(t *testing.T) {
	tests := []struct {
		platform models.Platform
		queue    string
	}{
		{models.PlatformYouTube, utils.QueueYouTube},
		{models.PlatformInstagram, utils.QueueInstagram},
		{models.PlatformGoogleAds, utils.QueueGoogleAds},
		{models.PlatformMetaAds, utils.QueueMetaAds},
		{models.Platform("TIKTOK"), ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.platform), func(t *testing.T) {
			assert.Equal(t, tt.queue, QueueForPlatform(tt.platform))
		})
	}
}

func TestQueueWeightsCoverAllPlatforms(t *testing.T) {
	weights := queueWeights()

	for _, platform := range models.AllPlatforms() {
		queue := QueueForPlatform(platform)
		assert.Contains(t, weights, queue)
	}
	assert.Equal(t, 2, weights[utils.QueueYouTube])
}

func TestRetryDelayBacksOffExponentially(t *testing.T) {
	assert.Equal(t, 30*time.Second, retryDelay(0, nil, nil))
	assert.Equal(t, 60*time.Second, retryDelay(1, nil, nil))
	assert.Equal(t, 120*time.Second, retryDelay(2, nil, nil))
	assert.Equal(t, 480*time.Second, retryDelay(4, nil, nil))
}
