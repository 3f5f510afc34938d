package businessflow

import (
	"testing"

	"github.com/arclabs/arc/models"
	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"already two decimals", 12.34, 12.34},
		{"rounds half up", 0.005, 0.01},
		{"rounds down", 1.234, 1.23},
		{"rounds up", 1.236, 1.24},
		{"zero", 0, 0},
		{"negative", -1.005, -1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Round2(tt.input), 0.0001)
		})
	}
}

func TestDerivedRatios(t *testing.T) {
	t.Run("ctr is clicks over impressions as percent", func(t *testing.T) {
		assert.InDelta(t, 5.0, CTR(50, 1000), 0.0001)
	})

	t.Run("cpc is spend over clicks", func(t *testing.T) {
		assert.InDelta(t, 2.5, CPC(125, 50), 0.0001)
	})

	t.Run("cpm is spend per thousand impressions", func(t *testing.T) {
		assert.InDelta(t, 12.5, CPM(125, 10000), 0.0001)
	})

	t.Run("roas is revenue over spend", func(t *testing.T) {
		assert.InDelta(t, 3.2, ROAS(400, 125), 0.0001)
	})

	t.Run("cac is spend over conversions", func(t *testing.T) {
		assert.InDelta(t, 25.0, CAC(125, 5), 0.0001)
	})

	t.Run("zero denominators yield zero not infinity", func(t *testing.T) {
		assert.Zero(t, CTR(50, 0))
		assert.Zero(t, CPC(125, 0))
		assert.Zero(t, CPM(125, 0))
		assert.Zero(t, ROAS(400, 0))
		assert.Zero(t, CAC(125, 0))
	})

	t.Run("negative spend yields zero roas", func(t *testing.T) {
		assert.Zero(t, ROAS(100, -50))
		assert.Zero(t, ROAS(0, -0.01))
	})
}

func TestCLVMultiplier(t *testing.T) {
	tests := []struct {
		name     string
		platform models.Platform
		expected float64
	}{
		{"google ads gets highest multiplier", models.PlatformGoogleAds, 1.5},
		{"meta ads gets middle multiplier", models.PlatformMetaAds, 1.3},
		{"youtube falls back to default", models.PlatformYouTube, 1.0},
		{"instagram falls back to default", models.PlatformInstagram, 1.0},
		{"unknown platform falls back to default", models.Platform("TIKTOK"), 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CLVMultiplierFor(tt.platform), 0.0001)
		})
	}
}

func TestCLV(t *testing.T) {
	assert.InDelta(t, 150.0, CLV(100, models.PlatformGoogleAds), 0.0001)
	assert.InDelta(t, 130.0, CLV(100, models.PlatformMetaAds), 0.0001)
	assert.InDelta(t, 100.0, CLV(100, models.PlatformYouTube), 0.0001)
}

func TestDeriveSpendMetrics(t *testing.T) {
	spend := &models.Spend{
		Spend:       125,
		Impressions: 10000,
		Clicks:      50,
		Conversions: 5,
		Revenue:     400,
	}

	derived := DeriveSpendMetrics(spend)

	assert.Equal(t, models.DerivedMetricsVersion, derived.SchemaVersion)
	assert.InDelta(t, 0.5, derived.CTR, 0.0001)
	assert.InDelta(t, 2.5, derived.CPC, 0.0001)
	assert.InDelta(t, 12.5, derived.CPM, 0.0001)
	assert.InDelta(t, 3.2, derived.ROAS, 0.0001)
}

func TestDeriveSpendMetricsZeroCounters(t *testing.T) {
	derived := DeriveSpendMetrics(&models.Spend{Spend: 50})

	assert.Zero(t, derived.CTR)
	assert.Zero(t, derived.CPC)
	assert.Zero(t, derived.CPM)
	assert.Zero(t, derived.ROAS)
}
