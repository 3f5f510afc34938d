package businessflow

import (
	"math"

	"github.com/arclabs/arc/models"
)

// CLV multipliers applied to summed revenue per triggering ad platform.
// Tuned per platform from historical conversion quality.
const (
	CLVMultiplierGoogleAds = 1.5
	CLVMultiplierMetaAds   = 1.3
	CLVMultiplierDefault   = 1.0
)

// CLVMultiplierFor returns the revenue multiplier for the platform that
// triggered the rollup.
func CLVMultiplierFor(platform models.Platform) float64 {
	switch platform {
	case models.PlatformGoogleAds:
		return CLVMultiplierGoogleAds
	case models.PlatformMetaAds:
		return CLVMultiplierMetaAds
	default:
		return CLVMultiplierDefault
	}
}

// Round2 rounds a monetary or ratio value to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// safeDiv returns a/b, or 0 when b is zero. Every derived metric treats a
// zero denominator as "no signal", never as an error.
func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// CTR is click-through rate as a percentage of impressions
func CTR(clicks, impressions int64) float64 {
	return Round2(safeDiv(float64(clicks), float64(impressions)) * 100)
}

// CPC is cost per click
func CPC(spend float64, clicks int64) float64 {
	return Round2(safeDiv(spend, float64(clicks)))
}

// CPM is cost per thousand impressions
func CPM(spend float64, impressions int64) float64 {
	return Round2(safeDiv(spend, float64(impressions)) * 1000)
}

// ROAS is return on ad spend. Non-positive spend means no spend signal,
// so refunds and adjustments summed below zero report 0, not a negative
// return.
func ROAS(revenue, spend float64) float64 {
	if spend <= 0 {
		return 0
	}
	return Round2(revenue / spend)
}

// CAC is customer acquisition cost
func CAC(spend float64, conversions int64) float64 {
	return Round2(safeDiv(spend, float64(conversions)))
}

// CLV estimates customer lifetime value from summed revenue and the
// triggering platform's multiplier.
func CLV(revenue float64, platform models.Platform) float64 {
	return Round2(revenue * CLVMultiplierFor(platform))
}

// DeriveSpendMetrics computes the per-row derived ratios stored alongside
// each raw spend fact.
func DeriveSpendMetrics(spend *models.Spend) models.DerivedMetrics {
	return models.DerivedMetrics{
		SchemaVersion: models.DerivedMetricsVersion,
		CTR:           CTR(spend.Clicks, spend.Impressions),
		CPC:           CPC(spend.Spend, spend.Clicks),
		CPM:           CPM(spend.Spend, spend.Impressions),
		ROAS:          ROAS(spend.Revenue, spend.Spend),
	}
}
