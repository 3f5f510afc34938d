// Package businessflow contains the core business logic and use cases for ingestion and rollup workflows
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/repository"
	"gorm.io/gorm"
)

// RollupFlow rebuilds the materialized ROI views for a campaign
type RollupFlow interface {
	RebuildROIViews(ctx context.Context, campaignID uint, platform models.Platform, ref time.Time) error
	RebuildROIView(ctx context.Context, campaignID uint, period models.RollupPeriod, platform models.Platform, ref time.Time) (*models.ROIView, error)
}

// RollupFlowImpl implements the rollup business flow
type RollupFlowImpl struct {
	spendRepo   repository.SpendRepository
	roiViewRepo repository.ROIViewRepository
	db          *gorm.DB
}

// NewRollupFlow creates a new rollup flow instance
func NewRollupFlow(
	spendRepo repository.SpendRepository,
	roiViewRepo repository.ROIViewRepository,
	db *gorm.DB,
) RollupFlow {
	return &RollupFlowImpl{
		spendRepo:   spendRepo,
		roiViewRepo: roiViewRepo,
		db:          db,
	}
}

// RebuildROIView recomputes one (campaign, period) view from the current
// spend facts. Ratios divide the period sums, never per-row averages, so a
// day with zero clicks cannot skew the bucket. The triggering platform
// picks the CLV multiplier.
func (s *RollupFlowImpl) RebuildROIView(ctx context.Context, campaignID uint, period models.RollupPeriod, platform models.Platform, ref time.Time) (*models.ROIView, error) {
	if !period.Valid() {
		return nil, NewBusinessErrorf("INVALID_ROLLUP_PERIOD", "unknown rollup period %q", ErrInvalidRollupPeriod, period)
	}

	from, to := period.Bucket(ref)
	totals, err := s.spendRepo.SumForPeriod(ctx, campaignID, from, to)
	if err != nil {
		return nil, NewBusinessError("ROLLUP_AGGREGATION_FAILED", "Failed to aggregate spend facts", err)
	}

	view := &models.ROIView{
		CampaignID:       campaignID,
		Period:           period,
		AttributionModel: models.AttributionModelLastClick,
		Spend:            Round2(totals.TotalSpend),
		Revenue:          Round2(totals.TotalRevenue),
		Conversions:      totals.TotalConversions,
		CAC:              CAC(totals.TotalSpend, totals.TotalConversions),
		ROAS:             ROAS(totals.TotalRevenue, totals.TotalSpend),
		CLV:              CLV(totals.TotalRevenue, platform),
	}

	if err := s.roiViewRepo.Upsert(ctx, view); err != nil {
		return nil, NewBusinessError("ROLLUP_UPSERT_FAILED", "Failed to store rollup view", err)
	}

	return view, nil
}

// RebuildROIViews recomputes the daily, weekly and monthly views containing
// ref inside one transaction, so readers never observe a half-rebuilt set.
func (s *RollupFlowImpl) RebuildROIViews(ctx context.Context, campaignID uint, platform models.Platform, ref time.Time) error {
	periods := []models.RollupPeriod{models.PeriodDaily, models.PeriodWeekly, models.PeriodMonthly}

	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		for _, period := range periods {
			if _, err := s.RebuildROIView(txCtx, campaignID, period, platform, ref); err != nil {
				return fmt.Errorf("rebuild %s view: %w", period, err)
			}
		}
		return nil
	})
	if err != nil {
		return NewBusinessError("ROLLUP_REBUILD_FAILED", "Failed to rebuild rollup views", err)
	}

	return nil
}
