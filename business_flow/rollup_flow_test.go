package businessflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSpendRepo serves canned period totals and remembers the requested window
type fakeSpendRepo struct {
	totals   *repository.SpendTotals
	sumErr   error
	lastFrom time.Time
	lastTo   time.Time
}

func (f *fakeSpendRepo) ByID(ctx context.Context, id uint) (*models.Spend, error) { return nil, nil }
func (f *fakeSpendRepo) Save(ctx context.Context, entity *models.Spend) error     { return nil }
func (f *fakeSpendRepo) SaveBatch(ctx context.Context, entities []*models.Spend) error {
	return nil
}
func (f *fakeSpendRepo) Upsert(ctx context.Context, spend *models.Spend) error { return nil }
func (f *fakeSpendRepo) SumForPeriod(ctx context.Context, campaignID uint, from, to time.Time) (*repository.SpendTotals, error) {
	f.lastFrom, f.lastTo = from, to
	if f.sumErr != nil {
		return nil, f.sumErr
	}
	return f.totals, nil
}
func (f *fakeSpendRepo) ListForCampaign(ctx context.Context, campaignID uint, from, to time.Time) ([]*models.Spend, error) {
	return nil, nil
}

// fakeROIViewRepo captures upserted views
type fakeROIViewRepo struct {
	views     []*models.ROIView
	upsertErr error
}

func (f *fakeROIViewRepo) ByID(ctx context.Context, id uint) (*models.ROIView, error) {
	return nil, nil
}
func (f *fakeROIViewRepo) Save(ctx context.Context, entity *models.ROIView) error { return nil }
func (f *fakeROIViewRepo) SaveBatch(ctx context.Context, entities []*models.ROIView) error {
	return nil
}
func (f *fakeROIViewRepo) Upsert(ctx context.Context, view *models.ROIView) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.views = append(f.views, view)
	return nil
}
func (f *fakeROIViewRepo) ByNaturalKey(ctx context.Context, campaignID uint, period models.RollupPeriod, attributionModel string) (*models.ROIView, error) {
	return nil, nil
}
func (f *fakeROIViewRepo) ListByCampaign(ctx context.Context, campaignID uint) ([]*models.ROIView, error) {
	return f.views, nil
}

func TestRebuildROIView(t *testing.T) {
	ref := time.Date(2025, 8, 13, 10, 0, 0, 0, time.UTC)

	t.Run("computes ratios from period sums", func(t *testing.T) {
		spendRepo := &fakeSpendRepo{totals: &repository.SpendTotals{
			TotalSpend:       250,
			TotalRevenue:     1000,
			TotalConversions: 10,
			RowCount:         5,
		}}
		roiRepo := &fakeROIViewRepo{}
		flow := NewRollupFlow(spendRepo, roiRepo, nil)

		view, err := flow.RebuildROIView(context.Background(), 42, models.PeriodDaily, models.PlatformGoogleAds, ref)

		require.NoError(t, err)
		assert.Equal(t, uint(42), view.CampaignID)
		assert.Equal(t, models.PeriodDaily, view.Period)
		assert.Equal(t, models.AttributionModelLastClick, view.AttributionModel)
		assert.InDelta(t, 250.0, view.Spend, 0.0001)
		assert.InDelta(t, 1000.0, view.Revenue, 0.0001)
		assert.Equal(t, int64(10), view.Conversions)
		assert.InDelta(t, 25.0, view.CAC, 0.0001)
		assert.InDelta(t, 4.0, view.ROAS, 0.0001)
		// GOOGLE_ADS multiplies summed revenue by 1.5
		assert.InDelta(t, 1500.0, view.CLV, 0.0001)
		require.Len(t, roiRepo.views, 1)
	})

	t.Run("queries the bucket containing ref", func(t *testing.T) {
		spendRepo := &fakeSpendRepo{totals: &repository.SpendTotals{}}
		flow := NewRollupFlow(spendRepo, &fakeROIViewRepo{}, nil)

		_, err := flow.RebuildROIView(context.Background(), 42, models.PeriodWeekly, models.PlatformYouTube, ref)

		require.NoError(t, err)
		// 2025-08-13 is a Wednesday; the reporting week starts Monday
		assert.Equal(t, time.Date(2025, 8, 11, 0, 0, 0, 0, time.UTC), spendRepo.lastFrom)
		assert.Equal(t, time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC), spendRepo.lastTo)
	})

	t.Run("empty bucket yields a zero view", func(t *testing.T) {
		spendRepo := &fakeSpendRepo{totals: &repository.SpendTotals{}}
		roiRepo := &fakeROIViewRepo{}
		flow := NewRollupFlow(spendRepo, roiRepo, nil)

		view, err := flow.RebuildROIView(context.Background(), 42, models.PeriodMonthly, models.PlatformMetaAds, ref)

		require.NoError(t, err)
		assert.Zero(t, view.Spend)
		assert.Zero(t, view.CAC)
		assert.Zero(t, view.ROAS)
		assert.Zero(t, view.CLV)
	})

	t.Run("negative spend sum yields zero roas", func(t *testing.T) {
		spendRepo := &fakeSpendRepo{totals: &repository.SpendTotals{
			TotalSpend:   -50,
			TotalRevenue: 100,
			RowCount:     2,
		}}
		roiRepo := &fakeROIViewRepo{}
		flow := NewRollupFlow(spendRepo, roiRepo, nil)

		view, err := flow.RebuildROIView(context.Background(), 42, models.PeriodDaily, models.PlatformGoogleAds, ref)

		require.NoError(t, err)
		assert.Zero(t, view.ROAS)
	})

	t.Run("rejects unknown periods", func(t *testing.T) {
		flow := NewRollupFlow(&fakeSpendRepo{}, &fakeROIViewRepo{}, nil)

		_, err := flow.RebuildROIView(context.Background(), 42, models.RollupPeriod("quarterly"), models.PlatformYouTube, ref)

		assert.ErrorIs(t, err, ErrInvalidRollupPeriod)
	})

	t.Run("propagates aggregation failures", func(t *testing.T) {
		sumErr := errors.New("db down")
		flow := NewRollupFlow(&fakeSpendRepo{sumErr: sumErr}, &fakeROIViewRepo{}, nil)

		_, err := flow.RebuildROIView(context.Background(), 42, models.PeriodDaily, models.PlatformYouTube, ref)

		assert.ErrorIs(t, err, sumErr)
	})

	t.Run("propagates upsert failures", func(t *testing.T) {
		upsertErr := errors.New("constraint violation")
		spendRepo := &fakeSpendRepo{totals: &repository.SpendTotals{}}
		flow := NewRollupFlow(spendRepo, &fakeROIViewRepo{upsertErr: upsertErr}, nil)

		_, err := flow.RebuildROIView(context.Background(), 42, models.PeriodDaily, models.PlatformYouTube, ref)

		assert.ErrorIs(t, err, upsertErr)
	})
}
