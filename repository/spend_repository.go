package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SpendRepositoryImpl implements SpendRepository
type SpendRepositoryImpl struct {
	*BaseRepository[models.Spend, models.SpendFilter]
}

// NewSpendRepository creates a new spend repository
func NewSpendRepository(db *gorm.DB) SpendRepository {
	return &SpendRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Spend, models.SpendFilter](db),
	}
}

// Upsert inserts or merges the daily fact row keyed by (campaign_id,
// platform, date). Retried job attempts land on the same row; the last
// payload applied wins.
func (r *SpendRepositoryImpl) Upsert(ctx context.Context, spend *models.Spend) error {
	if spend.CampaignID == 0 || !spend.Platform.Valid() || spend.Date.IsZero() {
		return fmt.Errorf("spend (campaign=%d, platform=%q, date=%s): %w",
			spend.CampaignID, spend.Platform, spend.Date.Format(time.DateOnly), ErrNotPersistable)
	}
	spend.Date = utils.DateOnly(spend.Date)

	db := r.getDB(ctx)
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "campaign_id"}, {Name: "platform"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]any{
			"spend":       clause.Expr{SQL: "EXCLUDED.spend"},
			"impressions": clause.Expr{SQL: "EXCLUDED.impressions"},
			"clicks":      clause.Expr{SQL: "EXCLUDED.clicks"},
			"conversions": clause.Expr{SQL: "EXCLUDED.conversions"},
			"revenue":     clause.Expr{SQL: "EXCLUDED.revenue"},
			"derived":     clause.Expr{SQL: "EXCLUDED.derived"},
			"updated_at":  utils.UTCNow(),
			"created_at":  clause.Expr{SQL: "LEAST(spends.created_at, EXCLUDED.created_at)"},
		}),
	}).Create(spend).Error
}

// SumForPeriod aggregates the campaign's spend facts inside [from, to).
// The rollup divides on these sums, never on per-row ratios.
func (r *SpendRepositoryImpl) SumForPeriod(ctx context.Context, campaignID uint, from, to time.Time) (*SpendTotals, error) {
	db := r.getDB(ctx)

	var totals SpendTotals
	err := db.Table("spends").
		Select(`
			COALESCE(SUM(spend),0) AS total_spend,
			COALESCE(SUM(revenue),0) AS total_revenue,
			COALESCE(SUM(conversions),0) AS total_conversions,
			COUNT(*) AS row_count`).
		Where("campaign_id = ? AND date >= ? AND date < ?", campaignID, utils.DateOnly(from), utils.DateOnly(to)).
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate spends for campaign %d: %w", campaignID, err)
	}

	return &totals, nil
}

// ListForCampaign retrieves the campaign's spend facts inside [from, to)
func (r *SpendRepositoryImpl) ListForCampaign(ctx context.Context, campaignID uint, from, to time.Time) ([]*models.Spend, error) {
	db := r.getDB(ctx)

	var spends []*models.Spend
	err := db.Where("campaign_id = ? AND date >= ? AND date < ?", campaignID, utils.DateOnly(from), utils.DateOnly(to)).
		Order("date ASC").
		Find(&spends).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list spends for campaign %d: %w", campaignID, err)
	}

	return spends, nil
}
