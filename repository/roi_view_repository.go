package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ROIViewRepositoryImpl implements ROIViewRepository
type ROIViewRepositoryImpl struct {
	*BaseRepository[models.ROIView, models.ROIViewFilter]
}

// NewROIViewRepository creates a new rollup view repository
func NewROIViewRepository(db *gorm.DB) ROIViewRepository {
	return &ROIViewRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ROIView, models.ROIViewFilter](db),
	}
}

// Upsert writes the single rollup row for (campaign_id, period,
// attribution_model). Rebuilds land on the same row every time.
func (r *ROIViewRepositoryImpl) Upsert(ctx context.Context, view *models.ROIView) error {
	if view.CampaignID == 0 || !view.Period.Valid() || view.AttributionModel == "" {
		return fmt.Errorf("roi view (campaign=%d, period=%q, model=%q): %w",
			view.CampaignID, view.Period, view.AttributionModel, ErrNotPersistable)
	}

	db := r.getDB(ctx)
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "campaign_id"}, {Name: "period"}, {Name: "attribution_model"}},
		DoUpdates: clause.Assignments(map[string]any{
			"spend":       clause.Expr{SQL: "EXCLUDED.spend"},
			"revenue":     clause.Expr{SQL: "EXCLUDED.revenue"},
			"conversions": clause.Expr{SQL: "EXCLUDED.conversions"},
			"cac":         clause.Expr{SQL: "EXCLUDED.cac"},
			"roas":        clause.Expr{SQL: "EXCLUDED.roas"},
			"clv":         clause.Expr{SQL: "EXCLUDED.clv"},
			"updated_at":  utils.UTCNow(),
			"created_at":  clause.Expr{SQL: "LEAST(roi_views.created_at, EXCLUDED.created_at)"},
		}),
	}).Create(view).Error
}

// ByNaturalKey retrieves the rollup row for (campaign_id, period, attribution_model)
func (r *ROIViewRepositoryImpl) ByNaturalKey(ctx context.Context, campaignID uint, period models.RollupPeriod, attributionModel string) (*models.ROIView, error) {
	db := r.getDB(ctx)

	var view models.ROIView
	err := db.Where("campaign_id = ? AND period = ? AND attribution_model = ?", campaignID, period, attributionModel).
		First(&view).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find roi view for campaign %d: %w", campaignID, err)
	}

	return &view, nil
}

// ListByCampaign retrieves all rollup views for one campaign
func (r *ROIViewRepositoryImpl) ListByCampaign(ctx context.Context, campaignID uint) ([]*models.ROIView, error) {
	db := r.getDB(ctx)

	var views []*models.ROIView
	err := db.Where("campaign_id = ?", campaignID).
		Order("period ASC, attribution_model ASC").
		Find(&views).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list roi views for campaign %d: %w", campaignID, err)
	}

	return views, nil
}
