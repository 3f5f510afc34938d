// Package businessflow contains the core business logic and use cases for campaign workflows
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/arclabs/arc/app/dto"
	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/repository"
	"github.com/google/uuid"
)

// CampaignFlow handles the campaign business logic
type CampaignFlow interface {
	CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest, actor *ActorContext) (*dto.CampaignResponse, error)
	ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest) (*dto.ListCampaignsResponse, error)
	GetCampaignROI(ctx context.Context, workspaceUUID, campaignUUID uuid.UUID) (*dto.CampaignROIResponse, error)
}

// CampaignFlowImpl implements the campaign business flow
type CampaignFlowImpl struct {
	workspaceRepo repository.WorkspaceRepository
	campaignRepo  repository.CampaignRepository
	roiViewRepo   repository.ROIViewRepository
	store         StoreFunc
}

// NewCampaignFlow creates a new campaign flow instance
func NewCampaignFlow(
	workspaceRepo repository.WorkspaceRepository,
	campaignRepo repository.CampaignRepository,
	roiViewRepo repository.ROIViewRepository,
	auditRepo repository.AuditLogRepository,
) CampaignFlow {
	f := &CampaignFlowImpl{
		workspaceRepo: workspaceRepo,
		campaignRepo:  campaignRepo,
		roiViewRepo:   roiViewRepo,
	}
	f.store = Chain(f.persistCampaign, RequireTenantScope(), Audit(auditRepo))
	return f
}

// CreateCampaign validates and stores a new workspace-scoped campaign
func (s *CampaignFlowImpl) CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest, actor *ActorContext) (*dto.CampaignResponse, error) {
	if req.Name == "" {
		return nil, NewBusinessError("CAMPAIGN_VALIDATION_FAILED", "Campaign validation failed", ErrCampaignNameRequired)
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, NewBusinessError("CAMPAIGN_VALIDATION_FAILED", "Campaign validation failed", ErrCampaignDatesInvalid)
	}

	workspaceUUID, err := uuid.Parse(req.WorkspaceUUID)
	if err != nil {
		return nil, NewBusinessError("INVALID_WORKSPACE_UUID", "Invalid workspace UUID", err)
	}
	workspace, err := getWorkspace(ctx, s.workspaceRepo, workspaceUUID)
	if err != nil {
		return nil, NewBusinessError("WORKSPACE_LOOKUP_FAILED", "Failed to lookup workspace", err)
	}

	campaign := &models.Campaign{
		WorkspaceID: workspace.ID,
		Name:        req.Name,
		Objective:   req.Objective,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		ChannelIDs:  req.ChannelIDs,
		Budget:      Round2(req.Budget),
	}
	if req.UTM != nil {
		campaign.UTM = models.UTMParams{
			Source:   req.UTM.Source,
			Medium:   req.UTM.Medium,
			Campaign: req.UTM.Campaign,
			Term:     req.UTM.Term,
			Content:  req.UTM.Content,
		}
	}

	err = s.store(ctx, &StoreOp{
		Action:      models.AuditActionCreate,
		EntityType:  models.EntityCampaign,
		WorkspaceID: workspace.ID,
		Entity:      campaign,
		Actor:       actor,
	})
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_CREATE_FAILED", "Failed to create campaign", err)
	}

	return toCampaignResponse(campaign), nil
}

// ListCampaigns lists the campaigns of one workspace with pagination
func (s *CampaignFlowImpl) ListCampaigns(ctx context.Context, req *dto.ListCampaignsRequest) (*dto.ListCampaignsResponse, error) {
	workspaceUUID, err := uuid.Parse(req.WorkspaceUUID)
	if err != nil {
		return nil, NewBusinessError("INVALID_WORKSPACE_UUID", "Invalid workspace UUID", err)
	}
	workspace, err := getWorkspace(ctx, s.workspaceRepo, workspaceUUID)
	if err != nil {
		return nil, NewBusinessError("WORKSPACE_LOOKUP_FAILED", "Failed to lookup workspace", err)
	}

	limit, offset, err := normalizePagination(req.Page, req.PageSize)
	if err != nil {
		return nil, NewBusinessError("INVALID_PAGINATION", "Invalid pagination parameters", err)
	}

	campaigns, err := s.campaignRepo.ListByWorkspace(ctx, workspace.ID, limit, offset)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "Failed to list campaigns", err)
	}

	resp := &dto.ListCampaignsResponse{
		Campaigns: make([]dto.CampaignResponse, 0, len(campaigns)),
		Page:      offset/limit + 1,
		PageSize:  limit,
	}
	for _, campaign := range campaigns {
		resp.Campaigns = append(resp.Campaigns, *toCampaignResponse(campaign))
	}
	return resp, nil
}

// GetCampaignROI returns the current rollup views of one campaign
func (s *CampaignFlowImpl) GetCampaignROI(ctx context.Context, workspaceUUID, campaignUUID uuid.UUID) (*dto.CampaignROIResponse, error) {
	workspace, err := getWorkspace(ctx, s.workspaceRepo, workspaceUUID)
	if err != nil {
		return nil, NewBusinessError("WORKSPACE_LOOKUP_FAILED", "Failed to lookup workspace", err)
	}
	campaign, err := getCampaign(ctx, s.campaignRepo, campaignUUID, workspace.ID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}

	views, err := s.roiViewRepo.ListByCampaign(ctx, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("ROI_VIEW_LIST_FAILED", "Failed to list rollup views", err)
	}

	resp := &dto.CampaignROIResponse{
		CampaignUUID: campaign.UUID.String(),
		Views:        make([]dto.ROIViewResponse, 0, len(views)),
	}
	for _, view := range views {
		row := dto.ROIViewResponse{
			Period:           string(view.Period),
			AttributionModel: view.AttributionModel,
			Spend:            view.Spend,
			Revenue:          view.Revenue,
			Conversions:      view.Conversions,
			CAC:              view.CAC,
			ROAS:             view.ROAS,
			CLV:              view.CLV,
		}
		if view.UpdatedAt != nil {
			row.UpdatedAt = view.UpdatedAt.Format(time.RFC3339)
		}
		resp.Views = append(resp.Views, row)
	}
	return resp, nil
}

// persistCampaign is the terminal store behind the interceptor chain
func (s *CampaignFlowImpl) persistCampaign(ctx context.Context, op *StoreOp) error {
	campaign, ok := op.Entity.(*models.Campaign)
	if !ok {
		return fmt.Errorf("no store path for entity type %T", op.Entity)
	}
	if err := s.campaignRepo.Save(ctx, campaign); err != nil {
		return err
	}
	op.EntityID = campaign.UUID.String()
	return nil
}

func toCampaignResponse(campaign *models.Campaign) *dto.CampaignResponse {
	resp := &dto.CampaignResponse{
		UUID:       campaign.UUID.String(),
		Name:       campaign.Name,
		Objective:  campaign.Objective,
		StartDate:  campaign.StartDate,
		EndDate:    campaign.EndDate,
		ChannelIDs: campaign.ChannelIDs,
		Budget:     campaign.Budget,
		CreatedAt:  campaign.CreatedAt.Format(time.RFC3339),
	}
	if campaign.UTM != (models.UTMParams{}) {
		resp.UTM = &dto.UTMParamsDTO{
			Source:   campaign.UTM.Source,
			Medium:   campaign.UTM.Medium,
			Campaign: campaign.UTM.Campaign,
			Term:     campaign.UTM.Term,
			Content:  campaign.UTM.Content,
		}
	}
	return resp
}
