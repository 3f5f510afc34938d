package handlers

import (
	"log"
	"strconv"

	"github.com/arclabs/arc/app/dto"
	businessflow "github.com/arclabs/arc/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// CampaignHandlerInterface defines the contract for campaign handlers
type CampaignHandlerInterface interface {
	CreateCampaign(c fiber.Ctx) error
	ListCampaigns(c fiber.Ctx) error
	GetCampaignROI(c fiber.Ctx) error
}

// CampaignHandler handles campaign-related HTTP requests
type CampaignHandler struct {
	campaignFlow businessflow.CampaignFlow
	validator    *validator.Validate
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignFlow businessflow.CampaignFlow) *CampaignHandler {
	return &CampaignHandler{
		campaignFlow: campaignFlow,
		validator:    validator.New(),
	}
}

// CreateCampaign handles the campaign creation process
func (h *CampaignHandler) CreateCampaign(c fiber.Ctx) error {
	var req dto.CreateCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	workspaceUUID, ok := workspaceUUIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Workspace scope is required", "MISSING_WORKSPACE_SCOPE", nil)
	}
	req.WorkspaceUUID = workspaceUUID

	actor := actorFromContext(c)
	result, err := h.campaignFlow.CreateCampaign(createRequestContext(c, "/api/v1/campaigns"), &req, actor)
	if err != nil {
		if businessflow.IsWorkspaceNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Workspace not found", "WORKSPACE_NOT_FOUND", nil)
		}

		log.Println("Campaign creation failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Campaign creation failed", "CAMPAIGN_CREATE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusCreated, "Campaign created successfully", result)
}

// ListCampaigns lists the workspace's campaigns with pagination
func (h *CampaignHandler) ListCampaigns(c fiber.Ctx) error {
	workspaceUUID, ok := workspaceUUIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Workspace scope is required", "MISSING_WORKSPACE_SCOPE", nil)
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))
	req := dto.ListCampaignsRequest{
		WorkspaceUUID: workspaceUUID,
		Page:          page,
		PageSize:      pageSize,
	}

	result, err := h.campaignFlow.ListCampaigns(createRequestContext(c, "/api/v1/campaigns"), &req)
	if err != nil {
		if businessflow.IsWorkspaceNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Workspace not found", "WORKSPACE_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "INVALID_PAGINATION", nil)
		}

		log.Println("Campaign listing failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Campaign listing failed", "CAMPAIGN_LIST_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Campaigns retrieved successfully", result)
}

// GetCampaignROI returns the campaign's current rollup views
func (h *CampaignHandler) GetCampaignROI(c fiber.Ctx) error {
	workspaceUUID, ok := workspaceUUIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Workspace scope is required", "MISSING_WORKSPACE_SCOPE", nil)
	}
	wsID, err := uuid.Parse(workspaceUUID)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid workspace UUID", "INVALID_WORKSPACE_UUID", nil)
	}
	campaignID, err := uuid.Parse(c.Params("uuid"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid campaign UUID", "INVALID_CAMPAIGN_UUID", nil)
	}

	result, err := h.campaignFlow.GetCampaignROI(createRequestContext(c, "/api/v1/campaigns/:uuid/roi"), wsID, campaignID)
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignAccessDenied(err) {
			return errorResponse(c, fiber.StatusForbidden, "Campaign access denied", "CAMPAIGN_ACCESS_DENIED", nil)
		}

		log.Println("Campaign ROI retrieval failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Campaign ROI retrieval failed", "CAMPAIGN_ROI_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Campaign ROI retrieved successfully", result)
}
