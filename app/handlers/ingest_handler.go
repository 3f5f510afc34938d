package handlers

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/arclabs/arc/app/dto"
	businessflow "github.com/arclabs/arc/business_flow"
	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// IngestHandlerInterface defines the contract for ingestion handlers
type IngestHandlerInterface interface {
	TriggerIngest(c fiber.Ctx) error
	GetJobRun(c fiber.Ctx) error
	ListJobRuns(c fiber.Ctx) error
}

// IngestHandler handles ingestion trigger and job run HTTP requests
type IngestHandler struct {
	ingestFlow businessflow.IngestFlow
	validator  *validator.Validate
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(ingestFlow businessflow.IngestFlow) *IngestHandler {
	return &IngestHandler{
		ingestFlow: ingestFlow,
		validator:  validator.New(),
	}
}

// TriggerIngest accepts an ingestion request and enqueues a job for it.
// Responds 202; the run itself happens on a worker.
func (h *IngestHandler) TriggerIngest(c fiber.Ctx) error {
	var req dto.TriggerIngestRequest
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
	wsID, err := uuid.Parse(workspaceUUID)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid workspace UUID", "INVALID_WORKSPACE_UUID", nil)
	}

	platform := models.Platform(strings.ToUpper(c.Params("platform")))
	flowReq := &businessflow.TriggerIngestRequest{
		WorkspaceUUID: wsID,
		Platform:      platform,
		From:          utils.TimeToUTCPtr(req.From),
		To:            utils.TimeToUTCPtr(req.To),
	}
	if req.CampaignUUID != nil {
		campaignID, err := uuid.Parse(*req.CampaignUUID)
		if err != nil {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid campaign UUID", "INVALID_CAMPAIGN_UUID", nil)
		}
		flowReq.CampaignUUID = &campaignID
	}

	actor := actorFromContext(c)
	run, err := h.ingestFlow.TriggerIngest(createRequestContext(c, "/api/v1/ingest/:platform"), flowReq, actor)
	if err != nil {
		if businessflow.IsUnsupportedPlatform(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Unsupported platform", "UNSUPPORTED_PLATFORM", nil)
		}
		if businessflow.IsWorkspaceNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Workspace not found", "WORKSPACE_NOT_FOUND", nil)
		}
		if businessflow.IsConnectionNotFound(err) {
			return errorResponse(c, fiber.StatusConflict, "No connection for platform", "CONNECTION_NOT_FOUND", nil)
		}
		if businessflow.IsConnectionRevoked(err) {
			return errorResponse(c, fiber.StatusConflict, "Connection has been revoked", "CONNECTION_REVOKED", nil)
		}
		if businessflow.IsCampaignNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}

		log.Println("Ingest trigger failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Ingest trigger failed", "INGEST_TRIGGER_FAILED", nil)
	}

	return successResponse(c, fiber.StatusAccepted, "Ingest job accepted", dto.TriggerIngestResponse{
		Message:    "Ingest job accepted",
		JobRunUUID: run.UUID.String(),
		Type:       run.Type,
		Status:     run.Status.String(),
		CreatedAt:  run.CreatedAt.Format(time.RFC3339),
	})
}

// GetJobRun returns one job run by UUID
func (h *IngestHandler) GetJobRun(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("uuid"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid job run UUID", "INVALID_JOB_RUN_UUID", nil)
	}

	run, err := h.ingestFlow.GetJobRun(createRequestContext(c, "/api/v1/job-runs/:uuid"), id)
	if err != nil {
		if businessflow.IsJobRunNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Job run not found", "JOB_RUN_NOT_FOUND", nil)
		}

		log.Println("Job run retrieval failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Job run retrieval failed", "JOB_RUN_GET_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Job run retrieved successfully", toJobRunResponse(run))
}

// ListJobRuns lists job runs filtered by type and status
func (h *IngestHandler) ListJobRuns(c fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))
	jobType := c.Query("type")

	var status *models.JobRunStatus
	if statusStr := c.Query("status"); statusStr != "" {
		s := models.JobRunStatus(strings.ToUpper(statusStr))
		if !s.Valid() {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid job run status", "INVALID_JOB_RUN_STATUS", nil)
		}
		status = &s
	}

	runs, err := h.ingestFlow.ListJobRuns(createRequestContext(c, "/api/v1/job-runs"), jobType, status, page, pageSize)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "INVALID_PAGINATION", nil)
		}

		log.Println("Job run listing failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Job run listing failed", "JOB_RUN_LIST_FAILED", nil)
	}

	resp := dto.ListJobRunsResponse{
		Runs:     make([]dto.JobRunResponse, 0, len(runs)),
		Page:     page,
		PageSize: pageSize,
	}
	for _, run := range runs {
		resp.Runs = append(resp.Runs, toJobRunResponse(run))
	}
	return successResponse(c, fiber.StatusOK, "Job runs retrieved successfully", resp)
}

func toJobRunResponse(run *models.JobRun) dto.JobRunResponse {
	return dto.JobRunResponse{
		UUID:   run.UUID.String(),
		Type:   run.Type,
		Status: run.Status.String(),
		Summary: dto.JobRunSummaryDTO{
			RecordsWritten: run.Summary.RecordsWritten,
			RecordsFailed:  run.Summary.RecordsFailed,
			Error:          run.Summary.Error,
		},
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		CreatedAt:  run.CreatedAt,
	}
}
