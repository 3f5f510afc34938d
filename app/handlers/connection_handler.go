package handlers

import (
	"log"

	"github.com/arclabs/arc/app/dto"
	businessflow "github.com/arclabs/arc/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// ConnectionHandlerInterface defines the contract for connection handlers
type ConnectionHandlerInterface interface {
	CreateConnection(c fiber.Ctx) error
	RotateCredentials(c fiber.Ctx) error
	RevokeConnection(c fiber.Ctx) error
	ListConnections(c fiber.Ctx) error
}

// ConnectionHandler handles platform connection HTTP requests
type ConnectionHandler struct {
	connectionFlow businessflow.ConnectionFlow
	validator      *validator.Validate
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(connectionFlow businessflow.ConnectionFlow) *ConnectionHandler {
	return &ConnectionHandler{
		connectionFlow: connectionFlow,
		validator:      validator.New(),
	}
}

// CreateConnection stores an encrypted platform connection for the workspace
func (h *ConnectionHandler) CreateConnection(c fiber.Ctx) error {
	var req dto.CreateConnectionRequest
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
	result, err := h.connectionFlow.CreateConnection(createRequestContext(c, "/api/v1/connections"), &req, actor)
	if err != nil {
		if businessflow.IsWorkspaceNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Workspace not found", "WORKSPACE_NOT_FOUND", nil)
		}
		if businessflow.IsConnectionExists(err) {
			return errorResponse(c, fiber.StatusConflict, "Connection already exists for platform", "CONNECTION_EXISTS", nil)
		}
		if businessflow.IsUnsupportedPlatform(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Unsupported platform", "UNSUPPORTED_PLATFORM", nil)
		}

		log.Println("Connection creation failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Connection creation failed", "CONNECTION_CREATE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusCreated, "Connection created successfully", result)
}

// RotateCredentials replaces the stored credentials of a connection
func (h *ConnectionHandler) RotateCredentials(c fiber.Ctx) error {
	var req dto.RotateConnectionRequest
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
	req.UUID = c.Params("uuid")

	actor := actorFromContext(c)
	result, err := h.connectionFlow.RotateCredentials(createRequestContext(c, "/api/v1/connections/:uuid/rotate"), &req, actor)
	if err != nil {
		if businessflow.IsConnectionNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Connection not found", "CONNECTION_NOT_FOUND", nil)
		}
		if businessflow.IsConnectionRevoked(err) {
			return errorResponse(c, fiber.StatusConflict, "Connection has been revoked", "CONNECTION_REVOKED", nil)
		}

		log.Println("Credential rotation failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Credential rotation failed", "CONNECTION_ROTATE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Credentials rotated successfully", result)
}

// RevokeConnection revokes a connection so ingestion against it stops
func (h *ConnectionHandler) RevokeConnection(c fiber.Ctx) error {
	workspaceUUID, ok := workspaceUUIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Workspace scope is required", "MISSING_WORKSPACE_SCOPE", nil)
	}

	req := dto.RevokeConnectionRequest{
		UUID:          c.Params("uuid"),
		WorkspaceUUID: workspaceUUID,
	}

	actor := actorFromContext(c)
	result, err := h.connectionFlow.RevokeConnection(createRequestContext(c, "/api/v1/connections/:uuid"), &req, actor)
	if err != nil {
		if businessflow.IsConnectionNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Connection not found", "CONNECTION_NOT_FOUND", nil)
		}

		log.Println("Connection revocation failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Connection revocation failed", "CONNECTION_REVOKE_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Connection revoked successfully", result)
}

// ListConnections lists the workspace's platform connections
func (h *ConnectionHandler) ListConnections(c fiber.Ctx) error {
	workspaceUUID, ok := workspaceUUIDFromContext(c)
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Workspace scope is required", "MISSING_WORKSPACE_SCOPE", nil)
	}
	id, err := uuid.Parse(workspaceUUID)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid workspace UUID", "INVALID_WORKSPACE_UUID", nil)
	}

	result, err := h.connectionFlow.ListConnections(createRequestContext(c, "/api/v1/connections"), id)
	if err != nil {
		if businessflow.IsWorkspaceNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Workspace not found", "WORKSPACE_NOT_FOUND", nil)
		}

		log.Println("Connection listing failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Connection listing failed", "CONNECTION_LIST_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Connections retrieved successfully", result)
}
