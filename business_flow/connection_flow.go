// Package businessflow contains the core business logic and use cases for connection workflows
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/arclabs/arc/app/dto"
	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/repository"
	"github.com/arclabs/arc/utils"
	"github.com/google/uuid"
)

// ConnectionFlow handles the platform connection business logic
type ConnectionFlow interface {
	CreateConnection(ctx context.Context, req *dto.CreateConnectionRequest, actor *ActorContext) (*dto.ConnectionResponse, error)
	RotateCredentials(ctx context.Context, req *dto.RotateConnectionRequest, actor *ActorContext) (*dto.ConnectionResponse, error)
	RevokeConnection(ctx context.Context, req *dto.RevokeConnectionRequest, actor *ActorContext) (*dto.ConnectionResponse, error)
	ListConnections(ctx context.Context, workspaceUUID uuid.UUID) ([]dto.ConnectionResponse, error)
}

// ConnectionFlowImpl implements the connection business flow
type ConnectionFlowImpl struct {
	workspaceRepo repository.WorkspaceRepository
	connRepo      repository.AccountConnectionRepository
	cipher        *utils.CredentialCipher
	store         StoreFunc
}

// NewConnectionFlow creates a new connection flow instance
func NewConnectionFlow(
	workspaceRepo repository.WorkspaceRepository,
	connRepo repository.AccountConnectionRepository,
	auditRepo repository.AuditLogRepository,
	cipher *utils.CredentialCipher,
) ConnectionFlow {
	f := &ConnectionFlowImpl{
		workspaceRepo: workspaceRepo,
		connRepo:      connRepo,
		cipher:        cipher,
	}
	f.store = Chain(f.persistConnection, RequireTenantScope(), Audit(auditRepo))
	return f
}

// CreateConnection encrypts the submitted credentials and stores the single
// connection row for (workspace, platform). Plaintext credentials exist only
// inside this call.
func (s *ConnectionFlowImpl) CreateConnection(ctx context.Context, req *dto.CreateConnectionRequest, actor *ActorContext) (*dto.ConnectionResponse, error) {
	platform := models.Platform(req.Platform)
	if !platform.Valid() {
		return nil, NewBusinessErrorf("UNSUPPORTED_PLATFORM", "unknown platform %q", ErrUnsupportedPlatform, req.Platform)
	}
	if req.Credentials == "" {
		return nil, NewBusinessError("CREDENTIALS_REQUIRED", "Credentials are required", ErrCredentialsRequired)
	}

	workspaceUUID, err := uuid.Parse(req.WorkspaceUUID)
	if err != nil {
		return nil, NewBusinessError("INVALID_WORKSPACE_UUID", "Invalid workspace UUID", err)
	}
	workspace, err := getWorkspace(ctx, s.workspaceRepo, workspaceUUID)
	if err != nil {
		return nil, NewBusinessError("WORKSPACE_LOOKUP_FAILED", "Failed to lookup workspace", err)
	}

	existing, err := s.connRepo.ByWorkspaceAndPlatform(ctx, workspace.ID, platform)
	if err != nil {
		return nil, NewBusinessError("CONNECTION_LOOKUP_FAILED", "Failed to lookup connection", err)
	}
	if existing != nil && existing.IsActive() {
		return nil, NewBusinessError("CONNECTION_EXISTS", "Connection already exists for platform", ErrConnectionExists)
	}

	envelope, err := s.cipher.Encrypt(req.Credentials)
	if err != nil {
		return nil, NewBusinessError("CREDENTIAL_ENCRYPTION_FAILED", "Failed to encrypt credentials", err)
	}

	conn := &models.AccountConnection{
		WorkspaceID: workspace.ID,
		Platform:    platform,
		Credentials: envelope,
		Status:      models.ConnectionStatusActive,
	}
	err = s.store(ctx, &StoreOp{
		Action:      models.AuditActionCreate,
		EntityType:  models.EntityConnection,
		WorkspaceID: workspace.ID,
		Entity:      conn,
		Actor:       actor,
	})
	if err != nil {
		return nil, NewBusinessError("CONNECTION_CREATE_FAILED", "Failed to create connection", err)
	}

	return toConnectionResponse(conn), nil
}

// RotateCredentials replaces the stored credential envelope. The old
// envelope is overwritten, not kept.
func (s *ConnectionFlowImpl) RotateCredentials(ctx context.Context, req *dto.RotateConnectionRequest, actor *ActorContext) (*dto.ConnectionResponse, error) {
	if req.Credentials == "" {
		return nil, NewBusinessError("CREDENTIALS_REQUIRED", "Credentials are required", ErrCredentialsRequired)
	}

	conn, err := s.getOwnedConnection(ctx, req.UUID, req.WorkspaceUUID)
	if err != nil {
		return nil, err
	}
	if !conn.IsActive() {
		return nil, NewBusinessError("CONNECTION_REVOKED", "Cannot rotate a revoked connection", ErrConnectionRevoked)
	}

	envelope, err := s.cipher.Encrypt(req.Credentials)
	if err != nil {
		return nil, NewBusinessError("CREDENTIAL_ENCRYPTION_FAILED", "Failed to encrypt credentials", err)
	}

	conn.Credentials = envelope
	err = s.store(ctx, &StoreOp{
		Action:      models.AuditActionUpdate,
		EntityType:  models.EntityConnection,
		EntityID:    conn.UUID.String(),
		WorkspaceID: conn.WorkspaceID,
		Entity:      conn,
		Actor:       actor,
	})
	if err != nil {
		return nil, NewBusinessError("CONNECTION_ROTATE_FAILED", "Failed to rotate credentials", err)
	}

	return toConnectionResponse(conn), nil
}

// RevokeConnection flips the connection to revoked. Ingestion jobs against
// a revoked connection fail terminally instead of retrying.
func (s *ConnectionFlowImpl) RevokeConnection(ctx context.Context, req *dto.RevokeConnectionRequest, actor *ActorContext) (*dto.ConnectionResponse, error) {
	conn, err := s.getOwnedConnection(ctx, req.UUID, req.WorkspaceUUID)
	if err != nil {
		return nil, err
	}

	conn.Status = models.ConnectionStatusRevoked
	err = s.store(ctx, &StoreOp{
		Action:      models.AuditActionUpdate,
		EntityType:  models.EntityConnection,
		EntityID:    conn.UUID.String(),
		WorkspaceID: conn.WorkspaceID,
		Entity:      conn,
		Actor:       actor,
	})
	if err != nil {
		return nil, NewBusinessError("CONNECTION_REVOKE_FAILED", "Failed to revoke connection", err)
	}

	return toConnectionResponse(conn), nil
}

// ListConnections lists the connections of one workspace
func (s *ConnectionFlowImpl) ListConnections(ctx context.Context, workspaceUUID uuid.UUID) ([]dto.ConnectionResponse, error) {
	workspace, err := getWorkspace(ctx, s.workspaceRepo, workspaceUUID)
	if err != nil {
		return nil, NewBusinessError("WORKSPACE_LOOKUP_FAILED", "Failed to lookup workspace", err)
	}

	out := make([]dto.ConnectionResponse, 0, len(models.AllPlatforms()))
	for _, platform := range models.AllPlatforms() {
		conn, err := s.connRepo.ByWorkspaceAndPlatform(ctx, workspace.ID, platform)
		if err != nil {
			return nil, NewBusinessError("CONNECTION_LOOKUP_FAILED", "Failed to lookup connection", err)
		}
		if conn != nil {
			out = append(out, *toConnectionResponse(conn))
		}
	}
	return out, nil
}

func (s *ConnectionFlowImpl) getOwnedConnection(ctx context.Context, connUUID, workspaceUUID string) (*models.AccountConnection, error) {
	id, err := uuid.Parse(connUUID)
	if err != nil {
		return nil, NewBusinessError("INVALID_CONNECTION_UUID", "Invalid connection UUID", err)
	}
	wsID, err := uuid.Parse(workspaceUUID)
	if err != nil {
		return nil, NewBusinessError("INVALID_WORKSPACE_UUID", "Invalid workspace UUID", err)
	}

	workspace, err := getWorkspace(ctx, s.workspaceRepo, wsID)
	if err != nil {
		return nil, NewBusinessError("WORKSPACE_LOOKUP_FAILED", "Failed to lookup workspace", err)
	}

	conn, err := s.connRepo.ByUUID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("CONNECTION_LOOKUP_FAILED", "Failed to lookup connection", err)
	}
	if conn == nil {
		return nil, NewBusinessError("CONNECTION_NOT_FOUND", "Connection not found", ErrConnectionNotFound)
	}
	if conn.WorkspaceID != workspace.ID {
		return nil, NewBusinessError("WORKSPACE_ACCESS_DENIED", "Connection belongs to another workspace", ErrWorkspaceAccessDenied)
	}

	return conn, nil
}

// persistConnection is the terminal store behind the interceptor chain
func (s *ConnectionFlowImpl) persistConnection(ctx context.Context, op *StoreOp) error {
	conn, ok := op.Entity.(*models.AccountConnection)
	if !ok {
		return fmt.Errorf("no store path for entity type %T", op.Entity)
	}
	if err := s.connRepo.Upsert(ctx, conn); err != nil {
		return err
	}
	op.EntityID = conn.UUID.String()
	return nil
}

func toConnectionResponse(conn *models.AccountConnection) *dto.ConnectionResponse {
	resp := &dto.ConnectionResponse{
		UUID:      conn.UUID.String(),
		Platform:  conn.Platform.String(),
		Status:    string(conn.Status),
		CreatedAt: conn.CreatedAt.Format(time.RFC3339),
	}
	if conn.UpdatedAt != nil {
		resp.UpdatedAt = conn.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}
