// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"fmt"

	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/repository"
	"github.com/google/uuid"
)

const RequestIDKey = "X-Request-ID"

// ActorContext identifies who is performing an operation and inside which
// workspace. Carried into flows for audit logging and tenant scoping.
type ActorContext struct {
	UserID      string `json:"user_id"`
	WorkspaceID uint   `json:"workspace_id"`
	IPAddress   string `json:"ip_address,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// NewActorContext creates a new ActorContext instance with basic information
func NewActorContext(userID string, workspaceID uint) *ActorContext {
	return &ActorContext{
		UserID:      userID,
		WorkspaceID: workspaceID,
	}
}

// SetRequestID sets the request ID
func (a *ActorContext) SetRequestID(requestID string) {
	a.RequestID = requestID
}

func getWorkspace(ctx context.Context, repo repository.WorkspaceRepository, id uuid.UUID) (*models.Workspace, error) {
	workspace, err := repo.ByUUID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup workspace %s: %w", id, err)
	}
	if workspace == nil {
		return nil, ErrWorkspaceNotFound
	}
	return workspace, nil
}

func getCampaign(ctx context.Context, repo repository.CampaignRepository, id uuid.UUID, workspaceID uint) (*models.Campaign, error) {
	campaign, err := repo.ByUUID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup campaign %s: %w", id, err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}
	if campaign.WorkspaceID != workspaceID {
		return nil, ErrCampaignAccessDenied
	}
	return campaign, nil
}

func normalizePagination(page, pageSize int) (limit, offset int, err error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = 20
	}
	if page < 1 {
		return 0, 0, ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return 0, 0, ErrInvalidPageSize
	}
	return pageSize, (page - 1) * pageSize, nil
}
