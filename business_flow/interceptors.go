package businessflow

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/repository"
)

// StoreOp describes one write as it moves through the interceptor chain
type StoreOp struct {
	Action      models.AuditAction
	EntityType  models.EntityType
	EntityID    string
	WorkspaceID uint
	Entity      any
	Actor       *ActorContext
}

// StoreFunc performs the terminal write of an operation
type StoreFunc func(ctx context.Context, op *StoreOp) error

// Interceptor wraps a StoreFunc with a cross-cutting concern
type Interceptor func(next StoreFunc) StoreFunc

// Chain composes interceptors around a store. The first interceptor listed
// runs outermost.
func Chain(store StoreFunc, interceptors ...Interceptor) StoreFunc {
	for i := len(interceptors) - 1; i >= 0; i-- {
		store = interceptors[i](store)
	}
	return store
}

// tenantScopedEntities are entity classes that must never be written
// without a workspace scope.
var tenantScopedEntities = map[models.EntityType]bool{
	models.EntityConnection:  true,
	models.EntityCampaign:    true,
	models.EntityChannel:     true,
	models.EntityContentItem: true,
	models.EntityComment:     true,
	models.EntitySpend:       true,
	models.EntityROIView:     true,
}

// RequireTenantScope rejects writes to tenant-owned entities that carry no
// workspace ID. This is the last line of defense against cross-tenant leaks.
func RequireTenantScope() Interceptor {
	return func(next StoreFunc) StoreFunc {
		return func(ctx context.Context, op *StoreOp) error {
			if tenantScopedEntities[op.EntityType] && op.WorkspaceID == 0 {
				return NewBusinessErrorf("MISSING_TENANT_SCOPE", "write to %s without workspace scope", ErrMissingTenantScope, op.EntityType)
			}
			return next(ctx, op)
		}
	}
}

// TextSanitizable is implemented by models whose free-text fields arrive
// from external sources.
type TextSanitizable interface {
	SanitizeText(clean func(string) string)
}

var (
	scriptTagPattern  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	javascriptPattern = regexp.MustCompile(`(?i)javascript\s*:`)
)

// CleanText strips script tags and javascript: URI schemes from free text
func CleanText(s string) string {
	s = scriptTagPattern.ReplaceAllString(s, "")
	s = javascriptPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// SanitizeText cleans free-text fields on any entity that implements
// TextSanitizable before it reaches storage.
func SanitizeText() Interceptor {
	return func(next StoreFunc) StoreFunc {
		return func(ctx context.Context, op *StoreOp) error {
			if s, ok := op.Entity.(TextSanitizable); ok {
				s.SanitizeText(CleanText)
			}
			return next(ctx, op)
		}
	}
}

// sensitiveEntities are the entity classes whose mutations land in the
// audit trail.
var sensitiveEntities = map[models.EntityType]bool{
	models.EntityUser:       true,
	models.EntityWorkspace:  true,
	models.EntityConnection: true,
	models.EntityCampaign:   true,
}

// Audit records sensitive mutations after a successful write. For deletes
// only the entity identity goes into metadata, never the removed payload.
// Audit failures are swallowed so bookkeeping never breaks the write path.
func Audit(auditRepo repository.AuditLogRepository) Interceptor {
	return func(next StoreFunc) StoreFunc {
		return func(ctx context.Context, op *StoreOp) error {
			if err := next(ctx, op); err != nil {
				return err
			}
			if !sensitiveEntities[op.EntityType] {
				return nil
			}

			entry := &models.AuditLog{
				WorkspaceID: op.WorkspaceID,
				Action:      op.Action,
				EntityType:  op.EntityType,
				EntityID:    op.EntityID,
			}
			if op.Actor != nil {
				entry.UserID = op.Actor.UserID
			}
			if op.Action == models.AuditActionDelete {
				meta, _ := json.Marshal(map[string]string{"entity_id": op.EntityID})
				entry.Metadata = meta
			}

			_ = auditRepo.Save(ctx, entry)
			return nil
		}
	}
}
