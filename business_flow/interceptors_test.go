package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/arclabs/arc/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuditRepo captures saved audit entries in memory
type fakeAuditRepo struct {
	entries []*models.AuditLog
	saveErr error
}

func (f *fakeAuditRepo) ByID(ctx context.Context, id uint) (*models.AuditLog, error) { return nil, nil }
func (f *fakeAuditRepo) Save(ctx context.Context, entry *models.AuditLog) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.entries = append(f.entries, entry)
	return nil
}
func (f *fakeAuditRepo) SaveBatch(ctx context.Context, entries []*models.AuditLog) error {
	return nil
}
func (f *fakeAuditRepo) ListByWorkspace(ctx context.Context, workspaceID uint, limit, offset int) ([]*models.AuditLog, error) {
	return nil, nil
}
func (f *fakeAuditRepo) ListByEntityType(ctx context.Context, entityType models.EntityType, limit, offset int) ([]*models.AuditLog, error) {
	return nil, nil
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text untouched", "great video!", "great video!"},
		{"script tag stripped", `hello <script>alert(1)</script> world`, "hello  world"},
		{"script tag with attributes", `x<script type="text/javascript">evil()</script>y`, "xy"},
		{"script tag spans lines", "a<script>\nevil()\n</script>b", "ab"},
		{"case insensitive", `<SCRIPT>evil()</SCRIPT>done`, "done"},
		{"javascript scheme stripped", `click javascript:alert(1)`, "click alert(1)"},
		{"javascript scheme with spaces", `javascript :alert(1)`, "alert(1)"},
		{"surrounding whitespace trimmed", "  hi  ", "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}

func TestChainOrdering(t *testing.T) {
	var order []string
	tag := func(name string) Interceptor {
		return func(next StoreFunc) StoreFunc {
			return func(ctx context.Context, op *StoreOp) error {
				order = append(order, name)
				return next(ctx, op)
			}
		}
	}
	store := Chain(func(ctx context.Context, op *StoreOp) error {
		order = append(order, "store")
		return nil
	}, tag("first"), tag("second"))

	err := store(context.Background(), &StoreOp{})

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "store"}, order)
}

func TestRequireTenantScope(t *testing.T) {
	store := Chain(func(ctx context.Context, op *StoreOp) error {
		return nil
	}, RequireTenantScope())

	t.Run("rejects tenant-owned entity without workspace", func(t *testing.T) {
		err := store(context.Background(), &StoreOp{
			EntityType: models.EntityComment,
			EntityID:   "c-1",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingTenantScope))
	})

	t.Run("allows tenant-owned entity with workspace", func(t *testing.T) {
		err := store(context.Background(), &StoreOp{
			EntityType:  models.EntityComment,
			EntityID:    "c-1",
			WorkspaceID: 7,
		})
		assert.NoError(t, err)
	})

	t.Run("rejects spend fact without workspace", func(t *testing.T) {
		err := store(context.Background(), &StoreOp{
			EntityType: models.EntitySpend,
			EntityID:   "acct:2025-08-01",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingTenantScope))
	})

	t.Run("allows workspace root entity without scope", func(t *testing.T) {
		err := store(context.Background(), &StoreOp{
			EntityType: models.EntityWorkspace,
			EntityID:   "ws-1",
		})
		assert.NoError(t, err)
	})
}

func TestSanitizeTextInterceptor(t *testing.T) {
	comment := &models.Comment{
		Author: `bob<script>x()</script>`,
		Text:   `nice javascript:alert(1) post`,
	}
	store := Chain(func(ctx context.Context, op *StoreOp) error {
		return nil
	}, SanitizeText())

	err := store(context.Background(), &StoreOp{
		EntityType:  models.EntityComment,
		WorkspaceID: 1,
		Entity:      comment,
	})

	require.NoError(t, err)
	assert.Equal(t, "bob", comment.Author)
	assert.Equal(t, "nice alert(1) post", comment.Text)
}

func TestAuditInterceptor(t *testing.T) {
	t.Run("records sensitive entity writes", func(t *testing.T) {
		repo := &fakeAuditRepo{}
		store := Chain(func(ctx context.Context, op *StoreOp) error {
			return nil
		}, Audit(repo))

		err := store(context.Background(), &StoreOp{
			Action:      models.AuditActionCreate,
			EntityType:  models.EntityCampaign,
			EntityID:    "camp-1",
			WorkspaceID: 3,
			Actor:       NewActorContext("user-9", 3),
		})

		require.NoError(t, err)
		require.Len(t, repo.entries, 1)
		entry := repo.entries[0]
		assert.Equal(t, models.AuditActionCreate, entry.Action)
		assert.Equal(t, models.EntityCampaign, entry.EntityType)
		assert.Equal(t, "camp-1", entry.EntityID)
		assert.Equal(t, uint(3), entry.WorkspaceID)
		assert.Equal(t, "user-9", entry.UserID)
		assert.Empty(t, entry.Metadata)
	})

	t.Run("skips non-sensitive entities", func(t *testing.T) {
		repo := &fakeAuditRepo{}
		store := Chain(func(ctx context.Context, op *StoreOp) error {
			return nil
		}, Audit(repo))

		err := store(context.Background(), &StoreOp{
			Action:      models.AuditActionCreate,
			EntityType:  models.EntityComment,
			EntityID:    "c-1",
			WorkspaceID: 3,
		})

		require.NoError(t, err)
		assert.Empty(t, repo.entries)
	})

	t.Run("delete carries only the entity identity", func(t *testing.T) {
		repo := &fakeAuditRepo{}
		store := Chain(func(ctx context.Context, op *StoreOp) error {
			return nil
		}, Audit(repo))

		err := store(context.Background(), &StoreOp{
			Action:      models.AuditActionDelete,
			EntityType:  models.EntityConnection,
			EntityID:    "conn-1",
			WorkspaceID: 3,
		})

		require.NoError(t, err)
		require.Len(t, repo.entries, 1)
		assert.JSONEq(t, `{"entity_id":"conn-1"}`, string(repo.entries[0].Metadata))
	})

	t.Run("does not record failed writes", func(t *testing.T) {
		repo := &fakeAuditRepo{}
		storeErr := errors.New("db down")
		store := Chain(func(ctx context.Context, op *StoreOp) error {
			return storeErr
		}, Audit(repo))

		err := store(context.Background(), &StoreOp{
			Action:      models.AuditActionCreate,
			EntityType:  models.EntityCampaign,
			EntityID:    "camp-1",
			WorkspaceID: 3,
		})

		assert.ErrorIs(t, err, storeErr)
		assert.Empty(t, repo.entries)
	})

	t.Run("audit failure never fails the write", func(t *testing.T) {
		repo := &fakeAuditRepo{saveErr: errors.New("audit down")}
		store := Chain(func(ctx context.Context, op *StoreOp) error {
			return nil
		}, Audit(repo))

		err := store(context.Background(), &StoreOp{
			Action:      models.AuditActionCreate,
			EntityType:  models.EntityCampaign,
			EntityID:    "camp-1",
			WorkspaceID: 3,
		})

		assert.NoError(t, err)
	})
}
