package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/repository"
	testutils "github.com/arclabs/arc/testing"
	"github.com/arclabs/arc/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRepoTest provisions a throwaway database or skips the test when
// PostgreSQL is not reachable.
func setupRepoTest(t *testing.T) (*testutils.TestDB, *testutils.TestFixtures) {
	t.Helper()

	testDB, err := testutils.SetupTestDB()
	if err != nil {
		t.Skipf("PostgreSQL not available, skipping: %v", err)
	}
	t.Cleanup(func() {
		if err := testDB.TeardownTestDB(); err != nil {
			t.Logf("failed to teardown test database: %v", err)
		}
	})

	return testDB, testutils.NewTestFixtures(testDB)
}

func TestSpendUpsert(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := repository.NewSpendRepository(testDB.DB)
	ctx := context.Background()

	workspace, err := fixtures.CreateTestWorkspace()
	require.NoError(t, err)
	campaign, err := fixtures.CreateTestCampaign(workspace.ID)
	require.NoError(t, err)

	date := time.Date(2025, 8, 11, 0, 0, 0, 0, time.UTC)

	t.Run("inserts then merges on the natural key", func(t *testing.T) {
		first := &models.Spend{
			CampaignID:  campaign.ID,
			Platform:    models.PlatformGoogleAds,
			Date:        date,
			Spend:       100,
			Impressions: 4000,
			Clicks:      20,
			Conversions: 2,
			Revenue:     300,
		}
		require.NoError(t, repo.Upsert(ctx, first))

		// Second attempt for the same day carries corrected counters
		second := &models.Spend{
			CampaignID:  campaign.ID,
			Platform:    models.PlatformGoogleAds,
			Date:        date,
			Spend:       125,
			Impressions: 5000,
			Clicks:      25,
			Conversions: 3,
			Revenue:     400,
		}
		require.NoError(t, repo.Upsert(ctx, second))

		rows, err := repo.ListForCampaign(ctx, campaign.ID, date, date.AddDate(0, 0, 1))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, first.ID, rows[0].ID)
		assert.InDelta(t, 125.0, rows[0].Spend, 0.0001)
		assert.Equal(t, int64(5000), rows[0].Impressions)
		assert.InDelta(t, 400.0, rows[0].Revenue, 0.0001)
		// The original insertion time survives the merge
		assert.WithinDuration(t, first.CreatedAt, rows[0].CreatedAt, time.Second)
	})

	t.Run("rejects rows with an incomplete natural key", func(t *testing.T) {
		cases := []struct {
			name  string
			spend *models.Spend
		}{
			{"missing campaign", &models.Spend{Platform: models.PlatformGoogleAds, Date: date}},
			{"invalid platform", &models.Spend{CampaignID: campaign.ID, Platform: "TIKTOK", Date: date}},
			{"zero date", &models.Spend{CampaignID: campaign.ID, Platform: models.PlatformGoogleAds}},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				err := repo.Upsert(ctx, tc.spend)
				assert.ErrorIs(t, err, repository.ErrNotPersistable)
			})
		}
	})
}

func TestSpendSumForPeriod(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := repository.NewSpendRepository(testDB.DB)
	ctx := context.Background()

	workspace, err := fixtures.CreateTestWorkspace()
	require.NoError(t, err)
	campaign, err := fixtures.CreateTestCampaign(workspace.ID)
	require.NoError(t, err)
	other, err := fixtures.CreateTestCampaign(workspace.ID)
	require.NoError(t, err)

	day := func(d int) time.Time { return time.Date(2025, 8, d, 0, 0, 0, 0, time.UTC) }

	_, err = fixtures.CreateTestSpend(campaign.ID, models.PlatformGoogleAds, day(11), 100, 300, 4000, 20, 2)
	require.NoError(t, err)
	_, err = fixtures.CreateTestSpend(campaign.ID, models.PlatformGoogleAds, day(12), 150, 700, 6000, 30, 8)
	require.NoError(t, err)
	// On the exclusive upper bound, must not be counted
	_, err = fixtures.CreateTestSpend(campaign.ID, models.PlatformGoogleAds, day(13), 999, 999, 1, 1, 1)
	require.NoError(t, err)
	// Another campaign inside the window, must not be counted
	_, err = fixtures.CreateTestSpend(other.ID, models.PlatformGoogleAds, day(11), 50, 50, 100, 5, 1)
	require.NoError(t, err)

	t.Run("sums the half-open window for one campaign", func(t *testing.T) {
		totals, err := repo.SumForPeriod(ctx, campaign.ID, day(11), day(13))
		require.NoError(t, err)
		assert.InDelta(t, 250.0, totals.TotalSpend, 0.0001)
		assert.InDelta(t, 1000.0, totals.TotalRevenue, 0.0001)
		assert.Equal(t, int64(10), totals.TotalConversions)
		assert.Equal(t, int64(2), totals.RowCount)
	})

	t.Run("empty window yields zero totals", func(t *testing.T) {
		totals, err := repo.SumForPeriod(ctx, campaign.ID, day(1), day(5))
		require.NoError(t, err)
		assert.Zero(t, totals.TotalSpend)
		assert.Zero(t, totals.TotalRevenue)
		assert.Zero(t, totals.RowCount)
	})
}

func TestChannelUpsert(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := repository.NewChannelRepository(testDB.DB)
	ctx := context.Background()

	workspace, err := fixtures.CreateTestWorkspace()
	require.NoError(t, err)

	t.Run("merges the display name on conflict", func(t *testing.T) {
		first := &models.Channel{
			WorkspaceID: workspace.ID,
			Platform:    models.PlatformYouTube,
			ExternalID:  "UC123",
			Name:        "Old Name",
		}
		require.NoError(t, repo.Upsert(ctx, first))

		second := &models.Channel{
			WorkspaceID: workspace.ID,
			Platform:    models.PlatformYouTube,
			ExternalID:  "UC123",
			Name:        "Rebranded",
		}
		require.NoError(t, repo.Upsert(ctx, second))

		found, err := repo.ByNaturalKey(ctx, workspace.ID, models.PlatformYouTube, "UC123")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, first.ID, found.ID)
		assert.Equal(t, "Rebranded", found.Name)
	})

	t.Run("rejects a channel without external ID", func(t *testing.T) {
		err := repo.Upsert(ctx, &models.Channel{WorkspaceID: workspace.ID, Platform: models.PlatformYouTube})
		assert.ErrorIs(t, err, repository.ErrNotPersistable)
	})

	t.Run("natural key miss returns nil without error", func(t *testing.T) {
		found, err := repo.ByNaturalKey(ctx, workspace.ID, models.PlatformYouTube, "UC-nope")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestAccountConnectionUpsert(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := repository.NewAccountConnectionRepository(testDB.DB)
	ctx := context.Background()

	workspace, err := fixtures.CreateTestWorkspace()
	require.NoError(t, err)

	t.Run("reconnect replaces credentials and status", func(t *testing.T) {
		first := &models.AccountConnection{
			WorkspaceID: workspace.ID,
			Platform:    models.PlatformMetaAds,
			Credentials: "aa:bb:cc",
			Status:      models.ConnectionStatusActive,
		}
		require.NoError(t, repo.Upsert(ctx, first))
		require.NoError(t, repo.UpdateStatus(ctx, first.ID, models.ConnectionStatusRevoked))

		second := &models.AccountConnection{
			WorkspaceID: workspace.ID,
			Platform:    models.PlatformMetaAds,
			Credentials: "dd:ee:ff",
			Status:      models.ConnectionStatusActive,
		}
		require.NoError(t, repo.Upsert(ctx, second))

		found, err := repo.ByWorkspaceAndPlatform(ctx, workspace.ID, models.PlatformMetaAds)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, first.ID, found.ID)
		assert.Equal(t, "dd:ee:ff", found.Credentials)
		assert.Equal(t, models.ConnectionStatusActive, found.Status)
	})

	t.Run("rejects a connection without workspace", func(t *testing.T) {
		err := repo.Upsert(ctx, &models.AccountConnection{Platform: models.PlatformMetaAds, Credentials: "x"})
		assert.ErrorIs(t, err, repository.ErrNotPersistable)
	})
}

func TestAuditLogListing(t *testing.T) {
	testDB, fixtures := setupRepoTest(t)
	repo := repository.NewAuditLogRepository(testDB.DB)
	ctx := context.Background()

	first, err := fixtures.CreateTestWorkspace()
	require.NoError(t, err)
	second, err := fixtures.CreateTestWorkspace()
	require.NoError(t, err)

	entries := []*models.AuditLog{
		{UserID: "u-1", WorkspaceID: first.ID, Action: models.AuditActionCreate, EntityType: models.EntityConnection, EntityID: "conn-1", CreatedAt: utils.UTCNow().Add(-2 * time.Minute)},
		{UserID: "u-1", WorkspaceID: first.ID, Action: models.AuditActionUpdate, EntityType: models.EntityCampaign, EntityID: "camp-1", CreatedAt: utils.UTCNow().Add(-1 * time.Minute)},
		{UserID: "u-2", WorkspaceID: second.ID, Action: models.AuditActionDelete, EntityType: models.EntityConnection, EntityID: "conn-2", CreatedAt: utils.UTCNow()},
	}
	for _, entry := range entries {
		require.NoError(t, repo.Save(ctx, entry))
	}

	t.Run("scopes to one workspace newest first", func(t *testing.T) {
		logs, err := repo.ListByWorkspace(ctx, first.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, "camp-1", logs[0].EntityID)
		assert.Equal(t, "conn-1", logs[1].EntityID)
	})

	t.Run("filters by entity type across workspaces", func(t *testing.T) {
		logs, err := repo.ListByEntityType(ctx, models.EntityConnection, 10, 0)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, "conn-2", logs[0].EntityID)
	})
}
