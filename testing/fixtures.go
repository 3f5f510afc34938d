// Package testing provides test utilities and database setup for integration tests
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestWorkspace creates a workspace with a unique name
func (tf *TestFixtures) CreateTestWorkspace() (*models.Workspace, error) {
	workspace := &models.Workspace{
		Name: fmt.Sprintf("Acme Workspace %d", rand.Intn(100000)),
	}
	if err := tf.DB.DB.Create(workspace).Error; err != nil {
		return nil, fmt.Errorf("failed to create test workspace: %w", err)
	}
	return workspace, nil
}

// CreateTestConnection creates an active connection for the workspace and
// platform. Credentials hold whatever ciphertext the caller passes; tests
// that exercise decryption must encrypt with a real cipher first.
func (tf *TestFixtures) CreateTestConnection(workspaceID uint, platform models.Platform, credentials string) (*models.AccountConnection, error) {
	conn := &models.AccountConnection{
		WorkspaceID: workspaceID,
		Platform:    platform,
		Credentials: credentials,
		Status:      models.ConnectionStatusActive,
	}
	if err := tf.DB.DB.Create(conn).Error; err != nil {
		return nil, fmt.Errorf("failed to create test connection: %w", err)
	}
	return conn, nil
}

// CreateTestCampaign creates a campaign scoped to the workspace
func (tf *TestFixtures) CreateTestCampaign(workspaceID uint) (*models.Campaign, error) {
	start := utils.UTCNow().AddDate(0, 0, -30)

	campaign := &models.Campaign{
		WorkspaceID: workspaceID,
		Name:        fmt.Sprintf("Spring Launch %d", rand.Intn(100000)),
		Objective:   "conversions",
		StartDate:   utils.ToPtr(start),
		EndDate:     utils.ToPtr(start.AddDate(0, 2, 0)),
		Budget:      5000,
		UTM: models.UTMParams{
			Source:   "newsletter",
			Medium:   "email",
			Campaign: "spring_launch",
		},
	}
	if err := tf.DB.DB.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create test campaign: %w", err)
	}
	return campaign, nil
}

// CreateTestChannel creates a channel under the workspace
func (tf *TestFixtures) CreateTestChannel(workspaceID uint, platform models.Platform) (*models.Channel, error) {
	channel := &models.Channel{
		WorkspaceID: workspaceID,
		Platform:    platform,
		ExternalID:  fmt.Sprintf("chan-%d", rand.Intn(1000000)),
		Name:        "Brand Channel",
	}
	if err := tf.DB.DB.Create(channel).Error; err != nil {
		return nil, fmt.Errorf("failed to create test channel: %w", err)
	}
	return channel, nil
}

// CreateTestContentItem creates a content item under the channel
func (tf *TestFixtures) CreateTestContentItem(channel *models.Channel) (*models.ContentItem, error) {
	item := &models.ContentItem{
		ChannelID:   channel.ID,
		WorkspaceID: channel.WorkspaceID,
		Platform:    channel.Platform,
		ExternalID:  fmt.Sprintf("content-%d", rand.Intn(1000000)),
		Title:       "Product teaser",
		PublishedAt: utils.ToPtr(utils.UTCNow().AddDate(0, 0, -3)),
		Metrics: models.MetricsSnapshot{
			SchemaVersion: models.MetricsSnapshotVersion,
			Views:         1200,
			Likes:         80,
			Comments:      14,
		},
	}
	if err := tf.DB.DB.Create(item).Error; err != nil {
		return nil, fmt.Errorf("failed to create test content item: %w", err)
	}
	return item, nil
}

// CreateTestSpend creates one spend fact for the campaign on the given date
func (tf *TestFixtures) CreateTestSpend(campaignID uint, platform models.Platform, date time.Time, spend, revenue float64, impressions, clicks, conversions int64) (*models.Spend, error) {
	row := &models.Spend{
		CampaignID:  campaignID,
		Platform:    platform,
		Date:        utils.DateOnly(date),
		Spend:       spend,
		Impressions: impressions,
		Clicks:      clicks,
		Conversions: conversions,
		Revenue:     revenue,
	}
	if err := tf.DB.DB.Create(row).Error; err != nil {
		return nil, fmt.Errorf("failed to create test spend: %w", err)
	}
	return row, nil
}
