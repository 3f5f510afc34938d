package businessflow

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- in-memory fakes -------------------------------------------------------

type fakeWorkspaceRepo struct {
	workspaces map[uuid.UUID]*models.Workspace
}

func (f *fakeWorkspaceRepo) ByID(ctx context.Context, id uint) (*models.Workspace, error) {
	return nil, nil
}
func (f *fakeWorkspaceRepo) Save(ctx context.Context, entity *models.Workspace) error { return nil }
func (f *fakeWorkspaceRepo) SaveBatch(ctx context.Context, entities []*models.Workspace) error {
	return nil
}
func (f *fakeWorkspaceRepo) ByUUID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	return f.workspaces[id], nil
}

type fakeConnRepo struct {
	conns map[models.Platform]*models.AccountConnection
}

func (f *fakeConnRepo) ByID(ctx context.Context, id uint) (*models.AccountConnection, error) {
	return nil, nil
}
func (f *fakeConnRepo) Save(ctx context.Context, entity *models.AccountConnection) error {
	return nil
}
func (f *fakeConnRepo) SaveBatch(ctx context.Context, entities []*models.AccountConnection) error {
	return nil
}
func (f *fakeConnRepo) ByUUID(ctx context.Context, id uuid.UUID) (*models.AccountConnection, error) {
	return nil, nil
}
func (f *fakeConnRepo) ByWorkspaceAndPlatform(ctx context.Context, workspaceID uint, platform models.Platform) (*models.AccountConnection, error) {
	return f.conns[platform], nil
}
func (f *fakeConnRepo) Upsert(ctx context.Context, conn *models.AccountConnection) error {
	f.conns[conn.Platform] = conn
	return nil
}
func (f *fakeConnRepo) UpdateStatus(ctx context.Context, id uint, status models.ConnectionStatus) error {
	return nil
}

type fakeChannelRepo struct {
	nextID   uint
	channels []*models.Channel
}

func (f *fakeChannelRepo) ByID(ctx context.Context, id uint) (*models.Channel, error) {
	return nil, nil
}
func (f *fakeChannelRepo) Save(ctx context.Context, entity *models.Channel) error { return nil }
func (f *fakeChannelRepo) SaveBatch(ctx context.Context, entities []*models.Channel) error {
	return nil
}
func (f *fakeChannelRepo) ByNaturalKey(ctx context.Context, workspaceID uint, platform models.Platform, externalID string) (*models.Channel, error) {
	for _, ch := range f.channels {
		if ch.WorkspaceID == workspaceID && ch.Platform == platform && ch.ExternalID == externalID {
			return ch, nil
		}
	}
	return nil, nil
}
func (f *fakeChannelRepo) Upsert(ctx context.Context, channel *models.Channel) error {
	if existing, _ := f.ByNaturalKey(ctx, channel.WorkspaceID, channel.Platform, channel.ExternalID); existing != nil {
		existing.Name = channel.Name
		*channel = *existing
		return nil
	}
	f.nextID++
	channel.ID = f.nextID
	f.channels = append(f.channels, channel)
	return nil
}

type fakeContentRepo struct {
	nextID uint
	items  []*models.ContentItem
}

func (f *fakeContentRepo) ByID(ctx context.Context, id uint) (*models.ContentItem, error) {
	return nil, nil
}
func (f *fakeContentRepo) Save(ctx context.Context, entity *models.ContentItem) error { return nil }
func (f *fakeContentRepo) SaveBatch(ctx context.Context, entities []*models.ContentItem) error {
	return nil
}
func (f *fakeContentRepo) ByNaturalKey(ctx context.Context, channelID uint, platform models.Platform, externalID string) (*models.ContentItem, error) {
	for _, item := range f.items {
		if item.ChannelID == channelID && item.Platform == platform && item.ExternalID == externalID {
			return item, nil
		}
	}
	return nil, nil
}
func (f *fakeContentRepo) Upsert(ctx context.Context, item *models.ContentItem) error {
	if existing, _ := f.ByNaturalKey(ctx, item.ChannelID, item.Platform, item.ExternalID); existing != nil {
		existing.Title = item.Title
		existing.Metrics = item.Metrics
		*item = *existing
		return nil
	}
	f.nextID++
	item.ID = f.nextID
	f.items = append(f.items, item)
	return nil
}

type fakeCommentRepo struct {
	comments []*models.Comment
}

func (f *fakeCommentRepo) ByID(ctx context.Context, id uint) (*models.Comment, error) {
	return nil, nil
}
func (f *fakeCommentRepo) Save(ctx context.Context, entity *models.Comment) error { return nil }
func (f *fakeCommentRepo) SaveBatch(ctx context.Context, entities []*models.Comment) error {
	return nil
}
func (f *fakeCommentRepo) Upsert(ctx context.Context, comment *models.Comment) error {
	f.comments = append(f.comments, comment)
	return nil
}
func (f *fakeCommentRepo) ListByContentItem(ctx context.Context, contentItemID uint, limit, offset int) ([]*models.Comment, error) {
	return f.comments, nil
}

type fakeCampaignRepo struct {
	campaigns map[uuid.UUID]*models.Campaign
}

func (f *fakeCampaignRepo) ByID(ctx context.Context, id uint) (*models.Campaign, error) {
	return nil, nil
}
func (f *fakeCampaignRepo) Save(ctx context.Context, entity *models.Campaign) error { return nil }
func (f *fakeCampaignRepo) SaveBatch(ctx context.Context, entities []*models.Campaign) error {
	return nil
}
func (f *fakeCampaignRepo) ByUUID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return f.campaigns[id], nil
}
func (f *fakeCampaignRepo) ListByWorkspace(ctx context.Context, workspaceID uint, limit, offset int) ([]*models.Campaign, error) {
	return nil, nil
}

type fakeJobRunRepo struct {
	nextID uint
	runs   []*models.JobRun
}

func (f *fakeJobRunRepo) ByID(ctx context.Context, id uint) (*models.JobRun, error) {
	return nil, nil
}
func (f *fakeJobRunRepo) Save(ctx context.Context, run *models.JobRun) error {
	f.nextID++
	run.ID = f.nextID
	if run.UUID == uuid.Nil {
		run.UUID = uuid.New()
	}
	run.CreatedAt = utils.UTCNow()
	f.runs = append(f.runs, run)
	return nil
}
func (f *fakeJobRunRepo) SaveBatch(ctx context.Context, runs []*models.JobRun) error { return nil }
func (f *fakeJobRunRepo) ByUUID(ctx context.Context, id uuid.UUID) (*models.JobRun, error) {
	for _, run := range f.runs {
		if run.UUID == id {
			return run, nil
		}
	}
	return nil, nil
}
func (f *fakeJobRunRepo) TransitionTo(ctx context.Context, run *models.JobRun, status models.JobRunStatus) error {
	if !run.CanTransitionTo(status) {
		return assertableTransitionError{from: run.Status, to: status}
	}
	run.Status = status
	return nil
}
func (f *fakeJobRunRepo) ListByTypeAndStatus(ctx context.Context, jobType string, status *models.JobRunStatus, limit, offset int) ([]*models.JobRun, error) {
	return f.runs, nil
}
func (f *fakeJobRunRepo) SweepStaleRunning(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

type assertableTransitionError struct {
	from, to models.JobRunStatus
}

func (e assertableTransitionError) Error() string {
	return "invalid transition " + e.from.String() + " -> " + e.to.String()
}

type fakeRollupFlow struct {
	calls []rollupCall
}

type rollupCall struct {
	campaignID uint
	platform   models.Platform
	ref        time.Time
}

func (f *fakeRollupFlow) RebuildROIViews(ctx context.Context, campaignID uint, platform models.Platform, ref time.Time) error {
	f.calls = append(f.calls, rollupCall{campaignID: campaignID, platform: platform, ref: ref})
	return nil
}
func (f *fakeRollupFlow) RebuildROIView(ctx context.Context, campaignID uint, period models.RollupPeriod, platform models.Platform, ref time.Time) (*models.ROIView, error) {
	return nil, nil
}

type fakeFetcher struct {
	platform models.Platform
	records  []RawRecord
	err      error
	lastReq  *FetchRequest
}

func (f *fakeFetcher) Platform() models.Platform { return f.platform }
func (f *fakeFetcher) FetchBatch(ctx context.Context, req *FetchRequest) ([]RawRecord, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type fakeEnqueuer struct {
	enqueued []string
	err      error
}

func (f *fakeEnqueuer) EnqueueIngest(ctx context.Context, run *models.JobRun, platform models.Platform) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, IngestJobType(platform))
	return nil
}

// --- test harness ----------------------------------------------------------

type ingestHarness struct {
	flow        IngestFlow
	workspace   *models.Workspace
	campaign    *models.Campaign
	connRepo    *fakeConnRepo
	channelRepo *fakeChannelRepo
	contentRepo *fakeContentRepo
	commentRepo *fakeCommentRepo
	jobRunRepo  *fakeJobRunRepo
	auditRepo   *fakeAuditRepo
	rollup      *fakeRollupFlow
	fetcher     *fakeFetcher
	enqueuer    *fakeEnqueuer
	cipher      *utils.CredentialCipher
}

func newIngestHarness(t *testing.T, platform models.Platform) *ingestHarness {
	t.Helper()

	cipher, err := utils.NewCredentialCipher("test-encryption-secret-32-chars!")
	require.NoError(t, err)

	workspace := &models.Workspace{ID: 1, UUID: uuid.New(), Name: "Acme"}
	campaign := &models.Campaign{ID: 9, UUID: uuid.New(), WorkspaceID: 1, Name: "Spring Launch"}

	encrypted, err := cipher.Encrypt(`{"access_token":"tok"}`)
	require.NoError(t, err)

	h := &ingestHarness{
		workspace:   workspace,
		campaign:    campaign,
		connRepo:    &fakeConnRepo{conns: map[models.Platform]*models.AccountConnection{}},
		channelRepo: &fakeChannelRepo{},
		contentRepo: &fakeContentRepo{},
		commentRepo: &fakeCommentRepo{},
		jobRunRepo:  &fakeJobRunRepo{},
		auditRepo:   &fakeAuditRepo{},
		rollup:      &fakeRollupFlow{},
		fetcher:     &fakeFetcher{platform: platform},
		enqueuer:    &fakeEnqueuer{},
		cipher:      cipher,
	}
	h.connRepo.conns[platform] = &models.AccountConnection{
		ID:          1,
		WorkspaceID: 1,
		Platform:    platform,
		Credentials: encrypted,
		Status:      models.ConnectionStatusActive,
	}

	h.flow = NewIngestFlow(
		&fakeWorkspaceRepo{workspaces: map[uuid.UUID]*models.Workspace{workspace.UUID: workspace}},
		h.connRepo,
		h.channelRepo,
		h.contentRepo,
		h.commentRepo,
		&fakeCampaignRepo{campaigns: map[uuid.UUID]*models.Campaign{campaign.UUID: campaign}},
		&fakeSpendRepo{totals: nil},
		h.jobRunRepo,
		h.auditRepo,
		h.rollup,
		NewFetcherRegistry(h.fetcher),
		cipher,
		h.enqueuer,
	)
	return h
}

func channelRecord(externalID, name string) RawRecord {
	return RawRecord{
		Kind:       RecordKindChannel,
		NaturalKey: externalID,
		Fields:     json.RawMessage(`{"name":"` + name + `"}`),
	}
}

// --- TriggerIngest ---------------------------------------------------------

func TestTriggerIngest(t *testing.T) {
	t.Run("creates a pending run and enqueues it", func(t *testing.T) {
		h := newIngestHarness(t, models.PlatformYouTube)

		run, err := h.flow.TriggerIngest(context.Background(), &TriggerIngestRequest{
			WorkspaceUUID: h.workspace.UUID,
			Platform:      models.PlatformYouTube,
		}, NewActorContext("user-1", 1))

		require.NoError(t, err)
		assert.Equal(t, "ingest:youtube", run.Type)
		assert.Equal(t, models.JobRunStatusPending, run.Status)
		assert.Equal(t, []string{"ingest:youtube"}, h.enqueuer.enqueued)

		var payload IngestJobPayload
		require.NoError(t, json.Unmarshal(run.Payload, &payload))
		assert.Equal(t, uint(1), payload.WorkspaceID)
		assert.Equal(t, models.PlatformYouTube, payload.Platform)
		// Default window is the trailing 7 days
		assert.InDelta(t, 7*24, payload.To.Sub(payload.From).Hours(), 0.01)
	})

	t.Run("honors an explicit window", func(t *testing.T) {
		h := newIngestHarness(t, models.PlatformYouTube)
		from := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)

		run, err := h.flow.TriggerIngest(context.Background(), &TriggerIngestRequest{
			WorkspaceUUID: h.workspace.UUID,
			Platform:      models.PlatformYouTube,
			From:          &from,
			To:            &to,
		}, nil)

		require.NoError(t, err)
		var payload IngestJobPayload
		require.NoError(t, json.Unmarshal(run.Payload, &payload))
		assert.True(t, payload.From.Equal(from))
		assert.True(t, payload.To.Equal(to))
	})

	t.Run("resolves the campaign scope", func(t *testing.T) {
		h := newIngestHarness(t, models.PlatformGoogleAds)

		run, err := h.flow.TriggerIngest(context.Background(), &TriggerIngestRequest{
			WorkspaceUUID: h.workspace.UUID,
			Platform:      models.PlatformGoogleAds,
			CampaignUUID:  &h.campaign.UUID,
		}, nil)

		require.NoError(t, err)
		var payload IngestJobPayload
		require.NoError(t, json.Unmarshal(run.Payload, &payload))
		assert.Equal(t, h.campaign.ID, payload.CampaignID)
	})

	t.Run("rejects unknown platforms", func(t *testing.T) {
		h := newIngestHarness(t, models.PlatformYouTube)

		_, err := h.flow.TriggerIngest(context.Background(), &TriggerIngestRequest{
			WorkspaceUUID: h.workspace.UUID,
			Platform:      models.Platform("TIKTOK"),
		}, nil)

		assert.True(t, IsUnsupportedPlatform(err))
	})

	t.Run("rejects unknown workspaces", func(t *testing.T) {
		h := newIngestHarness(t, models.PlatformYouTube)

		_, err := h.flow.TriggerIngest(context.Background(), &TriggerIngestRequest{
			WorkspaceUUID: uuid.New(),
			Platform:      models.PlatformYouTube,
		}, nil)

		assert.True(t, IsWorkspaceNotFound(err))
	})

	t.Run("requires a connection", func(t *testing.T) {
		h := newIngestHarness(t, models.PlatformYouTube)
		delete(h.connRepo.conns, models.PlatformYouTube)

		_, err := h.flow.TriggerIngest(context.Background(), &TriggerIngestRequest{
			WorkspaceUUID: h.workspace.UUID,
			Platform:      models.PlatformYouTube,
		}, nil)

		assert.True(t, IsConnectionNotFound(err))
	})

	t.Run("rejects revoked connections", func(t *testing.T) {
		h := newIngestHarness(t, models.PlatformYouTube)
		h.connRepo.conns[models.PlatformYouTube].Status = models.ConnectionStatusRevoked

		_, err := h.flow.TriggerIngest(context.Background(), &TriggerIngestRequest{
			WorkspaceUUID: h.workspace.UUID,
			Platform:      models.PlatformYouTube,
		}, nil)

		assert.True(t, IsConnectionRevoked(err))
	})
}

// --- ExecuteIngestJob ------------------------------------------------------

func triggerRun(t *testing.T, h *ingestHarness, platform models.Platform, campaignUUID *uuid.UUID) *models.JobRun {
	t.Helper()
	run, err := h.flow.TriggerIngest(context.Background(), &TriggerIngestRequest{
		WorkspaceUUID: h.workspace.UUID,
		Platform:      platform,
		CampaignUUID:  campaignUUID,
	}, nil)
	require.NoError(t, err)
	return run
}

func TestExecuteIngestJob(t *testing.T) {
	t.Run("stores the batch and completes the run", func(t *testing.T) {
		h := newIngestHarness(t, models.PlatformYouTube)
		publishedAt := utils.UTCNow().Format(time.RFC3339)
		h.fetcher.records = []RawRecord{
			channelRecord("chan-1", "Brand Channel"),
			{
				Kind:       RecordKindContentItem,
				NaturalKey: "video-1",
				Fields:     json.RawMessage(`{"channel_external_id":"chan-1","title":"Teaser","published_at":"` + publishedAt + `","metrics":{"views":100,"likes":5}}`),
			},
			{
				Kind:       RecordKindComment,
				NaturalKey: "comment-1",
				Fields:     json.RawMessage(`{"channel_external_id":"chan-1","content_external_id":"video-1","author":"bob","text":"nice","like_count":2,"sentiment":"positive"}`),
			},
		}
		run := triggerRun(t, h, models.PlatformYouTube, nil)

		summary, err := h.flow.ExecuteIngestJob(context.Background(), run.UUID)

		require.NoError(t, err)
		assert.Equal(t, 3, summary.RecordsWritten)
		assert.Zero(t, summary.RecordsFailed)
		assert.Equal(t, models.JobRunStatusCompleted, run.Status)

		require.Len(t, h.channelRepo.channels, 1)
		require.Len(t, h.contentRepo.items, 1)
		require.Len(t, h.commentRepo.comments, 1)
		assert.Equal(t, h.channelRepo.channels[0].ID, h.contentRepo.items[0].ChannelID)
		assert.Equal(t, h.contentRepo.items[0].ID, h.commentRepo.comments[0].ContentItemID)
		assert.Equal(t, models.SentimentPositive, h.commentRepo.comments[0].Sentiment)
	})

	t.Run("tolerates partial failures", func(t *testing.T) {
		h := newIngestHarness(t, models.PlatformYouTube)
		h.fetcher.records = []RawRecord{
			channelRecord("chan-1", "Brand Channel"),
			{
				Kind:       RecordKindContentItem,
				NaturalKey: "video-1",
				Fields:     json.RawMessage(`{"channel_external_id":"missing-chan","title":"Orphan"}`),
			},
		}
		run := triggerRun(t, h, models.PlatformYouTube, nil)

		summary, err := h.flow.ExecuteIngestJob(context.Background(), run.UUID)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.RecordsWritten)
		assert.Equal(t, 1, summary.RecordsFailed)
		assert.Contains(t, summary.Error, "missing-chan")
		assert.Equal(t, models.JobRunStatusCompleted, run.Status)
	})

	t.Run("fails the run when every record fails", func(t *testing.T) {
		h := newIngestHarness(t, models.PlatformYouTube)
		h.fetcher.records = []RawRecord{
			{Kind: RecordKind("unknown"), NaturalKey: "x", Fields: json.RawMessage(`{}`)},
		}
		run := triggerRun(t, h, models.PlatformYouTube, nil)

		_, err := h.flow.ExecuteIngestJob(context.Background(), run.UUID)

		require.Error(t, err)
		assert.Equal(t, models.JobRunStatusFailed, run.Status)
	})

	t.Run("empty batch completes", func(t *testing.T) {
		h := newIngestHarness(t, models.PlatformYouTube)
		run := triggerRun(t, h, models.PlatformYouTube, nil)

		summary, err := h.flow.ExecuteIngestJob(context.Background(), run.UUID)

		require.NoError(t, err)
		assert.Zero(t, summary.RecordsWritten)
		assert.Equal(t, models.JobRunStatusCompleted, run.Status)
	})

	t.Run("propagates retryable fetch errors and fails the run", func(t *testing.T) {
		h := newIngestHarness(t, models.PlatformYouTube)
		h.fetcher.err = NewRetryableFetchError("YOUTUBE", assertableTransitionError{})
		run := triggerRun(t, h, models.PlatformYouTube, nil)

		_, err := h.flow.ExecuteIngestJob(context.Background(), run.UUID)

		require.Error(t, err)
		assert.True(t, IsRetryableFetchError(err))
		assert.Equal(t, models.JobRunStatusFailed, run.Status)
	})

	t.Run("revoked connection fails terminally", func(t *testing.T) {
		h := newIngestHarness(t, models.PlatformYouTube)
		run := triggerRun(t, h, models.PlatformYouTube, nil)
		h.connRepo.conns[models.PlatformYouTube].Status = models.ConnectionStatusRevoked

		_, err := h.flow.ExecuteIngestJob(context.Background(), run.UUID)

		require.Error(t, err)
		assert.False(t, IsRetryableFetchError(err))
		assert.Equal(t, models.JobRunStatusFailed, run.Status)
	})

	t.Run("terminal run opens a fresh row instead of reviving it", func(t *testing.T) {
		h := newIngestHarness(t, models.PlatformYouTube)
		run := triggerRun(t, h, models.PlatformYouTube, nil)

		_, err := h.flow.ExecuteIngestJob(context.Background(), run.UUID)
		require.NoError(t, err)
		require.Equal(t, models.JobRunStatusCompleted, run.Status)

		// A queue retry re-executes the same UUID after the row went terminal
		_, err = h.flow.ExecuteIngestJob(context.Background(), run.UUID)
		require.NoError(t, err)

		require.Len(t, h.jobRunRepo.runs, 2)
		assert.Equal(t, models.JobRunStatusCompleted, run.Status)
		assert.Equal(t, models.JobRunStatusCompleted, h.jobRunRepo.runs[1].Status)
		assert.NotEqual(t, run.UUID, h.jobRunRepo.runs[1].UUID)
		assert.Equal(t, run.Payload, h.jobRunRepo.runs[1].Payload)
	})

	t.Run("spend records trigger a rollup rebuild", func(t *testing.T) {
		h := newIngestHarness(t, models.PlatformGoogleAds)
		h.fetcher.records = []RawRecord{
			{
				Kind:       RecordKindSpend,
				NaturalKey: "acct:2025-08-12",
				Fields:     json.RawMessage(`{"date":"2025-08-12","spend":100,"impressions":1000,"clicks":50,"conversions":5,"revenue":400}`),
			},
			{
				Kind:       RecordKindSpend,
				NaturalKey: "acct:2025-08-13",
				Fields:     json.RawMessage(`{"date":"2025-08-13","spend":50,"impressions":500,"clicks":20,"conversions":2,"revenue":100}`),
			},
		}
		run := triggerRun(t, h, models.PlatformGoogleAds, &h.campaign.UUID)

		summary, err := h.flow.ExecuteIngestJob(context.Background(), run.UUID)

		require.NoError(t, err)
		assert.Equal(t, 2, summary.RecordsWritten)
		require.Len(t, h.rollup.calls, 1)
		call := h.rollup.calls[0]
		assert.Equal(t, h.campaign.ID, call.campaignID)
		assert.Equal(t, models.PlatformGoogleAds, call.platform)
		// The rebuild anchors on the latest touched fact date
		assert.Equal(t, time.Date(2025, 8, 13, 0, 0, 0, 0, time.UTC), call.ref)
	})

	t.Run("spend without campaign scope is counted as failed", func(t *testing.T) {
		h := newIngestHarness(t, models.PlatformGoogleAds)
		h.fetcher.records = []RawRecord{
			{
				Kind:       RecordKindSpend,
				NaturalKey: "acct:2025-08-12",
				Fields:     json.RawMessage(`{"date":"2025-08-12","spend":100}`),
			},
		}
		run := triggerRun(t, h, models.PlatformGoogleAds, nil)

		_, err := h.flow.ExecuteIngestJob(context.Background(), run.UUID)

		require.Error(t, err)
		assert.Equal(t, models.JobRunStatusFailed, run.Status)
		assert.Empty(t, h.rollup.calls)
	})

	t.Run("unknown run UUID", func(t *testing.T) {
		h := newIngestHarness(t, models.PlatformYouTube)

		_, err := h.flow.ExecuteIngestJob(context.Background(), uuid.New())

		assert.True(t, IsJobRunNotFound(err))
	})

	t.Run("comment text is sanitized before storage", func(t *testing.T) {
		h := newIngestHarness(t, models.PlatformYouTube)
		h.fetcher.records = []RawRecord{
			channelRecord("chan-1", "Brand Channel"),
			{
				Kind:       RecordKindContentItem,
				NaturalKey: "video-1",
				Fields:     json.RawMessage(`{"channel_external_id":"chan-1","title":"Teaser"}`),
			},
			{
				Kind:       RecordKindComment,
				NaturalKey: "comment-1",
				Fields:     json.RawMessage(`{"channel_external_id":"chan-1","content_external_id":"video-1","author":"mallory","text":"hey <script>steal()</script> there"}`),
			},
		}
		run := triggerRun(t, h, models.PlatformYouTube, nil)

		_, err := h.flow.ExecuteIngestJob(context.Background(), run.UUID)

		require.NoError(t, err)
		require.Len(t, h.commentRepo.comments, 1)
		assert.Equal(t, "hey  there", h.commentRepo.comments[0].Text)
		// Unlabeled sentiment defaults to neutral
		assert.Equal(t, models.SentimentNeutral, h.commentRepo.comments[0].Sentiment)
	})
}
