package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/arclabs/arc/models"
	"github.com/arclabs/arc/repository"
	"github.com/arclabs/arc/utils"
	"github.com/google/uuid"
)

// JobEnqueuer hands a persisted job run to the queue backend
type JobEnqueuer interface {
	EnqueueIngest(ctx context.Context, run *models.JobRun, platform models.Platform) error
}

// IngestJobType returns the job type label for a platform, e.g. "ingest:youtube"
func IngestJobType(platform models.Platform) string {
	return "ingest:" + strings.ToLower(platform.String())
}

// IngestJobPayload is the work order persisted on the job run and carried
// through the queue.
type IngestJobPayload struct {
	WorkspaceID   uint            `json:"workspace_id" validate:"required"`
	WorkspaceUUID uuid.UUID       `json:"workspace_uuid" validate:"required"`
	Platform      models.Platform `json:"platform" validate:"required"`
	CampaignID    uint            `json:"campaign_id,omitempty"`
	CampaignUUID  *uuid.UUID      `json:"campaign_uuid,omitempty"`
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
}

// TriggerIngestRequest starts one ingestion job for a workspace
type TriggerIngestRequest struct {
	WorkspaceUUID uuid.UUID
	Platform      models.Platform
	CampaignUUID  *uuid.UUID
	From          *time.Time
	To            *time.Time
}

// IngestFlow owns the full lifecycle of ingestion jobs: creating and
// enqueueing them, executing them on a worker, and exposing their runs.
type IngestFlow interface {
	TriggerIngest(ctx context.Context, req *TriggerIngestRequest, actor *ActorContext) (*models.JobRun, error)
	ExecuteIngestJob(ctx context.Context, jobRunUUID uuid.UUID) (*models.JobRunSummary, error)
	GetJobRun(ctx context.Context, id uuid.UUID) (*models.JobRun, error)
	ListJobRuns(ctx context.Context, jobType string, status *models.JobRunStatus, page, pageSize int) ([]*models.JobRun, error)
}

// IngestFlowImpl implements the ingestion business flow
type IngestFlowImpl struct {
	workspaceRepo repository.WorkspaceRepository
	connRepo      repository.AccountConnectionRepository
	channelRepo   repository.ChannelRepository
	contentRepo   repository.ContentItemRepository
	commentRepo   repository.CommentRepository
	campaignRepo  repository.CampaignRepository
	spendRepo     repository.SpendRepository
	jobRunRepo    repository.JobRunRepository
	rollupFlow    RollupFlow
	registry      *FetcherRegistry
	cipher        *utils.CredentialCipher
	enqueuer      JobEnqueuer
	store         StoreFunc
}

// NewIngestFlow creates a new ingest flow instance
func NewIngestFlow(
	workspaceRepo repository.WorkspaceRepository,
	connRepo repository.AccountConnectionRepository,
	channelRepo repository.ChannelRepository,
	contentRepo repository.ContentItemRepository,
	commentRepo repository.CommentRepository,
	campaignRepo repository.CampaignRepository,
	spendRepo repository.SpendRepository,
	jobRunRepo repository.JobRunRepository,
	auditRepo repository.AuditLogRepository,
	rollupFlow RollupFlow,
	registry *FetcherRegistry,
	cipher *utils.CredentialCipher,
	enqueuer JobEnqueuer,
) IngestFlow {
	f := &IngestFlowImpl{
		workspaceRepo: workspaceRepo,
		connRepo:      connRepo,
		channelRepo:   channelRepo,
		contentRepo:   contentRepo,
		commentRepo:   commentRepo,
		campaignRepo:  campaignRepo,
		spendRepo:     spendRepo,
		jobRunRepo:    jobRunRepo,
		rollupFlow:    rollupFlow,
		registry:      registry,
		cipher:        cipher,
		enqueuer:      enqueuer,
	}
	f.store = Chain(f.persistRecord, RequireTenantScope(), SanitizeText(), Audit(auditRepo))
	return f
}

// TriggerIngest validates the request, persists a PENDING job run and hands
// it to the queue. The run row is the durable record; the queue task only
// carries its UUID.
func (s *IngestFlowImpl) TriggerIngest(ctx context.Context, req *TriggerIngestRequest, actor *ActorContext) (*models.JobRun, error) {
	if !req.Platform.Valid() {
		return nil, NewBusinessErrorf("UNSUPPORTED_PLATFORM", "unknown platform %q", ErrUnsupportedPlatform, req.Platform)
	}

	workspace, err := getWorkspace(ctx, s.workspaceRepo, req.WorkspaceUUID)
	if err != nil {
		return nil, NewBusinessError("WORKSPACE_LOOKUP_FAILED", "Failed to lookup workspace", err)
	}

	conn, err := s.connRepo.ByWorkspaceAndPlatform(ctx, workspace.ID, req.Platform)
	if err != nil {
		return nil, NewBusinessError("CONNECTION_LOOKUP_FAILED", "Failed to lookup connection", err)
	}
	if conn == nil {
		return nil, NewBusinessError("CONNECTION_NOT_FOUND", "No connection for platform", ErrConnectionNotFound)
	}
	if !conn.IsActive() {
		return nil, NewBusinessError("CONNECTION_REVOKED", "Connection has been revoked", ErrConnectionRevoked)
	}

	payload := IngestJobPayload{
		WorkspaceID:   workspace.ID,
		WorkspaceUUID: workspace.UUID,
		Platform:      req.Platform,
	}
	if req.CampaignUUID != nil {
		campaign, err := getCampaign(ctx, s.campaignRepo, *req.CampaignUUID, workspace.ID)
		if err != nil {
			return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
		}
		payload.CampaignID = campaign.ID
		payload.CampaignUUID = &campaign.UUID
	}

	// Default window: the trailing 7 days up to now.
	to := utils.UTCNow()
	if req.To != nil {
		to = utils.TimeToUTC(*req.To)
	}
	from := to.AddDate(0, 0, -7)
	if req.From != nil {
		from = utils.TimeToUTC(*req.From)
	}
	payload.From = from
	payload.To = to

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, NewBusinessError("PAYLOAD_MARSHAL_FAILED", "Failed to encode job payload", err)
	}

	run := &models.JobRun{
		Type:        IngestJobType(req.Platform),
		Status:      models.JobRunStatusPending,
		Payload:     raw,
		WorkspaceID: workspace.ID,
	}
	if err := s.jobRunRepo.Save(ctx, run); err != nil {
		return nil, NewBusinessError("JOB_RUN_CREATE_FAILED", "Failed to create job run", err)
	}

	if err := s.enqueuer.EnqueueIngest(ctx, run, req.Platform); err != nil {
		return nil, NewBusinessError("JOB_ENQUEUE_FAILED", "Failed to enqueue ingest job", err)
	}

	return run, nil
}

// ExecuteIngestJob runs one ingestion attempt on a worker. The batch is
// processed with partial tolerance: a malformed record is counted and
// skipped, it does not fail the run. Fetch errors fail the run; the caller
// decides whether the queue retries based on the error's retryability.
func (s *IngestFlowImpl) ExecuteIngestJob(ctx context.Context, jobRunUUID uuid.UUID) (*models.JobRunSummary, error) {
	run, err := s.jobRunRepo.ByUUID(ctx, jobRunUUID)
	if err != nil {
		return nil, NewBusinessError("JOB_RUN_LOOKUP_FAILED", "Failed to lookup job run", err)
	}
	if run == nil {
		return nil, NewBusinessErrorf("JOB_RUN_NOT_FOUND", "job run %s not found", ErrJobRunNotFound, jobRunUUID)
	}

	// A terminal row belongs to a previous attempt. Rows are append-only,
	// so a queue retry opens a fresh one instead of reviving it.
	if run.Status.IsTerminal() {
		retry := &models.JobRun{
			Type:        run.Type,
			Status:      models.JobRunStatusPending,
			Payload:     run.Payload,
			WorkspaceID: run.WorkspaceID,
		}
		if err := s.jobRunRepo.Save(ctx, retry); err != nil {
			return nil, NewBusinessError("JOB_RUN_CREATE_FAILED", "Failed to create retry job run", err)
		}
		run = retry
	}

	var payload IngestJobPayload
	if err := json.Unmarshal(run.Payload, &payload); err != nil {
		return nil, s.failRun(ctx, run, fmt.Errorf("malformed job payload: %w", err))
	}

	if err := s.jobRunRepo.TransitionTo(ctx, run, models.JobRunStatusRunning); err != nil {
		return nil, NewBusinessError("JOB_RUN_TRANSITION_FAILED", "Failed to start job run", err)
	}

	conn, err := s.connRepo.ByWorkspaceAndPlatform(ctx, payload.WorkspaceID, payload.Platform)
	if err != nil {
		return nil, s.failRun(ctx, run, fmt.Errorf("connection lookup: %w", err))
	}
	if conn == nil || !conn.IsActive() {
		return nil, s.failRun(ctx, run, NewTerminalFetchError(payload.Platform.String(), ErrConnectionRevoked))
	}

	credentials, err := s.cipher.Decrypt(conn.Credentials)
	if err != nil {
		return nil, s.failRun(ctx, run, NewTerminalFetchError(payload.Platform.String(), err))
	}

	fetcher, err := s.registry.For(payload.Platform)
	if err != nil {
		return nil, s.failRun(ctx, run, err)
	}

	records, err := fetcher.FetchBatch(ctx, &FetchRequest{
		WorkspaceID: payload.WorkspaceID,
		Platform:    payload.Platform,
		Credentials: credentials,
		CampaignID:  payload.CampaignID,
		From:        payload.From,
		To:          payload.To,
	})
	if err != nil {
		return nil, s.failRun(ctx, run, err)
	}

	summary := s.processBatch(ctx, &payload, records)

	if len(records) > 0 && summary.RecordsWritten == 0 {
		return nil, s.failRun(ctx, run, fmt.Errorf("all %d records in batch failed", summary.RecordsFailed))
	}

	run.Summary = *summary
	if err := s.jobRunRepo.TransitionTo(ctx, run, models.JobRunStatusCompleted); err != nil {
		return nil, NewBusinessError("JOB_RUN_TRANSITION_FAILED", "Failed to complete job run", err)
	}

	return summary, nil
}

// processBatch upserts every record it can and counts the ones it cannot.
// Spend writes remember the latest touched fact date and the rollup rebuild
// anchors on it: a batch that only backfills history rebuilds the buckets
// containing the backfilled days, and the single view row per
// (campaign, period, model) points there until a newer ingest moves the
// anchor forward.
func (s *IngestFlowImpl) processBatch(ctx context.Context, payload *IngestJobPayload, records []RawRecord) *models.JobRunSummary {
	summary := &models.JobRunSummary{}
	var spendTouched bool
	var latestSpendDate time.Time
	var lastErr error

	for _, record := range records {
		date, err := s.processRecord(ctx, payload, &record)
		if err != nil {
			summary.RecordsFailed++
			lastErr = err
			continue
		}
		summary.RecordsWritten++
		if record.Kind == RecordKindSpend {
			spendTouched = true
			if date.After(latestSpendDate) {
				latestSpendDate = date
			}
		}
	}

	if lastErr != nil {
		summary.Error = lastErr.Error()
	}

	if spendTouched && payload.CampaignID != 0 {
		if err := s.rollupFlow.RebuildROIViews(ctx, payload.CampaignID, payload.Platform, latestSpendDate); err != nil {
			summary.Error = err.Error()
		}
	}

	return summary
}

// processRecord maps one raw record onto its model and pushes it through
// the interceptor chain. Returns the fact date for spend records.
func (s *IngestFlowImpl) processRecord(ctx context.Context, payload *IngestJobPayload, record *RawRecord) (time.Time, error) {
	switch record.Kind {
	case RecordKindChannel:
		return time.Time{}, s.storeChannel(ctx, payload, record)
	case RecordKindContentItem:
		return time.Time{}, s.storeContentItem(ctx, payload, record)
	case RecordKindComment:
		return time.Time{}, s.storeComment(ctx, payload, record)
	case RecordKindSpend:
		return s.storeSpend(ctx, payload, record)
	default:
		return time.Time{}, fmt.Errorf("unknown record kind %q", record.Kind)
	}
}

type channelFields struct {
	Name string `json:"name"`
}

func (s *IngestFlowImpl) storeChannel(ctx context.Context, payload *IngestJobPayload, record *RawRecord) error {
	var fields channelFields
	if err := json.Unmarshal(record.Fields, &fields); err != nil {
		return fmt.Errorf("channel %s: %w", record.NaturalKey, err)
	}

	channel := &models.Channel{
		WorkspaceID: payload.WorkspaceID,
		Platform:    payload.Platform,
		ExternalID:  record.NaturalKey,
		Name:        fields.Name,
	}
	return s.store(ctx, &StoreOp{
		Action:      models.AuditActionCreate,
		EntityType:  models.EntityChannel,
		EntityID:    record.NaturalKey,
		WorkspaceID: payload.WorkspaceID,
		Entity:      channel,
	})
}

type contentItemFields struct {
	ChannelExternalID string                 `json:"channel_external_id"`
	Title             string                 `json:"title"`
	PublishedAt       *time.Time             `json:"published_at"`
	Metrics           models.MetricsSnapshot `json:"metrics"`
}

func (s *IngestFlowImpl) storeContentItem(ctx context.Context, payload *IngestJobPayload, record *RawRecord) error {
	var fields contentItemFields
	if err := json.Unmarshal(record.Fields, &fields); err != nil {
		return fmt.Errorf("content item %s: %w", record.NaturalKey, err)
	}

	channel, err := s.channelRepo.ByNaturalKey(ctx, payload.WorkspaceID, payload.Platform, fields.ChannelExternalID)
	if err != nil {
		return err
	}
	if channel == nil {
		return fmt.Errorf("content item %s references unknown channel %s", record.NaturalKey, fields.ChannelExternalID)
	}

	if fields.Metrics.SchemaVersion == 0 {
		fields.Metrics.SchemaVersion = models.MetricsSnapshotVersion
	}
	item := &models.ContentItem{
		ChannelID:   channel.ID,
		WorkspaceID: payload.WorkspaceID,
		Platform:    payload.Platform,
		ExternalID:  record.NaturalKey,
		Title:       fields.Title,
		PublishedAt: fields.PublishedAt,
		Metrics:     fields.Metrics,
	}
	return s.store(ctx, &StoreOp{
		Action:      models.AuditActionCreate,
		EntityType:  models.EntityContentItem,
		EntityID:    record.NaturalKey,
		WorkspaceID: payload.WorkspaceID,
		Entity:      item,
	})
}

type commentFields struct {
	ChannelExternalID string           `json:"channel_external_id"`
	ContentExternalID string           `json:"content_external_id"`
	Author            string           `json:"author"`
	Text              string           `json:"text"`
	LikeCount         int64            `json:"like_count"`
	Sentiment         models.Sentiment `json:"sentiment"`
	TopicTags         []string         `json:"topic_tags"`
	PublishedAt       *time.Time       `json:"published_at"`
}

func (s *IngestFlowImpl) storeComment(ctx context.Context, payload *IngestJobPayload, record *RawRecord) error {
	var fields commentFields
	if err := json.Unmarshal(record.Fields, &fields); err != nil {
		return fmt.Errorf("comment %s: %w", record.NaturalKey, err)
	}

	channel, err := s.channelRepo.ByNaturalKey(ctx, payload.WorkspaceID, payload.Platform, fields.ChannelExternalID)
	if err != nil {
		return err
	}
	if channel == nil {
		return fmt.Errorf("comment %s references unknown channel %s", record.NaturalKey, fields.ChannelExternalID)
	}
	item, err := s.contentRepo.ByNaturalKey(ctx, channel.ID, payload.Platform, fields.ContentExternalID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("comment %s references unknown content item %s", record.NaturalKey, fields.ContentExternalID)
	}

	sentiment := fields.Sentiment
	if !sentiment.Valid() {
		sentiment = models.SentimentNeutral
	}
	comment := &models.Comment{
		ContentItemID: item.ID,
		WorkspaceID:   payload.WorkspaceID,
		Platform:      payload.Platform,
		ExternalID:    record.NaturalKey,
		Author:        fields.Author,
		Text:          fields.Text,
		LikeCount:     fields.LikeCount,
		Sentiment:     sentiment,
		TopicTags:     fields.TopicTags,
		PublishedAt:   fields.PublishedAt,
	}
	return s.store(ctx, &StoreOp{
		Action:      models.AuditActionCreate,
		EntityType:  models.EntityComment,
		EntityID:    record.NaturalKey,
		WorkspaceID: payload.WorkspaceID,
		Entity:      comment,
	})
}

type spendFields struct {
	Date        string  `json:"date"`
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

func (s *IngestFlowImpl) storeSpend(ctx context.Context, payload *IngestJobPayload, record *RawRecord) (time.Time, error) {
	if payload.CampaignID == 0 {
		return time.Time{}, fmt.Errorf("spend record %s without campaign scope", record.NaturalKey)
	}

	var fields spendFields
	if err := json.Unmarshal(record.Fields, &fields); err != nil {
		return time.Time{}, fmt.Errorf("spend %s: %w", record.NaturalKey, err)
	}
	date, err := time.Parse(time.DateOnly, fields.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("spend %s has bad date %q: %w", record.NaturalKey, fields.Date, err)
	}

	spend := &models.Spend{
		CampaignID:  payload.CampaignID,
		Platform:    payload.Platform,
		Date:        date,
		Spend:       Round2(fields.Spend),
		Impressions: fields.Impressions,
		Clicks:      fields.Clicks,
		Conversions: fields.Conversions,
		Revenue:     Round2(fields.Revenue),
	}
	spend.Derived = DeriveSpendMetrics(spend)

	err = s.store(ctx, &StoreOp{
		Action:      models.AuditActionCreate,
		EntityType:  models.EntitySpend,
		EntityID:    record.NaturalKey,
		WorkspaceID: payload.WorkspaceID,
		Entity:      spend,
	})
	if err != nil {
		return time.Time{}, err
	}
	return date, nil
}

// persistRecord is the terminal store behind the interceptor chain
func (s *IngestFlowImpl) persistRecord(ctx context.Context, op *StoreOp) error {
	switch entity := op.Entity.(type) {
	case *models.Channel:
		return s.channelRepo.Upsert(ctx, entity)
	case *models.ContentItem:
		return s.contentRepo.Upsert(ctx, entity)
	case *models.Comment:
		return s.commentRepo.Upsert(ctx, entity)
	case *models.Spend:
		return s.spendRepo.Upsert(ctx, entity)
	default:
		return fmt.Errorf("no store path for entity type %T", op.Entity)
	}
}

// failRun records the failure on the run and passes the original error
// through so the worker can classify it.
func (s *IngestFlowImpl) failRun(ctx context.Context, run *models.JobRun, cause error) error {
	run.Summary = models.JobRunSummary{Error: cause.Error()}
	if run.Status == models.JobRunStatusPending {
		if err := s.jobRunRepo.TransitionTo(ctx, run, models.JobRunStatusRunning); err != nil {
			return cause
		}
	}
	if err := s.jobRunRepo.TransitionTo(ctx, run, models.JobRunStatusFailed); err != nil {
		return cause
	}
	return cause
}

// GetJobRun retrieves one job run by UUID
func (s *IngestFlowImpl) GetJobRun(ctx context.Context, id uuid.UUID) (*models.JobRun, error) {
	run, err := s.jobRunRepo.ByUUID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("JOB_RUN_LOOKUP_FAILED", "Failed to lookup job run", err)
	}
	if run == nil {
		return nil, NewBusinessErrorf("JOB_RUN_NOT_FOUND", "job run %s not found", ErrJobRunNotFound, id)
	}
	return run, nil
}

// ListJobRuns lists job runs filtered by type and status, newest first
func (s *IngestFlowImpl) ListJobRuns(ctx context.Context, jobType string, status *models.JobRunStatus, page, pageSize int) ([]*models.JobRun, error) {
	limit, offset, err := normalizePagination(page, pageSize)
	if err != nil {
		return nil, NewBusinessError("INVALID_PAGINATION", "Invalid pagination parameters", err)
	}

	runs, err := s.jobRunRepo.ListByTypeAndStatus(ctx, jobType, status, limit, offset)
	if err != nil {
		return nil, NewBusinessError("JOB_RUN_LIST_FAILED", "Failed to list job runs", err)
	}
	return runs, nil
}
