package businessflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/arclabs/arc/models"
)

// RecordKind tells the ingest template which upsert path a raw record takes
type RecordKind string

const (
	RecordKindChannel     RecordKind = "channel"
	RecordKindContentItem RecordKind = "content_item"
	RecordKindComment     RecordKind = "comment"
	RecordKindSpend       RecordKind = "spend"
)

// RawRecord is one externally fetched record before it is mapped onto a
// model. NaturalKey carries the platform-side identifier; Fields carries
// the platform payload as loosely typed JSON.
type RawRecord struct {
	Kind       RecordKind      `json:"kind"`
	NaturalKey string          `json:"natural_key"`
	Fields     json.RawMessage `json:"fields"`
}

// FetchRequest scopes one fetch call to a connection and an optional
// campaign and date window.
type FetchRequest struct {
	WorkspaceID uint
	Platform    models.Platform
	Credentials string
	CampaignID  uint
	From        time.Time
	To          time.Time
}

// BatchFetcher pulls raw records from one external platform API. Errors
// must be FetchError so the worker can tell retryable failures from
// terminal ones.
type BatchFetcher interface {
	Platform() models.Platform
	FetchBatch(ctx context.Context, req *FetchRequest) ([]RawRecord, error)
}

// FetcherRegistry resolves the fetcher for a platform
type FetcherRegistry struct {
	fetchers map[models.Platform]BatchFetcher
}

// NewFetcherRegistry creates a registry from the given fetchers
func NewFetcherRegistry(fetchers ...BatchFetcher) *FetcherRegistry {
	m := make(map[models.Platform]BatchFetcher, len(fetchers))
	for _, f := range fetchers {
		m[f.Platform()] = f
	}
	return &FetcherRegistry{fetchers: m}
}

// For returns the fetcher registered for the platform
func (r *FetcherRegistry) For(platform models.Platform) (BatchFetcher, error) {
	f, ok := r.fetchers[platform]
	if !ok {
		return nil, NewBusinessErrorf("UNSUPPORTED_PLATFORM", "no fetcher registered for platform %s", ErrUnsupportedPlatform, platform)
	}
	return f, nil
}
