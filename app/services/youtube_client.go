package services

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	businessflow "github.com/arclabs/arc/business_flow"
	"github.com/arclabs/arc/models"
)

// YouTubeClient fetches channels, videos and comment threads through the
// YouTube Data API v3.
type YouTubeClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration

	// MaxCommentPages bounds comment thread paging per video
	MaxCommentPages int
}

// NewYouTubeClient creates a new YouTube Data API client
func NewYouTubeClient(baseURL string, timeout time.Duration) *YouTubeClient {
	if baseURL == "" {
		baseURL = "https://www.googleapis.com/youtube/v3"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YouTubeClient{
		BaseURL:         strings.TrimRight(baseURL, "/"),
		HTTPClient:      &http.Client{Timeout: timeout},
		Timeout:         timeout,
		MaxCommentPages: 3,
	}
}

func (c *YouTubeClient) Platform() models.Platform { return models.PlatformYouTube }

type ytChannelList struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	} `json:"items"`
}

type ytSearchList struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type ytVideoList struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			ChannelID   string    `json:"channelId"`
			Title       string    `json:"title"`
			PublishedAt time.Time `json:"publishedAt"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

type ytCommentThreadList struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			VideoID         string `json:"videoId"`
			TopLevelComment struct {
				ID      string `json:"id"`
				Snippet struct {
					AuthorDisplayName string    `json:"authorDisplayName"`
					TextDisplay       string    `json:"textDisplay"`
					LikeCount         int64     `json:"likeCount"`
					PublishedAt       time.Time `json:"publishedAt"`
				} `json:"snippet"`
			} `json:"topLevelComment"`
		} `json:"snippet"`
	} `json:"items"`
}

// FetchBatch pulls the connected channel, its videos inside the window and
// their comment threads. Records come back ordered channel first so the
// downstream upserts can resolve foreign keys in one pass.
func (c *YouTubeClient) FetchBatch(ctx context.Context, req *businessflow.FetchRequest) ([]businessflow.RawRecord, error) {
	platform := c.Platform().String()
	creds, err := parseCredentials(platform, req.Credentials)
	if err != nil {
		return nil, err
	}

	var channels ytChannelList
	params := url.Values{"part": {"snippet"}, "mine": {"true"}}
	if err := getJSON(ctx, c.HTTPClient, platform, withQuery(c.BaseURL+"/channels", params), creds.AccessToken, &channels); err != nil {
		return nil, err
	}

	var records []businessflow.RawRecord
	var channelIDs []string
	for _, ch := range channels.Items {
		channelIDs = append(channelIDs, ch.ID)
		records = append(records, businessflow.RawRecord{
			Kind:       businessflow.RecordKindChannel,
			NaturalKey: ch.ID,
			Fields:     mustMarshal(map[string]string{"name": ch.Snippet.Title}),
		})
	}

	for _, channelID := range channelIDs {
		videoIDs, err := c.searchVideoIDs(ctx, creds.AccessToken, channelID, req.From, req.To)
		if err != nil {
			return nil, err
		}
		if len(videoIDs) == 0 {
			continue
		}

		videoRecords, err := c.fetchVideos(ctx, creds.AccessToken, videoIDs)
		if err != nil {
			return nil, err
		}
		records = append(records, videoRecords...)

		for _, videoID := range videoIDs {
			commentRecords, err := c.fetchCommentThreads(ctx, creds.AccessToken, channelID, videoID)
			if err != nil {
				return nil, err
			}
			records = append(records, commentRecords...)
		}
	}

	return records, nil
}

func (c *YouTubeClient) searchVideoIDs(ctx context.Context, token, channelID string, from, to time.Time) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		params := url.Values{
			"part":            {"id"},
			"type":            {"video"},
			"channelId":       {channelID},
			"publishedAfter":  {from.Format(time.RFC3339)},
			"publishedBefore": {to.Format(time.RFC3339)},
			"maxResults":      {"50"},
			"order":           {"date"},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page ytSearchList
		if err := getJSON(ctx, c.HTTPClient, c.Platform().String(), withQuery(c.BaseURL+"/search", params), token, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if item.ID.VideoID != "" {
				ids = append(ids, item.ID.VideoID)
			}
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}
	return ids, nil
}

func (c *YouTubeClient) fetchVideos(ctx context.Context, token string, videoIDs []string) ([]businessflow.RawRecord, error) {
	params := url.Values{
		"part": {"snippet,statistics"},
		"id":   {strings.Join(videoIDs, ",")},
	}

	var videos ytVideoList
	if err := getJSON(ctx, c.HTTPClient, c.Platform().String(), withQuery(c.BaseURL+"/videos", params), token, &videos); err != nil {
		return nil, err
	}

	records := make([]businessflow.RawRecord, 0, len(videos.Items))
	for _, v := range videos.Items {
		publishedAt := v.Snippet.PublishedAt
		fields := map[string]any{
			"channel_external_id": v.Snippet.ChannelID,
			"title":               v.Snippet.Title,
			"published_at":        publishedAt,
			"metrics": models.MetricsSnapshot{
				SchemaVersion: models.MetricsSnapshotVersion,
				Views:         parseCount(v.Statistics.ViewCount),
				Likes:         parseCount(v.Statistics.LikeCount),
				Comments:      parseCount(v.Statistics.CommentCount),
			},
		}
		records = append(records, businessflow.RawRecord{
			Kind:       businessflow.RecordKindContentItem,
			NaturalKey: v.ID,
			Fields:     mustMarshal(fields),
		})
	}
	return records, nil
}

func (c *YouTubeClient) fetchCommentThreads(ctx context.Context, token, channelID, videoID string) ([]businessflow.RawRecord, error) {
	var records []businessflow.RawRecord
	pageToken := ""
	for page := 0; page < c.MaxCommentPages; page++ {
		params := url.Values{
			"part":       {"snippet"},
			"videoId":    {videoID},
			"maxResults": {"100"},
			"order":      {"time"},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var threads ytCommentThreadList
		if err := getJSON(ctx, c.HTTPClient, c.Platform().String(), withQuery(c.BaseURL+"/commentThreads", params), token, &threads); err != nil {
			return nil, err
		}
		for _, t := range threads.Items {
			top := t.Snippet.TopLevelComment
			publishedAt := top.Snippet.PublishedAt
			fields := map[string]any{
				"channel_external_id": channelID,
				"content_external_id": t.Snippet.VideoID,
				"author":              top.Snippet.AuthorDisplayName,
				"text":                top.Snippet.TextDisplay,
				"like_count":          top.Snippet.LikeCount,
				"published_at":        publishedAt,
			}
			records = append(records, businessflow.RawRecord{
				Kind:       businessflow.RecordKindComment,
				NaturalKey: top.ID,
				Fields:     mustMarshal(fields),
			})
		}
		if threads.NextPageToken == "" {
			break
		}
		pageToken = threads.NextPageToken
	}
	return records, nil
}

// YouTube statistics come back as decimal strings
func parseCount(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
