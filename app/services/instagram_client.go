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

// InstagramClient fetches the connected account, its media and their
// comments through the Instagram Graph API.
type InstagramClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewInstagramClient creates a new Instagram Graph API client
func NewInstagramClient(baseURL string, timeout time.Duration) *InstagramClient {
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v19.0"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &InstagramClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Timeout:    timeout,
	}
}

func (c *InstagramClient) Platform() models.Platform { return models.PlatformInstagram }

type igAccount struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type igPaging struct {
	Next string `json:"next"`
}

type igMediaList struct {
	Data []struct {
		ID            string    `json:"id"`
		Caption       string    `json:"caption"`
		Timestamp     time.Time `json:"timestamp"`
		LikeCount     int64     `json:"like_count"`
		CommentsCount int64     `json:"comments_count"`
	} `json:"data"`
	Paging igPaging `json:"paging"`
}

type igCommentList struct {
	Data []struct {
		ID        string    `json:"id"`
		Username  string    `json:"username"`
		Text      string    `json:"text"`
		LikeCount int64     `json:"like_count"`
		Timestamp time.Time `json:"timestamp"`
	} `json:"data"`
	Paging igPaging `json:"paging"`
}

// FetchBatch pulls the connected account as a channel record, then its
// media and comments inside the window. The Graph API filters media by
// unix timestamps.
func (c *InstagramClient) FetchBatch(ctx context.Context, req *businessflow.FetchRequest) ([]businessflow.RawRecord, error) {
	platform := c.Platform().String()
	creds, err := parseCredentials(platform, req.Credentials)
	if err != nil {
		return nil, err
	}

	var account igAccount
	params := url.Values{"fields": {"id,username"}}
	if err := getJSON(ctx, c.HTTPClient, platform, withQuery(c.BaseURL+"/me", params), creds.AccessToken, &account); err != nil {
		return nil, err
	}

	records := []businessflow.RawRecord{{
		Kind:       businessflow.RecordKindChannel,
		NaturalKey: account.ID,
		Fields:     mustMarshal(map[string]string{"name": account.Username}),
	}}

	mediaURL := withQuery(c.BaseURL+"/"+account.ID+"/media", url.Values{
		"fields": {"id,caption,timestamp,like_count,comments_count"},
		"since":  {formatUnix(req.From)},
		"until":  {formatUnix(req.To)},
		"limit":  {"50"},
	})
	for mediaURL != "" {
		var page igMediaList
		if err := getJSON(ctx, c.HTTPClient, platform, mediaURL, creds.AccessToken, &page); err != nil {
			return nil, err
		}

		for _, media := range page.Data {
			timestamp := media.Timestamp
			records = append(records, businessflow.RawRecord{
				Kind:       businessflow.RecordKindContentItem,
				NaturalKey: media.ID,
				Fields: mustMarshal(map[string]any{
					"channel_external_id": account.ID,
					"title":               media.Caption,
					"published_at":        timestamp,
					"metrics": models.MetricsSnapshot{
						SchemaVersion: models.MetricsSnapshotVersion,
						Likes:         media.LikeCount,
						Comments:      media.CommentsCount,
					},
				}),
			})

			commentRecords, err := c.fetchComments(ctx, creds.AccessToken, account.ID, media.ID)
			if err != nil {
				return nil, err
			}
			records = append(records, commentRecords...)
		}

		mediaURL = page.Paging.Next
	}

	return records, nil
}

func (c *InstagramClient) fetchComments(ctx context.Context, token, accountID, mediaID string) ([]businessflow.RawRecord, error) {
	var records []businessflow.RawRecord

	commentsURL := withQuery(c.BaseURL+"/"+mediaID+"/comments", url.Values{
		"fields": {"id,username,text,like_count,timestamp"},
		"limit":  {"100"},
	})
	for commentsURL != "" {
		var page igCommentList
		if err := getJSON(ctx, c.HTTPClient, c.Platform().String(), commentsURL, token, &page); err != nil {
			return nil, err
		}

		for _, comment := range page.Data {
			timestamp := comment.Timestamp
			records = append(records, businessflow.RawRecord{
				Kind:       businessflow.RecordKindComment,
				NaturalKey: comment.ID,
				Fields: mustMarshal(map[string]any{
					"channel_external_id": accountID,
					"content_external_id": mediaID,
					"author":              comment.Username,
					"text":                comment.Text,
					"like_count":          comment.LikeCount,
					"published_at":        timestamp,
				}),
			})
		}

		commentsURL = page.Paging.Next
	}

	return records, nil
}

func formatUnix(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
