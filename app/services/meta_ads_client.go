package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	businessflow "github.com/arclabs/arc/business_flow"
	"github.com/arclabs/arc/models"
)

// MetaAdsClient fetches daily ad account insights through the Meta
// Marketing API.
type MetaAdsClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewMetaAdsClient creates a new Meta Marketing API client
func NewMetaAdsClient(baseURL string, timeout time.Duration) *MetaAdsClient {
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v19.0"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MetaAdsClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Timeout:    timeout,
	}
}

func (c *MetaAdsClient) Platform() models.Platform { return models.PlatformMetaAds }

type metaAction struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

type metaInsightsList struct {
	Data []struct {
		DateStart    string       `json:"date_start"`
		Spend        string       `json:"spend"`
		Impressions  string       `json:"impressions"`
		Clicks       string       `json:"clicks"`
		Actions      []metaAction `json:"actions"`
		ActionValues []metaAction `json:"action_values"`
	} `json:"data"`
	Paging igPaging `json:"paging"`
}

// FetchBatch pulls one spend record per day in the window. Conversions
// and revenue come from the purchase action breakdown.
func (c *MetaAdsClient) FetchBatch(ctx context.Context, req *businessflow.FetchRequest) ([]businessflow.RawRecord, error) {
	platform := c.Platform().String()
	creds, err := parseCredentials(platform, req.Credentials)
	if err != nil {
		return nil, err
	}
	if creds.AccountID == "" {
		return nil, businessflow.NewTerminalFetchError(platform, fmt.Errorf("credentials missing account_id"))
	}

	timeRange := fmt.Sprintf(`{"since":"%s","until":"%s"}`,
		req.From.Format(time.DateOnly), req.To.Format(time.DateOnly))
	insightsURL := withQuery(c.BaseURL+"/act_"+creds.AccountID+"/insights", url.Values{
		"fields":         {"spend,impressions,clicks,actions,action_values"},
		"time_range":     {timeRange},
		"time_increment": {"1"},
		"limit":          {"100"},
	})

	var records []businessflow.RawRecord
	for insightsURL != "" {
		var page metaInsightsList
		if err := getJSON(ctx, c.HTTPClient, platform, insightsURL, creds.AccessToken, &page); err != nil {
			return nil, err
		}

		for _, row := range page.Data {
			spend, _ := strconv.ParseFloat(row.Spend, 64)
			records = append(records, businessflow.RawRecord{
				Kind:       businessflow.RecordKindSpend,
				NaturalKey: creds.AccountID + ":" + row.DateStart,
				Fields: mustMarshal(map[string]any{
					"date":        row.DateStart,
					"spend":       spend,
					"impressions": parseCount(row.Impressions),
					"clicks":      parseCount(row.Clicks),
					"conversions": int64(actionValue(row.Actions, "purchase")),
					"revenue":     actionValue(row.ActionValues, "purchase"),
				}),
			})
		}

		insightsURL = page.Paging.Next
	}

	return records, nil
}

func actionValue(actions []metaAction, actionType string) float64 {
	for _, a := range actions {
		if a.ActionType == actionType {
			v, _ := strconv.ParseFloat(a.Value, 64)
			return v
		}
	}
	return 0
}
