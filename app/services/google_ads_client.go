package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	businessflow "github.com/arclabs/arc/business_flow"
	"github.com/arclabs/arc/models"
)

// GoogleAdsClient fetches daily campaign performance through the Google
// Ads API searchStream endpoint.
type GoogleAdsClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewGoogleAdsClient creates a new Google Ads API client
func NewGoogleAdsClient(baseURL string, timeout time.Duration) *GoogleAdsClient {
	if baseURL == "" {
		baseURL = "https://googleads.googleapis.com/v16"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GoogleAdsClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		Timeout:    timeout,
	}
}

func (c *GoogleAdsClient) Platform() models.Platform { return models.PlatformGoogleAds }

type gadsSearchReq struct {
	Query string `json:"query"`
}

// searchStream returns an array of response chunks
type gadsSearchResp []struct {
	Results []struct {
		Segments struct {
			Date string `json:"date"`
		} `json:"segments"`
		Metrics struct {
			CostMicros      string  `json:"costMicros"`
			Impressions     string  `json:"impressions"`
			Clicks          string  `json:"clicks"`
			Conversions     float64 `json:"conversions"`
			ConversionValue float64 `json:"conversionsValue"`
		} `json:"metrics"`
	} `json:"results"`
}

// FetchBatch pulls one spend record per day in the window. Credentials
// carry the customer ID as account_id and the developer token next to
// the OAuth access token.
func (c *GoogleAdsClient) FetchBatch(ctx context.Context, req *businessflow.FetchRequest) ([]businessflow.RawRecord, error) {
	platform := c.Platform().String()
	creds, err := parseCredentials(platform, req.Credentials)
	if err != nil {
		return nil, err
	}
	if creds.AccountID == "" {
		return nil, businessflow.NewTerminalFetchError(platform, fmt.Errorf("credentials missing account_id"))
	}

	query := fmt.Sprintf(
		"SELECT segments.date, metrics.cost_micros, metrics.impressions, metrics.clicks, metrics.conversions, metrics.conversions_value "+
			"FROM campaign WHERE segments.date BETWEEN '%s' AND '%s'",
		req.From.Format(time.DateOnly), req.To.Format(time.DateOnly),
	)

	endpoint := fmt.Sprintf("%s/customers/%s/googleAds:searchStream", c.BaseURL, creds.AccountID)
	headers := map[string]string{"developer-token": creds.DeveloperToken}

	var chunks gadsSearchResp
	if err := postJSON(ctx, c.HTTPClient, platform, endpoint, creds.AccessToken, headers, gadsSearchReq{Query: query}, &chunks); err != nil {
		return nil, err
	}

	var records []businessflow.RawRecord
	for _, chunk := range chunks {
		for _, result := range chunk.Results {
			date := result.Segments.Date
			records = append(records, businessflow.RawRecord{
				Kind:       businessflow.RecordKindSpend,
				NaturalKey: creds.AccountID + ":" + date,
				Fields: mustMarshal(map[string]any{
					"date":        date,
					"spend":       float64(parseCount(result.Metrics.CostMicros)) / 1e6,
					"impressions": parseCount(result.Metrics.Impressions),
					"clicks":      parseCount(result.Metrics.Clicks),
					"conversions": int64(result.Metrics.Conversions),
					"revenue":     result.Metrics.ConversionValue,
				}),
			})
		}
	}

	return records, nil
}
