// Package services provides external platform API clients used by the ingestion flow
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	businessflow "github.com/arclabs/arc/business_flow"
)

// platformCredentials is the decrypted credential envelope stored on an
// account connection. Ads platforms carry an account identifier next to
// the token.
type platformCredentials struct {
	AccessToken    string `json:"access_token"`
	AccountID      string `json:"account_id,omitempty"`
	DeveloperToken string `json:"developer_token,omitempty"`
}

func parseCredentials(platform, raw string) (*platformCredentials, error) {
	var creds platformCredentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, businessflow.NewTerminalFetchError(platform, fmt.Errorf("malformed credentials: %w", err))
	}
	if creds.AccessToken == "" {
		return nil, businessflow.NewTerminalFetchError(platform, fmt.Errorf("credentials missing access_token"))
	}
	return &creds, nil
}

// getJSON performs one authenticated GET and decodes the body. Transport
// failures, 429 and 5xx responses come back retryable; other non-2xx
// statuses are terminal since retrying an expired token or a bad request
// cannot help.
func getJSON(ctx context.Context, client *http.Client, platform, rawURL, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return businessflow.NewTerminalFetchError(platform, err)
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return businessflow.NewRetryableFetchError(platform, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return businessflow.NewRetryableFetchError(platform, fmt.Errorf("upstream returned %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return businessflow.NewTerminalFetchError(platform, fmt.Errorf("upstream returned %d: %s", resp.StatusCode, string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return businessflow.NewTerminalFetchError(platform, fmt.Errorf("malformed upstream response: %w", err))
	}
	return nil
}

// postJSON performs one authenticated POST with a JSON body. Retryability
// classification matches getJSON.
func postJSON(ctx context.Context, client *http.Client, platform, rawURL, bearer string, headers map[string]string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return businessflow.NewTerminalFetchError(platform, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(raw))
	if err != nil {
		return businessflow.NewTerminalFetchError(platform, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return businessflow.NewRetryableFetchError(platform, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return businessflow.NewRetryableFetchError(platform, fmt.Errorf("upstream returned %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return businessflow.NewTerminalFetchError(platform, fmt.Errorf("upstream returned %d: %s", resp.StatusCode, string(b)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return businessflow.NewTerminalFetchError(platform, fmt.Errorf("malformed upstream response: %w", err))
	}
	return nil
}

func withQuery(base string, params url.Values) string {
	return base + "?" + params.Encode()
}

// mustMarshal encodes normalized record fields. The inputs are plain
// structs so a marshal failure is a programming error.
func mustMarshal(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
