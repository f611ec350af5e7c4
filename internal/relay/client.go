// Package relay is a client for the upstream mail relay's REST API, used to
// backfill message content when a webhook arrives without a body.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Enabled reports whether a relay API endpoint is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// EmailContent is the body material returned by a fetch-by-id lookup.
type EmailContent struct {
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// FetchEmail retrieves the stored content for a provider message id.
func (c *Client) FetchEmail(ctx context.Context, providerMessageID string) (*EmailContent, error) {
	u := fmt.Sprintf("%s/v1/emails/%s", c.baseURL, url.PathEscape(providerMessageID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch email request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch email %s: %w", providerMessageID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch email %s: status %d: %s", providerMessageID, resp.StatusCode, string(body))
	}

	var content EmailContent
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return nil, fmt.Errorf("decode email %s: %w", providerMessageID, err)
	}
	return &content, nil
}
