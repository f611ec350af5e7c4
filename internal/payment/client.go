// Package payment is a client for the payment-link issuer. Links are
// single-use payment intents scoped to one quarantined message.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultCurrency = "usd"

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

func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// CreateLinkParams identifies the message and price a payment link covers.
type CreateLinkParams struct {
	MessageID   string `json:"message_id"`
	AccountID   string `json:"account_id"`
	AmountMinor int    `json:"amount_minor"`
	Currency    string `json:"currency"`
}

// CreateLink creates a single-use payment intent and returns its URL.
func (c *Client) CreateLink(ctx context.Context, params CreateLinkParams) (string, error) {
	if params.Currency == "" {
		params.Currency = defaultCurrency
	}

	body, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal payment link: %w", err)
	}

	u := c.baseURL + "/v1/payment-links"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("payment link request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	// One intent per message; the issuer dedupes on retries.
	req.Header.Set("Idempotency-Key", params.MessageID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create payment link: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("create payment link for message %s: status %d: %s", params.MessageID, resp.StatusCode, string(respBody))
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode payment link response: %w", err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("payment link response for message %s missing url", params.MessageID)
	}
	return result.URL, nil
}
