// Package notify sends outbound transactional mail through the delivery
// provider, currently only the payment-request notice to unknown senders.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	fromAddress string
}

func NewClient(baseURL, apiKey, fromAddress string) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		baseURL:     baseURL,
		apiKey:      apiKey,
		fromAddress: fromAddress,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// SendPaymentRequest notifies a sender that their message is held and can be
// released by paying the recipient's stamp price.
func (c *Client) SendPaymentRequest(ctx context.Context, senderAddress, recipientEmail, paymentURL string) error {
	payload := map[string]any{
		"from":     c.fromAddress,
		"to":       senderAddress,
		"template": "payment-request",
		"data": map[string]string{
			"recipient":   recipientEmail,
			"payment_url": paymentURL,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payment request notice: %w", err)
	}

	u := c.baseURL + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("payment request notice request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send payment request notice: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("send payment request notice to %s: status %d: %s", senderAddress, resp.StatusCode, string(respBody))
	}
	return nil
}
