// Package avatar warms the profile-picture cache for a sender so the
// mailbox UI can decorate the message without a blocking lookup.
package avatar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// Warm asks the avatar service to resolve and cache the sender's picture.
func (c *Client) Warm(ctx context.Context, email string) error {
	u := fmt.Sprintf("%s/v1/avatar?email=%s", c.baseURL, url.QueryEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("avatar request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("warm avatar for %s: %w", email, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("warm avatar for %s: status %d", email, resp.StatusCode)
	}
	return nil
}
