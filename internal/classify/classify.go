// Package classify calls an OpenAI-compatible completion endpoint to assign
// messages one of a fixed set of categories. Failures are always non-fatal.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zenbox/zenbox/internal/model"
)

// requestTimeout bounds the classifier call so slow providers cannot hold
// the ingestion pipeline open.
const requestTimeout = 3 * time.Second

const excerptLimit = 2000

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Classify returns one of model.MessageCategories for the given subject and
// body excerpt, or "" when the provider answers outside the vocabulary.
func (c *Client) Classify(ctx context.Context, subject, bodyExcerpt string) (string, error) {
	if len(bodyExcerpt) > excerptLimit {
		bodyExcerpt = bodyExcerpt[:excerptLimit]
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"Classify this email into exactly one category: %s.\nReply with the category word only.\n\nSubject: %s\n\n%s",
		strings.Join(model.MessageCategories, ", "), subject, bodyExcerpt,
	)

	body, err := json.Marshal(chatRequest{
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   8,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("marshal classify request: %w", err)
	}

	u := c.baseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("classify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("classify request: status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode classify response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}

	category := strings.ToLower(strings.TrimSpace(parsed.Choices[0].Message.Content))
	category = strings.Trim(category, ".\"'")
	if !model.ValidCategory(category) {
		// Out-of-vocabulary answers are discarded, not errors.
		return "", nil
	}
	return category, nil
}
